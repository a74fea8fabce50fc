package domain

import (
	"strings"
	"time"
)

// AgentRole enumerates personnel roles.
type AgentRole string

const (
	RoleWorker         AgentRole = "WORKER"
	RoleDepartmentHead AgentRole = "DEPARTMENT_HEAD"
	RoleDirector       AgentRole = "DIRECTOR"
)

// AgentRoles lists every known role in display order.
var AgentRoles = []AgentRole{RoleWorker, RoleDepartmentHead, RoleDirector}

// ParseAgentRole resolves a role name, case-insensitively.
func ParseAgentRole(s string) (AgentRole, bool) {
	role := AgentRole(strings.ToUpper(strings.TrimSpace(s)))
	return role, role.Valid()
}

// Valid reports whether r is a known role.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleWorker, RoleDepartmentHead, RoleDirector:
		return true
	}
	return false
}

// Supervisory reports whether the role may receive discretionary payments.
func (r AgentRole) Supervisory() bool {
	return r == RoleDepartmentHead || r == RoleDirector
}

// Agent models a member of personnel.
type Agent struct {
	ID           string
	LastName     string
	FirstName    string
	Email        string
	Credential   string
	Role         AgentRole
	DepartmentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InDepartment reports whether the agent is affiliated with departmentID.
func (a *Agent) InDepartment(departmentID string) bool {
	return a.DepartmentID != nil && *a.DepartmentID == departmentID
}

// FullName returns "First Last".
func (a *Agent) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
