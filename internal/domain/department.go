package domain

import "time"

// Department represents an organizational unit. Membership is not stored here;
// it is derived from the agents whose DepartmentID points at the department.
type Department struct {
	ID            string
	Name          string
	ResponsibleID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasResponsible reports whether agentID heads the department.
func (d *Department) HasResponsible(agentID string) bool {
	return d.ResponsibleID != nil && *d.ResponsibleID == agentID
}
