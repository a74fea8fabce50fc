package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/validation"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

const defaultFanoutConcurrency = 4

// DirectoryService keeps agents and departments consistent with each other.
//
// The affiliation lives on the agent; department membership is always derived
// by query. The only second pointer is Department.ResponsibleID, and every
// mutator that sets it also moves the agent into that department. Multi-step
// writes always detach before they delete or reassign, so an interrupted call
// leaves unaffiliated agents or headless departments, never a dangling pointer.
type DirectoryService struct {
	lookups
	publisher
	fanout int
}

// AgentInput describes agent creation and update payloads.
type AgentInput struct {
	LastName     string
	FirstName    string
	Email        string
	Credential   string
	Role         domain.AgentRole
	DepartmentID *string
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps Dependencies) *DirectoryService {
	fanout := deps.FanoutConcurrency
	if fanout <= 0 {
		fanout = defaultFanoutConcurrency
	}
	return &DirectoryService{
		lookups: lookups{
			agents:      deps.AgentRepo,
			departments: deps.DepartmentRepo,
			payments:    deps.PaymentRepo,
		},
		publisher: newPublisher(deps),
		fanout:    fanout,
	}
}

// CreateAgent validates and stores a new agent.
func (s *DirectoryService) CreateAgent(ctx context.Context, input AgentInput) (*domain.Agent, error) {
	input = normalizeAgentInput(input)
	if err := validateAgentInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, input.Email, ""); err != nil {
		return nil, err
	}
	if input.DepartmentID != nil {
		if _, err := s.department(ctx, *input.DepartmentID); err != nil {
			return nil, err
		}
	}

	agent := &domain.Agent{
		LastName:     input.LastName,
		FirstName:    input.FirstName,
		Email:        input.Email,
		Credential:   input.Credential,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	s.publishEvent(ctx, "agent", "create", events.Event{Type: events.EventAgentCreated, EntityID: agent.ID})
	return agent, nil
}

// UpdateAgent replaces an agent's fields. A nil DepartmentID clears the affiliation.
func (s *DirectoryService) UpdateAgent(ctx context.Context, id string, input AgentInput) (*domain.Agent, error) {
	agent, err := s.agent(ctx, id)
	if err != nil {
		return nil, err
	}
	input = normalizeAgentInput(input)
	if err := validateAgentInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, input.Email, id); err != nil {
		return nil, err
	}
	if input.DepartmentID != nil {
		if _, err := s.department(ctx, *input.DepartmentID); err != nil {
			return nil, err
		}
	}

	oldDept := agent.DepartmentID
	if err := s.releaseHeadships(ctx, id, input.DepartmentID); err != nil {
		return nil, err
	}

	agent.LastName = input.LastName
	agent.FirstName = input.FirstName
	agent.Email = input.Email
	agent.Credential = input.Credential
	agent.Role = input.Role
	agent.DepartmentID = input.DepartmentID
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("update agent %s: %w", id, err)
	}

	s.publishEvent(ctx, "agent", "update", events.Event{Type: events.EventAgentUpdated, EntityID: id})
	if !sameRef(oldDept, agent.DepartmentID) {
		s.publishAffiliation(ctx, id, oldDept, agent.DepartmentID)
	}
	return agent, nil
}

// DeleteAgent removes an agent. Departments it headed lose their responsible
// first; its payments are kept.
func (s *DirectoryService) DeleteAgent(ctx context.Context, id string) error {
	if _, err := s.agent(ctx, id); err != nil {
		return err
	}
	if err := s.releaseHeadships(ctx, id, nil); err != nil {
		return err
	}
	if err := s.agents.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewAgentNotFound(id)
		}
		return fmt.Errorf("delete agent %s: %w", id, err)
	}
	s.publishEvent(ctx, "agent", "delete", events.Event{Type: events.EventAgentDeleted, EntityID: id})
	return nil
}

// GetAgent returns one agent.
func (s *DirectoryService) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	return s.agent(ctx, id)
}

// ListAgents returns every agent in creation order.
func (s *DirectoryService) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// ListAgentsByRole returns the agents holding role.
func (s *DirectoryService) ListAgentsByRole(ctx context.Context, role domain.AgentRole) ([]domain.Agent, error) {
	if !role.Valid() {
		return nil, apperrors.NewInvalidInput("role", fmt.Sprintf("unknown role %q", role))
	}
	agents, err := s.agents.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list agents by role: %w", err)
	}
	return agents, nil
}

// CreateDepartment stores a department. When a responsible agent is given it
// is moved into the new department before the head pointer is set.
func (s *DirectoryService) CreateDepartment(ctx context.Context, name string, responsibleID *string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if err := validation.DepartmentName(name); err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, name, ""); err != nil {
		return nil, err
	}
	var responsible *domain.Agent
	if responsibleID != nil {
		agent, err := s.agent(ctx, *responsibleID)
		if err != nil {
			return nil, err
		}
		responsible = agent
	}

	dept := &domain.Department{Name: name}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}
	s.publishEvent(ctx, "department", "create", events.Event{Type: events.EventDepartmentCreated, EntityID: dept.ID})

	if responsible == nil {
		return dept, nil
	}
	if err := s.writeDepartment(ctx, dept, responsible); err != nil {
		return nil, err
	}
	return dept, nil
}

// UpdateDepartment renames a department and sets its responsible agent. A
// responsible agent from elsewhere is moved into the department before the
// head pointer is written. A nil responsibleID clears the head; the former
// head stays a member.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, id, name string, responsibleID *string) (*domain.Department, error) {
	dept, err := s.department(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validation.DepartmentName(name); err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, name, id); err != nil {
		return nil, err
	}
	var responsible *domain.Agent
	if responsibleID != nil {
		if responsible, err = s.agent(ctx, *responsibleID); err != nil {
			return nil, err
		}
	}

	dept.Name = name
	if err := s.writeDepartment(ctx, dept, responsible); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "department", "update", events.Event{Type: events.EventDepartmentUpdated, EntityID: id})
	return dept, nil
}

// DeleteDepartment detaches every member agent, then removes the department.
func (s *DirectoryService) DeleteDepartment(ctx context.Context, id string) error {
	dept, err := s.department(ctx, id)
	if err != nil {
		return err
	}
	if dept.ResponsibleID != nil {
		if err := s.clearResponsible(ctx, dept); err != nil {
			return err
		}
	}
	members, err := s.agents.ListByDepartment(ctx, id)
	if err != nil {
		return fmt.Errorf("list members of %s: %w", id, err)
	}

	detached := make([]string, 0, len(members))
	for i := range members {
		member := &members[i]
		member.DepartmentID = nil
		if err := s.agents.Update(ctx, member); err != nil {
			return fmt.Errorf("detach agent %s: %w", member.ID, err)
		}
		detached = append(detached, member.ID)
		s.publishAffiliation(ctx, member.ID, ptr(id), nil)
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewDepartmentNotFound(id)
		}
		return fmt.Errorf("delete department %s: %w", id, err)
	}
	s.publishEvent(ctx, "department", "delete", events.Event{
		Type:     events.EventDepartmentDeleted,
		EntityID: id,
		Payload:  events.DepartmentDeletedPayload{DetachedAgentIDs: detached},
	})
	return nil
}

// GetDepartment returns one department.
func (s *DirectoryService) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	return s.department(ctx, id)
}

// ListDepartments returns every department in creation order.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

// AssignResponsible makes agentID the head of departmentID, affiliating the
// agent with the department when needed.
func (s *DirectoryService) AssignResponsible(ctx context.Context, departmentID, agentID string) (*domain.Department, error) {
	dept, err := s.department(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return s.UpdateDepartment(ctx, departmentID, dept.Name, &agentID)
}

// AddAgentToDepartment affiliates an agent with a department. Headships the
// agent held elsewhere are released first.
func (s *DirectoryService) AddAgentToDepartment(ctx context.Context, departmentID, agentID string) (*domain.Agent, error) {
	if _, err := s.department(ctx, departmentID); err != nil {
		return nil, err
	}
	agent, err := s.agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.InDepartment(departmentID) {
		return agent, nil
	}
	if err := s.moveAgent(ctx, agent, ptr(departmentID)); err != nil {
		return nil, err
	}
	return agent, nil
}

// RemoveAgentFromDepartment clears the agent's affiliation with departmentID.
// It is a no-op when the agent is not affiliated with that department.
func (s *DirectoryService) RemoveAgentFromDepartment(ctx context.Context, departmentID, agentID string) (*domain.Agent, error) {
	if _, err := s.department(ctx, departmentID); err != nil {
		return nil, err
	}
	agent, err := s.agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.InDepartment(departmentID) {
		return agent, nil
	}
	if err := s.moveAgent(ctx, agent, nil); err != nil {
		return nil, err
	}
	return agent, nil
}

// GetAgents returns the members of a department.
func (s *DirectoryService) GetAgents(ctx context.Context, departmentID string) ([]domain.Agent, error) {
	if _, err := s.department(ctx, departmentID); err != nil {
		return nil, err
	}
	members, err := s.agents.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", departmentID, err)
	}
	return members, nil
}

// GetPaymentsForDepartment returns the payments of every member agent, grouped
// by member in membership order. Reads are independent; a concurrent write may
// or may not be observed.
func (s *DirectoryService) GetPaymentsForDepartment(ctx context.Context, departmentID string) ([]domain.Payment, error) {
	members, err := s.GetAgents(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return memberPayments(ctx, s.payments, members, s.fanout)
}

// GetPaymentsForAgent returns an agent's payments.
func (s *DirectoryService) GetPaymentsForAgent(ctx context.Context, agentID string) ([]domain.Payment, error) {
	if _, err := s.agent(ctx, agentID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list payments of %s: %w", agentID, err)
	}
	return payments, nil
}

// TotalPaymentsForAgent sums an agent's payments.
func (s *DirectoryService) TotalPaymentsForAgent(ctx context.Context, agentID string) (float64, error) {
	payments, err := s.GetPaymentsForAgent(ctx, agentID)
	if err != nil {
		return 0, err
	}
	return sumAmounts(payments), nil
}

// writeDepartment persists dept headed by responsible (nil for none), moving
// the responsible agent into dept first when it belongs elsewhere.
func (s *DirectoryService) writeDepartment(ctx context.Context, dept *domain.Department, responsible *domain.Agent) error {
	var newHead *string
	if responsible != nil {
		if !responsible.InDepartment(dept.ID) {
			if err := s.moveAgent(ctx, responsible, ptr(dept.ID)); err != nil {
				return err
			}
		}
		newHead = ptr(responsible.ID)
	}

	old := dept.ResponsibleID
	dept.ResponsibleID = newHead
	if err := s.departments.Update(ctx, dept); err != nil {
		return fmt.Errorf("update department %s: %w", dept.ID, err)
	}
	if !sameRef(old, newHead) {
		s.publishEvent(ctx, "department", "responsible", events.Event{
			Type:     events.EventDepartmentResponsibleChanged,
			EntityID: dept.ID,
			Payload:  events.ResponsibleChangedPayload{OldResponsibleID: old, NewResponsibleID: newHead},
		})
	}
	return nil
}

// clearResponsible removes the head of dept.
func (s *DirectoryService) clearResponsible(ctx context.Context, dept *domain.Department) error {
	return s.writeDepartment(ctx, dept, nil)
}

// moveAgent changes an agent's affiliation after releasing any headship that
// would otherwise point at a department the agent no longer belongs to.
func (s *DirectoryService) moveAgent(ctx context.Context, agent *domain.Agent, departmentID *string) error {
	if err := s.releaseHeadships(ctx, agent.ID, departmentID); err != nil {
		return err
	}
	old := agent.DepartmentID
	agent.DepartmentID = departmentID
	if err := s.agents.Update(ctx, agent); err != nil {
		return fmt.Errorf("update affiliation of %s: %w", agent.ID, err)
	}
	s.publishAffiliation(ctx, agent.ID, old, departmentID)
	return nil
}

// releaseHeadships clears the responsible pointer of every department headed
// by agentID, except keep.
func (s *DirectoryService) releaseHeadships(ctx context.Context, agentID string, keep *string) error {
	headed, err := s.departments.ListByResponsible(ctx, agentID)
	if err != nil {
		return fmt.Errorf("list departments headed by %s: %w", agentID, err)
	}
	for i := range headed {
		dept := &headed[i]
		if keep != nil && dept.ID == *keep {
			continue
		}
		if err := s.clearResponsible(ctx, dept); err != nil {
			return err
		}
	}
	return nil
}

func (s *DirectoryService) publishAffiliation(ctx context.Context, agentID string, oldDept, newDept *string) {
	s.publishEvent(ctx, "agent", "affiliation", events.Event{
		Type:     events.EventAgentAffiliationChanged,
		EntityID: agentID,
		Payload:  events.AffiliationChangedPayload{OldDepartmentID: oldDept, NewDepartmentID: newDept},
	})
}

func (s *DirectoryService) ensureEmailAvailable(ctx context.Context, email, currentID string) error {
	existing, err := s.agents.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if existing.ID != currentID {
		return apperrors.NewDuplicateEmail(email)
	}
	return nil
}

func (s *DirectoryService) ensureNameAvailable(ctx context.Context, name, currentID string) error {
	existing, err := s.departments.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check department name: %w", err)
	}
	if existing.ID != currentID {
		return apperrors.NewDuplicateName(name)
	}
	return nil
}

// memberPayments reads each member's payments with bounded concurrency and
// concatenates them in member order.
func memberPayments(ctx context.Context, repo repository.PaymentRepository, members []domain.Agent, limit int) ([]domain.Payment, error) {
	perMember := make([][]domain.Payment, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range members {
		g.Go(func() error {
			payments, err := repo.ListByAgent(gctx, members[i].ID)
			if err != nil {
				return fmt.Errorf("list payments of %s: %w", members[i].ID, err)
			}
			perMember[i] = payments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Payment
	for _, payments := range perMember {
		all = append(all, payments...)
	}
	if all == nil {
		all = []domain.Payment{}
	}
	return all, nil
}

func normalizeAgentInput(in AgentInput) AgentInput {
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

func validateAgentInput(in AgentInput) error {
	if err := validation.Agent(validation.AgentInput{
		LastName:   in.LastName,
		FirstName:  in.FirstName,
		Email:      in.Email,
		Credential: in.Credential,
	}); err != nil {
		return err
	}
	if !in.Role.Valid() {
		return apperrors.NewInvalidInput("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}
