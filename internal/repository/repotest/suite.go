// Package repotest holds the behavior every record store backend must share.
package repotest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/repository"
)

// StoreSuite runs the record store contract against the backend returned by Open.
// Open is called before every test and must return an empty store.
type StoreSuite struct {
	suite.Suite
	Open func() repository.Store

	ctx   context.Context
	store repository.Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.Open()
}

func (s *StoreSuite) newAgent(email string, role domain.AgentRole, dept *string) *domain.Agent {
	agent := &domain.Agent{
		LastName:     "Doe",
		FirstName:    "Jane",
		Email:        email,
		Credential:   "secret",
		Role:         role,
		DepartmentID: dept,
	}
	s.Require().NoError(s.store.Agents.Create(s.ctx, agent))
	return agent
}

func (s *StoreSuite) newDepartment(name string) *domain.Department {
	dept := &domain.Department{Name: name}
	s.Require().NoError(s.store.Departments.Create(s.ctx, dept))
	return dept
}

func (s *StoreSuite) newPayment(agentID string, t domain.PaymentType, amount float64, date time.Time) *domain.Payment {
	p := &domain.Payment{Type: t, Amount: amount, Reason: "test", Date: date, AgentID: agentID}
	s.Require().NoError(s.store.Payments.Create(s.ctx, p))
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func agentID(a domain.Agent) string { return a.ID }

func departmentID(d domain.Department) string { return d.ID }

func paymentID(p domain.Payment) string { return p.ID }

func (s *StoreSuite) TestAgentCreateAssignsIdentity() {
	agent := s.newAgent("jane@example.com", domain.RoleWorker, nil)
	s.NotEmpty(agent.ID)
	s.False(agent.CreatedAt.IsZero())

	got, err := s.store.Agents.GetByID(s.ctx, agent.ID)
	s.Require().NoError(err)
	s.Equal("jane@example.com", got.Email)
	s.Equal("secret", got.Credential)
	s.Equal(domain.RoleWorker, got.Role)
	s.Nil(got.DepartmentID)
}

func (s *StoreSuite) TestMissingRecordsAreNotFound() {
	missing := uuid.NewString()

	_, err := s.store.Agents.GetByID(s.ctx, missing)
	s.ErrorIs(err, repository.ErrNotFound)
	_, err = s.store.Agents.GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.store.Agents.Delete(s.ctx, missing), repository.ErrNotFound)

	_, err = s.store.Departments.GetByID(s.ctx, missing)
	s.ErrorIs(err, repository.ErrNotFound)
	_, err = s.store.Departments.GetByName(s.ctx, "Nowhere")
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.store.Departments.Update(s.ctx, &domain.Department{ID: missing, Name: "x"}), repository.ErrNotFound)

	_, err = s.store.Payments.GetByID(s.ctx, missing)
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.store.Payments.Delete(s.ctx, missing), repository.ErrNotFound)
}

func (s *StoreSuite) TestMalformedIDsAreNotFound() {
	const bad = "not-a-uuid"
	agent := s.newAgent("jane@example.com", domain.RoleWorker, nil)
	s.newPayment(agent.ID, domain.PaymentSalary, 100, day(2024, time.May, 2))

	_, err := s.store.Agents.GetByID(s.ctx, bad)
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.store.Agents.Update(s.ctx, &domain.Agent{ID: bad, Email: "x@example.com", Role: domain.RoleWorker}), repository.ErrNotFound)
	s.ErrorIs(s.store.Agents.Delete(s.ctx, bad), repository.ErrNotFound)
	members, err := s.store.Agents.ListByDepartment(s.ctx, bad)
	s.NoError(err)
	s.Empty(members)

	_, err = s.store.Departments.GetByID(s.ctx, bad)
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.store.Departments.Update(s.ctx, &domain.Department{ID: bad, Name: "x"}), repository.ErrNotFound)
	s.ErrorIs(s.store.Departments.Delete(s.ctx, bad), repository.ErrNotFound)
	headed, err := s.store.Departments.ListByResponsible(s.ctx, bad)
	s.NoError(err)
	s.Empty(headed)

	_, err = s.store.Payments.GetByID(s.ctx, bad)
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.store.Payments.Update(s.ctx, &domain.Payment{ID: bad, Type: domain.PaymentBonus}), repository.ErrNotFound)
	s.ErrorIs(s.store.Payments.Delete(s.ctx, bad), repository.ErrNotFound)
	paid, err := s.store.Payments.ListByAgent(s.ctx, bad)
	s.NoError(err)
	s.Empty(paid)
}

func (s *StoreSuite) TestAgentEmailIsUnique() {
	s.newAgent("jane@example.com", domain.RoleWorker, nil)
	dup := &domain.Agent{LastName: "Roe", FirstName: "Jim", Email: "jane@example.com", Credential: "pass", Role: domain.RoleWorker}
	s.Error(s.store.Agents.Create(s.ctx, dup))
}

func (s *StoreSuite) TestDepartmentNameIsUnique() {
	s.newDepartment("Finance")
	s.Error(s.store.Departments.Create(s.ctx, &domain.Department{Name: "Finance"}))
}

func (s *StoreSuite) TestAgentUpdateReplacesFields() {
	dept := s.newDepartment("Finance")
	agent := s.newAgent("jane@example.com", domain.RoleWorker, nil)

	agent.LastName = "Smith"
	agent.Role = domain.RoleDepartmentHead
	agent.DepartmentID = &dept.ID
	s.Require().NoError(s.store.Agents.Update(s.ctx, agent))

	got, err := s.store.Agents.GetByID(s.ctx, agent.ID)
	s.Require().NoError(err)
	s.Equal("Smith", got.LastName)
	s.Equal(domain.RoleDepartmentHead, got.Role)
	s.Require().NotNil(got.DepartmentID)
	s.Equal(dept.ID, *got.DepartmentID)
}

func (s *StoreSuite) TestAgentScansKeepCreationOrder() {
	sales := s.newDepartment("Sales")
	a := s.newAgent("a@example.com", domain.RoleWorker, &sales.ID)
	b := s.newAgent("b@example.com", domain.RoleDirector, nil)
	c := s.newAgent("c@example.com", domain.RoleWorker, &sales.ID)

	all, err := s.store.Agents.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{a.ID, b.ID, c.ID}, ids(all, agentID))

	members, err := s.store.Agents.ListByDepartment(s.ctx, sales.ID)
	s.Require().NoError(err)
	s.Equal([]string{a.ID, c.ID}, ids(members, agentID))

	workers, err := s.store.Agents.ListByRole(s.ctx, domain.RoleWorker)
	s.Require().NoError(err)
	s.Equal([]string{a.ID, c.ID}, ids(workers, agentID))

	byEmail, err := s.store.Agents.GetByEmail(s.ctx, "b@example.com")
	s.Require().NoError(err)
	s.Equal(b.ID, byEmail.ID)
}

func (s *StoreSuite) TestDepartmentResponsibleRoundTrip() {
	head := s.newAgent("head@example.com", domain.RoleDepartmentHead, nil)
	dept := s.newDepartment("Finance")
	other := s.newDepartment("Legal")

	dept.ResponsibleID = &head.ID
	s.Require().NoError(s.store.Departments.Update(s.ctx, dept))

	got, err := s.store.Departments.GetByName(s.ctx, "Finance")
	s.Require().NoError(err)
	s.Require().NotNil(got.ResponsibleID)
	s.Equal(head.ID, *got.ResponsibleID)

	headed, err := s.store.Departments.ListByResponsible(s.ctx, head.ID)
	s.Require().NoError(err)
	s.Equal([]string{dept.ID}, ids(headed, departmentID))

	all, err := s.store.Departments.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{dept.ID, other.ID}, ids(all, departmentID))
}

func (s *StoreSuite) TestReferencedRecordsCannotBeDeleted() {
	dept := s.newDepartment("Finance")
	agent := s.newAgent("jane@example.com", domain.RoleDepartmentHead, &dept.ID)
	s.Error(s.store.Departments.Delete(s.ctx, dept.ID))

	dept.ResponsibleID = &agent.ID
	s.Require().NoError(s.store.Departments.Update(s.ctx, dept))
	agent.DepartmentID = nil
	s.Require().NoError(s.store.Agents.Update(s.ctx, agent))
	s.Error(s.store.Agents.Delete(s.ctx, agent.ID))

	dept.ResponsibleID = nil
	s.Require().NoError(s.store.Departments.Update(s.ctx, dept))
	s.NoError(s.store.Agents.Delete(s.ctx, agent.ID))
	s.NoError(s.store.Departments.Delete(s.ctx, dept.ID))
}

func (s *StoreSuite) TestPaymentsOutliveTheirAgent() {
	agent := s.newAgent("jane@example.com", domain.RoleWorker, nil)
	p := s.newPayment(agent.ID, domain.PaymentSalary, 1500, day(2024, time.March, 1))

	s.Require().NoError(s.store.Agents.Delete(s.ctx, agent.ID))

	got, err := s.store.Payments.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(agent.ID, got.AgentID)
	s.Nil(got.Agent)
}

func (s *StoreSuite) TestPaymentUpdateKeepsOwner() {
	owner := s.newAgent("owner@example.com", domain.RoleDirector, nil)
	other := s.newAgent("other@example.com", domain.RoleWorker, nil)
	p := s.newPayment(owner.ID, domain.PaymentSalary, 1000, day(2024, time.January, 15))

	p.Type = domain.PaymentBonus
	p.Amount = 250.5
	p.ConditionValidated = true
	p.Date = day(2024, time.February, 2)
	p.AgentID = other.ID
	s.Require().NoError(s.store.Payments.Update(s.ctx, p))

	got, err := s.store.Payments.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(owner.ID, got.AgentID)
	s.Equal(domain.PaymentBonus, got.Type)
	s.InDelta(250.5, got.Amount, 0.001)
	s.True(got.ConditionValidated)
	s.True(day(2024, time.February, 2).Equal(got.Date))
}

func (s *StoreSuite) TestPaymentScans() {
	a := s.newAgent("a@example.com", domain.RoleDirector, nil)
	b := s.newAgent("b@example.com", domain.RoleWorker, nil)
	p1 := s.newPayment(a.ID, domain.PaymentSalary, 1000, day(2024, time.January, 31))
	p2 := s.newPayment(b.ID, domain.PaymentSalary, 900, day(2024, time.February, 1))
	p3 := s.newPayment(a.ID, domain.PaymentBonus, 300, day(2024, time.February, 29))
	p4 := s.newPayment(a.ID, domain.PaymentIndemnity, 50, day(2024, time.March, 1))

	all, err := s.store.Payments.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{p1.ID, p2.ID, p3.ID, p4.ID}, ids(all, paymentID))

	byAgent, err := s.store.Payments.ListByAgent(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal([]string{p1.ID, p3.ID, p4.ID}, ids(byAgent, paymentID))

	salaries, err := s.store.Payments.ListByType(s.ctx, domain.PaymentSalary)
	s.Require().NoError(err)
	s.Equal([]string{p1.ID, p2.ID}, ids(salaries, paymentID))

	feb, err := s.store.Payments.ListByDateRange(s.ctx, day(2024, time.February, 1), day(2024, time.February, 29))
	s.Require().NoError(err)
	s.Equal([]string{p2.ID, p3.ID}, ids(feb, paymentID))

	single, err := s.store.Payments.ListByDateRange(s.ctx, day(2024, time.March, 1), day(2024, time.March, 1))
	s.Require().NoError(err)
	s.Equal([]string{p4.ID}, ids(single, paymentID))

	inverted, err := s.store.Payments.ListByDateRange(s.ctx, day(2024, time.March, 1), day(2024, time.January, 1))
	s.Require().NoError(err)
	s.Empty(inverted)

	s.Require().NoError(s.store.Payments.Delete(s.ctx, p2.ID))
	all, err = s.store.Payments.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{p1.ID, p3.ID, p4.ID}, ids(all, paymentID))
}
