// Package memory is an in-process record store. It keeps records in creation
// order and enforces the same uniqueness and reference constraints as the SQL schema.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/repository"
)

// Store holds agents, departments and payments behind one lock.
type Store struct {
	mu          sync.RWMutex
	agents      []*domain.Agent
	departments []*domain.Department
	payments    []*domain.Payment

	Now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{Now: time.Now}
}

// Repositories exposes the store through the repository contracts.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Agents:      &agentRepository{s},
		Departments: &departmentRepository{s},
		Payments:    &paymentRepository{s},
	}
}

func (s *Store) agentIndex(id string) int {
	for i, a := range s.agents {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) departmentIndex(id string) int {
	for i, d := range s.departments {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) paymentIndex(id string) int {
	for i, p := range s.payments {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneAgent(a *domain.Agent) domain.Agent {
	c := *a
	c.DepartmentID = cloneString(a.DepartmentID)
	return c
}

func cloneDepartment(d *domain.Department) domain.Department {
	c := *d
	c.ResponsibleID = cloneString(d.ResponsibleID)
	return c
}

func clonePayment(p *domain.Payment) domain.Payment {
	c := *p
	c.Agent = nil
	return c
}

type agentRepository struct{ s *Store }

func (r *agentRepository) Create(_ context.Context, agent *domain.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkAgent(agent, ""); err != nil {
		return err
	}
	now := r.s.Now()
	agent.ID = uuid.NewString()
	agent.CreatedAt, agent.UpdatedAt = now, now
	stored := cloneAgent(agent)
	r.s.agents = append(r.s.agents, &stored)
	return nil
}

func (r *agentRepository) Update(_ context.Context, agent *domain.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.agentIndex(agent.ID)
	if idx < 0 {
		return repository.ErrNotFound
	}
	if err := r.checkAgent(agent, agent.ID); err != nil {
		return err
	}
	agent.CreatedAt = r.s.agents[idx].CreatedAt
	agent.UpdatedAt = r.s.Now()
	stored := cloneAgent(agent)
	r.s.agents[idx] = &stored
	return nil
}

// checkAgent mirrors the unique email and department foreign key. Caller holds the lock.
func (r *agentRepository) checkAgent(agent *domain.Agent, selfID string) error {
	for _, a := range r.s.agents {
		if a.Email == agent.Email && a.ID != selfID {
			return repository.ErrConflict
		}
	}
	if agent.DepartmentID != nil && r.s.departmentIndex(*agent.DepartmentID) < 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *agentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.agentIndex(id)
	if idx < 0 {
		return repository.ErrNotFound
	}
	for _, d := range r.s.departments {
		if d.HasResponsible(id) {
			return repository.ErrConflict
		}
	}
	r.s.agents = append(r.s.agents[:idx], r.s.agents[idx+1:]...)
	return nil
}

func (r *agentRepository) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := r.s.agentIndex(id)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	a := cloneAgent(r.s.agents[idx])
	return &a, nil
}

func (r *agentRepository) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.agents {
		if a.Email == email {
			c := cloneAgent(a)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *agentRepository) List(_ context.Context) ([]domain.Agent, error) {
	return r.filter(func(*domain.Agent) bool { return true }), nil
}

func (r *agentRepository) ListByDepartment(_ context.Context, departmentID string) ([]domain.Agent, error) {
	return r.filter(func(a *domain.Agent) bool { return a.InDepartment(departmentID) }), nil
}

func (r *agentRepository) ListByRole(_ context.Context, role domain.AgentRole) ([]domain.Agent, error) {
	return r.filter(func(a *domain.Agent) bool { return a.Role == role }), nil
}

func (r *agentRepository) filter(keep func(*domain.Agent) bool) []domain.Agent {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Agent
	for _, a := range r.s.agents {
		if keep(a) {
			out = append(out, cloneAgent(a))
		}
	}
	return out
}

type departmentRepository struct{ s *Store }

func (r *departmentRepository) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkDepartment(dept, ""); err != nil {
		return err
	}
	now := r.s.Now()
	dept.ID = uuid.NewString()
	dept.CreatedAt, dept.UpdatedAt = now, now
	stored := cloneDepartment(dept)
	r.s.departments = append(r.s.departments, &stored)
	return nil
}

func (r *departmentRepository) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.departmentIndex(dept.ID)
	if idx < 0 {
		return repository.ErrNotFound
	}
	if err := r.checkDepartment(dept, dept.ID); err != nil {
		return err
	}
	dept.CreatedAt = r.s.departments[idx].CreatedAt
	dept.UpdatedAt = r.s.Now()
	stored := cloneDepartment(dept)
	r.s.departments[idx] = &stored
	return nil
}

func (r *departmentRepository) checkDepartment(dept *domain.Department, selfID string) error {
	for _, d := range r.s.departments {
		if d.Name == dept.Name && d.ID != selfID {
			return repository.ErrConflict
		}
	}
	if dept.ResponsibleID != nil && r.s.agentIndex(*dept.ResponsibleID) < 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *departmentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.departmentIndex(id)
	if idx < 0 {
		return repository.ErrNotFound
	}
	for _, a := range r.s.agents {
		if a.InDepartment(id) {
			return repository.ErrConflict
		}
	}
	r.s.departments = append(r.s.departments[:idx], r.s.departments[idx+1:]...)
	return nil
}

func (r *departmentRepository) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := r.s.departmentIndex(id)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	d := cloneDepartment(r.s.departments[idx])
	return &d, nil
}

func (r *departmentRepository) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.departments {
		if d.Name == name {
			c := cloneDepartment(d)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *departmentRepository) List(_ context.Context) ([]domain.Department, error) {
	return r.filter(func(*domain.Department) bool { return true }), nil
}

func (r *departmentRepository) ListByResponsible(_ context.Context, agentID string) ([]domain.Department, error) {
	return r.filter(func(d *domain.Department) bool { return d.HasResponsible(agentID) }), nil
}

func (r *departmentRepository) filter(keep func(*domain.Department) bool) []domain.Department {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Department
	for _, d := range r.s.departments {
		if keep(d) {
			out = append(out, cloneDepartment(d))
		}
	}
	return out
}

type paymentRepository struct{ s *Store }

func (r *paymentRepository) Create(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payment.ID = uuid.NewString()
	payment.CreatedAt = r.s.Now()
	stored := clonePayment(payment)
	r.s.payments = append(r.s.payments, &stored)
	return nil
}

func (r *paymentRepository) Update(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.paymentIndex(payment.ID)
	if idx < 0 {
		return repository.ErrNotFound
	}
	prev := r.s.payments[idx]
	stored := clonePayment(payment)
	stored.AgentID = prev.AgentID
	stored.CreatedAt = prev.CreatedAt
	r.s.payments[idx] = &stored
	return nil
}

func (r *paymentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.paymentIndex(id)
	if idx < 0 {
		return repository.ErrNotFound
	}
	r.s.payments = append(r.s.payments[:idx], r.s.payments[idx+1:]...)
	return nil
}

func (r *paymentRepository) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := r.s.paymentIndex(id)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	p := clonePayment(r.s.payments[idx])
	return &p, nil
}

func (r *paymentRepository) List(_ context.Context) ([]domain.Payment, error) {
	return r.filter(func(*domain.Payment) bool { return true }), nil
}

func (r *paymentRepository) ListByAgent(_ context.Context, agentID string) ([]domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.AgentID == agentID }), nil
}

func (r *paymentRepository) ListByType(_ context.Context, paymentType domain.PaymentType) ([]domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.Type == paymentType }), nil
}

func (r *paymentRepository) ListByDateRange(_ context.Context, start, end time.Time) ([]domain.Payment, error) {
	from, to := domain.CalendarDate(start), domain.CalendarDate(end)
	return r.filter(func(p *domain.Payment) bool {
		d := domain.CalendarDate(p.Date)
		return !d.Before(from) && !d.After(to)
	}), nil
}

func (r *paymentRepository) filter(keep func(*domain.Payment) bool) []domain.Payment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.s.payments {
		if keep(p) {
			out = append(out, clonePayment(p))
		}
	}
	return out
}
