package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/paydesk/internal/domain"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . AgentRepository,DepartmentRepository,PaymentRepository

var (
	// ErrNotFound is returned by every store when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by stores that enforce uniqueness or references themselves.
	ErrConflict = errors.New("record conflicts with stored data")
)

// AgentRepository persists agents. Full scans return agents in creation order.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	Update(ctx context.Context, agent *domain.Agent) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Agent, error)
	ListByRole(ctx context.Context, role domain.AgentRole) ([]domain.Agent, error)
}

// DepartmentRepository persists departments.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	ListByResponsible(ctx context.Context, agentID string) ([]domain.Department, error)
}

// PaymentRepository persists payments. The owning agent id is written once on
// Create and never changed by Update.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
	ListByAgent(ctx context.Context, agentID string) ([]domain.Payment, error)
	ListByType(ctx context.Context, paymentType domain.PaymentType) ([]domain.Payment, error)
	// ListByDateRange returns payments dated within [start, end]; end before start yields nothing.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Agents      AgentRepository
	Departments DepartmentRepository
	Payments    PaymentRepository
}
