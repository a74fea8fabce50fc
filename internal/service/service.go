package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/observability"
	"github.com/spec-kit/paydesk/internal/repository"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

// Dependencies bundles the collaborators shared by the core services.
type Dependencies struct {
	AgentRepo      repository.AgentRepository
	DepartmentRepo repository.DepartmentRepository
	PaymentRepo    repository.PaymentRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger

	// FanoutConcurrency bounds per-agent reads during department fan-out.
	FanoutConcurrency int
}

// DependenciesFromStore fills the repositories from a Record Store bundle.
func DependenciesFromStore(store repository.Store) Dependencies {
	return Dependencies{
		AgentRepo:      store.Agents,
		DepartmentRepo: store.Departments,
		PaymentRepo:    store.Payments,
	}
}

// lookups resolves entities by id and translates missing rows into domain errors.
type lookups struct {
	agents      repository.AgentRepository
	departments repository.DepartmentRepository
	payments    repository.PaymentRepository
}

func (l lookups) agent(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := l.agents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewAgentNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load agent %s: %w", id, err)
	}
	return agent, nil
}

func (l lookups) department(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := l.departments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewDepartmentNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load department %s: %w", id, err)
	}
	return dept, nil
}

func (l lookups) payment(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := l.payments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewPaymentNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment %s: %w", id, err)
	}
	return payment, nil
}

// publisher emits domain events after a write has been persisted.
type publisher struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func newPublisher(deps Dependencies) publisher {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return publisher{dispatcher: deps.Dispatcher, metrics: deps.Metrics, logger: logger}
}

func (p publisher) publishEvent(ctx context.Context, entity, operation string, event events.Event) {
	p.metrics.RecordMutation(entity, operation)
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

func sumAmounts(payments []domain.Payment) float64 {
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

func ptr[T any](v T) *T {
	return &v
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
