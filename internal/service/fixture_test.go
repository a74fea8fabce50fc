package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/observability"
	"github.com/spec-kit/paydesk/internal/repository/memory"
)

// fixture wires every service against one memory store.
type fixture struct {
	deps       Dependencies
	directory  *DirectoryService
	payments   *PaymentService
	stats      *StatisticsService
	metrics    *observability.Metrics
	dispatched []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{metrics: observability.NewMetrics(prometheus.NewRegistry())}
	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.dispatched = append(f.dispatched, e)
			return nil
		})
	}

	f.deps = DependenciesFromStore(memory.New().Repositories())
	f.deps.Dispatcher = dispatcher
	f.deps.Metrics = f.metrics
	f.deps.FanoutConcurrency = 2

	f.directory = NewDirectoryService(f.deps)
	f.payments = NewPaymentService(f.deps)
	f.payments.now = func() time.Time { return time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC) }
	f.stats = NewStatisticsService(f.deps)
	return f
}

func (f *fixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(f.dispatched))
	for _, e := range f.dispatched {
		out = append(out, e.Type)
	}
	return out
}

func agentInput(email string, role domain.AgentRole) AgentInput {
	return AgentInput{
		LastName:   "Durand",
		FirstName:  "Claire",
		Email:      email,
		Credential: "s3cret",
		Role:       role,
	}
}

func (f *fixture) agent(t *testing.T, email string, role domain.AgentRole, departmentID *string) *domain.Agent {
	t.Helper()
	in := agentInput(email, role)
	in.DepartmentID = departmentID
	agent, err := f.directory.CreateAgent(context.Background(), in)
	require.NoError(t, err)
	return agent
}

func (f *fixture) department(t *testing.T, name string) *domain.Department {
	t.Helper()
	dept, err := f.directory.CreateDepartment(context.Background(), name, nil)
	require.NoError(t, err)
	return dept
}

func (f *fixture) pay(t *testing.T, agentID string, paymentType domain.PaymentType, amount float64, date time.Time) *domain.Payment {
	t.Helper()
	p, err := f.payments.CreatePayment(context.Background(), agentID, PaymentInput{
		Type:               paymentType,
		Amount:             amount,
		Reason:             "test",
		ConditionValidated: true,
		Date:               &date,
	})
	require.NoError(t, err)
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
