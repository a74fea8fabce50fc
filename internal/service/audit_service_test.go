package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/observability"
	"github.com/spec-kit/paydesk/internal/repository/memory"
)

func TestAuditServiceLogsMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core), metrics).RegisterHandlers()

	deps := DependenciesFromStore(memory.New().Repositories())
	deps.Dispatcher = dispatcher
	deps.Metrics = metrics
	directory := NewDirectoryService(deps)

	agent, err := directory.CreateAgent(context.Background(), agentInput("a@x.io", domain.RoleWorker))
	require.NoError(t, err)

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(events.EventAgentCreated), entries[0].ContextMap()["event_type"])
	assert.Equal(t, agent.ID, entries[0].ContextMap()["entity_id"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsHandled.WithLabelValues(string(events.EventAgentCreated), "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Mutations.WithLabelValues("agent", "create")))
}

func TestFailingHandlerDoesNotRollBackWrite(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventDepartmentCreated, func(context.Context, events.Event) error {
		return assert.AnError
	})

	deps := DependenciesFromStore(memory.New().Repositories())
	deps.Dispatcher = dispatcher
	deps.Logger = zap.New(core)
	directory := NewDirectoryService(deps)

	dept, err := directory.CreateDepartment(context.Background(), "Finance", nil)
	require.NoError(t, err)
	_, err = directory.GetDepartment(context.Background(), dept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}
