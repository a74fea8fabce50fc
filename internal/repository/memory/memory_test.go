package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/repository/memory"
	"github.com/spec-kit/paydesk/internal/repository/repotest"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &repotest.StoreSuite{
		Open: func() repository.Store { return memory.New().Repositories() },
	})
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Repositories()

	dept := &domain.Department{Name: "Finance"}
	require.NoError(t, store.Departments.Create(ctx, dept))
	agent := &domain.Agent{LastName: "Doe", FirstName: "Jane", Email: "jane@example.com",
		Credential: "secret", Role: domain.RoleWorker, DepartmentID: &dept.ID}
	require.NoError(t, store.Agents.Create(ctx, agent))

	got, err := store.Agents.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	*got.DepartmentID = "tampered"
	got.Email = "changed@example.com"

	again, err := store.Agents.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	require.Equal(t, dept.ID, *again.DepartmentID)
	require.Equal(t, "jane@example.com", again.Email)
}

func TestUpdateStampsFromClock(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	created := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return created }
	store := s.Repositories()

	dept := &domain.Department{Name: "Finance"}
	require.NoError(t, store.Departments.Create(ctx, dept))

	updated := created.Add(time.Hour)
	s.Now = func() time.Time { return updated }
	dept.Name = "Treasury"
	require.NoError(t, store.Departments.Update(ctx, dept))

	got, err := store.Departments.GetByID(ctx, dept.ID)
	require.NoError(t, err)
	require.Equal(t, created, got.CreatedAt)
	require.Equal(t, updated, got.UpdatedAt)
	require.Equal(t, "Treasury", got.Name)
}
