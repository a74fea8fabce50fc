//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/session"
	"github.com/spec-kit/paydesk/internal/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedisStore(s.redis.Client, "test:session")
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestEmptyStore() {
	_, err := s.store.Current(context.Background())
	s.ErrorIs(err, session.ErrNoSession)
}

func (s *RedisStoreSuite) TestStartReplacesAndEndClears() {
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	dept := "d1"

	s.Require().NoError(s.store.Start(ctx, domain.Session{
		Agent:     domain.Agent{ID: "a1", Email: "first@x.io", Role: domain.RoleWorker, DepartmentID: &dept},
		StartedAt: started,
	}))
	s.Require().NoError(s.store.Start(ctx, domain.Session{
		Agent:     domain.Agent{ID: "a2", Email: "second@x.io", Role: domain.RoleDirector},
		StartedAt: started,
	}))

	got, err := s.store.Current(ctx)
	s.Require().NoError(err)
	s.Equal("a2", got.Agent.ID)
	s.Equal(domain.RoleDirector, got.Agent.Role)
	s.True(started.Equal(got.StartedAt))

	s.Require().NoError(s.store.End(ctx))
	_, err = s.store.Current(ctx)
	s.ErrorIs(err, session.ErrNoSession)
}
