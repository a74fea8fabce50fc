package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/paydesk/internal/domain"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Current(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	first := domain.Session{Agent: domain.Agent{ID: "a1", Email: "a@x.io"}, StartedAt: time.Now()}
	require.NoError(t, store.Start(ctx, first))
	got, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.Agent.ID)

	second := domain.Session{Agent: domain.Agent{ID: "a2"}, StartedAt: time.Now()}
	require.NoError(t, store.Start(ctx, second))
	got, err = store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Agent.ID)

	require.NoError(t, store.End(ctx))
	require.NoError(t, store.End(ctx))
	_, err = store.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
