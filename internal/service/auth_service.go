package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/session"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

// AuthService coordinates login and the single active session.
type AuthService struct {
	agents   repository.AgentRepository
	sessions session.Store
	publisher
	now func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps Dependencies, sessions session.Store) *AuthService {
	return &AuthService{
		agents:    deps.AgentRepo,
		sessions:  sessions,
		publisher: newPublisher(deps),
		now:       time.Now,
	}
}

// Login checks the credential and starts a session, replacing any previous
// one. Unknown email and wrong credential fail the same way.
func (s *AuthService) Login(ctx context.Context, email, credential string) (*domain.Agent, error) {
	agent, err := s.agents.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("load agent by email: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(agent.Credential), []byte(credential)) != 1 {
		return nil, apperrors.NewInvalidCredentials()
	}

	stored := *agent
	stored.Credential = ""
	if err := s.sessions.Start(ctx, domain.Session{Agent: stored, StartedAt: s.now().UTC()}); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.publishEvent(ctx, "session", "start", events.Event{Type: events.EventSessionStarted, EntityID: agent.ID})
	return agent, nil
}

// Logout ends the current session, if any.
func (s *AuthService) Logout(ctx context.Context) error {
	current, err := s.sessions.Current(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.sessions.End(ctx); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.publishEvent(ctx, "session", "end", events.Event{Type: events.EventSessionEnded, EntityID: current.Agent.ID})
	return nil
}

// IsAuthenticated reports whether a session is active.
func (s *AuthService) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.sessions.Current(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return true, nil
}

// CurrentSession returns the active session or NOT_AUTHENTICATED.
func (s *AuthService) CurrentSession(ctx context.Context) (domain.Session, error) {
	current, err := s.sessions.Current(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return domain.Session{}, apperrors.NewNotAuthenticated()
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	return current, nil
}

// CurrentAgent returns the agent of the active session.
func (s *AuthService) CurrentAgent(ctx context.Context) (*domain.Agent, error) {
	current, err := s.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	return &current.Agent, nil
}
