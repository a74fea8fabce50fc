// Package session keeps the single active login session.
package session

import (
	"context"
	"errors"

	"github.com/spec-kit/paydesk/internal/domain"
)

// ErrNoSession is returned by Current when nobody is logged in.
var ErrNoSession = errors.New("no active session")

// Store holds at most one session at a time.
type Store interface {
	// Start replaces any existing session.
	Start(ctx context.Context, s domain.Session) error
	// End clears the session; ending when none exists is not an error.
	End(ctx context.Context) error
	// Current returns the session or ErrNoSession.
	Current(ctx context.Context) (domain.Session, error)
}
