// Package session keeps per-session workflow state keyed by session id.
package session

import (
	"context"
	"errors"

	"github.com/wixxidevelop/blue/internal/models"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrBusy     = errors.New("session: lock not acquired")
)

// Store persists SessionState per session id
type Store interface {
	Get(ctx context.Context, id string) (*models.SessionState, error)
	Save(ctx context.Context, id string, state *models.SessionState) error
	Delete(ctx context.Context, id string) error
	// Lock serialises requests for one session. The returned func releases it.
	Lock(ctx context.Context, id string) (func(), error)
	Close() error
}

// Load returns the state for id, or a fresh state when none exists
func Load(ctx context.Context, s Store, id string) (*models.SessionState, error) {
	state, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.NewSessionState(), nil
	}
	if err != nil {
		return nil, err
	}
	state.Normalize()
	return state, nil
}

// Update loads the state for id under the session lock, runs fn and saves
// the state when fn reports a change
func Update(ctx context.Context, s Store, id string, fn func(state *models.SessionState) (bool, error)) error {
	unlock, err := s.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := Load(ctx, s, id)
	if err != nil {
		return err
	}
	changed, err := fn(state)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.Save(ctx, id, state)
}
