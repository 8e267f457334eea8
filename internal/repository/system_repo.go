package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/store"
)

// SystemRepository gates the transaction flow on a persisted active flag
type SystemRepository struct {
	store *store.Store
	mu    sync.Mutex
}

// NewSystemRepository creates a new system status repository
func NewSystemRepository(s *store.Store) *SystemRepository {
	return &SystemRepository{store: s}
}

// Get returns the current status, creating it as active on first access
func (r *SystemRepository) Get(ctx context.Context) (models.SystemStatus, error) {
	var status models.SystemStatus
	if err := r.store.Load(ctx, store.DocSystem, &status, models.DefaultSystemStatus()); err != nil {
		return models.SystemStatus{}, fmt.Errorf("failed to load system status: %w", err)
	}
	return status, nil
}

// IsActive reports whether the portal accepts transitions
func (r *SystemRepository) IsActive(ctx context.Context) (bool, error) {
	status, err := r.Get(ctx)
	if err != nil {
		return false, err
	}
	return status.IsActive, nil
}

// Toggle flips the active flag and persists it
func (r *SystemRepository) Toggle(ctx context.Context) (models.SystemStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, err := r.Get(ctx)
	if err != nil {
		return models.SystemStatus{}, err
	}
	status.IsActive = !status.IsActive

	if err := r.store.Save(ctx, store.DocSystem, status); err != nil {
		return models.SystemStatus{}, fmt.Errorf("failed to save system status: %w", err)
	}
	return status, nil
}
