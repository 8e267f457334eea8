package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/store"
)

// SettingsRepository is the typed view over the settings document
type SettingsRepository struct {
	store *store.Store
	// serialises read-modify-write within this process
	mu sync.Mutex
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(s *store.Store) *SettingsRepository {
	return &SettingsRepository{store: s}
}

// Get loads the settings, creating the default document on first access
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := r.store.Load(ctx, store.DocSettings, &settings, models.DefaultSettings()); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// Update merges the submitted sub-trees into the current settings and
// persists the result in one write. List entries are trimmed, blanks are
// dropped and duplicates removed; fee amounts are stored verbatim.
func (r *SettingsRepository) Update(ctx context.Context, update models.SettingsUpdate) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	settings, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}

	if update.WithdrawalPins != nil {
		settings.ValidPins.Withdrawal = CleanList(*update.WithdrawalPins)
	}
	if update.CotPins != nil {
		settings.ValidPins.Cot = CleanList(*update.CotPins)
	}
	if update.TaxCodes != nil {
		settings.TaxCodes = CleanList(*update.TaxCodes)
	}
	if update.MiningFee != nil {
		settings.Fees.MiningFee = *update.MiningFee
	}
	if update.Commission != nil {
		settings.Fees.Commission = *update.Commission
	}

	if err := r.store.Save(ctx, store.DocSettings, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// CleanList trims every entry, drops blanks and duplicates, and keeps the
// first-seen order. The result is never nil.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SplitList parses a comma-separated admin field into a cleaned list
func SplitList(raw string) []string {
	return CleanList(strings.Split(raw, ","))
}
