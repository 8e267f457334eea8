// Package admin implements the operator actions on the shared documents.
package admin

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/repository"
	"github.com/wixxidevelop/blue/internal/store"
	"github.com/wixxidevelop/blue/pkg/messaging"
)

// Service bypasses the workflow and operates on the documents directly
type Service struct {
	store     *store.Store
	settings  *repository.SettingsRepository
	system    *repository.SystemRepository
	log       *repository.TransactionLog
	publisher messaging.Publisher
	now       func() time.Time
	logger    *log.Logger
}

// NewService creates a new admin service
func NewService(
	s *store.Store,
	settings *repository.SettingsRepository,
	system *repository.SystemRepository,
	txLog *repository.TransactionLog,
	publisher messaging.Publisher,
) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		store:     s,
		settings:  settings,
		system:    system,
		log:       txLog,
		publisher: publisher,
		now:       time.Now,
		logger:    log.New(os.Stderr, "[admin] ", log.LstdFlags),
	}
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ToggleSystem flips the availability flag
func (s *Service) ToggleSystem(ctx context.Context) (models.SystemStatus, error) {
	status, err := s.system.Toggle(ctx)
	if err != nil {
		return models.SystemStatus{}, err
	}
	s.logger.Printf("system toggled active=%t", status.IsActive)
	s.publish(ctx, messaging.EventTypeSystemToggled, messaging.SystemToggledEvent{IsActive: status.IsActive})
	return status, nil
}

// ClearLogs discards every transaction record
func (s *Service) ClearLogs(ctx context.Context) error {
	if err := s.log.Clear(ctx); err != nil {
		return err
	}
	s.logger.Printf("transaction log cleared")
	s.publish(ctx, messaging.EventTypeLogsCleared, nil)
	return nil
}

// UpdateSettings replaces the settings with the submitted form
func (s *Service) UpdateSettings(ctx context.Context, form SettingsForm) (*models.Settings, error) {
	return s.ApplySettings(ctx, form.Update())
}

// ApplySettings merges a partial update into the settings
func (s *Service) ApplySettings(ctx context.Context, update models.SettingsUpdate) (*models.Settings, error) {
	settings, err := s.settings.Update(ctx, update)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("settings updated: %d withdrawal pins, %d cot pins, %d tax codes",
		len(settings.ValidPins.Withdrawal), len(settings.ValidPins.Cot), len(settings.TaxCodes))
	s.publish(ctx, messaging.EventTypeSettingsUpdated, messaging.SettingsUpdatedEvent{
		WithdrawalPins:    len(settings.ValidPins.Withdrawal),
		CotPins:           len(settings.ValidPins.Cot),
		TaxCodes:          len(settings.TaxCodes),
		MiningFeeEnabled:  settings.Fees.MiningFee.Enabled,
		CommissionEnabled: settings.Fees.Commission.Enabled,
	})
	return settings, nil
}

// Settings returns the current settings
func (s *Service) Settings(ctx context.Context) (*models.Settings, error) {
	return s.settings.Get(ctx)
}

// Transactions returns up to limit records, newest first. limit <= 0 means all.
func (s *Service) Transactions(ctx context.Context, limit int) ([]models.TransactionRecord, error) {
	return s.log.Recent(ctx, limit)
}

func (s *Service) publish(ctx context.Context, eventType string, data interface{}) {
	event, err := messaging.NewEvent(eventType, data)
	if err != nil {
		s.logger.Printf("failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Printf("failed to publish %s event: %v", eventType, err)
	}
}
