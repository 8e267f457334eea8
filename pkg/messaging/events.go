package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeSystemToggled        = "system.toggled"
	EventTypeSettingsUpdated      = "settings.updated"
	EventTypeLogsCleared          = "logs.cleared"
)

// SubjectPrefix is prepended to every event type to form the NATS subject
const SubjectPrefix = "portal."

// Event is the envelope published for every domain event
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType string, data interface{}) (*Event, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
		raw = b
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// Subject returns the NATS subject for the event
func (e *Event) Subject() string {
	return SubjectPrefix + e.Type
}

// TransactionCompletedEvent is published when a session reaches the completed step
type TransactionCompletedEvent struct {
	Timestamp  string `json:"timestamp"`
	TaxCode    string `json:"tax_code"`
	MiningFee  string `json:"mining_fee"`
	Commission string `json:"commission"`
	IP         string `json:"ip"`
}

// SystemToggledEvent is published after the availability flag changes
type SystemToggledEvent struct {
	IsActive bool `json:"is_active"`
}

// SettingsUpdatedEvent is published after an admin replaces settings
type SettingsUpdatedEvent struct {
	WithdrawalPins    int  `json:"withdrawal_pins"`
	CotPins           int  `json:"cot_pins"`
	TaxCodes          int  `json:"tax_codes"`
	MiningFeeEnabled  bool `json:"mining_fee_enabled"`
	CommissionEnabled bool `json:"commission_enabled"`
}
