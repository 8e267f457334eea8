package models

import "time"

// StepData accumulates the values verified along the forward path
type StepData struct {
	WithdrawalPin string `json:"withdrawalPin,omitempty"`
	CotPin        string `json:"cotPin,omitempty"`
	TaxCode       string `json:"taxCode,omitempty"`
}

// SessionState is the per-session workflow position
type SessionState struct {
	Step StepID   `json:"step"`
	Data StepData `json:"data"`
	// Furthest is the most advanced step this session has legitimately reached.
	Furthest  StepID    `json:"furthestStep"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSessionState returns a session positioned at the first step
func NewSessionState() *SessionState {
	return &SessionState{
		Step:      StepPinEntry,
		Furthest:  StepPinEntry,
		UpdatedAt: time.Now(),
	}
}

// Reset clears accumulated data and returns to the first step
func (s *SessionState) Reset() {
	s.Step = StepPinEntry
	s.Furthest = StepPinEntry
	s.Data = StepData{}
	s.UpdatedAt = time.Now()
}

// Advance moves to step and raises the furthest marker if needed
func (s *SessionState) Advance(step StepID) {
	s.Step = step
	if step.Index() > s.Furthest.Index() {
		s.Furthest = step
	}
	s.UpdatedAt = time.Now()
}

// Normalize repairs a state decoded from an untrusted session backend
func (s *SessionState) Normalize() {
	if !s.Step.Valid() {
		s.Reset()
		return
	}
	if !s.Furthest.Valid() || s.Furthest.Index() < s.Step.Index() {
		s.Furthest = s.Step
	}
}
