package models

// StepID identifies one stage of the transaction workflow
type StepID string

const (
	StepPinEntry          StepID = "pin_entry"
	StepCotEntry          StepID = "cot_entry"
	StepTaxEntry          StepID = "tax_entry"
	StepFeePayment        StepID = "fee_payment"
	StepCommissionPayment StepID = "commission_payment"
	StepCompleted         StepID = "completed"
)

// Steps lists every step in workflow order
var Steps = []StepID{
	StepPinEntry,
	StepCotEntry,
	StepTaxEntry,
	StepFeePayment,
	StepCommissionPayment,
	StepCompleted,
}

// ParseStep returns the StepID for s and whether it names a known step
func ParseStep(s string) (StepID, bool) {
	id := StepID(s)
	return id, id.Valid()
}

// Valid reports whether the step is one of the six workflow steps
func (s StepID) Valid() bool {
	return s.Index() >= 0
}

// Index returns the zero-based position of the step, or -1 if unknown
func (s StepID) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the step that follows s. The terminal step has no successor.
func (s StepID) Next() (StepID, bool) {
	i := s.Index()
	if i < 0 || i == len(Steps)-1 {
		return "", false
	}
	return Steps[i+1], true
}

func (s StepID) String() string {
	return string(s)
}
