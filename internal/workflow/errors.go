package workflow

import "github.com/wixxidevelop/blue/internal/models"

// User-facing rejection messages
const (
	MsgInvalidWithdrawalPin = "Invalid withdrawal PIN. Please try again."
	MsgInvalidCotPin        = "Invalid COT PIN. Please contact support for assistance."
	MsgInvalidTaxCode       = "Invalid tax clearance code. Please verify and try again."
	MsgPaymentFailed        = "Payment failed. Please try again or contact support."
	MsgSystemOffline        = "Our transaction system is currently undergoing maintenance. Please try again later."
)

// ValidationError is a rejected input. The session state is unchanged.
type ValidationError struct {
	Step    models.StepID
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
