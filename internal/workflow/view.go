package workflow

import (
	"context"

	"github.com/wixxidevelop/blue/internal/models"
)

// FeeView describes the fee requested on a fee step
type FeeView struct {
	Amount  string `json:"amount"`
	Enabled bool   `json:"enabled"`
}

// DataView is the masked summary of verified values
type DataView struct {
	WithdrawalPin string `json:"withdrawalPin,omitempty"`
	CotPin        string `json:"cotPin,omitempty"`
	TaxCode       string `json:"taxCode,omitempty"`
}

// View is everything the presentation layer needs to render a step
type View struct {
	Offline    bool           `json:"offline"`
	Message    string         `json:"message,omitempty"`
	Step       models.StepID  `json:"step"`
	StepNumber int            `json:"stepNumber"`
	TotalSteps int            `json:"totalSteps"`
	Info       StepInfo       `json:"stepInfo"`
	Progress   []ProgressItem `json:"progress"`
	Fee        *FeeView       `json:"fee,omitempty"`
	Data       DataView       `json:"data"`
	Error      string         `json:"error,omitempty"`
	Success    string         `json:"success,omitempty"`
}

// View renders state for display. It never mutates state, so it remains
// available while the system is offline.
func (s *Service) View(ctx context.Context, state *models.SessionState) (*View, error) {
	active, err := s.status.IsActive(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	step := state.Step
	if !step.Valid() {
		step = models.StepPinEntry
	}

	v := &View{
		Offline:    !active,
		Step:       step,
		StepNumber: step.Index() + 1,
		TotalSteps: len(models.Steps),
		Info:       Info(step, settings),
		Progress:   Progress(step),
		Data: DataView{
			TaxCode: state.Data.TaxCode,
		},
	}
	if !active {
		v.Message = MsgSystemOffline
	}
	if state.Data.WithdrawalPin != "" {
		v.Data.WithdrawalPin = models.MaskPin(state.Data.WithdrawalPin)
	}
	if state.Data.CotPin != "" {
		v.Data.CotPin = models.MaskPin(state.Data.CotPin)
	}

	switch step {
	case models.StepFeePayment:
		v.Fee = &FeeView{Amount: settings.Fees.MiningFee.Amount, Enabled: settings.Fees.MiningFee.Enabled}
	case models.StepCommissionPayment:
		v.Fee = &FeeView{Amount: settings.Fees.Commission.Amount, Enabled: settings.Fees.Commission.Enabled}
	}
	return v, nil
}

// Apply copies an outcome's message into the view
func (v *View) Apply(o *Outcome) {
	if o == nil {
		return
	}
	if o.Err != nil {
		v.Error = o.Err.Message
	}
	if o.Record != nil {
		v.Success = "Transaction recorded."
	}
}
