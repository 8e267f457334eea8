package admin

import (
	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/repository"
)

// SettingsForm is the raw update_settings submission
type SettingsForm struct {
	WithdrawalPins    string `form:"withdrawal_pins"`
	CotPins           string `form:"cot_pins"`
	TaxCodes          string `form:"tax_codes"`
	MiningFeeEnabled  bool   `form:"-"`
	MiningFeeAmount   string `form:"mining_fee_amount"`
	MiningFeeMessage  string `form:"mining_fee_message"`
	CommissionEnabled bool   `form:"-"`
	CommissionAmount  string `form:"commission_amount"`
	CommissionMessage string `form:"commission_message"`
}

// Update converts the form into a full settings replacement. Lists are
// split on commas; amounts and messages pass through unchanged.
func (f SettingsForm) Update() models.SettingsUpdate {
	withdrawal := repository.SplitList(f.WithdrawalPins)
	cot := repository.SplitList(f.CotPins)
	tax := repository.SplitList(f.TaxCodes)
	return models.SettingsUpdate{
		WithdrawalPins: &withdrawal,
		CotPins:        &cot,
		TaxCodes:       &tax,
		MiningFee: &models.FeeRule{
			Enabled: f.MiningFeeEnabled,
			Amount:  f.MiningFeeAmount,
			Message: f.MiningFeeMessage,
		},
		Commission: &models.FeeRule{
			Enabled: f.CommissionEnabled,
			Amount:  f.CommissionAmount,
			Message: f.CommissionMessage,
		},
	}
}
