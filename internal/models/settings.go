package models

// FeeRule governs whether a fee step can be passed
type FeeRule struct {
	Enabled bool   `json:"enabled"`
	Amount  string `json:"amount"`
	Message string `json:"message"`
}

// ValidPins holds the accepted PIN lists per verification step
type ValidPins struct {
	Withdrawal []string `json:"withdrawal"`
	Cot        []string `json:"cot"`
}

// Fees holds the two fee rules
type Fees struct {
	MiningFee  FeeRule `json:"miningFee"`
	Commission FeeRule `json:"commission"`
}

// Settings is the persisted validation and fee configuration
type Settings struct {
	ValidPins ValidPins `json:"validPins"`
	Fees      Fees      `json:"fees"`
	TaxCodes  []string  `json:"taxCodes"`
}

// SettingsUpdate carries the sub-trees an admin submitted. Nil fields keep
// their current value.
type SettingsUpdate struct {
	WithdrawalPins *[]string
	CotPins        *[]string
	TaxCodes       *[]string
	MiningFee      *FeeRule
	Commission     *FeeRule
}

// DefaultSettings returns the settings document created on first access
func DefaultSettings() Settings {
	return Settings{
		ValidPins: ValidPins{
			Withdrawal: []string{"1234", "5678"},
			Cot:        []string{"COT123", "COT456"},
		},
		Fees: Fees{
			MiningFee: FeeRule{
				Enabled: true,
				Amount:  "50",
				Message: "Mining fee required to process blockchain transaction.",
			},
			Commission: FeeRule{
				Enabled: true,
				Amount:  "25",
				Message: "Commission fee for transaction processing.",
			},
		},
		TaxCodes: []string{"TAX001", "TAX002"},
	}
}

// HasWithdrawalPin reports whether pin is an accepted withdrawal PIN
func (s *Settings) HasWithdrawalPin(pin string) bool {
	return contains(s.ValidPins.Withdrawal, pin)
}

// HasCotPin reports whether pin is an accepted COT PIN
func (s *Settings) HasCotPin(pin string) bool {
	return contains(s.ValidPins.Cot, pin)
}

// HasTaxCode reports whether code is an accepted tax clearance code
func (s *Settings) HasTaxCode(code string) bool {
	return contains(s.TaxCodes, code)
}

// PinCount returns the number of configured withdrawal and COT PINs
func (s *Settings) PinCount() int {
	return len(s.ValidPins.Withdrawal) + len(s.ValidPins.Cot)
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
