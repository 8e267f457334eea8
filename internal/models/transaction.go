package models

import "strings"

// TransactionRecord is written once when a session reaches the completed step
type TransactionRecord struct {
	Timestamp     string `json:"timestamp"`
	WithdrawalPin string `json:"withdrawalPin"`
	CotPin        string `json:"cotPin"`
	TaxCode       string `json:"taxCode"`
	MiningFee     string `json:"miningFee"`
	Commission    string `json:"commission"`
	IP            string `json:"ip"`
}

// OnDate reports whether the record timestamp falls on day (YYYY-MM-DD)
func (r TransactionRecord) OnDate(day string) bool {
	return day != "" && strings.HasPrefix(r.Timestamp, day)
}

// MaskPin keeps the first three characters of a PIN and hides the rest
func MaskPin(pin string) string {
	r := []rune(pin)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r) + "***"
}
