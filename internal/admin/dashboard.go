package admin

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/repository"
	"github.com/wixxidevelop/blue/internal/store"
	"github.com/wixxidevelop/blue/pkg/money"
)

// RecentLimit is the number of records shown in recent activity
const RecentLimit = 10

// ActivityEntry is one masked record of recent activity
type ActivityEntry struct {
	Number        int    `json:"number"`
	Timestamp     string `json:"timestamp"`
	WithdrawalPin string `json:"withdrawalPin"`
	CotPin        string `json:"cotPin"`
	TaxCode       string `json:"taxCode"`
	MiningFee     string `json:"miningFee"`
	Commission    string `json:"commission"`
	IP            string `json:"ip"`
}

// SettingsEcho pre-fills the settings form
type SettingsEcho struct {
	WithdrawalPins string         `json:"withdrawal_pins"`
	CotPins        string         `json:"cot_pins"`
	TaxCodes       string         `json:"tax_codes"`
	MiningFee      models.FeeRule `json:"mining_fee"`
	Commission     models.FeeRule `json:"commission"`
}

// Dashboard is the admin overview
type Dashboard struct {
	System            models.SystemStatus `json:"system"`
	TotalTransactions int                 `json:"totalTransactions"`
	TodayTransactions int                 `json:"todayTransactions"`
	ValidPins         int                 `json:"validPins"`
	FeesRecorded      string              `json:"feesRecorded"`
	Recent            []ActivityEntry     `json:"recent"`
	Settings          SettingsEcho        `json:"settings"`
	Documents         []store.Info        `json:"documents"`
	Success           string              `json:"success,omitempty"`
}

// Dashboard gathers the overview. Documents are created with defaults if
// they do not exist yet.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		status   models.SystemStatus
		settings *models.Settings
		records  []models.TransactionRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		status, err = s.system.Get(gctx)
		return err
	})
	g.Go(func() (err error) {
		settings, err = s.settings.Get(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = s.log.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	today := s.now().UTC().Format("2006-01-02")
	d := &Dashboard{
		System:            status,
		TotalTransactions: len(records),
		ValidPins:         settings.PinCount(),
		Recent:            make([]ActivityEntry, 0, RecentLimit),
		Settings:          echo(settings),
	}

	amounts := make([]string, 0, len(records)*2)
	for _, r := range records {
		if r.OnDate(today) {
			d.TodayTransactions++
		}
		amounts = append(amounts, r.MiningFee, r.Commission)
	}
	total, _ := money.Sum(amounts...)
	d.FeesRecorded = money.Format(total)

	for i, r := range repository.Newest(records, RecentLimit) {
		d.Recent = append(d.Recent, ActivityEntry{
			Number:        len(records) - i,
			Timestamp:     r.Timestamp,
			WithdrawalPin: models.MaskPin(r.WithdrawalPin),
			CotPin:        models.MaskPin(r.CotPin),
			TaxCode:       r.TaxCode,
			MiningFee:     r.MiningFee,
			Commission:    r.Commission,
			IP:            r.IP,
		})
	}

	for _, name := range []string{store.DocSystem, store.DocSettings, store.DocTransactions} {
		info, err := s.store.Stat(ctx, name)
		if err != nil {
			return nil, err
		}
		d.Documents = append(d.Documents, info)
	}

	return d, nil
}

func echo(settings *models.Settings) SettingsEcho {
	return SettingsEcho{
		WithdrawalPins: join(settings.ValidPins.Withdrawal),
		CotPins:        join(settings.ValidPins.Cot),
		TaxCodes:       join(settings.TaxCodes),
		MiningFee:      settings.Fees.MiningFee,
		Commission:     settings.Fees.Commission,
	}
}

func join(items []string) string {
	return strings.Join(items, ", ")
}
