package admin

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wixxidevelop/blue/internal/models"
)

// Snapshot is the downloadable copy of all three documents
type Snapshot struct {
	System       models.SystemStatus        `json:"system"`
	Settings     models.Settings            `json:"settings"`
	Transactions []models.TransactionRecord `json:"transactions"`
	ExportedAt   time.Time                  `json:"exported_at"`
}

// ExportSnapshot reads the current documents. Nothing is stored.
func (s *Service) ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := s.system.Get(gctx)
		snap.System = status
		return err
	})
	g.Go(func() error {
		settings, err := s.settings.Get(gctx)
		if err == nil {
			snap.Settings = *settings
		}
		return err
	})
	g.Go(func() error {
		records, err := s.log.All(gctx)
		snap.Transactions = records
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.ExportedAt = s.now()
	return snap, nil
}

// ExportFilename is the attachment name for a snapshot taken at t
func ExportFilename(t time.Time) string {
	return "transaction_data_" + t.Format("2006-01-02_15-04-05") + ".json"
}
