package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/store"
)

// TransactionLog is the append-only list of completed transactions, oldest first
type TransactionLog struct {
	store *store.Store
	mu    sync.Mutex
}

// NewTransactionLog creates a new transaction log
func NewTransactionLog(s *store.Store) *TransactionLog {
	return &TransactionLog{store: s}
}

// All returns every record in insertion order
func (l *TransactionLog) All(ctx context.Context) ([]models.TransactionRecord, error) {
	records := []models.TransactionRecord{}
	if err := l.store.Load(ctx, store.DocTransactions, &records, []models.TransactionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}
	return records, nil
}

// Append adds record to the end of the log, rewriting the whole document
func (l *TransactionLog) Append(ctx context.Context, record models.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.All(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)

	if err := l.store.Save(ctx, store.DocTransactions, records); err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// Clear discards every record
func (l *TransactionLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Save(ctx, store.DocTransactions, []models.TransactionRecord{}); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first
func (l *TransactionLog) Recent(ctx context.Context, n int) ([]models.TransactionRecord, error) {
	records, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	return Newest(records, n), nil
}

// Newest returns up to n of records in reverse order. n <= 0 means all.
func Newest(records []models.TransactionRecord, n int) []models.TransactionRecord {
	if n <= 0 || n > len(records) {
		n = len(records)
	}
	out := make([]models.TransactionRecord, 0, n)
	for i := len(records) - 1; i >= len(records)-n; i-- {
		out = append(out, records[i])
	}
	return out
}
