package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("store: document not found")
	ErrStorage     = errors.New("store: storage unavailable")
	ErrCorruptData = errors.New("store: corrupt document")
)

// StorageError reports that the backing medium could not be read or written
type StorageError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// CorruptDataError reports a document that exists but cannot be decoded.
// The document is left untouched for operator inspection.
type CorruptDataError struct {
	Name string
	Err  error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("store: document %s is corrupt: %v", e.Name, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

func (e *CorruptDataError) Is(target error) bool { return target == ErrCorruptData }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }

func IsCorrupt(err error) bool { return errors.Is(err, ErrCorruptData) }
