// Package store persists named JSON documents on a pluggable backend.
//
// Every Save replaces the whole document in one step; readers observe either
// the previous or the new content, never a partial write.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// Document names used by the portal
const (
	DocSystem       = "system"
	DocSettings     = "settings"
	DocTransactions = "transactions"
)

// Info describes where a document lives and when it last changed
type Info struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Modified time.Time `json:"modified"`
}

// Backend reads and writes raw document bytes. Read returns ErrNotFound for
// a missing document; Write must be all-or-nothing.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Stat(ctx context.Context, name string) (Info, error)
	Kind() string
	Close() error
}

// Store encodes documents as indented JSON over a Backend
type Store struct {
	backend Backend
	logger  *log.Logger
}

// New wraps a backend
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  log.New(os.Stderr, "[store] ", log.LstdFlags),
	}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Load decodes document name into dst. If the document does not exist, def
// is persisted first and then decoded into dst.
func (s *Store) Load(ctx context.Context, name string, dst, def interface{}) error {
	data, err := s.backend.Read(ctx, name)
	if IsNotFound(err) {
		data, err = encode(def)
		if err != nil {
			return fmt.Errorf("failed to encode default %s: %w", name, err)
		}
		if err := s.write(ctx, name, data); err != nil {
			return err
		}
		s.logger.Printf("initialised %s document with defaults (%s)", name, s.backend.Kind())
	} else if err != nil {
		return wrapStorage("read", name, err)
	}

	if err := decode(data, dst); err != nil {
		return &CorruptDataError{Name: name, Err: err}
	}
	return nil
}

// Save replaces document name with the encoding of v
func (s *Store) Save(ctx context.Context, name string, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.write(ctx, name, data)
}

// Stat returns location and modification time for document name
func (s *Store) Stat(ctx context.Context, name string) (Info, error) {
	info, err := s.backend.Stat(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return Info{}, err
		}
		return Info{}, wrapStorage("stat", name, err)
	}
	return info, nil
}

// Close releases backend resources
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) write(ctx context.Context, name string, data []byte) error {
	if err := s.backend.Write(ctx, name, data); err != nil {
		s.logger.Printf("write %s failed: %v", name, err)
		return wrapStorage("write", name, err)
	}
	return nil
}

func wrapStorage(op, name string, err error) error {
	if IsStorage(err) {
		return err
	}
	return &StorageError{Op: op, Name: name, Err: err}
}

func encode(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decode(data []byte, dst interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty document")
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("null document")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after document")
	}
	return nil
}
