package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wixxidevelop/blue/internal/models"
)

type sessionLock struct {
	sem  chan struct{}
	refs int
}

type entry struct {
	state     models.SessionState
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are swept
// lazily on write, so no background goroutine is needed.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		locks:    make(map[string]*sessionLock),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	state := e.state
	return &state, nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, state *models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sessions[id] = &entry{state: *state, expiresAt: now.Add(m.ttl)}

	if now.Sub(m.lastSweep) > m.ttl {
		for key, e := range m.sessions {
			if now.After(e.expiresAt) {
				delete(m.sessions, key)
			}
		}
		m.lastSweep = now
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	m.locksMu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{sem: make(chan struct{}, 1)}
		m.locks[id] = l
	}
	l.refs++
	m.locksMu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(id, l)
		return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			m.release(id, l)
		})
	}, nil
}

func (m *MemoryStore) release(id string, l *sessionLock) {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, id)
	}
}

// Len returns the number of stored sessions, expired or not
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) Close() error { return nil }
