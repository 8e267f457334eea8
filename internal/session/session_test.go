package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wixxidevelop/blue/internal/models"
)

func advanced() *models.SessionState {
	state := models.NewSessionState()
	state.Data.WithdrawalPin = "1234"
	state.Advance(models.StepCotEntry)
	return state
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should return a fresh state for unknown sessions", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		state, err := Load(ctx, m, "nobody")
		require.NoError(t, err)
		assert.Equal(t, models.StepPinEntry, state.Step)
	})

	t.Run("should round trip a copy of the state", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		state := advanced()
		require.NoError(t, m.Save(ctx, "a", state))

		state.Step = models.StepCompleted
		got, err := Load(ctx, m, "a")
		require.NoError(t, err)
		assert.Equal(t, models.StepCotEntry, got.Step, "stored state must not alias caller's value")
		assert.Equal(t, "1234", got.Data.WithdrawalPin)
	})

	t.Run("should isolate sessions", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		require.NoError(t, m.Save(ctx, "a", advanced()))

		other, err := Load(ctx, m, "b")
		require.NoError(t, err)
		assert.Equal(t, models.StepPinEntry, other.Step)
		assert.Empty(t, other.Data.WithdrawalPin)
	})

	t.Run("should expire and sweep old sessions", func(t *testing.T) {
		m := NewMemoryStore(time.Minute)
		clock := time.Now()
		m.now = func() time.Time { return clock }

		require.NoError(t, m.Save(ctx, "old", advanced()))
		clock = clock.Add(2 * time.Minute)

		_, err := m.Get(ctx, "old")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, m.Save(ctx, "x", advanced()))
		clock = clock.Add(2 * time.Minute)
		require.NoError(t, m.Save(ctx, "y", advanced()))
		assert.Equal(t, 1, m.Len())
	})

	t.Run("should delete", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		require.NoError(t, m.Save(ctx, "a", advanced()))
		require.NoError(t, m.Delete(ctx, "a"))
		_, err := m.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedisStoreFromClient(client, time.Hour)
	defer r.Close()

	t.Run("should round trip state with ttl", func(t *testing.T) {
		require.NoError(t, r.Save(ctx, "a", advanced()))

		got, err := Load(ctx, r, "a")
		require.NoError(t, err)
		assert.Equal(t, models.StepCotEntry, got.Step)
		assert.Equal(t, models.StepCotEntry, got.Furthest)
		assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"a"))
	})

	t.Run("should report missing sessions", func(t *testing.T) {
		_, err := r.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should discard undecodable sessions", func(t *testing.T) {
		require.NoError(t, mr.Set(keyPrefix+"bad", "not json"))
		state, err := Load(ctx, r, "bad")
		require.NoError(t, err)
		assert.Equal(t, models.StepPinEntry, state.Step)
	})

	t.Run("should reset unknown steps on load", func(t *testing.T) {
		require.NoError(t, mr.Set(keyPrefix+"weird", `{"step":"bogus","data":{"withdrawalPin":"1"}}`))
		state, err := Load(ctx, r, "weird")
		require.NoError(t, err)
		assert.Equal(t, models.StepPinEntry, state.Step)
		assert.Empty(t, state.Data.WithdrawalPin)
	})

	t.Run("should expire with redis ttl", func(t *testing.T) {
		require.NoError(t, r.Save(ctx, "short", advanced()))
		mr.FastForward(2 * time.Hour)
		_, err := r.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should fail to connect to a bad url", func(t *testing.T) {
		_, err := NewRedisStore(ctx, "not-a-url", time.Hour)
		assert.Error(t, err)
	})
}

// completeConcurrently runs n updates against one session that each record a
// completion when they find the session at commission payment
func completeConcurrently(t *testing.T, s Store, id string, n int) int32 {
	t.Helper()
	ctx := context.Background()
	state := advanced()
	state.Advance(models.StepCommissionPayment)
	require.NoError(t, s.Save(ctx, id, state))

	var completed int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := Update(ctx, s, id, func(state *models.SessionState) (bool, error) {
				if state.Step != models.StepCommissionPayment {
					return false, nil
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
				state.Advance(models.StepCompleted)
				return true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	return completed
}

func TestSessionLock(t *testing.T) {
	ctx := context.Background()

	t.Run("should serialise updates to one in-memory session", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		assert.Equal(t, int32(1), completeConcurrently(t, m, "a", 10))

		got, err := Load(ctx, m, "a")
		require.NoError(t, err)
		assert.Equal(t, models.StepCompleted, got.Step)
	})

	t.Run("should serialise updates to one redis session", func(t *testing.T) {
		mr := miniredis.RunT(t)
		r := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
		defer r.Close()

		assert.Equal(t, int32(1), completeConcurrently(t, r, "a", 10))
		assert.False(t, mr.Exists(lockPrefix+"a"), "lock must be released")
	})

	t.Run("should give up when the context ends while locked", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		unlock, err := m.Lock(ctx, "a")
		require.NoError(t, err)
		defer unlock()

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = m.Lock(short, "a")
		assert.ErrorIs(t, err, ErrBusy)
	})

	t.Run("should not block other sessions", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		unlock, err := m.Lock(ctx, "a")
		require.NoError(t, err)
		defer unlock()

		other, err := m.Lock(ctx, "b")
		require.NoError(t, err)
		other()
	})

	t.Run("should drop lock entries once released", func(t *testing.T) {
		m := NewMemoryStore(time.Hour)
		unlock, err := m.Lock(ctx, "a")
		require.NoError(t, err)
		unlock()
		unlock()

		m.locksMu.Lock()
		defer m.locksMu.Unlock()
		assert.Empty(t, m.locks)
	})

	t.Run("should leave a lock taken by someone else in redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		r := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
		defer r.Close()

		unlock, err := r.Lock(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, mr.Set(lockPrefix+"a", "other-holder"))
		unlock()

		got, err := mr.Get(lockPrefix + "a")
		require.NoError(t, err)
		assert.Equal(t, "other-holder", got)
	})
}

func TestTokens(t *testing.T) {
	t.Run("should require a secret", func(t *testing.T) {
		_, err := NewTokens("", time.Hour)
		assert.Error(t, err)
	})

	t.Run("should round trip a session id", func(t *testing.T) {
		tokens, err := NewTokens("test-secret", time.Hour)
		require.NoError(t, err)

		sid := NewID()
		signed, err := tokens.Issue(sid)
		require.NoError(t, err)

		got, err := tokens.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, sid, got)
	})

	t.Run("should reject tokens signed with another secret", func(t *testing.T) {
		a, _ := NewTokens("secret-a", time.Hour)
		b, _ := NewTokens("secret-b", time.Hour)
		signed, err := a.Issue(NewID())
		require.NoError(t, err)

		_, err = b.Parse(signed)
		assert.Error(t, err)
	})

	t.Run("should not sign with the raw secret", func(t *testing.T) {
		tokens, _ := NewTokens("test-secret", time.Hour)
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{SessionID: NewID()})
		raw, err := forged.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = tokens.Parse(raw)
		assert.Error(t, err)
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		tokens, _ := NewTokens("test-secret", -time.Minute)
		signed, err := tokens.Issue(NewID())
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.Error(t, err)
	})

	t.Run("should reject unsigned tokens", func(t *testing.T) {
		tokens, _ := NewTokens("test-secret", time.Hour)
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: NewID()})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Parse(raw)
		assert.Error(t, err)
	})

	t.Run("should reject malformed session ids", func(t *testing.T) {
		tokens, _ := NewTokens("test-secret", time.Hour)
		signed, err := tokens.Issue("../../etc")
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.Error(t, err)
	})
}
