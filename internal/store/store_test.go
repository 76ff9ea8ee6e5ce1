package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/onelink/captcha-server-go/internal/errors"
	"github.com/onelink/captcha-server-go/internal/model"
)

func newSession(id string, expiresAt time.Time) *model.Session {
	return &model.Session{
		ID:        id,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestTablePutGet(t *testing.T) {
	table := New()
	expiry := time.Now().Add(10 * time.Minute)

	t.Run("get returns stored record", func(t *testing.T) {
		require.NoError(t, table.Put(newSession("a", expiry)))

		got, ok := table.Get("a")
		assert.True(t, ok)
		assert.Equal(t, "a", got.ID)
		assert.Equal(t, expiry, got.ExpiresAt)
	})

	t.Run("get on absent id reports not found", func(t *testing.T) {
		_, ok := table.Get("missing")
		assert.False(t, ok)
	})

	t.Run("put rejects duplicate id", func(t *testing.T) {
		err := table.Put(newSession("a", expiry))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDuplicateID, apperrors.GetCode(err))
	})

	t.Run("get returns a snapshot copy", func(t *testing.T) {
		got, ok := table.Get("a")
		require.True(t, ok)
		got.Verified = true

		again, _ := table.Get("a")
		assert.False(t, again.Verified)
	})
}

func TestTableMutate(t *testing.T) {
	t.Run("applies the transformation", func(t *testing.T) {
		table := New()
		require.NoError(t, table.Put(newSession("a", time.Now().Add(time.Minute))))

		found := table.Mutate("a", func(s *model.Session) bool {
			s.Verified = true
			return true
		})
		assert.True(t, found)

		got, _ := table.Get("a")
		assert.True(t, got.Verified)
	})

	t.Run("returns false for absent id", func(t *testing.T) {
		table := New()
		found := table.Mutate("missing", func(s *model.Session) bool { return true })
		assert.False(t, found)
	})

	t.Run("removes the record when fn returns false", func(t *testing.T) {
		table := New()
		require.NoError(t, table.Put(newSession("a", time.Now().Add(time.Minute))))

		table.Mutate("a", func(s *model.Session) bool { return false })

		_, ok := table.Get("a")
		assert.False(t, ok)
	})
}

func TestTableDelete(t *testing.T) {
	table := New()
	require.NoError(t, table.Put(newSession("a", time.Now().Add(time.Minute))))

	table.Delete("a")
	_, ok := table.Get("a")
	assert.False(t, ok)

	// deleting an absent id is a no-op
	table.Delete("a")
}

func TestTableDeleteExpired(t *testing.T) {
	table := New()
	now := time.Now()

	for i := 0; i < 10; i++ {
		require.NoError(t, table.Put(newSession(fmt.Sprintf("live-%d", i), now.Add(time.Minute))))
	}
	for i := 0; i < 7; i++ {
		require.NoError(t, table.Put(newSession(fmt.Sprintf("dead-%d", i), now.Add(-time.Second))))
	}

	removed := table.DeleteExpired(now)
	assert.Equal(t, 7, removed)
	assert.Equal(t, 10, table.Len())

	_, ok := table.Get("dead-0")
	assert.False(t, ok)
	_, ok = table.Get("live-0")
	assert.True(t, ok)
}

func TestTableConcurrentAccess(t *testing.T) {
	table := New()
	const ids = 32
	const iterations = 200

	for i := 0; i < ids; i++ {
		require.NoError(t, table.Put(newSession(fmt.Sprintf("s-%d", i), time.Now().Add(time.Hour))))
	}

	var wg sync.WaitGroup
	for i := 0; i < ids; i++ {
		id := fmt.Sprintf("s-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < iterations; n++ {
				table.Mutate(id, func(s *model.Session) bool {
					s.CaptchaAnswer = fmt.Sprintf("%d", n)
					return true
				})
				table.Get(id)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, ids, table.Len())
}

func TestTableMutateIsAtomicPerID(t *testing.T) {
	table := New()
	require.NoError(t, table.Put(newSession("a", time.Now().Add(time.Hour))))

	// Many racing mutators flip Verified exactly once between them.
	var wg sync.WaitGroup
	wins := make(chan struct{}, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table.Mutate("a", func(s *model.Session) bool {
				if !s.Verified {
					s.Verified = true
					wins <- struct{}{}
				}
				return true
			})
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestNewWithShards(t *testing.T) {
	t.Run("falls back to default for non-power-of-two", func(t *testing.T) {
		table := NewWithShards(13)
		assert.Len(t, table.shards, DefaultShardCount)
	})

	t.Run("accepts power of two", func(t *testing.T) {
		table := NewWithShards(4)
		assert.Len(t, table.shards, 4)
	})
}
