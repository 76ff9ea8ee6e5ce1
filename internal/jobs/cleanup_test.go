package jobs

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onelink/captcha-server-go/internal/model"
	"github.com/onelink/captcha-server-go/internal/store"
)

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(store.New(), 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("sweeps expired sessions on start", func(t *testing.T) {
		table := store.New()
		now := time.Now()
		for i := 0; i < 5; i++ {
			require.NoError(t, table.Put(&model.Session{
				ID:        fmt.Sprintf("dead-%d", i),
				ExpiresAt: now.Add(-time.Minute),
			}))
		}
		require.NoError(t, table.Put(&model.Session{
			ID:        "live",
			ExpiresAt: now.Add(time.Hour),
		}))

		job := NewCleanupJob(table, time.Hour)
		job.Start()
		defer job.Stop()

		assert.Eventually(t, func() bool {
			return table.Len() == 1
		}, time.Second, 10*time.Millisecond)

		_, ok := table.Get("live")
		assert.True(t, ok)
	})

	t.Run("starts and stops without panic", func(t *testing.T) {
		job := NewCleanupJob(store.New(), 10*time.Millisecond)
		job.Start()
		time.Sleep(30 * time.Millisecond)
		job.Stop()
	})
}
