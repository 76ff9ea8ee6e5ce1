package jobs

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onelink/captcha-server-go/internal/metrics"
	"github.com/onelink/captcha-server-go/internal/store"
)

// CleanupJob periodically sweeps expired sessions out of the table. The
// lifecycle operations already evict lazily on access; the sweep exists so
// that sessions which are created and never touched again do not accumulate.
type CleanupJob struct {
	table    *store.Table
	interval time.Duration
	done     chan struct{}
}

func NewCleanupJob(table *store.Table, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		table:    table,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	removed := j.table.DeleteExpired(time.Now())
	if removed > 0 {
		metrics.SessionsSwept.Add(float64(removed))
		log.Info().Int("count", removed).Msg("cleaned up expired sessions")
	}
}
