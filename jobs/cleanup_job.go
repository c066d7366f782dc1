// File: /jobs/cleanup_job.go
package jobs

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// CleanupTask purges expired in-memory state and reports how many entries
// it removed.
type CleanupTask struct {
	Name string
	Run  func() int
}

// CleanupJob periodically runs cleanup tasks for expired OTP challenges,
// revoked tokens, activity throttling and idle rate limiters.
type CleanupJob struct {
	tasks    []CleanupTask
	clock    clockwork.Clock
	interval time.Duration
	logger   *zap.Logger
	ticker   clockwork.Ticker
	done     chan bool
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(clock clockwork.Clock, interval time.Duration, logger *zap.Logger, tasks ...CleanupTask) *CleanupJob {
	return &CleanupJob{
		tasks:    tasks,
		clock:    clock,
		interval: interval,
		logger:   logger,
		done:     make(chan bool),
	}
}

// Start begins the cleanup job
func (j *CleanupJob) Start() {
	j.logger.Info("cleanup job started", zap.Duration("interval", j.interval), zap.Int("tasks", len(j.tasks)))
	j.ticker = j.clock.NewTicker(j.interval)

	go func() {
		// Run immediately on start
		j.cleanup()

		for {
			select {
			case <-j.ticker.Chan():
				j.cleanup()
			case <-j.done:
				j.logger.Info("cleanup job stopped")
				return
			}
		}
	}()
}

// Stop stops the cleanup job
func (j *CleanupJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

func (j *CleanupJob) cleanup() {
	for _, task := range j.tasks {
		removed := task.Run()
		if removed > 0 {
			j.logger.Debug("cleanup removed entries", zap.String("task", task.Name), zap.Int("removed", removed))
		}
	}
}
