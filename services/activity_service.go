package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"bikerental-api/models"
	"bikerental-api/repositories"
)

// ActivityTracker records at most one activity row per user per interval.
type ActivityTracker struct {
	users    *repositories.UserRepository
	clock    clockwork.Clock
	interval time.Duration

	lastSeen map[string]time.Time
	mutex    sync.Mutex
}

func NewActivityTracker(users *repositories.UserRepository, clock clockwork.Clock, interval time.Duration) *ActivityTracker {
	return &ActivityTracker{
		users:    users,
		clock:    clock,
		interval: interval,
		lastSeen: make(map[string]time.Time),
	}
}

// Track stores an activity unless the user was recorded within the
// interval. It reports whether a row was written.
func (t *ActivityTracker) Track(userID, ip, path string) (bool, error) {
	now := t.clock.Now()

	t.mutex.Lock()
	last, ok := t.lastSeen[userID]
	if ok && now.Sub(last) < t.interval {
		t.mutex.Unlock()
		return false, nil
	}
	t.lastSeen[userID] = now
	t.mutex.Unlock()

	err := t.users.RecordActivity(&models.UserActivity{
		UserID:    userID,
		Timestamp: now,
		IPAddress: ip,
		Path:      path,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Prune forgets users not seen within the interval.
func (t *ActivityTracker) Prune() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := t.clock.Now()
	removed := 0
	for userID, last := range t.lastSeen {
		if now.Sub(last) >= t.interval {
			delete(t.lastSeen, userID)
			removed++
		}
	}
	return removed
}
