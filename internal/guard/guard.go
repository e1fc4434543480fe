// Package guard serializes mutating operations against one poll instance.
// The lock table is process-local; running several instances against the
// same store needs an external distributed lock, which is out of scope.
package guard

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"open_poll_bot/internal/db/models"
)

// ErrUnavailable is returned when the lock could not be acquired within the
// attempt budget. No state change has happened; the caller reports a
// transient error.
var ErrUnavailable = errors.New("poll instance lock unavailable")

const acquireAttempts = 3

// Guard holds one semaphore per poll instance. Entries are created lazily
// and never evicted.
type Guard struct {
	attemptTimeout time.Duration
	locks          sync.Map // instance key -> chan struct{}
}

func New(attemptTimeout time.Duration) *Guard {
	return &Guard{attemptTimeout: attemptTimeout}
}

func (g *Guard) semaphore(instance models.Instance) chan struct{} {
	actual, _ := g.locks.LoadOrStore(instance.Key(), make(chan struct{}, 1))
	return actual.(chan struct{})
}

// WithLock runs fn while holding the instance's lock. Acquisition is tried
// up to 3 times, each bounded by the attempt timeout; waiters are not woken
// in FIFO order, only mutual exclusion is guaranteed. The lock is released
// even if fn panics.
func (g *Guard) WithLock(instance models.Instance, fn func() error) error {
	sem := g.semaphore(instance)

	acquired := false
	for attempt := 0; attempt < acquireAttempts && !acquired; attempt++ {
		timer := time.NewTimer(g.attemptTimeout)
		select {
		case sem <- struct{}{}:
			acquired = true
			timer.Stop()
		case <-timer.C:
		}
	}

	if !acquired {
		return ErrUnavailable
	}

	defer func() { <-sem }()
	return fn()
}
