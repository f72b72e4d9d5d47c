package intake

// limiter.go serializes access to the database connection.
//
// The provisioner owns exactly one connection, so the limiter is normally
// built with a single slot. Submissions that cannot get the slot within
// maxWait fail with ErrBusy. WaitForDrain lets shutdown wait for the
// submission in flight before the connection is closed.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the connection slot stays occupied past the
// wait timeout. Clients should retry after a short delay.
var ErrBusy = errors.New("too many concurrent submissions, please try again later")

// DefaultCapacity is one slot per database connection.
const DefaultCapacity = 1

// DefaultMaxWaitTime is how long to wait for the slot before rejecting.
const DefaultMaxWaitTime = 5 * time.Second

// Limiter bounds concurrent submissions with a semaphore.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter with capacity slots.
// Requests that cannot acquire a slot within maxWait receive ErrBusy.
func NewLimiter(capacity int, maxWait time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &Limiter{
		semaphore: make(chan struct{}, capacity),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot.
// The caller MUST call Release when done (use defer).
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Caller cancellation wins over our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
}

// TryAcquire takes a slot without blocking and reports whether it got one.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of submissions holding a slot.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Capacity returns the number of slots.
func (l *Limiter) Capacity() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no submission holds a slot or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Capacity  int `json:"capacity"`
}

// Status returns the current limiter state for health checks.
func (l *Limiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:    active,
		Available: cap(l.semaphore) - len(l.semaphore),
		Capacity:  cap(l.semaphore),
	}
}
