package oauth2client

import (
	"sync"
	"time"
)

const (
	// renewalMargin is subtracted from the token lifetime so renewal fires
	// while in-flight requests can still use the old token.
	renewalMargin = 5 * time.Second

	// minRenewalDelay floors the renewal interval so short-lived tokens never
	// produce a zero or negative delay.
	minRenewalDelay = time.Second

	// retryDelay is the fixed backoff before the single retry of a failed
	// background renewal.
	retryDelay = time.Second
)

// renewalDelay converts a token lifetime in seconds into the interval after
// which the background renewal should fire: renewalMargin before actual
// expiry, but always at least minRenewalDelay out.
func renewalDelay(expiresIn int) time.Duration {
	d := time.Duration(expiresIn)*time.Second - renewalMargin
	if d < minRenewalDelay {
		d = minRenewalDelay
	}
	return d
}

// renewalTimer owns at most one pending deferred renewal. Arming replaces the
// previous handle instead of nesting, so handles cannot leak across re-arms.
type renewalTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Arm schedules fn to run once after d on a background goroutine, cancelling
// any previously armed handle first. The handle is released once fn returns,
// unless fn re-armed the timer itself.
func (rt *renewalTimer) Arm(d time.Duration, fn func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timer != nil {
		rt.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		fn()
		rt.mu.Lock()
		if rt.timer == t {
			rt.timer = nil
		}
		rt.mu.Unlock()
	})
	rt.timer = t
}

// Cancel stops the pending handle, if any. Idempotent; stopping a handle that
// already fired is a no-op (the running callback is not interrupted).
func (rt *renewalTimer) Cancel() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

// armed reports whether a renewal is currently scheduled or running. Used by
// tests.
func (rt *renewalTimer) armed() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.timer != nil
}
