package auth

import (
	"sync"
	"time"
)

const (
	rateLimitWindow  = 5 * time.Minute
	rateLimitMaxFail = 10

	// rateLimitPruneThreshold bounds how many addresses are tracked
	// before stale ones are swept.
	rateLimitPruneThreshold = 1000
)

// loginRateLimiter counts failed logins per remote address over a
// sliding window and blocks an address once it reaches
// rateLimitMaxFail.
type loginRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

func newLoginRateLimiter(now func() time.Time) *loginRateLimiter {
	if now == nil {
		now = time.Now
	}

	return &loginRateLimiter{
		failures: make(map[string][]time.Time),
		now:      now,
	}
}

// limited reports whether ip has used up its failures for the window.
func (rl *loginRateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rateLimitWindow)
	if len(rl.failures) > rateLimitPruneThreshold {
		rl.sweepLocked(cutoff)
	}

	return len(rl.windowLocked(ip, cutoff)) >= rateLimitMaxFail
}

// record notes one failed login from ip.
func (rl *loginRateLimiter) record(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.failures[ip] = append(rl.failures[ip], rl.now())
}

// reset forgets ip after a successful login.
func (rl *loginRateLimiter) reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.failures, ip)
}

// windowLocked drops failures of ip at or before cutoff and returns the
// rest. Callers hold rl.mu.
func (rl *loginRateLimiter) windowLocked(ip string, cutoff time.Time) []time.Time {
	times := rl.failures[ip]

	// Failures are appended in time order, so the stale ones form a prefix.
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}

	if i == len(times) {
		delete(rl.failures, ip)
		return nil
	}

	rl.failures[ip] = times[i:]
	return times[i:]
}

// sweepLocked removes every address whose newest failure is at or
// before cutoff. Callers hold rl.mu.
func (rl *loginRateLimiter) sweepLocked(cutoff time.Time) {
	for ip, times := range rl.failures {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.failures, ip)
		}
	}
}
