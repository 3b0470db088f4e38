package transport

import (
	"math"
	"sync"
	"time"
)

// ReconnectPolicy tunes the backoff schedule applied after abnormal closure.
type ReconnectPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 5
	}
	if p.Delay == 0 {
		p.Delay = time.Second
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier == 0 {
		p.Multiplier = 2
	}
	return p
}

// reconnector owns the retry budget and the one cancellable backoff timer.
// Policy only: it never touches the socket.
type reconnector struct {
	mu sync.Mutex

	policy  ReconnectPolicy
	attempt int

	timer *time.Timer
	// generation invalidates in-flight timers. A fire whose generation no
	// longer matches is a no-op, which is what makes Cancel race-free.
	generation uint64
}

func newReconnector(policy ReconnectPolicy) *reconnector {
	return &reconnector{policy: policy.withDefaults()}
}

// Next consumes one attempt from the budget and returns the 1-based attempt
// number and the delay to wait, or ok=false if the budget is exhausted.
func (r *reconnector) Next() (attempt int, delay time.Duration, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attempt >= r.policy.MaxAttempts {
		return 0, 0, false
	}

	delay = r.delayFor(r.attempt)
	r.attempt++
	return r.attempt, delay, true
}

func (r *reconnector) delayFor(attempt int) time.Duration {
	delay := time.Duration(float64(r.policy.Delay) * math.Pow(r.policy.Multiplier, float64(attempt)))
	if delay > r.policy.MaxDelay || delay <= 0 {
		delay = r.policy.MaxDelay
	}
	return delay
}

// Schedule arms the backoff timer. The previous timer, if any, is cancelled.
func (r *reconnector) Schedule(delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTimer()
	generation := r.generation
	r.timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		if r.generation != generation {
			r.mu.Unlock()
			return
		}
		r.timer = nil
		r.mu.Unlock()
		fn()
	})
}

// Cancel stops any pending timer and guarantees its fire becomes a no-op.
func (r *reconnector) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimer()
}

// Reset cancels any pending timer and restores the full retry budget.
func (r *reconnector) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimer()
	r.attempt = 0
}

func (r *reconnector) stopTimer() {
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
