package backoff

import (
	"math/rand"
	"time"
)

// Policy computes reconnect delays: Base doubled per attempt, capped at Cap,
// with optional proportional jitter.
type Policy struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter float64 // 0..1, fraction of the computed delay
}

// Default provides conservative reconnect defaults.
func Default() Policy {
	return Policy{
		Base: time.Second,
		Cap:  8 * time.Second,
	}
}

// Delay returns the wait before the given attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	cap := p.Cap
	if cap <= 0 {
		cap = 8 * time.Second
	}

	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= cap {
			wait = cap
			break
		}
	}
	if wait > cap {
		wait = cap
	}

	if p.Jitter <= 0 {
		return wait
	}
	jitter := p.Jitter
	if jitter > 1 {
		jitter = 1
	}
	delta := float64(wait) * jitter
	return wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
}
