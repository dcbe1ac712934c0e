package engine

import (
	"time"

	"retrocanvas/internal/config"
)

// FrameLimiter provides high-precision presentation rate limiting,
// independent of the fixed simulation timestep.
type FrameLimiter struct {
	next time.Time
}

// NewFrameLimiter creates a new frame limiter
func NewFrameLimiter() *FrameLimiter {
	return &FrameLimiter{}
}

// Wait blocks until the next frame should be presented based on the FPS
// limit. Uses a hybrid sleep/spin approach for better precision on high
// FPS caps.
func (f *FrameLimiter) Wait() {
	limit := config.GetFPSLimit()
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)

	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		// busy-wait for the final few microseconds
		// yields substantially better precision on high FPS caps
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// If we're significantly late (e.g., hitch), resync to avoid drift
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
