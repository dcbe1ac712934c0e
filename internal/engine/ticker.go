package engine

import "time"

// ticker converts wall-clock frame deltas into whole fixed-rate simulation
// ticks. Leftover time stays in the accumulator for the next frame, so tick
// counts depend only on total elapsed time, not on how it was sliced.
type ticker struct {
	interval   time.Duration
	acc        time.Duration
	maxCatchUp int // ticks per advance, 0 = unbounded
}

func newTicker(ratePerSecond, maxCatchUp int) *ticker {
	if ratePerSecond < 1 {
		ratePerSecond = 1
	}
	return &ticker{
		interval:   time.Second / time.Duration(ratePerSecond),
		maxCatchUp: maxCatchUp,
	}
}

// advance adds dt and returns how many ticks are now due. When the catch-up
// bound is hit, the remaining backlog is returned as discarded and the
// accumulator is zeroed: after a long stall the simulation jumps forward
// instead of replaying the whole gap.
func (t *ticker) advance(dt time.Duration) (ticks int, discarded time.Duration) {
	t.acc += dt
	for t.acc >= t.interval {
		if t.maxCatchUp > 0 && ticks >= t.maxCatchUp {
			discarded = t.acc
			t.acc = 0
			return ticks, discarded
		}
		t.acc -= t.interval
		ticks++
	}
	return ticks, 0
}
