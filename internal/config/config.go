package config

import "sync"

// OverflowPolicy selects what a vertex arena does when a write would exceed
// its fixed capacity.
type OverflowPolicy int

const (
	// OverflowDrop rejects the write and leaves the arena untouched.
	OverflowDrop OverflowPolicy = iota
	// OverflowWrap restarts the cursor at zero. Geometry recorded before
	// the wrap is discarded from the frame; only post-wrap writes draw.
	OverflowWrap
)

// EngineSettings holds process-global engine configuration
type EngineSettings struct {
	mu sync.RWMutex

	tickRate       int // fixed updates per second
	fpsLimit       int // presentation cap, 0 = uncapped
	maxCatchUp     int // max updates per presentation callback, 0 = unbounded
	primArenaCap   int // primitive stream capacity, in vertices
	spriteArenaCap int // sprite stream capacity, in vertices
	overflow       OverflowPolicy
}

var globalEngineSettings = &EngineSettings{
	tickRate:       60,
	fpsLimit:       0,
	maxCatchUp:     8,
	primArenaCap:   65536,
	spriteArenaCap: 65536,
	overflow:       OverflowDrop,
}

// GetTickRate returns the fixed update rate in ticks per second
func GetTickRate() int {
	globalEngineSettings.mu.RLock()
	defer globalEngineSettings.mu.RUnlock()
	return globalEngineSettings.tickRate
}

// SetTickRate sets the fixed update rate in ticks per second
func SetTickRate(rate int) {
	globalEngineSettings.mu.Lock()
	defer globalEngineSettings.mu.Unlock()

	// Clamp to reasonable values
	if rate < 1 {
		rate = 1
	}
	if rate > 1000 {
		rate = 1000
	}

	globalEngineSettings.tickRate = rate
}

// GetFPSLimit returns the presentation rate cap (0 = uncapped)
func GetFPSLimit() int {
	globalEngineSettings.mu.RLock()
	defer globalEngineSettings.mu.RUnlock()
	return globalEngineSettings.fpsLimit
}

// SetFPSLimit sets the presentation rate cap (0 = uncapped)
func SetFPSLimit(limit int) {
	globalEngineSettings.mu.Lock()
	defer globalEngineSettings.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}

	globalEngineSettings.fpsLimit = limit
}

// GetMaxCatchUp returns the maximum number of fixed updates run per
// presentation callback. 0 means unbounded catch-up.
func GetMaxCatchUp() int {
	globalEngineSettings.mu.RLock()
	defer globalEngineSettings.mu.RUnlock()
	return globalEngineSettings.maxCatchUp
}

// SetMaxCatchUp bounds how many fixed updates a single presentation callback
// may run after a stall. Past the bound the remaining backlog is discarded.
// 0 disables the bound.
func SetMaxCatchUp(n int) {
	globalEngineSettings.mu.Lock()
	defer globalEngineSettings.mu.Unlock()

	if n < 0 {
		n = 0
	}

	globalEngineSettings.maxCatchUp = n
}

// GetPrimitiveArenaCapacity returns the primitive vertex stream capacity
func GetPrimitiveArenaCapacity() int {
	globalEngineSettings.mu.RLock()
	defer globalEngineSettings.mu.RUnlock()
	return globalEngineSettings.primArenaCap
}

// SetPrimitiveArenaCapacity sets the primitive vertex stream capacity.
// Takes effect the next time a renderer is constructed.
func SetPrimitiveArenaCapacity(capacity int) {
	globalEngineSettings.mu.Lock()
	defer globalEngineSettings.mu.Unlock()

	if capacity < 64 {
		capacity = 64
	}
	if capacity > 1<<22 {
		capacity = 1 << 22
	}

	globalEngineSettings.primArenaCap = capacity
}

// GetSpriteArenaCapacity returns the sprite vertex stream capacity
func GetSpriteArenaCapacity() int {
	globalEngineSettings.mu.RLock()
	defer globalEngineSettings.mu.RUnlock()
	return globalEngineSettings.spriteArenaCap
}

// SetSpriteArenaCapacity sets the sprite vertex stream capacity.
// Takes effect the next time a renderer is constructed.
func SetSpriteArenaCapacity(capacity int) {
	globalEngineSettings.mu.Lock()
	defer globalEngineSettings.mu.Unlock()

	if capacity < 64 {
		capacity = 64
	}
	if capacity > 1<<22 {
		capacity = 1 << 22
	}

	globalEngineSettings.spriteArenaCap = capacity
}

// GetOverflowPolicy returns the arena overflow policy
func GetOverflowPolicy() OverflowPolicy {
	globalEngineSettings.mu.RLock()
	defer globalEngineSettings.mu.RUnlock()
	return globalEngineSettings.overflow
}

// SetOverflowPolicy selects what happens when a draw call would exceed an
// arena's capacity. OverflowDrop rejects the write (the geometry is absent
// from the frame); OverflowWrap restarts the stream's frame from scratch,
// so everything recorded before the wrap is discarded and only writes after
// it draw.
func SetOverflowPolicy(p OverflowPolicy) {
	globalEngineSettings.mu.Lock()
	defer globalEngineSettings.mu.Unlock()

	if p != OverflowDrop && p != OverflowWrap {
		p = OverflowDrop
	}

	globalEngineSettings.overflow = p
}
