package graphics

import (
	"testing"

	"retrocanvas/internal/config"
)

func TestArenaAllocAdvancesCursor(t *testing.T) {
	a := newVertexArena(12, primStride, config.OverflowDrop)
	v := a.alloc(6)
	if v == nil {
		t.Fatalf("alloc in empty arena returned nil")
	}
	if len(v) != 6*primStride {
		t.Fatalf("alloc span: got %d floats, want %d", len(v), 6*primStride)
	}
	if a.used() != 6 {
		t.Fatalf("used after alloc: got %d, want 6", a.used())
	}
	if a.remaining() != 6 {
		t.Fatalf("remaining after alloc: got %d, want 6", a.remaining())
	}
}

func TestArenaDropAtCapacity(t *testing.T) {
	a := newVertexArena(6, primStride, config.OverflowDrop)
	if a.alloc(6) == nil {
		t.Fatalf("first quad should fit exactly")
	}
	if a.alloc(6) != nil {
		t.Fatalf("second quad should be rejected at capacity")
	}
	if a.used() != 6 {
		t.Fatalf("rejected write disturbed the cursor: got %d, want 6", a.used())
	}
	if a.dropped != 6 {
		t.Fatalf("dropped counter: got %d, want 6", a.dropped)
	}
}

func TestArenaOversizeRequestAlwaysRejected(t *testing.T) {
	a := newVertexArena(6, primStride, config.OverflowWrap)
	if a.alloc(12) != nil {
		t.Fatalf("request larger than the arena must be rejected even under wrap")
	}
	if a.wrapped {
		t.Fatalf("oversize request must not wrap the cursor")
	}
}

func TestArenaWrapRestartsCursor(t *testing.T) {
	a := newVertexArena(12, spriteStride, config.OverflowWrap)
	a.alloc(6)
	a.alloc(6)
	v := a.alloc(6)
	if v == nil {
		t.Fatalf("wrap policy should accept the write")
	}
	if !a.wrapped {
		t.Fatalf("wrapped flag not set")
	}
	if a.used() != 6 {
		t.Fatalf("cursor after wrap: got %d, want 6", a.used())
	}
}

func TestArenaWrapPrefixCoversPostWrapWritesOnly(t *testing.T) {
	a := newVertexArena(12, primStride, config.OverflowWrap)
	a.alloc(6)
	a.alloc(6)
	v := a.alloc(6) // wraps, frame geometry starts over
	v[0] = 42
	p := a.prefix()
	if len(p) != 6*primStride {
		t.Fatalf("prefix after wrap: got %d floats, want %d", len(p), 6*primStride)
	}
	if p[0] != 42 {
		t.Fatalf("prefix after wrap does not start at the wrapped write")
	}
}

func TestArenaResetRewinds(t *testing.T) {
	a := newVertexArena(6, primStride, config.OverflowDrop)
	a.alloc(6)
	a.alloc(6) // dropped
	a.reset()
	if a.used() != 0 || a.dropped != 0 || a.wrapped {
		t.Fatalf("reset left state behind: used=%d dropped=%d wrapped=%v", a.used(), a.dropped, a.wrapped)
	}
	if a.alloc(6) == nil {
		t.Fatalf("alloc after reset should succeed")
	}
}

func TestArenaPrefixCoversWritesOnly(t *testing.T) {
	a := newVertexArena(12, primStride, config.OverflowDrop)
	v := a.alloc(6)
	for i := range v {
		v[i] = float32(i)
	}
	p := a.prefix()
	if len(p) != 6*primStride {
		t.Fatalf("prefix length: got %d, want %d", len(p), 6*primStride)
	}
	if p[0] != 0 || p[len(p)-1] != float32(6*primStride-1) {
		t.Fatalf("prefix does not expose the written floats")
	}
}

func BenchmarkArenaAlloc(b *testing.B) {
	a := newVertexArena(1<<16, spriteStride, config.OverflowDrop)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if a.remaining() < 6 {
			a.reset()
		}
		v := a.alloc(6)
		v[0] = float32(i)
	}
}
