package graphics

import "retrocanvas/internal/config"

// vertexArena is a fixed-capacity float32 vertex stream with a frame cursor.
// All allocation is a cursor bump; the backing slice is never regrown, so a
// frame's writes are bounded and allocation-free.
type vertexArena struct {
	data     []float32
	capVerts int
	stride   int // floats per vertex
	cursor   int // in vertices
	policy   config.OverflowPolicy
	dropped  int // vertices rejected this frame
	wrapped  bool
}

func newVertexArena(capVerts, stride int, policy config.OverflowPolicy) *vertexArena {
	return &vertexArena{
		data:     make([]float32, capVerts*stride),
		capVerts: capVerts,
		stride:   stride,
		policy:   policy,
	}
}

// reset rewinds the cursor for a new frame.
func (a *vertexArena) reset() {
	a.cursor = 0
	a.dropped = 0
	a.wrapped = false
}

// alloc reserves n vertices and returns the float32 span to fill. Returns
// nil when the write does not fit and the policy rejects it; previously
// written vertices are never disturbed in that case. Under OverflowWrap the
// cursor restarts at zero and the frame's stream starts over: prefix() then
// covers only post-wrap writes, so earlier geometry is discarded. A request
// larger than the whole arena is always rejected.
func (a *vertexArena) alloc(n int) []float32 {
	if n > a.capVerts {
		a.dropped += n
		return nil
	}
	if a.cursor+n > a.capVerts {
		if a.policy != config.OverflowWrap {
			a.dropped += n
			return nil
		}
		a.cursor = 0
		a.wrapped = true
	}
	start := a.cursor * a.stride
	a.cursor += n
	return a.data[start : start+n*a.stride]
}

// used returns the number of vertices written this frame.
func (a *vertexArena) used() int { return a.cursor }

// remaining returns how many vertices still fit before the policy kicks in.
func (a *vertexArena) remaining() int { return a.capVerts - a.cursor }

// prefix returns the written portion of the stream, the only part that is
// uploaded at frame end.
func (a *vertexArena) prefix() []float32 {
	return a.data[:a.cursor*a.stride]
}
