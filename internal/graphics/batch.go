package graphics

// spriteBatch is a contiguous run of sprite-stream vertices that share one
// texture and can be issued as a single draw.
type spriteBatch struct {
	texture *Texture
	first   int // first vertex in the sprite stream
	count   int // vertices in the run
}

// batchQueue accumulates sprite batches in insertion order as draws are
// recorded. A draw extends the tail batch when it uses the same texture and
// starts exactly where the tail ends; otherwise it opens a new batch. The
// queue is therefore already final when the frame ends, no sorting or
// second pass over the stream is needed.
type batchQueue struct {
	batches []spriteBatch
}

func (q *batchQueue) reset() {
	q.batches = q.batches[:0]
}

// add records count vertices starting at first, drawn with texture.
func (q *batchQueue) add(texture *Texture, first, count int) {
	if n := len(q.batches); n > 0 {
		tail := &q.batches[n-1]
		if tail.texture == texture && tail.first+tail.count == first {
			tail.count += count
			return
		}
	}
	q.batches = append(q.batches, spriteBatch{texture: texture, first: first, count: count})
}

func (q *batchQueue) len() int { return len(q.batches) }
