package graphics

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupCache maps textures to their sampler bind groups. Keys are
// *Texture pointer identities: two textures with identical pixels still get
// distinct entries. Entries must be invalidated before their texture is
// released or later frames would bind a group referencing a dead view.
type bindGroupCache struct {
	mu      sync.Mutex
	entries map[*Texture]*wgpu.BindGroup
	create  func(*Texture) (*wgpu.BindGroup, error)
	release func(*wgpu.BindGroup)
}

func newBindGroupCache(create func(*Texture) (*wgpu.BindGroup, error), release func(*wgpu.BindGroup)) *bindGroupCache {
	return &bindGroupCache{
		entries: make(map[*Texture]*wgpu.BindGroup),
		create:  create,
		release: release,
	}
}

// get returns the bind group for t, creating and caching it on first use.
func (c *bindGroupCache) get(t *Texture) (*wgpu.BindGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bg, ok := c.entries[t]; ok {
		return bg, nil
	}
	bg, err := c.create(t)
	if err != nil {
		return nil, err
	}
	c.entries[t] = bg
	return bg, nil
}

// invalidate removes and releases the entry for t, if any. Must be called
// before t itself is released.
func (c *bindGroupCache) invalidate(t *Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bg, ok := c.entries[t]; ok {
		c.release(bg)
		delete(c.entries, t)
	}
}

// clear releases every entry. Used on renderer teardown and device loss.
func (c *bindGroupCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for t, bg := range c.entries {
		c.release(bg)
		delete(c.entries, t)
	}
}

func (c *bindGroupCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
