package graphics

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"retrocanvas/internal/logging"
)

// Context owns the WebGPU instance, adapter, device, queue and the window
// surface. It is created once at startup and must be rebuilt from scratch
// after device loss.
type Context struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	format   wgpu.TextureFormat

	width  uint32
	height uint32
}

// NewContext acquires a device and configures the window surface at the
// given presentation size. Must be called on the main thread.
func NewContext(window *glfw.Window, width, height int) (*Context, error) {
	c := &Context{instance: wgpu.CreateInstance(nil)}
	c.surface = c.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: c.surface,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	c.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "retrocanvas device",
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.device = device
	c.queue = device.GetQueue()

	c.configureSurface(width, height)

	logging.Logger().Info("graphics context ready", "width", width, "height", height)

	return c, nil
}

func (c *Context) configureSurface(width, height int) {
	caps := c.surface.GetCapabilities(c.adapter)
	c.format = caps.Formats[0]
	c.width = uint32(width)
	c.height = uint32(height)

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.format,
		Width:       c.width,
		Height:      c.height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})
}

// Resize reconfigures the surface for a new presentation size.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.configureSurface(width, height)
}

// acquireFrame returns the next surface texture and its view. Any failure
// here means the surface or device is gone.
func (c *Context) acquireFrame() (*wgpu.Texture, *wgpu.TextureView, error) {
	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: acquire surface texture: %v", ErrDeviceLost, err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, nil, fmt.Errorf("%w: create surface view: %v", ErrDeviceLost, err)
	}
	return surfaceTexture, view, nil
}

// Release frees every GPU object the context owns. Safe on a partially
// constructed context.
func (c *Context) Release() {
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}
