package graphics

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex layouts. The primitive stream carries position and color; the
// sprite stream adds texture coordinates.
const (
	primStride   = 6 // pos.xy + color.rgba
	spriteStride = 8 // pos.xy + color.rgba + uv

	floatSize = 4
)

const primShaderSrc = `
struct Screen {
    size: vec2<f32>,
    pad: vec2<f32>,
};

@group(0) @binding(0) var<uniform> screen: Screen;

struct VertexOutput {
    @builtin(position) pos: vec4<f32>,
    @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    let ndc = vec2<f32>(
        pos.x / screen.size.x * 2.0 - 1.0,
        1.0 - pos.y / screen.size.y * 2.0,
    );
    out.pos = vec4<f32>(ndc, 0.0, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

const spriteShaderSrc = `
struct Screen {
    size: vec2<f32>,
    pad: vec2<f32>,
};

@group(0) @binding(0) var<uniform> screen: Screen;
@group(1) @binding(0) var sheet: texture_2d<f32>;
@group(1) @binding(1) var sheetSampler: sampler;

struct VertexOutput {
    @builtin(position) pos: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) uv: vec2<f32>,
};

@vertex
fn vs_main(
    @location(0) pos: vec2<f32>,
    @location(1) color: vec4<f32>,
    @location(2) uv: vec2<f32>,
) -> VertexOutput {
    var out: VertexOutput;
    let ndc = vec2<f32>(
        pos.x / screen.size.x * 2.0 - 1.0,
        1.0 - pos.y / screen.size.y * 2.0,
    );
    out.pos = vec4<f32>(ndc, 0.0, 1.0);
    out.color = color;
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(sheet, sheetSampler, in.uv) * in.color;
}
`

// pipelines holds the two render pipelines plus the layouts and sampler the
// renderer binds against. Built once per context.
type pipelines struct {
	screenLayout *wgpu.BindGroupLayout // group 0: screen-size uniform
	sheetLayout  *wgpu.BindGroupLayout // group 1: texture + sampler
	sampler      *wgpu.Sampler

	prim   *wgpu.RenderPipeline
	sprite *wgpu.RenderPipeline
}

func alphaBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func newPipelines(ctx *Context) (*pipelines, error) {
	p := &pipelines{}

	var err error
	p.screenLayout, err = ctx.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "screen uniform layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create screen layout: %w", err)
	}

	p.sheetLayout, err = ctx.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "sheet layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("create sheet layout: %w", err)
	}

	// Nearest filtering keeps pixel art crisp.
	p.sampler, err = ctx.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "sheet sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	p.prim, err = p.buildPipeline(ctx, "primitive pipeline", primShaderSrc,
		[]*wgpu.BindGroupLayout{p.screenLayout},
		wgpu.VertexBufferLayout{
			ArrayStride: primStride * floatSize,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 2 * floatSize, ShaderLocation: 1},
			},
		})
	if err != nil {
		p.release()
		return nil, err
	}

	p.sprite, err = p.buildPipeline(ctx, "sprite pipeline", spriteShaderSrc,
		[]*wgpu.BindGroupLayout{p.screenLayout, p.sheetLayout},
		wgpu.VertexBufferLayout{
			ArrayStride: spriteStride * floatSize,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 2 * floatSize, ShaderLocation: 1},
				{Format: wgpu.VertexFormatFloat32x2, Offset: 6 * floatSize, ShaderLocation: 2},
			},
		})
	if err != nil {
		p.release()
		return nil, err
	}

	return p, nil
}

func (p *pipelines) buildPipeline(ctx *Context, label, shaderSrc string, groups []*wgpu.BindGroupLayout, vertexLayout wgpu.VertexBufferLayout) (*wgpu.RenderPipeline, error) {
	shader, err := ctx.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label + " shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: shaderSrc,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", label, err)
	}
	defer shader.Release()

	layout, err := ctx.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s layout: %w", label, err)
	}
	defer layout.Release()

	pipe, err := ctx.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    ctx.format,
					Blend:     alphaBlend(),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return pipe, nil
}

func (p *pipelines) release() {
	if p.sprite != nil {
		p.sprite.Release()
		p.sprite = nil
	}
	if p.prim != nil {
		p.prim.Release()
		p.prim = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	if p.sheetLayout != nil {
		p.sheetLayout.Release()
		p.sheetLayout = nil
	}
	if p.screenLayout != nil {
		p.screenLayout.Release()
		p.screenLayout = nil
	}
}
