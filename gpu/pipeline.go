package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/pkg/errors"
)

// Pipeline draws a vertex buffer of Vertex as a triangle list into a
// framebuffer. It has no bind groups, and the viewport and scissor
// are set per pass.
type Pipeline struct {
	device hal.Device

	vert     hal.ShaderModule
	frag     hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
}

func NewPipeline(s *Session, t *Targets, vert, frag *Shader) (p *Pipeline, err error) {
	p = &Pipeline{device: s.device}
	defer func() {
		if err != nil {
			p.Destroy()
			p = nil
		}
	}()

	p.vert, err = s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "vertex_shader",
		Source: hal.ShaderSource{SPIRV: vert.Code},
	})
	if err != nil {
		return nil, stepError("create vertex shader module", errors.Wrap(err, vert.Path))
	}

	p.frag, err = s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "fragment_shader",
		Source: hal.ShaderSource{SPIRV: frag.Code},
	})
	if err != nil {
		return nil, stepError("create fragment shader module", errors.Wrap(err, frag.Path))
	}

	p.layout, err = s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "pipeline_layout",
	})
	if err != nil {
		return nil, stepError("create pipeline layout", err)
	}

	p.pipeline, err = s.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "triangle_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vert,
			EntryPoint: VertexEntryPoint,
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.frag,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    t.RenderPass.Format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: t.RenderPass.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, stepError("create render pipeline", err)
	}

	return p, nil
}

func (p *Pipeline) Destroy() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		p.device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.frag != nil {
		p.device.DestroyShaderModule(p.frag)
		p.frag = nil
	}
	if p.vert != nil {
		p.device.DestroyShaderModule(p.vert)
		p.vert = nil
	}
}
