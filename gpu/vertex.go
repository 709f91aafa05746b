package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// vertexStride is the size of an encoded Vertex.
const vertexStride = 20

// Vertex is the input of the vertex shader: position at location 0
// and color at location 1.
type Vertex struct {
	Position [2]float32
	Color    [3]float32
}

// Triangle is the default geometry.
var Triangle = []Vertex{
	{Position: [2]float32{-0.5, -0.25}, Color: [3]float32{0.2, 0.2, 0.2}},
	{Position: [2]float32{0, 0.5}, Color: [3]float32{0.2, 0.2, 0.2}},
	{Position: [2]float32{0.25, -0.1}, Color: [3]float32{0.2, 0.2, 0.2}},
}

func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x3, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

func encodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*vertexStride)
	for _, v := range vertices {
		for _, f := range v.Position {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		for _, f := range v.Color {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}
