// Package shaders holds the sources of the shaders that the launcher
// draws with. The SPIR-V that is actually loaded at runtime is built
// from them with go generate.
package shaders

import _ "embed"

//go:generate go run ../cmd/shaderc -o triangle.vert.spv triangle.vert.wgsl
//go:generate go run ../cmd/shaderc -o triangle.frag.spv triangle.frag.wgsl

var (
	//go:embed triangle.vert.wgsl
	TriangleVertex string

	//go:embed triangle.frag.wgsl
	TriangleFragment string
)

// Default locations of the compiled shaders, relative to the
// repository root.
const (
	VertexPath   = "shaders/triangle.vert.spv"
	FragmentPath = "shaders/triangle.frag.spv"
)
