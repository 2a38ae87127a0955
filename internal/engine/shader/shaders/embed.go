// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MapVertexShader positions the flat quad or the globe mesh.
//
//go:embed map.vert
var MapVertexShader string

// MapFragmentShader classifies borders and composites one map pixel.
//
//go:embed map.frag
var MapFragmentShader string
