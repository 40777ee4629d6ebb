// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// VoxelVertexShader transforms mesh and line vertices.
//
//go:embed voxel.vert
var VoxelVertexShader string

// VoxelFragmentShader shades faces flat from screen-space derivatives.
//
//go:embed voxel.frag
var VoxelFragmentShader string
