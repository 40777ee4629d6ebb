// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/icebox/pkg/math"
	"github.com/Faultbox/icebox/pkg/octree"
)

// BoxWireframeVertexCount is the number of line vertices per box (12 edges × 2).
const BoxWireframeVertexCount = 24

// BoxWireframe appends line vertices for the edges of the box [lo, hi] to dst.
// Layout is [x, y, z] per vertex, two vertices per edge.
func BoxWireframe(dst []float32, lo, hi math.Vec3) []float32 {
	return append(dst,
		// z = lo
		lo.X, lo.Y, lo.Z, hi.X, lo.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, hi.Y, lo.Z, lo.X, hi.Y, lo.Z,
		lo.X, hi.Y, lo.Z, lo.X, lo.Y, lo.Z,
		// z = hi
		lo.X, lo.Y, hi.Z, hi.X, lo.Y, hi.Z,
		hi.X, lo.Y, hi.Z, hi.X, hi.Y, hi.Z,
		hi.X, hi.Y, hi.Z, lo.X, hi.Y, hi.Z,
		lo.X, hi.Y, hi.Z, lo.X, lo.Y, hi.Z,
		// connecting
		lo.X, lo.Y, lo.Z, lo.X, lo.Y, hi.Z,
		hi.X, lo.Y, lo.Z, hi.X, lo.Y, hi.Z,
		hi.X, hi.Y, lo.Z, hi.X, hi.Y, hi.Z,
		lo.X, hi.Y, lo.Z, lo.X, hi.Y, hi.Z,
	)
}

// WireframeOptions selects which nodes NodeWireframe outlines.
type WireframeOptions struct {
	// InteriorOnly skips leaves, which the mesh already shows.
	InteriorOnly bool
	// MaxDepth stops descending below this depth. Zero means no limit.
	MaxDepth uint8
}

// NodeWireframe outlines the bounds of every node in the tree, root included.
func NodeWireframe(tree *octree.VoxelOctree, opts WireframeOptions) []float32 {
	var out []float32
	tree.Walk(func(o *octree.Octant) bool {
		if opts.MaxDepth > 0 && o.Depth > opts.MaxDepth {
			return false
		}
		if !(opts.InteriorOnly && o.IsLeaf()) {
			out = BoxWireframe(out, o.Min(), o.Max())
		}
		return true
	})
	return out
}
