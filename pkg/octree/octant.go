// Package octree implements a sparse voxel octree that is generated from a
// volumetric classifier and exported as an indexed triangle mesh.
//
// Each node (Octant) packs its leaf flag and RGB color into a single uint32:
//
//	bits  0-7   leaf flag (nonzero means leaf)
//	bits  8-15  red
//	bits 16-23  green
//	bits 24-31  blue
//
// Empty space is never materialized: a child slot is only populated for
// octants the classifier reported as occupied.
package octree

import (
	"github.com/Faultbox/icebox/pkg/math"
)

// State layout.
const (
	leafMask   uint32 = 0xFF
	redShift          = 8
	greenShift        = 16
	blueShift         = 24
)

// Octant is one node of the tree.
type Octant struct {
	state    uint32
	children [8]*Octant

	Center   math.Vec3
	HalfSize math.Vec3
	Depth    uint8
}

// NewLeaf creates a solid leaf node with the given color.
func NewLeaf(center, halfSize math.Vec3, depth uint8, r, g, b uint8) *Octant {
	return &Octant{
		state:    packState(true, r, g, b),
		Center:   center,
		HalfSize: halfSize,
		Depth:    depth,
	}
}

// NewEmpty creates an interior placeholder with a zeroed state and no children.
func NewEmpty(center, halfSize math.Vec3, depth uint8) *Octant {
	return &Octant{
		Center:   center,
		HalfSize: halfSize,
		Depth:    depth,
	}
}

// AsLeaf returns a leaf occupying the same volume as o. The subtree below o
// is not carried over.
func (o *Octant) AsLeaf(r, g, b uint8) *Octant {
	return NewLeaf(o.Center, o.HalfSize, o.Depth, r, g, b)
}

// AsInterior returns a non-leaf copy of o that shares o's children. Only the
// leaf lane of the state is rewritten; the color lanes keep whatever o held.
func (o *Octant) AsInterior() *Octant {
	n := *o
	n.state = withLeafFlag(o.state, false)
	return &n
}

// IsLeaf reports whether the leaf lane is set.
func (o *Octant) IsLeaf() bool {
	return o.state&leafMask != 0
}

// Color unpacks the color lanes. The result is only meaningful for leaves.
func (o *Octant) Color() (r, g, b uint8) {
	return uint8(o.state >> redShift), uint8(o.state >> greenShift), uint8(o.state >> blueShift)
}

// State returns the raw packed state field.
func (o *Octant) State() uint32 {
	return o.state
}

// Child returns the child in slot i, or nil if the slot is empty.
// Slot bits are x=4, y=2, z=1, a set bit selecting the positive half.
func (o *Octant) Child(i int) *Octant {
	if i < 0 || i >= len(o.children) {
		return nil
	}
	return o.children[i]
}

// ChildCount returns the number of populated child slots.
func (o *Octant) ChildCount() int {
	n := 0
	for _, c := range o.children {
		if c != nil {
			n++
		}
	}
	return n
}

// Min returns the lower corner of the node's volume.
func (o *Octant) Min() math.Vec3 {
	return o.Center.Sub(o.HalfSize)
}

// Max returns the upper corner of the node's volume.
func (o *Octant) Max() math.Vec3 {
	return o.Center.Add(o.HalfSize)
}

func packState(leaf bool, r, g, b uint8) uint32 {
	state := uint32(r)<<redShift | uint32(g)<<greenShift | uint32(b)<<blueShift
	return withLeafFlag(state, leaf)
}

// withLeafFlag overwrites lane 0 and leaves the color lanes untouched.
func withLeafFlag(state uint32, leaf bool) uint32 {
	state &^= leafMask
	if leaf {
		state |= 1
	}
	return state
}

// signOf returns the per-axis sign vector for child slot i.
func signOf(i int) math.Vec3 {
	s := math.Vec3{X: -1, Y: -1, Z: -1}
	if i&4 != 0 {
		s.X = 1
	}
	if i&2 != 0 {
		s.Y = 1
	}
	if i&1 != 0 {
		s.Z = 1
	}
	return s
}
