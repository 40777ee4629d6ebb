package octree

import (
	"github.com/Faultbox/icebox/pkg/math"
)

// FillState classifies how much of a candidate octant is occupied.
type FillState int

const (
	// Empty means no occupied volume intersects the octant.
	Empty FillState = iota
	// ContainsVoxel means the octant straddles the boundary of the volume.
	ContainsVoxel
	// Full means the octant lies entirely inside the volume.
	Full
)

// String returns a human-readable fill state name.
func (s FillState) String() string {
	switch s {
	case Empty:
		return "Empty"
	case ContainsVoxel:
		return "ContainsVoxel"
	case Full:
		return "Full"
	default:
		return "Unknown"
	}
}

// Classifier decides the fill state of a candidate child octant.
//
// center is the child's midpoint, inner is the child corner nearest the
// parent's center and outer the corner farthest from it. A Classifier must be
// a pure function of its arguments: generation may call it in any order and
// from several goroutines at once.
type Classifier func(center, inner, outer math.Vec3) FillState

// SphereClassifier tests octants against a solid sphere.
//
// The nearest and farthest corners are derived per axis from the absolute
// offsets of inner and outer, which is exact as long as the octant does not
// straddle an axis plane through the sphere center. Octants of a tree
// centered on the sphere never do.
func SphereClassifier(center math.Vec3, radius float32) Classifier {
	return func(_, inner, outer math.Vec3) FillState {
		a := inner.Sub(center).Abs()
		b := outer.Sub(center).Abs()
		if a.Min(b).Length() >= radius {
			return Empty
		}
		if a.Max(b).Length() < radius {
			return Full
		}
		return ContainsVoxel
	}
}

// BoxClassifier tests octants against the axis-aligned box [lo, hi].
// Octants that only touch a face of the box are empty.
func BoxClassifier(lo, hi math.Vec3) Classifier {
	return func(_, inner, outer math.Vec3) FillState {
		cmin := inner.Min(outer)
		cmax := inner.Max(outer)
		if cmax.X <= lo.X || cmax.Y <= lo.Y || cmax.Z <= lo.Z ||
			cmin.X >= hi.X || cmin.Y >= hi.Y || cmin.Z >= hi.Z {
			return Empty
		}
		if cmin.X >= lo.X && cmin.Y >= lo.Y && cmin.Z >= lo.Z &&
			cmax.X <= hi.X && cmax.Y <= hi.Y && cmax.Z <= hi.Z {
			return Full
		}
		return ContainsVoxel
	}
}

// Union combines classifiers into one that is occupied wherever any input is.
func Union(classifiers ...Classifier) Classifier {
	return func(center, inner, outer math.Vec3) FillState {
		result := Empty
		for _, c := range classifiers {
			switch c(center, inner, outer) {
			case Full:
				return Full
			case ContainsVoxel:
				result = ContainsVoxel
			}
		}
		return result
	}
}

// Intersect combines classifiers into one that is occupied only where every
// input is. Two partial octants stay partial even if their occupied parts do
// not overlap; deeper levels settle the difference.
func Intersect(classifiers ...Classifier) Classifier {
	return func(center, inner, outer math.Vec3) FillState {
		if len(classifiers) == 0 {
			return Empty
		}
		result := Full
		for _, c := range classifiers {
			switch c(center, inner, outer) {
			case Empty:
				return Empty
			case ContainsVoxel:
				result = ContainsVoxel
			}
		}
		return result
	}
}
