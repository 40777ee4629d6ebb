package octree

// Walk visits nodes depth-first in pre-order, children in slot order.
// Returning false from fn skips the node's children.
func (t *VoxelOctree) Walk(fn func(*Octant) bool) {
	walk(t.root, fn)
}

func walk(o *Octant, fn func(*Octant) bool) {
	if !fn(o) {
		return
	}
	for _, c := range o.children {
		if c != nil {
			walk(c, fn)
		}
	}
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes         int // including the root
	Leaves        int
	MaxDepth      uint8
	LeavesByDepth map[uint8]int
}

// Stats walks the tree and collects node counts.
func (t *VoxelOctree) Stats() Stats {
	s := Stats{LeavesByDepth: make(map[uint8]int)}
	t.Walk(func(o *Octant) bool {
		s.Nodes++
		if o.Depth > s.MaxDepth {
			s.MaxDepth = o.Depth
		}
		if o.IsLeaf() {
			s.Leaves++
			s.LeavesByDepth[o.Depth]++
		}
		return true
	})
	return s
}
