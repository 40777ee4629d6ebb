package octree

import (
	"fmt"

	"github.com/Faultbox/icebox/pkg/math"
)

// Per-leaf cube layout.
const (
	VerticesPerCube = 8
	IndicesPerCube  = 36
)

// cubeCorners lists the corner signs in emission order.
var cubeCorners = [VerticesPerCube]math.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: 1},
}

// cubeIndices holds two counter-clockwise (seen from outside) triangles per face.
var cubeIndices = [IndicesPerCube]uint32{
	0, 2, 1, 0, 3, 2, // back   (-Z)
	4, 6, 7, 6, 4, 5, // front  (+Z)
	1, 6, 5, 6, 1, 2, // right  (+X)
	3, 4, 7, 4, 3, 0, // left   (-X)
	3, 6, 2, 6, 3, 7, // top    (+Y)
	4, 1, 5, 1, 4, 0, // bottom (-Y)
}

// Mesh is an indexed triangle list.
type Mesh struct {
	// Indices holds three vertex indices per triangle.
	Indices []uint32
	// Positions holds x, y, z per vertex.
	Positions []float64
	// Colors holds r, g, b per vertex, taken from the owning leaf.
	Colors []uint8
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) [3]float64 {
	return [3]float64{m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]}
}

// Bounds returns the axis-aligned bounds of all vertices.
// ok is false for an empty mesh.
func (m *Mesh) Bounds() (lo, hi [3]float64, ok bool) {
	if len(m.Positions) < 3 {
		return lo, hi, false
	}
	lo = m.Vertex(0)
	hi = lo
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	return lo, hi, true
}

// MeshWriter persists a mesh to a file.
type MeshWriter interface {
	WriteMesh(path string, m *Mesh) error
}

// ExportMesh emits one independent cube per leaf, in depth-first order.
// Adjacent cubes share no vertices.
func (t *VoxelOctree) ExportMesh() *Mesh {
	leaves := t.Stats().Leaves
	m := &Mesh{
		Indices:   make([]uint32, 0, leaves*IndicesPerCube),
		Positions: make([]float64, 0, leaves*VerticesPerCube*3),
		Colors:    make([]uint8, 0, leaves*VerticesPerCube*3),
	}
	t.Walk(func(o *Octant) bool {
		if o.IsLeaf() {
			m.addCube(o)
		}
		return true
	})
	return m
}

// ExportTo hands the exported mesh to w. Write errors are returned as is,
// wrapped with the destination path.
func (t *VoxelOctree) ExportTo(path string, w MeshWriter) error {
	if err := w.WriteMesh(path, t.ExportMesh()); err != nil {
		return fmt.Errorf("exporting mesh to %s: %w", path, err)
	}
	return nil
}

func (m *Mesh) addCube(o *Octant) {
	base := uint32(m.VertexCount())
	r, g, b := o.Color()
	for _, corner := range cubeCorners {
		p := o.Center.Add(o.HalfSize.Mul(corner)).Float64()
		m.Positions = append(m.Positions, p[0], p[1], p[2])
		m.Colors = append(m.Colors, r, g, b)
	}
	for _, idx := range cubeIndices {
		m.Indices = append(m.Indices, base+idx)
	}
}
