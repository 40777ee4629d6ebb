package meshio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/icebox/pkg/octree"
)

// ErrInvalidOBJ is returned for OBJ data that cannot be parsed.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// writeOBJ writes vertices as "v x y z [r g b]" and triangles as 1-based "f a b c".
// Colors use the common vertex-color extension with components in [0, 1].
func writeOBJ(out io.Writer, m *octree.Mesh, colors bool) error {
	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "# icebox octree mesh\n# vertices %d\n# triangles %d\n", m.VertexCount(), m.TriangleCount())

	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		bw.WriteString("v ")
		bw.WriteString(formatFloat(v[0]))
		bw.WriteByte(' ')
		bw.WriteString(formatFloat(v[1]))
		bw.WriteByte(' ')
		bw.WriteString(formatFloat(v[2]))
		if colors {
			for _, c := range m.Colors[i*3 : i*3+3] {
				bw.WriteByte(' ')
				bw.WriteString(formatFloat(float64(c) / 255))
			}
		}
		bw.WriteByte('\n')
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		fmt.Fprintf(bw, "f %d %d %d\n", m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1)
	}
	return bw.Flush()
}

// ParseOBJ reads vertex positions, optional vertex colors and faces.
// Polygons with more than three vertices are split into triangle fans.
// Normals, texture coordinates and groups are ignored.
func ParseOBJ(data []byte) (*octree.Mesh, error) {
	m := &octree.Mesh{}
	var colors []uint8
	hasColors := true

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) != 4 && len(fields) != 7 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 or 6 values", ErrInvalidOBJ, line)
			}
			vals, err := parseFloats(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			m.Positions = append(m.Positions, vals[0], vals[1], vals[2])
			if len(vals) == 6 {
				for _, c := range vals[3:] {
					colors = append(colors, colorByte(c*255))
				}
			} else {
				hasColors = false
			}

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrInvalidOBJ, line)
			}
			idx := make([]uint32, 0, len(fields)-1)
			for _, f := range fields[1:] {
				i, err := parseFaceIndex(f, m.VertexCount())
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				m.Indices = append(m.Indices, idx[0], idx[k], idx[k+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
	}

	if hasColors && len(colors) == len(m.Positions) {
		m.Colors = colors
	}
	return m, nil
}

// parseFaceIndex resolves a "v", "v/vt" or "v/vt/vn" reference, including
// negative (relative) indices, to a 0-based vertex index.
func parseFaceIndex(ref string, vertexCount int) (uint32, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q", ref)
	}
	if n < 0 {
		n = vertexCount + n + 1
	}
	if n < 1 || n > vertexCount {
		return 0, fmt.Errorf("vertex reference %s out of range", ref)
	}
	return uint32(n - 1), nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
