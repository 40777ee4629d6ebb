package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Faultbox/icebox/pkg/octree"
)

// PLY errors.
var (
	ErrInvalidPLY           = errors.New("invalid PLY data")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
)

const (
	plyASCII        = "ascii"
	plyBinaryLE     = "binary_little_endian"
	plyHeaderEnd    = "end_header"
	plyVertexElem   = "vertex"
	plyFaceElem     = "face"
	plyFaceProperty = "vertex_indices"
)

// writePLY writes double-precision positions, optional uchar colors and
// triangle faces.
func writePLY(out io.Writer, m *octree.Mesh, colors, binaryLE bool) error {
	bw := bufio.NewWriter(out)

	format := plyASCII
	if binaryLE {
		format = plyBinaryLE
	}
	fmt.Fprintf(bw, "ply\nformat %s 1.0\ncomment icebox octree mesh\n", format)
	fmt.Fprintf(bw, "element vertex %d\n", m.VertexCount())
	bw.WriteString("property double x\nproperty double y\nproperty double z\n")
	if colors {
		bw.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	fmt.Fprintf(bw, "element face %d\n", m.TriangleCount())
	bw.WriteString("property list uchar uint vertex_indices\n")
	bw.WriteString(plyHeaderEnd + "\n")

	if binaryLE {
		var buf [8]byte
		for i := 0; i < m.VertexCount(); i++ {
			for _, p := range m.Positions[i*3 : i*3+3] {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p))
				bw.Write(buf[:])
			}
			if colors {
				bw.Write(m.Colors[i*3 : i*3+3])
			}
		}
		for i := 0; i+2 < len(m.Indices); i += 3 {
			bw.WriteByte(3)
			for _, idx := range m.Indices[i : i+3] {
				binary.LittleEndian.PutUint32(buf[:4], idx)
				bw.Write(buf[:4])
			}
		}
		return bw.Flush()
	}

	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		fmt.Fprintf(bw, "%s %s %s", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
		if colors {
			fmt.Fprintf(bw, " %d %d %d", m.Colors[i*3], m.Colors[i*3+1], m.Colors[i*3+2])
		}
		bw.WriteByte('\n')
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		fmt.Fprintf(bw, "3 %d %d %d\n", m.Indices[i], m.Indices[i+1], m.Indices[i+2])
	}
	return bw.Flush()
}

type plyProperty struct {
	name      string
	valueType string
	countType string // set for list properties
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// plyHeader holds the parsed PLY header.
type plyHeader struct {
	format   string
	elements []plyElement
}

// ParsePLY reads an ascii or binary_little_endian PLY file. Vertex positions
// come from x/y/z, colors from red/green/blue when all three are present, and
// faces from vertex_indices (polygons are split into triangle fans). Other
// elements and properties are skipped.
func ParsePLY(data []byte) (*octree.Mesh, error) {
	header, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	var rd plyValueReader
	switch header.format {
	case plyASCII:
		rd = &asciiValueReader{fields: strings.Fields(string(body))}
	case plyBinaryLE:
		rd = &binaryValueReader{r: bytes.NewReader(body)}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, header.format)
	}

	m := &octree.Mesh{}
	var colors []uint8
	for _, el := range header.elements {
		for n := 0; n < el.count; n++ {
			var pos [3]float64
			var rgb [3]uint8
			var nColor int
			for _, p := range el.props {
				if p.countType != "" {
					vals, err := readPLYList(rd, p)
					if err != nil {
						return nil, err
					}
					if el.name == plyFaceElem && (p.name == plyFaceProperty || p.name == "vertex_index") {
						if err := appendFan(m, vals); err != nil {
							return nil, err
						}
					}
					continue
				}

				v, err := rd.read(p.valueType)
				if err != nil {
					return nil, fmt.Errorf("%w: %s %d: %v", ErrTruncatedPLYData, el.name, n, err)
				}
				if el.name != plyVertexElem {
					continue
				}
				switch p.name {
				case "x":
					pos[0] = v
				case "y":
					pos[1] = v
				case "z":
					pos[2] = v
				case "red":
					rgb[0] = colorByte(v)
					nColor++
				case "green":
					rgb[1] = colorByte(v)
					nColor++
				case "blue":
					rgb[2] = colorByte(v)
					nColor++
				}
			}
			if el.name == plyVertexElem {
				m.Positions = append(m.Positions, pos[0], pos[1], pos[2])
				if nColor == 3 {
					colors = append(colors, rgb[0], rgb[1], rgb[2])
				}
			}
		}
	}

	if len(colors) == len(m.Positions) {
		m.Colors = colors
	}
	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPLY, err)
	}
	return m, nil
}

func parsePLYHeader(data []byte) (*plyHeader, []byte, error) {
	end := bytes.Index(data, []byte(plyHeaderEnd))
	if !bytes.HasPrefix(data, []byte("ply")) || end < 0 {
		return nil, nil, fmt.Errorf("%w: missing ply magic or end_header", ErrInvalidPLY)
	}
	nl := bytes.IndexByte(data[end:], '\n')
	if nl < 0 {
		return nil, nil, fmt.Errorf("%w: unterminated header", ErrInvalidPLY)
	}
	body := data[end+nl+1:]

	h := &plyHeader{}
	for i, line := range strings.Split(string(data[:end]), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "ply", "comment", "obj_info":
		case "format":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: line %d: bad format line", ErrInvalidPLY, i+1)
			}
			h.format = fields[1]
		case "element":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: line %d: bad element line", ErrInvalidPLY, i+1)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, nil, fmt.Errorf("%w: line %d: bad element count %q", ErrInvalidPLY, i+1, fields[2])
			}
			h.elements = append(h.elements, plyElement{name: fields[1], count: count})
		case "property":
			if len(h.elements) == 0 {
				return nil, nil, fmt.Errorf("%w: line %d: property before element", ErrInvalidPLY, i+1)
			}
			p, err := parsePLYProperty(fields)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", ErrInvalidPLY, i+1, err)
			}
			el := &h.elements[len(h.elements)-1]
			el.props = append(el.props, p)
		default:
			return nil, nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrInvalidPLY, i+1, fields[0])
		}
	}
	if h.format == "" {
		return nil, nil, fmt.Errorf("%w: missing format line", ErrInvalidPLY)
	}
	return h, body, nil
}

func parsePLYProperty(fields []string) (plyProperty, error) {
	if len(fields) == 5 && fields[1] == "list" {
		if !knownPLYType(fields[2]) || !knownPLYType(fields[3]) {
			return plyProperty{}, fmt.Errorf("unknown list types %s %s", fields[2], fields[3])
		}
		return plyProperty{name: fields[4], countType: fields[2], valueType: fields[3]}, nil
	}
	if len(fields) != 3 || !knownPLYType(fields[1]) {
		return plyProperty{}, fmt.Errorf("bad property %q", strings.Join(fields, " "))
	}
	return plyProperty{name: fields[2], valueType: fields[1]}, nil
}

func knownPLYType(t string) bool {
	switch t {
	case "char", "int8", "uchar", "uint8", "short", "int16", "ushort", "uint16",
		"int", "int32", "uint", "uint32", "float", "float32", "double", "float64":
		return true
	}
	return false
}

func readPLYList(rd plyValueReader, p plyProperty) ([]float64, error) {
	count, err := rd.read(p.countType)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrTruncatedPLYData, p.name, err)
	}
	if count < 0 || count != math.Trunc(count) {
		return nil, fmt.Errorf("%w: list %s: bad length %v", ErrInvalidPLY, p.name, count)
	}
	if left := rd.remaining(p.valueType); count > float64(left) {
		return nil, fmt.Errorf("%w: list %s: length %v exceeds %d values left", ErrInvalidPLY, p.name, count, left)
	}
	vals := make([]float64, int(count))
	for i := range vals {
		if vals[i], err = rd.read(p.valueType); err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrTruncatedPLYData, p.name, err)
		}
	}
	return vals, nil
}

func appendFan(m *octree.Mesh, vals []float64) error {
	if len(vals) < 3 {
		return fmt.Errorf("%w: face with %d vertices", ErrInvalidPLY, len(vals))
	}
	idx := make([]uint32, len(vals))
	for i, v := range vals {
		if v < 0 || v != math.Trunc(v) {
			return fmt.Errorf("%w: bad vertex index %v", ErrInvalidPLY, v)
		}
		idx[i] = uint32(v)
	}
	for k := 1; k+1 < len(idx); k++ {
		m.Indices = append(m.Indices, idx[0], idx[k], idx[k+1])
	}
	return nil
}

// plyValueReader yields successive scalar values from a PLY body.
type plyValueReader interface {
	read(valueType string) (float64, error)
	// remaining reports how many values of valueType are left, at most.
	remaining(valueType string) int
}

type asciiValueReader struct {
	fields []string
	pos    int
}

func (r *asciiValueReader) read(string) (float64, error) {
	if r.pos >= len(r.fields) {
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(r.fields[r.pos], 64)
	r.pos++
	return v, err
}

func (r *asciiValueReader) remaining(string) int {
	return len(r.fields) - r.pos
}

type binaryValueReader struct {
	r *bytes.Reader
}

func (b *binaryValueReader) remaining(valueType string) int {
	return b.r.Len() / plyTypeSize(valueType)
}

func plyTypeSize(valueType string) int {
	switch valueType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	default:
		return 8
	}
}

func (b *binaryValueReader) read(valueType string) (float64, error) {
	le := binary.LittleEndian
	switch valueType {
	case "char", "int8":
		var v int8
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	case "uchar", "uint8":
		var v uint8
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	case "short", "int16":
		var v int16
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	case "ushort", "uint16":
		var v uint16
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	case "int", "int32":
		var v int32
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	case "float", "float32":
		var v float32
		err := binary.Read(b.r, le, &v)
		return float64(v), err
	default:
		var v float64
		err := binary.Read(b.r, le, &v)
		return v, err
	}
}
