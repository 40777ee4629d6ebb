// Package meshio reads and writes octree meshes as Wavefront OBJ and
// Stanford PLY files.
package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/icebox/pkg/octree"
)

// Mesh I/O errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	ErrMalformedMesh     = errors.New("malformed mesh")
)

// Format identifies an on-disk mesh encoding.
type Format int

const (
	// FormatAuto selects the format from the file extension.
	FormatAuto Format = iota
	FormatOBJ
	FormatPLY
)

// String returns the canonical file extension of the format, without the dot.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatPLY:
		return "ply"
	default:
		return "auto"
	}
}

// ParseFormat converts a format name ("obj", "ply", "" or "auto") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "auto":
		return FormatAuto, nil
	case "obj":
		return FormatOBJ, nil
	case "ply":
		return FormatPLY, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks the format matching the file extension.
func FormatFromPath(path string) (Format, error) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatAuto, err
	}
	if f == FormatAuto {
		return FormatAuto, fmt.Errorf("%w: no extension on %s", ErrUnsupportedFormat, path)
	}
	return f, nil
}

// Options controls how meshes are encoded.
type Options struct {
	Format Format
	// Binary selects binary_little_endian PLY output. Ignored for OBJ.
	Binary bool
	// Colors includes per-vertex colors when the mesh carries them.
	Colors bool
}

// Writer writes meshes to files. It satisfies octree.MeshWriter.
type Writer struct {
	opts Options
}

// NewWriter creates a file writer with the given options.
func NewWriter(opts Options) *Writer {
	return &Writer{opts: opts}
}

// WriteMesh validates m and writes it to path, replacing any existing file.
func (w *Writer) WriteMesh(path string, m *octree.Mesh) (err error) {
	format := w.opts.Format
	if format == FormatAuto {
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}
	if err := Validate(m); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	bw := bufio.NewWriter(f)
	if err := encode(bw, m, format, w.opts); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return bw.Flush()
}

// Encode writes m to out in the given format.
func Encode(out io.Writer, m *octree.Mesh, opts Options) error {
	if opts.Format == FormatAuto {
		return fmt.Errorf("%w: format must be explicit when encoding to a stream", ErrUnsupportedFormat)
	}
	if err := Validate(m); err != nil {
		return err
	}
	return encode(out, m, opts.Format, opts)
}

func encode(out io.Writer, m *octree.Mesh, format Format, opts Options) error {
	colors := opts.Colors && len(m.Colors) == len(m.Positions)
	switch format {
	case FormatOBJ:
		return writeOBJ(out, m, colors)
	case FormatPLY:
		return writePLY(out, m, colors, opts.Binary)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ReadFile loads a mesh, choosing the parser from the file extension.
func ReadFile(path string) (*octree.Mesh, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	switch format {
	case FormatOBJ:
		return ParseOBJ(data)
	default:
		return ParsePLY(data)
	}
}

// Validate checks that m is a well-formed triangle list.
func Validate(m *octree.Mesh) error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrMalformedMesh)
	}
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position components", ErrMalformedMesh, len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrMalformedMesh, len(m.Indices))
	}
	if len(m.Colors) != 0 && len(m.Colors) != len(m.Positions) {
		return fmt.Errorf("%w: %d color components for %d vertices", ErrMalformedMesh, len(m.Colors), m.VertexCount())
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrMalformedMesh, idx, i, n)
		}
	}
	return nil
}

// colorByte rounds v to the nearest byte, saturating out-of-range values.
// NaN maps to 0.
func colorByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}
