package meshio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/icebox/pkg/math"
	"github.com/Faultbox/icebox/pkg/octree"
)

// sphereMesh builds a small mesh with mixed leaf sizes.
func sphereMesh(t *testing.T) *octree.Mesh {
	t.Helper()
	tree := octree.New(math.Vec3{}, math.Splat(2))
	if n := tree.GenerateSphere(0.9, 3); n == 0 {
		t.Fatal("sphere generation produced no nodes")
	}
	return tree.ExportMesh()
}

func assertSameMesh(t *testing.T, got, want *octree.Mesh, colors bool) {
	t.Helper()
	if len(got.Positions) != len(want.Positions) {
		t.Fatalf("expected %d position components, got %d", len(want.Positions), len(got.Positions))
	}
	for i := range want.Positions {
		if got.Positions[i] != want.Positions[i] {
			t.Fatalf("position component %d: got %v, want %v", i, got.Positions[i], want.Positions[i])
		}
	}
	if len(got.Indices) != len(want.Indices) {
		t.Fatalf("expected %d indices, got %d", len(want.Indices), len(got.Indices))
	}
	for i := range want.Indices {
		if got.Indices[i] != want.Indices[i] {
			t.Fatalf("index %d: got %d, want %d", i, got.Indices[i], want.Indices[i])
		}
	}
	if !colors {
		if len(got.Colors) != 0 {
			t.Errorf("expected no colors, got %d components", len(got.Colors))
		}
		return
	}
	if !bytes.Equal(got.Colors, want.Colors) {
		t.Error("colors differ after round trip")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	want := sphereMesh(t)

	tests := []struct {
		name string
		file string
		opts Options
	}{
		{"obj", "octree.obj", Options{}},
		{"obj with colors", "octree.obj", Options{Colors: true}},
		{"ply ascii", "octree.ply", Options{}},
		{"ply ascii with colors", "octree.ply", Options{Colors: true}},
		{"ply binary", "octree.ply", Options{Binary: true}},
		{"ply binary with colors", "octree.ply", Options{Binary: true, Colors: true}},
		{"explicit format", "mesh.out.ply", Options{Format: FormatPLY}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := NewWriter(tt.opts).WriteMesh(path, want); err != nil {
				t.Fatalf("WriteMesh failed: %v", err)
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			assertSameMesh(t, got, want, tt.opts.Colors)
		})
	}
}

func TestExportToWriter(t *testing.T) {
	tree := octree.New(math.Vec3{}, math.Vec3{X: 2, Y: 2, Z: 2})
	tree.Generate(1, func(_, _, _ math.Vec3) octree.FillState { return octree.Full })

	path := filepath.Join(t.TempDir(), "octree.obj")
	if err := tree.ExportTo(path, NewWriter(Options{})); err != nil {
		t.Fatalf("ExportTo failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if got := strings.Count(string(data), "\nv "); got != 64 {
		t.Errorf("expected 64 vertex lines, got %d", got)
	}
	if got := strings.Count(string(data), "\nf "); got != 96 {
		t.Errorf("expected 96 face lines, got %d", got)
	}
}

func TestWriteMeshUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octree.stl")
	err := NewWriter(Options{}).WriteMesh(path, sphereMesh(t))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should be created for an unsupported format")
	}
}

func TestWriteMeshMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "octree.obj")
	err := NewWriter(Options{}).WriteMesh(path, sphereMesh(t))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mesh *octree.Mesh
	}{
		{"nil", nil},
		{"partial position", &octree.Mesh{Positions: []float64{0, 0}}},
		{"partial triangle", &octree.Mesh{Positions: []float64{0, 0, 0}, Indices: []uint32{0, 0}}},
		{"index out of range", &octree.Mesh{Positions: []float64{0, 0, 0}, Indices: []uint32{0, 0, 1}}},
		{"color count", &octree.Mesh{Positions: []float64{0, 0, 0}, Colors: []uint8{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.mesh); !errors.Is(err, ErrMalformedMesh) {
				t.Errorf("expected ErrMalformedMesh, got %v", err)
			}
		})
	}

	if err := Validate(&octree.Mesh{}); err != nil {
		t.Errorf("empty mesh should be valid, got %v", err)
	}
}

func TestEncodeRequiresFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sphereMesh(t), Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if err := Encode(&buf, sphereMesh(t), Options{Format: FormatOBJ}); err != nil {
		t.Errorf("Encode failed: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"obj", FormatOBJ, false},
		{".PLY", FormatPLY, false},
		{"stl", FormatAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := FormatFromPath("octree"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for missing extension, got %v", err)
	}
}
