// Package config handles voxel tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/icebox/pkg/math"
	"github.com/Faultbox/icebox/pkg/meshio"
	"github.com/Faultbox/icebox/pkg/octree"
)

// Supported generation shapes.
const (
	ShapeSphere = "sphere"
	ShapeBox    = "box"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Octree     OctreeConfig     `yaml:"octree"`
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// OctreeConfig holds the bounding cube of the tree.
type OctreeConfig struct {
	Center [3]float32 `yaml:"center"`
	Size   [3]float32 `yaml:"size"`
}

// GenerationConfig holds procedural generation settings.
type GenerationConfig struct {
	Shape         string        `yaml:"shape"`  // "sphere" or "box"
	Radius        float32       `yaml:"radius"` // sphere radius
	BoxMin        [3]float32    `yaml:"box_min"`
	BoxMax        [3]float32    `yaml:"box_max"`
	MaxDepth      uint8         `yaml:"max_depth"`
	Parallel      bool          `yaml:"parallel"`
	Timeout       time.Duration `yaml:"timeout"` // parallel only, 0 = none
	BoundaryColor string        `yaml:"boundary_color"`
	FillColor     string        `yaml:"fill_color"`
}

// ExportConfig holds mesh export settings.
type ExportConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"` // "obj", "ply" or "" for by extension
	PLYBinary bool   `yaml:"ply_binary"`
	Colors    bool   `yaml:"colors"`
}

// ViewerConfig holds display settings for the viewer.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Wireframe  bool `yaml:"wireframe"` // draw node bounds on start

	SunLongitude float32 `yaml:"sun_longitude"` // degrees around +Y
	SunLatitude  float32 `yaml:"sun_latitude"`  // degrees above the horizon
	Ambient      float32 `yaml:"ambient"`       // 0..1
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Octree: OctreeConfig{
			Center: [3]float32{0, 0, 0},
			Size:   [3]float32{2, 2, 2},
		},
		Generation: GenerationConfig{
			Shape:         ShapeSphere,
			Radius:        0.9,
			BoxMin:        [3]float32{-0.5, -0.5, -0.5},
			BoxMax:        [3]float32{0.5, 0.5, 0.5},
			MaxDepth:      6,
			Parallel:      false,
			BoundaryColor: "#ff00ff",
			FillColor:     "#ff00ff",
		},
		Export: ExportConfig{
			Path:   "octree.obj",
			Format: "",
		},
		Viewer: ViewerConfig{
			Width:        1280,
			Height:       720,
			VSync:        true,
			SunLongitude: 35,
			SunLatitude:  55,
			Ambient:      0.35,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the settings that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	for i, s := range c.Octree.Size {
		if s <= 0 {
			return fmt.Errorf("%w: octree size[%d] must be positive, got %v", ErrInvalidConfig, i, s)
		}
	}
	switch c.Generation.Shape {
	case ShapeSphere:
		if c.Generation.Radius < 0 {
			return fmt.Errorf("%w: negative radius %v", ErrInvalidConfig, c.Generation.Radius)
		}
	case ShapeBox:
	default:
		return fmt.Errorf("%w: unknown shape %q", ErrInvalidConfig, c.Generation.Shape)
	}
	if c.Viewer.Ambient < 0 || c.Viewer.Ambient > 1 {
		return fmt.Errorf("%w: ambient %v outside [0, 1]", ErrInvalidConfig, c.Viewer.Ambient)
	}
	if _, _, err := c.Generation.Colors(); err != nil {
		return err
	}
	if _, err := meshio.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Colors parses the boundary and fill colors.
func (g GenerationConfig) Colors() (boundary, fill octree.Color, err error) {
	if boundary, err = parseColor(g.BoundaryColor); err != nil {
		return boundary, fill, fmt.Errorf("%w: boundary_color: %v", ErrInvalidConfig, err)
	}
	if fill, err = parseColor(g.FillColor); err != nil {
		return boundary, fill, fmt.Errorf("%w: fill_color: %v", ErrInvalidConfig, err)
	}
	return boundary, fill, nil
}

// Classifier returns the classifier for the configured shape, centered on center.
func (g GenerationConfig) Classifier(center math.Vec3) octree.Classifier {
	if g.Shape == ShapeBox {
		return octree.BoxClassifier(vec3(g.BoxMin), vec3(g.BoxMax))
	}
	return octree.SphereClassifier(center, g.Radius)
}

// CenterVec returns the tree center.
func (o OctreeConfig) CenterVec() math.Vec3 {
	return vec3(o.Center)
}

// SizeVec returns the tree size.
func (o OctreeConfig) SizeVec() math.Vec3 {
	return vec3(o.Size)
}

// MeshOptions converts the export settings to mesh writer options.
func (e ExportConfig) MeshOptions() (meshio.Options, error) {
	format, err := meshio.ParseFormat(e.Format)
	if err != nil {
		return meshio.Options{}, err
	}
	return meshio.Options{Format: format, Binary: e.PLYBinary, Colors: e.Colors}, nil
}

func parseColor(s string) (octree.Color, error) {
	if s == "" {
		return octree.Magenta, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return octree.Color{}, err
	}
	r, g, b := c.RGB255()
	return octree.Color{R: r, G: g, B: b}, nil
}

func vec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
