package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Faultbox/icebox/pkg/math"
	"github.com/Faultbox/icebox/pkg/meshio"
	"github.com/Faultbox/icebox/pkg/octree"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Octree.Size != [3]float32{2, 2, 2} {
		t.Errorf("expected size 2x2x2, got %v", cfg.Octree.Size)
	}
	if cfg.Generation.Shape != ShapeSphere {
		t.Errorf("expected shape sphere, got %s", cfg.Generation.Shape)
	}
	if cfg.Generation.MaxDepth != 6 {
		t.Errorf("expected max depth 6, got %d", cfg.Generation.MaxDepth)
	}
	if cfg.Generation.Parallel {
		t.Error("expected parallel to be false by default")
	}
	if cfg.Export.Path != "octree.obj" {
		t.Errorf("expected export path octree.obj, got %s", cfg.Export.Path)
	}
	if cfg.Viewer.Width != 1280 || cfg.Viewer.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if !cfg.Viewer.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
octree:
  center: [1, 2, 3]
  size: [4, 4, 4]

generation:
  shape: box
  box_min: [0, 0, 0]
  box_max: [1, 1, 1]
  max_depth: 3
  parallel: true
  timeout: 5s
  boundary_color: "#00ff80"
  fill_color: "#102030"

export:
  path: out/cube.ply
  format: ply
  ply_binary: true
  colors: true

viewer:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  wireframe: true

logging:
  level: "debug"
  log_file: "voxel.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Octree.CenterVec() != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("expected center (1,2,3), got %v", cfg.Octree.Center)
	}
	if cfg.Generation.Shape != ShapeBox {
		t.Errorf("expected shape box, got %s", cfg.Generation.Shape)
	}
	if cfg.Generation.MaxDepth != 3 {
		t.Errorf("expected max depth 3, got %d", cfg.Generation.MaxDepth)
	}
	if !cfg.Generation.Parallel {
		t.Error("expected parallel to be true")
	}
	if cfg.Generation.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Generation.Timeout)
	}
	// Untouched keys keep their defaults.
	if cfg.Generation.Radius != 0.9 {
		t.Errorf("expected default radius 0.9, got %v", cfg.Generation.Radius)
	}

	boundary, fill, err := cfg.Generation.Colors()
	if err != nil {
		t.Fatalf("Colors: %v", err)
	}
	if boundary != (octree.Color{R: 0, G: 255, B: 128}) {
		t.Errorf("boundary color = %v", boundary)
	}
	if fill != (octree.Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Errorf("fill color = %v", fill)
	}

	opts, err := cfg.Export.MeshOptions()
	if err != nil {
		t.Fatalf("MeshOptions: %v", err)
	}
	if opts.Format != meshio.FormatPLY || !opts.Binary || !opts.Colors {
		t.Errorf("unexpected mesh options %+v", opts)
	}

	if !cfg.Viewer.Fullscreen || cfg.Viewer.VSync || !cfg.Viewer.Wireframe {
		t.Errorf("unexpected viewer config %+v", cfg.Viewer)
	}
	if cfg.Logging.LogFile != "voxel.log" {
		t.Errorf("expected log file 'voxel.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "generation:\n  max_depth: not a number\n  invalid syntax here\n"},
		{"unknown key", "generation:\n  depth: 4\n"},
		{"overflowing depth", "generation:\n  max_depth: 300\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Generation.MaxDepth != 6 {
		t.Errorf("expected defaults to survive, got max depth %d", cfg.Generation.MaxDepth)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero size", func(c *Config) { c.Octree.Size[1] = 0 }},
		{"unknown shape", func(c *Config) { c.Generation.Shape = "torus" }},
		{"negative radius", func(c *Config) { c.Generation.Radius = -1 }},
		{"bad boundary color", func(c *Config) { c.Generation.BoundaryColor = "magenta" }},
		{"bad fill color", func(c *Config) { c.Generation.FillColor = "#12" }},
		{"unknown format", func(c *Config) { c.Export.Format = "stl" }},
		{"ambient above one", func(c *Config) { c.Viewer.Ambient = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestColorsDefaultToMagenta(t *testing.T) {
	g := GenerationConfig{}
	boundary, fill, err := g.Colors()
	if err != nil {
		t.Fatalf("Colors: %v", err)
	}
	if boundary != octree.Magenta || fill != octree.Magenta {
		t.Errorf("expected magenta, got %v %v", boundary, fill)
	}
}

func TestClassifier(t *testing.T) {
	cfg := Default()
	inner := math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	outer := math.Vec3{X: 0.2, Y: 0.2, Z: 0.2}

	sphere := cfg.Generation.Classifier(math.Vec3{})
	if got := sphere(math.Vec3{}, inner, outer); got != octree.Full {
		t.Errorf("sphere: expected Full inside radius, got %v", got)
	}

	cfg.Generation.Shape = ShapeBox
	box := cfg.Generation.Classifier(math.Vec3{})
	far := math.Vec3{X: 5, Y: 5, Z: 5}
	if got := box(far, far, far.Add(math.Splat(1))); got != octree.Empty {
		t.Errorf("box: expected Empty outside box, got %v", got)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("generation:\n  max_depth: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path != FileName {
		t.Errorf("expected %s in current directory, got %q", FileName, path)
	}
}

func TestFindConfigFileUserDir(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("user config dir ignores XDG_CONFIG_HOME on this OS")
	}
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	os.Chdir(t.TempDir())
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	// A directory named config.yaml in the working dir is not a config file.
	if err := os.Mkdir(FileName, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(xdg, "icebox", FileName)
	if err := os.MkdirAll(filepath.Dir(want), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want, []byte("generation:\n  max_depth: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if path := findConfigFile(); path != want {
		t.Errorf("findConfigFile() = %q, want %q", path, want)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "generation flags",
			setup: func() {
				*flagShape = ShapeBox
				*flagRadius = 0.25
				*flagDepth = 9
				*flagParallel = true
			},
			verify: func(t *testing.T, cfg *Config) {
				g := cfg.Generation
				if g.Shape != ShapeBox || g.Radius != 0.25 || g.MaxDepth != 9 || !g.Parallel {
					t.Errorf("unexpected generation config %+v", g)
				}
			},
			teardown: func() {
				*flagShape = ""
				*flagRadius = -1
				*flagDepth = 0
				*flagParallel = false
			},
		},
		{
			name:  "depth out of range is ignored",
			setup: func() { *flagDepth = 1000 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Generation.MaxDepth != 6 {
					t.Errorf("expected default depth, got %d", cfg.Generation.MaxDepth)
				}
			},
			teardown: func() { *flagDepth = 0 },
		},
		{
			name: "export flags",
			setup: func() {
				*flagOut = "sphere.ply"
				*flagFormat = "ply"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Path != "sphere.ply" || cfg.Export.Format != "ply" {
					t.Errorf("unexpected export config %+v", cfg.Export)
				}
			},
			teardown: func() {
				*flagOut = ""
				*flagFormat = ""
			},
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Viewer.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.Width != 2560 || cfg.Viewer.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
generation:
  max_depth: 4
  radius: 0.5
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagDepth = 8
	defer func() {
		*flagConfig = ""
		*flagDepth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Depth comes from the flag, radius from the file.
	if cfg.Generation.MaxDepth != 8 {
		t.Errorf("expected max depth 8 from flag, got %d", cfg.Generation.MaxDepth)
	}
	if cfg.Generation.Radius != 0.5 {
		t.Errorf("expected radius 0.5 from file, got %v", cfg.Generation.Radius)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("generation:\n  shape: cone\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Generation.MaxDepth = 5
	cfg.Export.Format = "ply"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Generation.MaxDepth != 5 || loaded.Export.Format != "ply" {
		t.Errorf("saved values not restored: %+v %+v", loaded.Generation, loaded.Export)
	}
}

func TestSaveToReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("stale: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Generation.MaxDepth = 3
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Generation.MaxDepth != 3 {
		t.Errorf("expected max depth 3, got %d", loaded.Generation.MaxDepth)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only %s in %s, found %d entries", FileName, dir, len(entries))
	}
}

func TestSaveToRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Export.Format = "stl"
	if err := cfg.SaveTo(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("invalid config should not be written, stat err = %v", err)
	}
}

func TestSaveWritesUserConfig(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("user config dir ignores XDG_CONFIG_HOME on this OS")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg := Default()
	cfg.Generation.Shape = "box"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := filepath.Join(xdg, "icebox", FileName)
	if UserConfigPath() != want {
		t.Fatalf("UserConfigPath() = %q, want %q", UserConfigPath(), want)
	}
	loaded := Default()
	if err := loadFromFile(loaded, want); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Generation.Shape != "box" {
		t.Errorf("expected shape box, got %q", loaded.Generation.Shape)
	}
}
