package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagShape      = flag.String("shape", "", "Generated shape (sphere, box)")
	flagRadius     = flag.Float64("radius", -1, "Sphere radius")
	flagDepth      = flag.Int("depth", 0, "Maximum tree depth")
	flagParallel   = flag.Bool("parallel", false, "Generate root subtrees in parallel")
	flagOut        = flag.String("out", "", "Mesh output path")
	flagFormat     = flag.String("format", "", "Mesh format (obj, ply)")
	flagWindowed   = flag.Bool("windowed", false, "Run viewer in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run viewer in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Viewer width")
	flagHeight     = flag.Int("height", 0, "Viewer height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagShape != "" {
		cfg.Generation.Shape = *flagShape
	}
	if *flagRadius >= 0 {
		cfg.Generation.Radius = float32(*flagRadius)
	}
	if *flagDepth > 0 && *flagDepth <= 255 {
		cfg.Generation.MaxDepth = uint8(*flagDepth)
	}
	if *flagParallel {
		cfg.Generation.Parallel = true
	}
	if *flagOut != "" {
		cfg.Export.Path = *flagOut
	}
	if *flagFormat != "" {
		cfg.Export.Format = *flagFormat
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
