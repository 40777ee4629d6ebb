package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file voxgen and voxview look for.
const FileName = "config.yaml"

// Load builds the effective configuration for voxgen and voxview. Built-in
// defaults are overlaid by the -config file, or by the first FileName found
// in the working directory or the user config directory, and then by any
// explicitly set command-line flags. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPaths lists config file candidates, most specific first.
func searchPaths() []string {
	return []string{
		FileName,
		UserConfigPath(),
	}
}

// findConfigFile returns the first existing candidate from searchPaths, or ""
// when the run should use defaults and flags only.
func findConfigFile() string {
	for _, path := range searchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir is the per-user icebox directory: Application Support on macOS,
// APPDATA on Windows, XDG_CONFIG_HOME (or ~/.config) elsewhere.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Icebox")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Icebox")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "icebox")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "icebox")
	}
}

// UserConfigPath is where Save writes and where Load looks after the working
// directory.
func UserConfigPath() string {
	return filepath.Join(ConfigDir(), FileName)
}

// loadFromFile decodes the YAML at path over cfg. Sections and keys missing
// from the file keep their current values; unknown keys are rejected so a
// misspelled option never silently falls back to its default.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
