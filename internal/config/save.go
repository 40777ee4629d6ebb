package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Save writes c to UserConfigPath so later voxgen and voxview runs pick it up.
func (c *Config) Save() error {
	return c.SaveTo(UserConfigPath())
}

// SaveTo validates c and writes it as YAML to path, creating parent
// directories. The YAML goes to a temporary sibling that is renamed over
// path; nothing is written for an invalid config.
func (c *Config) SaveTo(path string) (err error) {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(data)
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
