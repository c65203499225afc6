// Package config loads the idlunify TOML configuration
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is read when no --config is given and it exists
const DefaultConfigFile = ".idlunify.toml"

type Config struct {
	Root     string   `toml:"root"`
	Patterns []string `toml:"patterns"`
	Exclude  []string `toml:"exclude"`
	Format   string   `toml:"format"`
	Output   string   `toml:"output"`
	Parse    Parse    `toml:"parse"`
	Watch    Watch    `toml:"watch"`
}

type Parse struct {
	Cache           bool     `toml:"cache"`
	IgnoreGoTag     bool     `toml:"ignore_go_tag"`
	IgnoreGoTagDash bool     `toml:"ignore_go_tag_dash"`
	SearchPaths     []string `toml:"search_paths"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Root:     ".",
		Patterns: []string{"**.thrift", "**.proto"},
		Format:   "json",
		Parse:    Parse{Cache: true},
		Watch:    Watch{Debounce: 300 * time.Millisecond},
	}
}

// Load reads path over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = Default().Patterns
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = Default().Watch.Debounce
	}
	return cfg, nil
}
