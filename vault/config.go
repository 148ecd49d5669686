package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/snapvault/match"
)

// Config is the YAML-backed host configuration.
type Config struct {
	// Root is the storage root holding blobs and the index.
	Root string `yaml:"root"`
	// Enabled toggles automatic backups; nil means enabled.
	Enabled *bool `yaml:"enabled"`
	// MaxSizeMB caps total stored bytes; zero or negative means unlimited.
	MaxSizeMB float64 `yaml:"maxSizeMB"`
	// Include restricts backups to matching documents when non-empty.
	Include []string `yaml:"include"`
	// Exclude lists documents never backed up.
	Exclude []string `yaml:"exclude"`
	// MaxDocumentSize skips documents larger than this many bytes.
	MaxDocumentSize int `yaml:"maxDocumentSize"`
}

// Settings implements SettingsProvider.
func (c *Config) Settings() Settings {
	return Settings{
		Enabled:   c.Enabled == nil || *c.Enabled,
		MaxSizeMB: c.MaxSizeMB,
	}
}

// Filter builds the eligibility filter from the configured patterns.
func (c *Config) Filter() *match.Filter {
	var opts []match.Option
	if len(c.Include) > 0 {
		opts = append(opts, match.WithInclusions(c.Include...))
	}
	if len(c.Exclude) > 0 {
		opts = append(opts, match.WithExclusions(c.Exclude...))
	}
	if c.MaxDocumentSize > 0 {
		opts = append(opts, match.WithMaxDocumentSize(c.MaxDocumentSize))
	}
	if len(opts) == 0 {
		return nil
	}
	return match.New(opts...)
}

// LoadConfig reads a YAML config file; "~" expands to the home directory.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", path, err)
	}
	return cfg, nil
}

func expandUserPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
