package mold

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds engine settings.
type Config struct {
	// DefaultCulture is used when neither the call nor the ambient context
	// supplies one. Empty means the system culture.
	DefaultCulture string `yaml:"default_culture"`

	// MaxDepth bounds nested conversions. Zero means unlimited.
	MaxDepth int `yaml:"max_depth"`

	Cache CacheConfig `yaml:"cache"`

	// PostProcessors replaces the registry's post list by name.
	PostProcessors []string `yaml:"post_processors"`

	// complete marks configs built from DefaultConfig, whose zero values are
	// deliberate. Other configs are partial and take defaults for zero fields.
	complete bool
}

// CacheConfig configures the value cache.
type CacheConfig struct {
	Disabled   bool          `yaml:"disabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			DefaultTTL: 10 * time.Minute,
		},
		complete: true,
	}
}

// ParseConfig decodes YAML settings over DefaultConfig. Keys absent from the
// document keep their defaults; keys present keep their values, zero included.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads settings from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// withDefaults fills the zero fields of a partial config from DefaultConfig.
func (c Config) withDefaults() (Config, error) {
	if c.complete {
		return c, nil
	}
	if err := mergo.Merge(&c, DefaultConfig()); err != nil {
		return Config{}, fmt.Errorf("merge config defaults: %w", err)
	}
	c.complete = true
	return c, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must not be negative, got %s", c.Cache.DefaultTTL)
	}
	if c.DefaultCulture != "" {
		if _, err := language.Parse(c.DefaultCulture); err != nil {
			return fmt.Errorf("default_culture %q: %w", c.DefaultCulture, err)
		}
	}
	return nil
}

// culture returns the configured default culture, if any.
func (c Config) culture() (language.Tag, bool) {
	if c.DefaultCulture == "" {
		return language.Und, false
	}
	tag, err := language.Parse(c.DefaultCulture)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
