// Package config loads the optional crumb.toml build-step configuration.
//
// Every field has a working default, so a build without a config file behaves
// identically to one with an empty file. Command-line flags override file
// values; that merge happens in the CLI layer, not here.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/uber/crumb/pkg/errors"
)

// DefaultPackagingExclude keeps the metadata namespace out of final shipped
// binaries while leaving it intact in intermediate artifacts.
const DefaultPackagingExclude = "crumb-index/**"

// Config is the full crumb.toml schema.
type Config struct {
	// Verbose enables debug-level logging.
	Verbose bool `toml:"verbose"`

	Index     IndexConfig     `toml:"index"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Packaging PackagingConfig `toml:"packaging"`
}

// IndexConfig controls where records are read from and written to.
type IndexConfig struct {
	// SearchPaths lists extra artifacts or directories to load records
	// from, in addition to whatever the host build surfaces.
	SearchPaths []string `toml:"search_paths"`

	// RedisAddr, when set, enables the shared remote index at that
	// address (host:port).
	RedisAddr string `toml:"redis_addr"`

	// RedisPrefix namespaces keys in the shared remote index.
	RedisPrefix string `toml:"redis_prefix"`
}

// DiscoveryConfig controls manifest-driven extension discovery.
type DiscoveryConfig struct {
	// ManifestDir is scanned for *.toml extension manifests.
	ManifestDir string `toml:"manifest_dir"`
}

// PackagingConfig controls how records are treated when the final binary is
// assembled.
type PackagingConfig struct {
	// Exclude is the glob of artifact entries to strip from shipped
	// binaries.
	Exclude string `toml:"exclude"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.ValidateAndSetDefaults()
	return c
}

// Load reads a crumb.toml file. A missing file is not an error; it yields the
// defaults, so callers can pass a conventional path unconditionally.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config %s", path)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing config %s", path)
	}
	c.ValidateAndSetDefaults()
	return c, nil
}

// ValidateAndSetDefaults fills in defaults for unset fields.
func (c *Config) ValidateAndSetDefaults() {
	if c.Packaging.Exclude == "" {
		c.Packaging.Exclude = DefaultPackagingExclude
	}
}
