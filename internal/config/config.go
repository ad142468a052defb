// Package config handles framecheck.toml run configuration.
package config

import (
	"fmt"
	"os"
	"sort"

	"framecheck/pkg/interpreter"

	"github.com/BurntSushi/toml"
)

// Value domains
const (
	DomainBasic  = "basic"
	DomainVerify = "verify"
)

// Output formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

// Config represents a framecheck.toml file.
type Config struct {
	Run     Run                    `toml:"run"`
	Classes map[string]ClassConfig `toml:"classes"`
}

// Run configures a verification run. Command line flags override it.
type Run struct {
	Domain  string `toml:"domain"`
	Workers int    `toml:"workers"`
	Format  string `toml:"format"`
	Frames  bool   `toml:"frames"`
}

// ClassConfig declares a class of the hierarchy that is not part of the
// verified sources.
type ClassConfig struct {
	Super      string   `toml:"super"`
	Interfaces []string `toml:"interfaces"`
	Interface  bool     `toml:"interface"`
}

// Default returns the configuration used without a config file.
func Default() *Config {
	return &Config{
		Run: Run{
			Domain:  DomainBasic,
			Workers: 4,
			Format:  FormatText,
		},
		Classes: map[string]ClassConfig{},
	}
}

// Load parses the config file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	return Parse(string(data), path)
}

// Parse decodes a config document. name is only used in error messages.
func Parse(data, name string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s in %s", undecoded[0], name)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", name, err)
	}

	return c, nil
}

// Validate checks the run settings.
func (c *Config) Validate() error {
	switch c.Run.Domain {
	case DomainBasic, DomainVerify:
	default:
		return fmt.Errorf("unknown domain %q", c.Run.Domain)
	}

	switch c.Run.Format {
	case FormatText, FormatYAML, FormatCBOR:
	default:
		return fmt.Errorf("unknown format %q", c.Run.Format)
	}

	if c.Run.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Run.Workers)
	}

	for name, class := range c.Classes {
		if name == class.Super {
			return fmt.Errorf("class %s extends itself", name)
		}
	}

	return nil
}

// ClassInfos returns the configured classes sorted by name.
func (c *Config) ClassInfos() []interpreter.ClassInfo {
	names := make([]string, 0, len(c.Classes))
	for name := range c.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]interpreter.ClassInfo, 0, len(names))
	for _, name := range names {
		class := c.Classes[name]
		infos = append(infos, interpreter.ClassInfo{
			Name:       name,
			Super:      class.Super,
			Interfaces: class.Interfaces,
			Interface:  class.Interface,
		})
	}

	return infos
}
