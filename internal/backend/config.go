// This file contains backend routing configuration types and the YAML
// loader.
package backend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the YAML configuration for backend routing.
type Config struct {
	// Backends maps a key family to the backend it dispatches to.
	// Families left out keep the software default.
	Backends map[string]string `yaml:"backends"`

	// Available lists the backends usable on this host. When empty,
	// the built-in defaults (software, ref25519) stay in effect.
	Available []string `yaml:"available"`
}

// LoadConfig loads backend routing configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse backend config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration names known families.
func (c *Config) Validate() error {
	known := make(map[string]bool)
	for _, f := range Families() {
		known[string(f)] = true
	}
	for family := range c.Backends {
		if !known[family] {
			return fmt.Errorf("unknown key family: %s", family)
		}
	}
	return nil
}

// NewRegistryFromConfig builds a registry with the configured routing
// and availability applied on top of the defaults.
func NewRegistryFromConfig(cfg *Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := NewRegistry()
	if len(cfg.Available) > 0 {
		for name := range r.available {
			r.available[name] = false
		}
		for _, name := range cfg.Available {
			r.SetAvailable(name, true)
		}
	}
	for family, name := range cfg.Backends {
		r.Select(Family(family), name)
	}
	return r, nil
}
