package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the worldweave.yaml file that ties a domain to its lore
// sources and run settings.
type ProjectConfig struct {
	Project    string     `yaml:"project"`
	Version    int        `yaml:"version"`
	Domain     string     `yaml:"domain"`
	Layers     []Layer    `yaml:"layers"`
	Exclude    []string   `yaml:"exclude"`
	Simulation Simulation `yaml:"simulation"`
	Log        LogConfig  `yaml:"log"`
}

// Layer is a named set of lore paths. Entities seeded from a layer carry
// its name as their "layer" tag.
type Layer struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

type Simulation struct {
	Seed  uint64 `yaml:"seed"`
	Ticks int    `yaml:"ticks"`
	Runs  int    `yaml:"runs"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DefaultDomainPath = "domain.yaml"
	DefaultTicks      = 100
)

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if cfg.Domain == "" {
		cfg.Domain = DefaultDomainPath
	}
	if cfg.Simulation.Ticks == 0 {
		cfg.Simulation.Ticks = DefaultTicks
	}
	if cfg.Simulation.Runs == 0 {
		cfg.Simulation.Runs = 1
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Simulation.Ticks < 0 {
		return fmt.Errorf("simulation ticks must not be negative")
	}
	if cfg.Simulation.Runs < 0 {
		return fmt.Errorf("simulation runs must not be negative")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Log.Format)
	}

	seen := make(map[string]struct{})
	for i, layer := range cfg.Layers {
		if strings.TrimSpace(layer.Name) == "" {
			return fmt.Errorf("layer %d name is required", i)
		}
		if len(layer.Paths) == 0 {
			return fmt.Errorf("layer %d paths are required", i)
		}
		key := strings.ToLower(layer.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate layer name: %s", layer.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}
