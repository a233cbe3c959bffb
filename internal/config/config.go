// Package config loads flow definitions from YAML files and turns them
// into running engines.
package config

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the root of a flow definition file.
type Config struct {
	Name       string     `yaml:"name"`
	Storage    Storage    `yaml:"storage"`
	Completion Completion `yaml:"completion"`
	Columns    []any      `yaml:"columns"`
	Leaves     []string   `yaml:"leaves"`

	// columns holds the decoded column specs after Load.
	columns []ColumnSpec
}

// Storage selects and configures the column log backend.
type Storage struct {
	// Backend is one of "memory", "file", "redis", "sqlite".
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Completion configures the default chat completions backend, registered
// under the name "openai".
type Completion struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ColumnSpec declares one derived column.
type ColumnSpec struct {
	Name         string           `mapstructure:"name"`
	Completer    string           `mapstructure:"completer"`
	Dependencies []DependencySpec `mapstructure:"-"`

	// RawDependencies carries the undecoded dependency entries; each is
	// either a string shorthand or a full map.
	RawDependencies []any `mapstructure:"dependencies"`
}

// DependencySpec is the file form of a dependency declaration.
type DependencySpec struct {
	Kind        string `mapstructure:"kind"`
	Target      string `mapstructure:"target"`
	Temporal    string `mapstructure:"temporal"`
	Cardinality string `mapstructure:"cardinality"`
	Window      int    `mapstructure:"window"`
	Tag         string `mapstructure:"tag"`
}

// Load reads and decodes a flow definition file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a flow definition from raw YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flow config: %w", err)
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}

	for i, raw := range cfg.Columns {
		col, err := decodeColumn(raw)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		cfg.columns = append(cfg.columns, col)
	}
	if len(cfg.columns) == 0 {
		return nil, fmt.Errorf("flow config declares no columns")
	}
	return &cfg, nil
}

// ColumnSpecs returns the decoded column declarations.
func (c *Config) ColumnSpecs() []ColumnSpec {
	return c.columns
}

func decodeColumn(raw any) (ColumnSpec, error) {
	var col ColumnSpec
	if err := mapstructure.Decode(raw, &col); err != nil {
		return col, fmt.Errorf("failed to decode column: %w", err)
	}
	if col.Name == "" {
		return col, fmt.Errorf("column missing name")
	}
	if col.Completer == "" {
		col.Completer = "openai"
	}

	for i, rawDep := range col.RawDependencies {
		dep, err := decodeDependency(rawDep)
		if err != nil {
			return col, fmt.Errorf("dependency %d of %q: %w", i, col.Name, err)
		}
		col.Dependencies = append(col.Dependencies, dep)
	}
	return col, nil
}

// decodeDependency accepts either the string shorthand or a full map.
// The shorthand "self" reads the column's own history; any other string
// names a source column read at the current step.
func decodeDependency(raw any) (DependencySpec, error) {
	switch v := raw.(type) {
	case string:
		if v == "self" {
			return DependencySpec{Kind: "self", Temporal: "previous", Cardinality: "all"}, nil
		}
		return DependencySpec{Kind: "source", Target: v, Temporal: "current", Cardinality: "latest"}, nil

	case map[string]any, map[any]any:
		var dep DependencySpec
		if err := mapstructure.Decode(v, &dep); err != nil {
			return dep, fmt.Errorf("failed to decode dependency: %w", err)
		}
		applyDependencyDefaults(&dep)
		return dep, nil

	default:
		return DependencySpec{}, fmt.Errorf("invalid dependency type: %T", raw)
	}
}

func applyDependencyDefaults(dep *DependencySpec) {
	if dep.Kind == "" {
		if dep.Target == "" {
			dep.Kind = "self"
		} else {
			dep.Kind = "source"
		}
	}
	if dep.Temporal == "" {
		if dep.Kind == "self" {
			dep.Temporal = "previous"
		} else {
			dep.Temporal = "current"
		}
	}
	if dep.Cardinality == "" {
		if dep.Window > 0 {
			dep.Cardinality = "window"
		} else {
			dep.Cardinality = "latest"
		}
	}
}

// Dependency converts the file form into the domain declaration.
func (d DependencySpec) Dependency() (domain.Dependency, error) {
	dep := domain.Dependency{
		Kind:        domain.RefKind(d.Kind),
		Target:      d.Target,
		Temporal:    domain.Temporal(d.Temporal),
		Cardinality: domain.Cardinality(d.Cardinality),
		Window:      d.Window,
		Tag:         d.Tag,
	}
	if err := dep.Validate(); err != nil {
		return dep, err
	}
	return dep, nil
}
