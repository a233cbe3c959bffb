package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/adapters/llm"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
)

// BuildEngine turns a loaded flow definition into a live engine. The
// registry supplies named completers; if the file's completion section
// is set, an "openai" completer is registered from it unless the
// registry already has one.
func BuildEngine(cfg *Config, reg *registry.Registry, logger *slog.Logger, opts ...lattice.Option) (*lattice.Engine, error) {
	if reg == nil {
		reg = registry.NewRegistry()
	}
	registerDefaultCompleter(cfg.Completion, reg)

	specs := make([]lattice.DerivedSpec, 0, len(cfg.columns))
	for _, col := range cfg.columns {
		spec, err := buildSpec(col, reg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	provider, err := buildProvider(cfg.Storage)
	if err != nil {
		return nil, err
	}

	options := []lattice.Option{
		lattice.WithLogProvider(provider),
		lattice.WithLogger(logger),
	}
	if cfg.Name != "" {
		options = append(options, lattice.WithName(cfg.Name))
	}
	if len(cfg.Leaves) > 0 {
		options = append(options, lattice.WithLeaves(cfg.Leaves...))
	}
	options = append(options, opts...)

	return lattice.New(specs, options...)
}

func buildSpec(col ColumnSpec, reg *registry.Registry) (lattice.DerivedSpec, error) {
	completer, err := reg.Resolve(col.Completer)
	if err != nil {
		return lattice.DerivedSpec{}, fmt.Errorf("column %q: %w", col.Name, err)
	}

	spec := lattice.DerivedSpec{Name: col.Name, Completer: completer}
	for _, depSpec := range col.Dependencies {
		dep, err := depSpec.Dependency()
		if err != nil {
			return spec, fmt.Errorf("column %q: %w", col.Name, err)
		}
		spec.Dependencies = append(spec.Dependencies, dep)
	}
	return spec, nil
}

func buildProvider(s Storage) (ports.LogProvider, error) {
	switch s.Backend {
	case "memory":
		return memory.NewProvider(), nil
	case "file":
		return file.NewProvider(s.Path), nil
	case "redis":
		var opts []redis.Option
		if s.Prefix != "" {
			opts = append(opts, redis.WithPrefix(s.Prefix))
		}
		return redis.New(s.Addr, s.Password, s.DB, opts...), nil
	case "sqlite":
		if s.Path == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return sqlite.Open(s.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", s.Backend)
	}
}

func registerDefaultCompleter(c Completion, reg *registry.Registry) {
	if c.BaseURL == "" && c.Model == "" {
		return
	}
	if _, err := reg.Resolve("openai"); err == nil {
		return
	}

	var opts []llm.Option
	if c.APIKeyEnv != "" {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			opts = append(opts, llm.WithAPIKey(key))
		}
	}
	if c.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(c.MaxTokens))
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	reg.Register("openai", llm.New(baseURL, c.Model, opts...))
}
