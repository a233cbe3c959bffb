// Package file implements the column log contract on the local
// filesystem: one subdirectory per column, one text file per step named
// by its zero-based index. Logical length is re-derived by probing files
// sequentially from 0, so logs survive process restarts.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/lattice/pkg/ports"
)

const stepExt = ".txt"

// Log implements ports.Log in a single column directory.
type Log struct {
	dir string
}

// NewLog creates a log rooted at the given column directory. The
// directory is created lazily on first write.
func NewLog(dir string) *Log {
	return &Log{dir: dir}
}

func (l *Log) stepPath(step int) string {
	return filepath.Join(l.dir, strconv.Itoa(step)+stepExt)
}

// Get reads the value stored at step. A missing file is absence, not an error.
func (l *Log) Get(ctx context.Context, step int) (string, bool, error) {
	if step < 0 {
		return "", false, nil
	}
	data, err := os.ReadFile(l.stepPath(step))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read step file: %w", err)
	}
	return string(data), true, nil
}

// Push appends the value at index Len.
func (l *Log) Push(ctx context.Context, value string) error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure column directory: %w", err)
	}
	n, err := l.Len(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.stepPath(n), []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write step file: %w", err)
	}
	return nil
}

// Len counts step files sequentially from 0; the first gap ends the log.
func (l *Log) Len(ctx context.Context) (int, error) {
	for n := 0; ; n++ {
		_, err := os.Stat(l.stepPath(n))
		if err != nil {
			if os.IsNotExist(err) {
				return n, nil
			}
			return 0, fmt.Errorf("failed to probe step file: %w", err)
		}
	}
}

// Clear removes every step file, resetting the log to empty.
func (l *Log) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list column directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != stepExt {
			continue
		}
		if err := os.Remove(filepath.Join(l.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove step file: %w", err)
		}
	}
	return nil
}

// Provider implements ports.LogProvider with one directory per column
// under a base path.
type Provider struct {
	basePath string
}

// NewProvider creates a provider rooted at basePath.
// If basePath is empty, it defaults to ".lattice/columns".
func NewProvider(basePath string) *Provider {
	if basePath == "" {
		basePath = filepath.Join(".lattice", "columns")
	}
	return &Provider{basePath: basePath}
}

// Open returns the log for the named column.
func (p *Provider) Open(name string) (ports.Log, error) {
	if name == "" {
		return nil, fmt.Errorf("column name cannot be empty")
	}
	return NewLog(filepath.Join(p.basePath, name)), nil
}

var _ ports.Log = (*Log)(nil)
var _ ports.LogProvider = (*Provider)(nil)
