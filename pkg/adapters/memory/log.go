package memory

import (
	"context"
	"sync"

	"github.com/aretw0/lattice/pkg/ports"
)

// Log implements ports.Log in memory.
// Safe for concurrent use.
type Log struct {
	values []string
	mu     sync.RWMutex
}

// NewLog creates a new empty in-memory log.
func NewLog() *Log {
	return &Log{}
}

// NewLogFrom creates a log pre-populated with the given values, one per
// step from 0. Useful for seeding a column's history in tests.
func NewLogFrom(values ...string) *Log {
	return &Log{values: append([]string(nil), values...)}
}

// Get retrieves the value at step, reporting absence past the end.
func (l *Log) Get(ctx context.Context, step int) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if step < 0 || step >= len(l.values) {
		return "", false, nil
	}
	return l.values[step], true, nil
}

// Push appends a value at the next step index.
func (l *Log) Push(ctx context.Context, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, value)
	return nil
}

// Len returns the number of stored steps.
func (l *Log) Len(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.values), nil
}

// Clear resets the log to empty.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = nil
	return nil
}

// Provider implements ports.LogProvider with one in-memory log per
// column name. Opening the same name twice returns the same log.
type Provider struct {
	logs map[string]*Log
	mu   sync.Mutex
}

// NewProvider creates a new in-memory log provider.
func NewProvider() *Provider {
	return &Provider{logs: make(map[string]*Log)}
}

// Open returns the log for the named column, creating it on first use.
func (p *Provider) Open(name string) (ports.Log, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	log, ok := p.logs[name]
	if !ok {
		log = NewLog()
		p.logs[name] = log
	}
	return log, nil
}

var _ ports.Log = (*Log)(nil)
var _ ports.LogProvider = (*Provider)(nil)
