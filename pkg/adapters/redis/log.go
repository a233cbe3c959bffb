// Package redis implements the column log contract on a Redis list per
// column. Step indices map directly onto list indices, which gives the
// gapless, append-only shape the contract requires for free.
package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Provider implements ports.LogProvider with one Redis list per column.
type Provider struct {
	client *backend.Client
	prefix string
}

// Option configures the provider.
type Option func(*Provider)

// WithPrefix sets the key prefix for column lists.
func WithPrefix(prefix string) Option {
	return func(p *Provider) {
		p.prefix = prefix
	}
}

// New creates a provider with its own client for the given address.
func New(address, password string, db int, opts ...Option) *Provider {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a provider from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		prefix: "lattice:column:",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open returns the log for the named column.
func (p *Provider) Open(name string) (ports.Log, error) {
	if name == "" {
		return nil, fmt.Errorf("column name cannot be empty")
	}
	return &Log{client: p.client, key: p.prefix + name}, nil
}

// Close closes the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Log implements ports.Log over a single Redis list.
type Log struct {
	client *backend.Client
	key    string
}

// Get retrieves the value at step via LINDEX.
func (l *Log) Get(ctx context.Context, step int) (string, bool, error) {
	if step < 0 {
		return "", false, nil
	}
	val, err := l.client.LIndex(ctx, l.key, int64(step)).Result()
	if err != nil {
		if err == backend.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read from redis: %w", err)
	}
	return val, true, nil
}

// Push appends the value via RPUSH.
func (l *Log) Push(ctx context.Context, value string) error {
	if err := l.client.RPush(ctx, l.key, value).Err(); err != nil {
		return fmt.Errorf("failed to push to redis: %w", err)
	}
	return nil
}

// Len returns the list length via LLEN.
func (l *Log) Len(ctx context.Context) (int, error) {
	n, err := l.client.LLen(ctx, l.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length from redis: %w", err)
	}
	return int(n), nil
}

// Clear deletes the list.
func (l *Log) Clear(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("failed to clear redis list: %w", err)
	}
	return nil
}

var _ ports.Log = (*Log)(nil)
var _ ports.LogProvider = (*Provider)(nil)
