package acquire

import (
	"fmt"
	"sync"
)

// Factory builds a connector from a source config.
type Factory func(Config) Connector

// Registry maps source kinds to connectors. Connectors are built lazily
// on first use and cached; the registry is explicitly constructed and
// passed where needed.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	configs   map[string]Config
	cache     map[string]Connector
}

// NewRegistry creates a registry with the built-in connector kinds:
// csv, json, xlsx, pdf and web.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		configs:   make(map[string]Config),
		cache:     make(map[string]Connector),
	}
	r.Register("csv", func(cfg Config) Connector { return NewCSVConnector(cfg) })
	r.Register("json", func(cfg Config) Connector { return NewJSONConnector(cfg) })
	r.Register("xlsx", func(cfg Config) Connector { return NewXLSXConnector(cfg) })
	r.Register("pdf", func(cfg Config) Connector { return NewPDFConnector(cfg) })
	r.Register("web", func(cfg Config) Connector { return NewWebConnector(cfg) })
	return r
}

// Register adds or replaces a connector kind. Replacing a kind drops its
// cached instance.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
	delete(r.cache, kind)
}

// Configure sets the config used when the kind is first instantiated.
// Reconfiguring drops the cached instance so the next Get rebuilds it.
func (r *Registry) Configure(kind string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[kind] = cfg
	delete(r.cache, kind)
}

// Get returns the connector for a kind, building and caching it on first
// use.
func (r *Registry) Get(kind string) (Connector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[kind]; ok {
		return c, nil
	}
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, kind)
	}
	c := f(r.configs[kind])
	r.cache[kind] = c
	return c, nil
}

// Kinds lists the registered source kinds.
func (r *Registry) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// Close closes every cached connector, returning the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for kind, c := range r.cache {
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing %s connector: %w", kind, err)
		}
		delete(r.cache, kind)
	}
	return first
}
