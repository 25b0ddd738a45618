// Package linker resolves entity names against Linked Open Data sources
// (Wikidata, DBpedia, ESCO, LinkedUniversities, Open University) and
// returns canonical URIs for cross-dataset alignment.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoMatch is returned when a source has no entity for the name.
	ErrNoMatch = errors.New("linker: no match found")

	// ErrUnknownSource is returned for an unregistered source name.
	ErrUnknownSource = errors.New("linker: unknown source")
)

// Linker resolves one entity name against one LOD source.
type Linker interface {
	// Source names the LOD source, e.g. "wikidata".
	Source() string

	// Link returns the canonical URI for the entity. typeHint narrows
	// matching when the source supports it; pass "" for none. Returns
	// ErrNoMatch when the source knows no such entity.
	Link(ctx context.Context, name, typeHint string) (string, error)
}

// Config carries the per-source settings shared by all linkers.
type Config struct {
	// Endpoint overrides the source's default API endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Language for labels and search. Defaults to "en".
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// MaxResults bounds candidates fetched per lookup. Defaults to 5.
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty"`

	// Timeout bounds a single round trip. Defaults to 10s.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func (c Config) withDefaults(endpoint string) Config {
	if c.Endpoint == "" {
		c.Endpoint = endpoint
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Result is the outcome of linking one name in a batch.
type Result struct {
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
	Err  error  `json:"-"`
}

// BatchLink resolves each name independently. One failing name never
// aborts the batch; its Result carries the error instead.
func BatchLink(ctx context.Context, l Linker, names []string, typeHint string) []Result {
	results := make([]Result, len(names))
	matched := 0
	for i, name := range names {
		uri, err := l.Link(ctx, name, typeHint)
		results[i] = Result{Name: name, URI: uri, Err: err}
		if err == nil {
			matched++
		}
	}
	slog.Info("linker: batch linked entities",
		"source", l.Source(), "total", len(names), "matched", matched)
	return results
}

// Factory builds a linker from a config.
type Factory func(Config) Linker

// Registry maps source names to linkers, built lazily on first use and
// cached. Explicitly constructed; there is no process-wide default.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	configs   map[string]Config
	cache     map[string]Linker
}

// NewRegistry creates a registry with the built-in sources: wikidata,
// dbpedia, esco, linkeduniversities and openuniversity.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		configs:   make(map[string]Config),
		cache:     make(map[string]Linker),
	}
	r.Register("wikidata", func(cfg Config) Linker { return NewWikidata(cfg) })
	r.Register("dbpedia", func(cfg Config) Linker { return NewDBpedia(cfg) })
	r.Register("esco", func(cfg Config) Linker { return NewESCO(cfg) })
	r.Register("linkeduniversities", func(cfg Config) Linker { return NewLinkedUniversities(cfg) })
	r.Register("openuniversity", func(cfg Config) Linker { return NewOpenUniversity(cfg) })
	return r
}

// Register adds or replaces a source. Replacing drops the cached linker.
func (r *Registry) Register(source string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[source] = f
	delete(r.cache, source)
}

// Configure sets the config used when the source is first instantiated.
func (r *Registry) Configure(source string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[source] = cfg
	delete(r.cache, source)
}

// Get returns the linker for a source, building and caching it on first
// use.
func (r *Registry) Get(source string) (Linker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.cache[source]; ok {
		return l, nil
	}
	f, ok := r.factories[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	l := f(r.configs[source])
	r.cache[source] = l
	return l, nil
}

// Sources lists the registered source names.
func (r *Registry) Sources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	sources := make([]string, 0, len(r.factories))
	for s := range r.factories {
		sources = append(sources, s)
	}
	return sources
}

// matchesHint reports whether a description mentions the type hint.
func matchesHint(description, typeHint string) bool {
	return typeHint != "" &&
		strings.Contains(strings.ToLower(description), strings.ToLower(typeHint))
}
