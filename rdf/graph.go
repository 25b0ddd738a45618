package rdf

import (
	"fmt"
	"strings"
)

// Triple is a directed typed edge between a subject and an object.
type Triple struct {
	Subject   IRI
	Predicate IRI
	Object    Term
}

// NTriples encodes the triple as a single N-Triples statement.
func (t Triple) NTriples() string {
	return t.Subject.NTriples() + " " + t.Predicate.NTriples() + " " + t.Object.NTriples() + " ."
}

// Graph is an insertion-ordered set of triples. Set semantics make repeated
// Add calls idempotent, which in turn makes INSERT DATA payloads built from
// a Graph idempotent against the store.
type Graph struct {
	triples []Triple
	index   map[string]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]struct{})}
}

// Add appends a triple unless an identical one is already present.
// It reports whether the triple was newly added.
func (g *Graph) Add(t Triple) bool {
	key := t.NTriples()
	if _, ok := g.index[key]; ok {
		return false
	}
	g.index[key] = struct{}{}
	g.triples = append(g.triples, t)
	return true
}

// AddAll merges every triple from other into g.
func (g *Graph) AddAll(other *Graph) {
	for _, t := range other.triples {
		g.Add(t)
	}
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the triples in insertion order. The returned slice is a
// copy; mutating it does not affect the graph.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Subjects returns the distinct subject IRIs in first-seen order.
func (g *Graph) Subjects() []IRI {
	seen := make(map[IRI]struct{}, len(g.triples))
	var out []IRI
	for _, t := range g.triples {
		if _, ok := seen[t.Subject]; !ok {
			seen[t.Subject] = struct{}{}
			out = append(out, t.Subject)
		}
	}
	return out
}

// Has reports whether the graph contains the exact triple.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.index[t.NTriples()]
	return ok
}

// NTriples serializes the graph as one N-Triples statement per line, in
// insertion order. This is the payload format for INSERT DATA blocks.
func (g *Graph) NTriples() string {
	var b strings.Builder
	for _, t := range g.triples {
		b.WriteString(t.NTriples())
		b.WriteByte('\n')
	}
	return b.String()
}

// Validate checks every subject, predicate and IRI-valued object for
// illegal IRI characters. A fragment failing validation must not be
// serialized into an update request.
func (g *Graph) Validate() error {
	for _, t := range g.triples {
		if !t.Subject.Valid() {
			return fmt.Errorf("rdf: invalid subject IRI %q", t.Subject)
		}
		if !t.Predicate.Valid() {
			return fmt.Errorf("rdf: invalid predicate IRI %q", t.Predicate)
		}
		if obj, ok := t.Object.(IRI); ok && !obj.Valid() {
			return fmt.Errorf("rdf: invalid object IRI %q", obj)
		}
	}
	return nil
}
