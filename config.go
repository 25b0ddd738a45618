package skillgraph

import (
	"github.com/gkf-org/skillgraph/acquire"
	"github.com/gkf-org/skillgraph/linker"
	"github.com/gkf-org/skillgraph/rdf"
	"github.com/gkf-org/skillgraph/sparql"
)

// Config holds all configuration for the knowledge engine.
type Config struct {
	// Store is the SPARQL endpoint configuration.
	Store sparql.Config `json:"store" yaml:"store"`

	// FoundationalGraph and ExperientialGraph name the two partitions.
	// Defaults to the standard graph URIs when empty.
	FoundationalGraph string `json:"foundational_graph" yaml:"foundational_graph"`
	ExperientialGraph string `json:"experiential_graph" yaml:"experiential_graph"`

	// Traversal bounds
	MaxTraversalDepth int  `json:"max_traversal_depth" yaml:"max_traversal_depth"`
	RelatedResultCap  int  `json:"related_result_cap" yaml:"related_result_cap"`
	MaxRoundTrips     int  `json:"max_round_trips" yaml:"max_round_trips"`
	ClosureCap        int  `json:"closure_cap" yaml:"closure_cap"`
	UsePropertyPaths  bool `json:"use_property_paths" yaml:"use_property_paths"`

	// Recommendation bounds
	MaxCoursesPerSkill int `json:"max_courses_per_skill" yaml:"max_courses_per_skill"`
	DefaultTopK        int `json:"default_top_k" yaml:"default_top_k"`

	// Sources configures acquisition connectors by kind (csv, json,
	// xlsx, pdf, web).
	Sources map[string]acquire.Config `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Linkers configures LOD linkers by source name (wikidata, dbpedia,
	// esco).
	Linkers map[string]linker.Config `json:"linkers,omitempty" yaml:"linkers,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for a local
// GraphDB/Fuseki-style endpoint.
func DefaultConfig() Config {
	return Config{
		Store: sparql.Config{
			QueryEndpoint: "http://localhost:7200/repositories/skillgraph",
		},
		FoundationalGraph:  string(rdf.GraphFoundational),
		ExperientialGraph:  string(rdf.GraphExperiential),
		MaxTraversalDepth:  5,
		RelatedResultCap:   20,
		MaxRoundTrips:      32,
		ClosureCap:         1000,
		UsePropertyPaths:   true,
		MaxCoursesPerSkill: 3,
		DefaultTopK:        5,
	}
}

// partitions resolves the configured graph URIs, falling back to the
// standard ones.
func (c *Config) partitions() (foundational, experiential rdf.IRI) {
	foundational = rdf.IRI(c.FoundationalGraph)
	if foundational == "" {
		foundational = rdf.GraphFoundational
	}
	experiential = rdf.IRI(c.ExperientialGraph)
	if experiential == "" {
		experiential = rdf.GraphExperiential
	}
	return foundational, experiential
}
