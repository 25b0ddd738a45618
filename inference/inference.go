// Package inference derives knowledge from typed relations: transitive
// prerequisite closure and bounded-depth relatedness traversal.
package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/gkf-org/skillgraph/rdf"
	"github.com/gkf-org/skillgraph/sparql"
)

// ErrDepthOutOfRange is returned when a traversal depth is outside [1,5].
var ErrDepthOutOfRange = errors.New("inference: depth must be between 1 and 5")

// hardDepthLimit is the contract bound on relatedness depth. Config can
// lower MaxDepth below it, never raise it.
const hardDepthLimit = 5

// Config bounds traversal work independently of caller input.
type Config struct {
	// Partition scopes every read; defaults to the foundational graph.
	Partition rdf.IRI

	// MaxDepth is the largest accepted relatedness depth.
	MaxDepth int

	// ResultCap limits FindRelated results. Truncation happens in hop
	// order, so closer nodes always survive.
	ResultCap int

	// MaxRoundTrips caps store calls during fixed-point expansion.
	MaxRoundTrips int

	// ClosureCap limits the prerequisite closure size.
	ClosureCap int

	// UsePropertyPaths selects the store's native transitive path
	// operator for closures. When false, the closure is computed by
	// iterative frontier expansion (one round trip per level).
	UsePropertyPaths bool
}

// DefaultConfig returns the standard traversal bounds.
func DefaultConfig() Config {
	return Config{
		Partition:        rdf.GraphFoundational,
		MaxDepth:         5,
		ResultCap:        20,
		MaxRoundTrips:    32,
		ClosureCap:       1000,
		UsePropertyPaths: true,
	}
}

// Inferencer answers closure and traversal questions against the store.
// It is stateless per call.
type Inferencer struct {
	store sparql.Querier
	cfg   Config
}

// New creates an Inferencer. Zero config fields get defaults.
func New(store sparql.Querier, cfg Config) *Inferencer {
	def := DefaultConfig()
	if cfg.Partition == "" {
		cfg.Partition = def.Partition
	}
	// MaxDepth may tighten the accepted range below hardDepthLimit but
	// never widen it.
	if cfg.MaxDepth <= 0 || cfg.MaxDepth > hardDepthLimit {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.ResultCap == 0 {
		cfg.ResultCap = def.ResultCap
	}
	if cfg.MaxRoundTrips == 0 {
		cfg.MaxRoundTrips = def.MaxRoundTrips
	}
	if cfg.ClosureCap == 0 {
		cfg.ClosureCap = def.ClosureCap
	}
	return &Inferencer{store: store, cfg: cfg}
}

const prereqPathTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT DISTINCT ?prereq
WHERE {
  GRAPH %s { %s gkf:prerequisite+ ?prereq }
}
LIMIT %s`

const prereqHopTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT DISTINCT ?prereq
WHERE {
  GRAPH %s {
    VALUES ?s { %s }
    ?s gkf:prerequisite ?prereq
  }
}
LIMIT %s`

// Prerequisites returns the transitive closure of the prerequisite relation
// from skillURI, excluding the starting skill itself. Cycles yield a finite
// closure, never an error or a hang.
func (i *Inferencer) Prerequisites(ctx context.Context, skillURI string) ([]string, error) {
	if i.cfg.UsePropertyPaths {
		return i.prerequisitesByPath(ctx, skillURI)
	}
	return i.prerequisitesByExpansion(ctx, skillURI)
}

// prerequisitesByPath delegates transitivity to the store's property-path
// operator: one round trip.
func (i *Inferencer) prerequisitesByPath(ctx context.Context, skillURI string) ([]string, error) {
	q, err := sparql.Bind(prereqPathTmpl,
		sparql.IRI(string(i.cfg.Partition)), sparql.IRI(skillURI), sparql.Int(i.cfg.ClosureCap))
	if err != nil {
		return nil, err
	}
	rows, err := i.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("prerequisite closure: %w", err)
	}

	seen := map[string]bool{skillURI: true} // exclude the start node
	var out []string
	for _, row := range rows {
		uri := row["prereq"].Value
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		out = append(out, uri)
	}
	return out, nil
}

// prerequisitesByExpansion computes the closure as an iterative fixed point:
// fetch the direct prerequisites of the current frontier until no new skill
// appears. The visited set guarantees termination on cycles; the round-trip
// cap bounds latency on pathological graphs.
func (i *Inferencer) prerequisitesByExpansion(ctx context.Context, skillURI string) ([]string, error) {
	visited := map[string]bool{skillURI: true}
	frontier := []string{skillURI}
	var out []string

	for trip := 0; len(frontier) > 0 && trip < i.cfg.MaxRoundTrips; trip++ {
		q, err := sparql.Bind(prereqHopTmpl,
			sparql.IRI(string(i.cfg.Partition)), sparql.IRIList(frontier), sparql.Int(i.cfg.ClosureCap))
		if err != nil {
			return nil, err
		}
		rows, err := i.store.Select(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("prerequisite expansion (round %d): %w", trip+1, err)
		}

		var next []string
		for _, row := range rows {
			uri := row["prereq"].Value
			if uri == "" || visited[uri] {
				continue
			}
			visited[uri] = true
			next = append(next, uri)
			out = append(out, uri)
			if len(out) >= i.cfg.ClosureCap {
				return out, nil
			}
		}
		frontier = next
	}
	return out, nil
}

const relatedHopTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT DISTINCT ?related
WHERE {
  GRAPH %s {
    VALUES ?s { %s }
    ?s gkf:relatedTo ?related
  }
}
LIMIT %s`

// Related walks the relatedTo relation breadth-first up to depth hops and
// returns the discovered entities in hop order. Depth must be within
// [1, MaxDepth]. The result is capped at ResultCap entries; because nodes
// are appended hop by hop, truncation never evicts a closer node in favor
// of a farther one.
func (i *Inferencer) Related(ctx context.Context, entityURI string, depth int) ([]string, error) {
	if depth < 1 || depth > i.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: got %d", ErrDepthOutOfRange, depth)
	}

	visited := map[string]bool{entityURI: true}
	frontier := []string{entityURI}
	var out []string

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		q, err := sparql.Bind(relatedHopTmpl,
			sparql.IRI(string(i.cfg.Partition)), sparql.IRIList(frontier), sparql.Int(i.cfg.ResultCap))
		if err != nil {
			return nil, err
		}
		rows, err := i.store.Select(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("related traversal (hop %d): %w", hop+1, err)
		}

		var next []string
		for _, row := range rows {
			uri := row["related"].Value
			if uri == "" || visited[uri] {
				continue
			}
			visited[uri] = true
			next = append(next, uri)
			if len(out) < i.cfg.ResultCap {
				out = append(out, uri)
			}
		}
		if len(out) >= i.cfg.ResultCap {
			break
		}
		frontier = next
	}
	return out, nil
}
