// Package integrate manages the dual-partition knowledge write path:
// foundational facts from authoritative sources and experiential facts
// derived from recorded user interactions, plus the confidence blending
// between the two.
package integrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gkf-org/skillgraph/rdf"
	"github.com/gkf-org/skillgraph/sparql"
)

var (
	// ErrInvalidEvent is returned when an interaction event is missing a
	// user, carries an invalid entity URI, or has an unusable type.
	ErrInvalidEvent = errors.New("integrate: invalid interaction event")

	// ErrInvalidFragment is returned when a foundational fragment fails
	// IRI validation.
	ErrInvalidFragment = errors.New("integrate: invalid knowledge fragment")
)

// Store is the slice of the graph port the integrator consumes: scoped
// reads plus appends.
type Store interface {
	sparql.Querier
	InsertData(ctx context.Context, graph rdf.IRI, g *rdf.Graph) error
}

// Config names the two partitions. Both default to the standard graph
// URIs when empty.
type Config struct {
	Foundational rdf.IRI `json:"foundational" yaml:"foundational"`
	Experiential rdf.IRI `json:"experiential" yaml:"experiential"`
}

// Option customizes an Integrator.
type Option func(*Integrator)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(i *Integrator) { i.now = now }
}

// WithIDSuffix overrides the random suffix source for interaction IDs.
func WithIDSuffix(suffix func() string) Option {
	return func(i *Integrator) { i.suffix = suffix }
}

// Integrator owns the write path into both partitions. It is explicitly
// constructed and passed where needed; there is no process-wide default.
// Interaction records are append-only: created, never mutated, only
// superseded by later interactions.
type Integrator struct {
	store        Store
	foundational rdf.IRI
	experiential rdf.IRI
	now          func() time.Time
	suffix       func() string
}

// New creates an Integrator over a store.
func New(store Store, cfg Config, opts ...Option) *Integrator {
	if cfg.Foundational == "" {
		cfg.Foundational = rdf.GraphFoundational
	}
	if cfg.Experiential == "" {
		cfg.Experiential = rdf.GraphExperiential
	}
	i := &Integrator{
		store:        store,
		foundational: cfg.Foundational,
		experiential: cfg.Experiential,
		now:          time.Now,
		suffix:       func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// AddFoundational tags every subject in the fragment as foundational
// knowledge and appends the fragment to the foundational partition.
// INSERT DATA has set semantics, so re-adding an identical fragment
// leaves the partition unchanged.
func (i *Integrator) AddFoundational(ctx context.Context, fragment *rdf.Graph) error {
	if err := fragment.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}

	tagged := rdf.NewGraph()
	tagged.AddAll(fragment)
	for _, subject := range fragment.Subjects() {
		tagged.Add(rdf.Triple{Subject: subject, Predicate: rdf.RDFType, Object: rdf.ClassFoundationalKnowledge})
	}

	if err := i.store.InsertData(ctx, i.foundational, tagged); err != nil {
		return fmt.Errorf("appending foundational fragment: %w", err)
	}
	slog.Info("integrate: foundational fragment appended",
		"triples", tagged.Len(), "subjects", len(fragment.Subjects()))
	return nil
}

// Event is one recorded user interaction.
type Event struct {
	UserID          string         `json:"user_id"`
	InteractionType string         `json:"interaction_type"` // course_completion, skill_rating, learning_path
	EntityURI       string         `json:"entity_uri"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// userIDRe restricts user identifiers to characters safe inside a data
// namespace IRI.
var userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// AddExperiential creates a new immutable Interaction node from the event
// and appends it to the experiential partition only. The interaction ID
// combines the user, a nanosecond timestamp and a random suffix, so rapid
// repeated events at the same timestamp resolution cannot collide.
// It returns the URI of the created interaction.
func (i *Integrator) AddExperiential(ctx context.Context, ev Event) (string, error) {
	if !userIDRe.MatchString(ev.UserID) {
		return "", fmt.Errorf("%w: bad user id %q", ErrInvalidEvent, ev.UserID)
	}
	entity := rdf.IRI(ev.EntityURI)
	if !entity.Valid() {
		return "", fmt.Errorf("%w: bad entity URI %q", ErrInvalidEvent, ev.EntityURI)
	}
	if ev.InteractionType != "" && !sparql.ValidLocalName(ev.InteractionType) {
		return "", fmt.Errorf("%w: bad interaction type %q", ErrInvalidEvent, ev.InteractionType)
	}

	now := i.now()
	id := fmt.Sprintf("interaction_%s_%d_%s", ev.UserID, now.UnixNano(), i.suffix())
	interaction := rdf.Data(id)

	g := rdf.NewGraph()
	g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.RDFType, Object: rdf.ClassInteraction})
	g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.RDFType, Object: rdf.ClassExperientialKnowledge})
	g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.PropHasUser, Object: rdf.Data("User/" + ev.UserID)})
	g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.PropRelatedTo, Object: entity})
	g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.PropTimestamp, Object: rdf.Time(now)})
	if ev.InteractionType != "" {
		g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.Onto("interactionType"), Object: rdf.String(ev.InteractionType)})
	}

	// Metadata flattens into node properties. Keys are validated as
	// ontology local names; unusable entries are skipped with a warning
	// rather than failing the whole event.
	keys := make([]string, 0, len(ev.Metadata))
	for k := range ev.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !sparql.ValidLocalName(k) {
			slog.Warn("integrate: skipping metadata key", "key", k, "reason", "invalid local name")
			continue
		}
		lit, err := rdf.FromValue(ev.Metadata[k])
		if err != nil {
			slog.Warn("integrate: skipping metadata value", "key", k, "error", err)
			continue
		}
		g.Add(rdf.Triple{Subject: interaction, Predicate: rdf.Onto(k), Object: lit})
	}

	if err := i.store.InsertData(ctx, i.experiential, g); err != nil {
		return "", fmt.Errorf("appending interaction: %w", err)
	}
	slog.Info("integrate: interaction recorded",
		"interaction", id, "type", ev.InteractionType, "entity", ev.EntityURI)
	return string(interaction), nil
}

const scopedQueryTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT * FROM %s
WHERE {
%s
}`

// QueryFoundational runs a pattern scoped to the foundational partition.
// The pattern is a trusted template; caller values go through args.
func (i *Integrator) QueryFoundational(ctx context.Context, pattern string, args ...sparql.Arg) ([]sparql.Binding, error) {
	return i.scopedQuery(ctx, i.foundational, pattern, args)
}

// QueryExperiential runs a pattern scoped to the experiential partition.
func (i *Integrator) QueryExperiential(ctx context.Context, pattern string, args ...sparql.Arg) ([]sparql.Binding, error) {
	return i.scopedQuery(ctx, i.experiential, pattern, args)
}

func (i *Integrator) scopedQuery(ctx context.Context, graph rdf.IRI, pattern string, args []sparql.Arg) ([]sparql.Binding, error) {
	template := fmt.Sprintf(scopedQueryTmpl, "%s", pattern)
	bound := append([]sparql.Arg{sparql.IRI(string(graph))}, args...)
	q, err := sparql.Bind(template, bound...)
	if err != nil {
		return nil, err
	}
	return i.store.Select(ctx, q)
}

const integratedQueryTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT *
WHERE {
  { GRAPH %s {
%s
  } } UNION { GRAPH %s {
%s
  } }
}`

// QueryIntegrated runs a pattern across both partitions as an explicit
// union; the partitions are never merged implicitly.
func (i *Integrator) QueryIntegrated(ctx context.Context, pattern string, args ...sparql.Arg) ([]sparql.Binding, error) {
	template := fmt.Sprintf(integratedQueryTmpl, "%s", pattern, "%s", pattern)
	bound := make([]sparql.Arg, 0, 2*len(args)+2)
	bound = append(bound, sparql.IRI(string(i.foundational)))
	bound = append(bound, args...)
	bound = append(bound, sparql.IRI(string(i.experiential)))
	bound = append(bound, args...)
	q, err := sparql.Bind(template, bound...)
	if err != nil {
		return nil, err
	}
	return i.store.Select(ctx, q)
}

const userHistoryTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT ?interaction ?entity ?timestamp
WHERE {
  GRAPH %s {
    ?interaction a gkf:Interaction ;
                 gkf:hasUser %s ;
                 gkf:relatedTo ?entity ;
                 gkf:timestamp ?timestamp .
  }
}
ORDER BY ?timestamp`

// UserHistory lists a user's recorded interactions in timestamp order.
func (i *Integrator) UserHistory(ctx context.Context, userID string) ([]sparql.Binding, error) {
	if !userIDRe.MatchString(userID) {
		return nil, fmt.Errorf("%w: bad user id %q", ErrInvalidEvent, userID)
	}
	q, err := sparql.Bind(userHistoryTmpl,
		sparql.IRI(string(i.experiential)),
		sparql.IRI(string(rdf.Data("User/"+userID))))
	if err != nil {
		return nil, err
	}
	return i.store.Select(ctx, q)
}

const popularityTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT (COUNT(?interaction) AS ?count) FROM %s
WHERE {
  ?interaction a gkf:Interaction ;
               gkf:relatedTo %s .
}`

// CoursePopularity counts the experiential interactions referencing an
// entity.
func (i *Integrator) CoursePopularity(ctx context.Context, entityURI string) (int, error) {
	q, err := sparql.Bind(popularityTmpl,
		sparql.IRI(string(i.experiential)), sparql.IRI(entityURI))
	if err != nil {
		return 0, err
	}
	rows, err := i.store.Select(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("counting interactions: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	count, err := rows[0]["count"].Int()
	if err != nil {
		return 0, fmt.Errorf("parsing interaction count: %w", err)
	}
	return count, nil
}

const foundationalRefTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
ASK {
  GRAPH %s {
    { %s ?p ?o } UNION { ?s ?p2 %s }
  }
}`

// KnowledgeConfidence blends the two knowledge sources into a score in
// [0,1]: a flat 0.7 when any foundational triple references the entity,
// plus up to 0.3 from experiential popularity (popularity/100, capped).
// A fixed linear heuristic, not a fitted model.
func (i *Integrator) KnowledgeConfidence(ctx context.Context, entityURI string) (float64, error) {
	q, err := sparql.Bind(foundationalRefTmpl,
		sparql.IRI(string(i.foundational)), sparql.IRI(entityURI), sparql.IRI(entityURI))
	if err != nil {
		return 0, err
	}
	foundational, err := i.store.Ask(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("checking foundational reference: %w", err)
	}

	popularity, err := i.CoursePopularity(ctx, entityURI)
	if err != nil {
		return 0, err
	}

	confidence := 0.0
	if foundational {
		confidence += 0.7
	}
	if popularity > 0 {
		experiential := float64(popularity) / 100.0
		if experiential > 0.3 {
			experiential = 0.3
		}
		confidence += experiential
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, nil
}

// EntityInsights pairs an entity's foundational properties with its
// experiential standing.
type EntityInsights struct {
	Foundational []sparql.Binding `json:"foundational"`
	Popularity   int              `json:"popularity"`
	Confidence   float64          `json:"confidence"`
}

// EnrichEntity reads an entity's foundational properties and augments
// them with experiential popularity and the blended confidence score.
func (i *Integrator) EnrichEntity(ctx context.Context, entityURI string) (*EntityInsights, error) {
	props, err := i.QueryFoundational(ctx, "  %s ?property ?value .", sparql.IRI(entityURI))
	if err != nil {
		return nil, fmt.Errorf("fetching foundational properties: %w", err)
	}
	popularity, err := i.CoursePopularity(ctx, entityURI)
	if err != nil {
		return nil, err
	}
	confidence, err := i.KnowledgeConfidence(ctx, entityURI)
	if err != nil {
		return nil, err
	}
	return &EntityInsights{
		Foundational: props,
		Popularity:   popularity,
		Confidence:   confidence,
	}, nil
}
