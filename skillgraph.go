// Package skillgraph is a knowledge reasoning and recommendation engine
// over a SPARQL graph store. It infers transitive skill prerequisites,
// traverses relatedness with bounded depth, ranks course and skill
// recommendations, analyzes career gaps, and blends foundational and
// experiential knowledge into confidence scores.
package skillgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gkf-org/skillgraph/acquire"
	"github.com/gkf-org/skillgraph/career"
	"github.com/gkf-org/skillgraph/inference"
	"github.com/gkf-org/skillgraph/integrate"
	"github.com/gkf-org/skillgraph/linker"
	"github.com/gkf-org/skillgraph/mapping"
	"github.com/gkf-org/skillgraph/ontology"
	"github.com/gkf-org/skillgraph/rdf"
	"github.com/gkf-org/skillgraph/recommend"
	"github.com/gkf-org/skillgraph/sparql"
)

// Engine is the main entry point for the knowledge engine.
type Engine interface {
	// Prerequisites returns the transitive prerequisite closure of a
	// skill, excluding the skill itself.
	Prerequisites(ctx context.Context, skillURI string) ([]string, error)

	// Related returns entities reachable over relatedTo within depth
	// hops, closest first. Depth must be in [1,5].
	Related(ctx context.Context, entityURI string, depth int) ([]string, error)

	// CoursesForJob recommends courses teaching a job's required skills,
	// grouped so each course appears once.
	CoursesForJob(ctx context.Context, jobURI string) ([]recommend.CourseRecommendation, error)

	// LearningPath plans the skills to acquire for a target job, given
	// skills already held.
	LearningPath(ctx context.Context, targetJobURI string, currentSkills []string) ([]recommend.LearningPathStep, error)

	// NextSkills suggests skills co-occurring with the user's skills,
	// ranked by demand then co-occurrence.
	NextSkills(ctx context.Context, userSkills []string, opts ...QueryOption) ([]recommend.SkillSuggestion, error)

	// SkillDemand scores a skill's market demand in [0,100].
	SkillDemand(ctx context.Context, skillURI string) (float64, error)

	// SkillSimilarity scores how related two skills are in [0,1].
	SkillSimilarity(ctx context.Context, a, b string) (float64, error)

	// AnalyzeCareerPath reports the skill gap between two jobs and a
	// learning path to close it.
	AnalyzeCareerPath(ctx context.Context, startJobURI, endJobURI string) (*career.GapReport, error)

	// AddFoundational appends a validated fragment to the foundational
	// partition.
	AddFoundational(ctx context.Context, fragment *rdf.Graph) error

	// RecordInteraction appends a user interaction to the experiential
	// partition and returns the new interaction URI.
	RecordInteraction(ctx context.Context, ev integrate.Event) (string, error)

	// UserHistory lists a user's interactions in timestamp order.
	UserHistory(ctx context.Context, userID string) ([]sparql.Binding, error)

	// CoursePopularity counts interactions referencing an entity.
	CoursePopularity(ctx context.Context, entityURI string) (int, error)

	// KnowledgeConfidence blends foundational presence and experiential
	// popularity into a score in [0,1].
	KnowledgeConfidence(ctx context.Context, entityURI string) (float64, error)

	// EnrichEntity pairs an entity's foundational properties with its
	// experiential standing.
	EnrichEntity(ctx context.Context, entityURI string) (*integrate.EntityInsights, error)

	// IngestRecords runs the acquisition pipeline for one source kind:
	// fetch records, map them with the rules, validate the fragment and
	// append it to the foundational partition.
	IngestRecords(ctx context.Context, sourceKind string, rules mapping.Rules) (*IngestReport, error)

	// LinkEntity resolves an entity name against a Linked Open Data
	// source and returns its canonical URI.
	LinkEntity(ctx context.Context, source, name, typeHint string) (string, error)

	// Ping checks store reachability.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error
}

// IngestReport summarizes one acquisition run.
type IngestReport struct {
	Records  int      `json:"records"`
	Triples  int      `json:"triples"`
	Subjects int      `json:"subjects"`
	Failed   []string `json:"failed,omitempty"`   // per-record mapping diagnostics
	Fetch    []string `json:"fetch,omitempty"`    // per-item fetch failures
	Warnings []string `json:"warnings,omitempty"` // vocabulary drift
}

// QueryOption configures per-call behavior.
type QueryOption func(*queryOptions)

type queryOptions struct {
	topK int
}

// WithTopK bounds the number of ranked suggestions for this call.
func WithTopK(n int) QueryOption {
	return func(o *queryOptions) { o.topK = n }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg        Config
	client     *sparql.Client
	inf        *inference.Inferencer
	rec        *recommend.Recommender
	analyzer   *career.Analyzer
	integrator *integrate.Integrator
	sources    *acquire.Registry
	linkers    *linker.Registry
	vocab      *ontology.Vocabulary
}

// New creates an engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if cfg.Store.QueryEndpoint == "" {
		return nil, fmt.Errorf("%w: store query endpoint required", ErrInvalidConfig)
	}
	foundational, experiential := cfg.partitions()
	if !foundational.Valid() || !experiential.Valid() {
		return nil, fmt.Errorf("%w: malformed partition graph URI", ErrInvalidConfig)
	}

	client := sparql.NewClient(cfg.Store)

	inf := inference.New(client, inference.Config{
		Partition:        foundational,
		MaxDepth:         cfg.MaxTraversalDepth,
		ResultCap:        cfg.RelatedResultCap,
		MaxRoundTrips:    cfg.MaxRoundTrips,
		ClosureCap:       cfg.ClosureCap,
		UsePropertyPaths: cfg.UsePropertyPaths,
	})

	rec := recommend.New(client, inf, recommend.Config{
		Partition:          foundational,
		MaxCoursesPerSkill: cfg.MaxCoursesPerSkill,
		DefaultTopK:        cfg.DefaultTopK,
	})

	integrator := integrate.New(client, integrate.Config{
		Foundational: foundational,
		Experiential: experiential,
	})

	sources := acquire.NewRegistry()
	for kind, sourceCfg := range cfg.Sources {
		sources.Configure(kind, sourceCfg)
	}

	linkers := linker.NewRegistry()
	for source, linkerCfg := range cfg.Linkers {
		linkers.Configure(source, linkerCfg)
	}

	return &engine{
		cfg:        cfg,
		client:     client,
		inf:        inf,
		rec:        rec,
		analyzer:   career.New(rec),
		integrator: integrator,
		sources:    sources,
		linkers:    linkers,
		vocab:      ontology.Default(),
	}, nil
}

func (e *engine) Prerequisites(ctx context.Context, skillURI string) ([]string, error) {
	prereqs, err := e.inf.Prerequisites(ctx, skillURI)
	return prereqs, mapErr(err)
}

func (e *engine) Related(ctx context.Context, entityURI string, depth int) ([]string, error) {
	related, err := e.inf.Related(ctx, entityURI, depth)
	return related, mapErr(err)
}

func (e *engine) CoursesForJob(ctx context.Context, jobURI string) ([]recommend.CourseRecommendation, error) {
	courses, err := e.rec.CoursesForJob(ctx, jobURI)
	return courses, mapErr(err)
}

func (e *engine) LearningPath(ctx context.Context, targetJobURI string, currentSkills []string) ([]recommend.LearningPathStep, error) {
	steps, err := e.rec.LearningPath(ctx, targetJobURI, currentSkills)
	return steps, mapErr(err)
}

func (e *engine) NextSkills(ctx context.Context, userSkills []string, opts ...QueryOption) ([]recommend.SkillSuggestion, error) {
	options := &queryOptions{}
	for _, o := range opts {
		o(options)
	}
	suggestions, err := e.rec.NextSkills(ctx, userSkills, options.topK)
	return suggestions, mapErr(err)
}

func (e *engine) SkillDemand(ctx context.Context, skillURI string) (float64, error) {
	demand, err := e.rec.SkillDemand(ctx, skillURI)
	return demand, mapErr(err)
}

func (e *engine) SkillSimilarity(ctx context.Context, a, b string) (float64, error) {
	similarity, err := e.rec.SkillSimilarity(ctx, a, b)
	return similarity, mapErr(err)
}

func (e *engine) AnalyzeCareerPath(ctx context.Context, startJobURI, endJobURI string) (*career.GapReport, error) {
	report, err := e.analyzer.AnalyzePath(ctx, startJobURI, endJobURI)
	return report, mapErr(err)
}

func (e *engine) AddFoundational(ctx context.Context, fragment *rdf.Graph) error {
	report := e.vocab.Validate(fragment)
	if !report.Valid {
		return fmt.Errorf("%w: fragment rejected: %v", ErrInvalidArgument, report.Errors)
	}
	for _, warning := range report.Warnings {
		slog.Warn("skillgraph: fragment vocabulary drift", "warning", warning)
	}
	return mapErr(e.integrator.AddFoundational(ctx, fragment))
}

func (e *engine) RecordInteraction(ctx context.Context, ev integrate.Event) (string, error) {
	uri, err := e.integrator.AddExperiential(ctx, ev)
	return uri, mapErr(err)
}

func (e *engine) UserHistory(ctx context.Context, userID string) ([]sparql.Binding, error) {
	history, err := e.integrator.UserHistory(ctx, userID)
	return history, mapErr(err)
}

func (e *engine) CoursePopularity(ctx context.Context, entityURI string) (int, error) {
	popularity, err := e.integrator.CoursePopularity(ctx, entityURI)
	return popularity, mapErr(err)
}

func (e *engine) KnowledgeConfidence(ctx context.Context, entityURI string) (float64, error) {
	confidence, err := e.integrator.KnowledgeConfidence(ctx, entityURI)
	return confidence, mapErr(err)
}

func (e *engine) EnrichEntity(ctx context.Context, entityURI string) (*integrate.EntityInsights, error) {
	insights, err := e.integrator.EnrichEntity(ctx, entityURI)
	return insights, mapErr(err)
}

// IngestRecords runs connector, mapper and integrator as one pipeline.
// Per-item fetch failures and per-record mapping failures are collected
// in the report; only a total failure aborts the run.
func (e *engine) IngestRecords(ctx context.Context, sourceKind string, rules mapping.Rules) (*IngestReport, error) {
	connector, err := e.sources.Get(sourceKind)
	if err != nil {
		return nil, mapErr(err)
	}

	report := &IngestReport{}

	records, err := connector.Fetch(ctx)
	if err != nil {
		var partial *acquire.PartialError
		if !errors.As(err, &partial) {
			return nil, mapErr(err)
		}
		for _, item := range partial.Items {
			report.Fetch = append(report.Fetch, item.Error())
		}
	}
	report.Records = len(records)

	fragment, failed, err := mapping.Apply(records, rules)
	if err != nil {
		return nil, mapErr(err)
	}
	for _, f := range failed {
		report.Failed = append(report.Failed, f.Error())
	}

	validation := e.vocab.Validate(fragment)
	if !validation.Valid {
		return nil, fmt.Errorf("%w: mapped fragment rejected: %v", ErrInvalidArgument, validation.Errors)
	}
	report.Warnings = validation.Warnings
	report.Triples = fragment.Len()
	report.Subjects = validation.Subjects

	if fragment.Len() > 0 {
		if err := e.integrator.AddFoundational(ctx, fragment); err != nil {
			return nil, mapErr(err)
		}
	}

	slog.Info("skillgraph: ingest complete",
		"source", sourceKind, "entity_type", rules.EntityType,
		"records", report.Records, "triples", report.Triples,
		"failed", len(report.Failed), "fetch_errors", len(report.Fetch))
	return report, nil
}

func (e *engine) LinkEntity(ctx context.Context, source, name, typeHint string) (string, error) {
	l, err := e.linkers.Get(source)
	if err != nil {
		return "", mapErr(err)
	}
	uri, err := l.Link(ctx, name, typeHint)
	return uri, mapErr(err)
}

func (e *engine) Ping(ctx context.Context) error {
	return mapErr(e.client.Ping(ctx))
}

func (e *engine) Close() error {
	return e.sources.Close()
}

// mapErr translates subsystem sentinels into the engine's error kinds,
// preserving the original message.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrStoreQueryError):
		return err
	case errors.Is(err, inference.ErrDepthOutOfRange),
		errors.Is(err, integrate.ErrInvalidEvent),
		errors.Is(err, integrate.ErrInvalidFragment),
		errors.Is(err, mapping.ErrBadRules),
		errors.Is(err, acquire.ErrUnknownSource),
		errors.Is(err, acquire.ErrNotConfigured),
		errors.Is(err, linker.ErrUnknownSource):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	case errors.Is(err, linker.ErrNoMatch):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, sparql.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	case errors.Is(err, sparql.ErrQueryRejected), errors.Is(err, sparql.ErrBadBinding):
		return fmt.Errorf("%w: %v", ErrStoreQueryError, err)
	default:
		return err
	}
}
