// Package mapping turns raw acquired records into graph fragments using
// declarative field-to-property rules. Every Apply call produces a fresh
// fragment; the mapper holds no state between calls.
package mapping

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"github.com/gkf-org/skillgraph/acquire"
	"github.com/gkf-org/skillgraph/rdf"
	"github.com/gkf-org/skillgraph/sparql"
)

var (
	// ErrBadRules is returned when mapping rules are unusable as a whole.
	ErrBadRules = errors.New("mapping: invalid rules")

	// ErrBadRecord marks a single record that could not be mapped.
	ErrBadRecord = errors.New("mapping: invalid record")
)

// Rules describes how records of one entity type become triples.
type Rules struct {
	// EntityType is the ontology class local name: Skill, Course, Job...
	EntityType string `json:"entity_type" yaml:"entity_type"`

	// IDField names the record field holding the entity identifier.
	// Records missing it get a generated UUID. Defaults to "id".
	IDField string `json:"id_field,omitempty" yaml:"id_field,omitempty"`

	// Fields maps record field names to ontology property local names.
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// RecordError is a per-record mapping diagnostic. A failing record is
// skipped; it never aborts the batch.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string { return fmt.Sprintf("record %d: %v", e.Index, e.Err) }

func (e RecordError) Unwrap() error { return e.Err }

// entityIDRe restricts identifiers to characters safe inside a data
// namespace IRI.
var entityIDRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Apply maps records into a new fragment. The returned fragment contains
// triples for every record that mapped cleanly; per-record failures come
// back as diagnostics alongside it.
func Apply(records []acquire.Record, rules Rules) (*rdf.Graph, []RecordError, error) {
	if !sparql.ValidLocalName(rules.EntityType) {
		return nil, nil, fmt.Errorf("%w: bad entity type %q", ErrBadRules, rules.EntityType)
	}
	for field, property := range rules.Fields {
		if !sparql.ValidLocalName(property) {
			return nil, nil, fmt.Errorf("%w: field %q maps to bad property %q",
				ErrBadRules, field, property)
		}
	}
	idField := rules.IDField
	if idField == "" {
		idField = "id"
	}

	g := rdf.NewGraph()
	var failed []RecordError
	for i, record := range records {
		if err := applyOne(g, record, rules, idField); err != nil {
			slog.Warn("mapping: record skipped", "index", i, "error", err)
			failed = append(failed, RecordError{Index: i, Err: err})
		}
	}

	slog.Info("mapping: records mapped",
		"entity_type", rules.EntityType, "records", len(records),
		"triples", g.Len(), "failed", len(failed))
	return g, failed, nil
}

func applyOne(g *rdf.Graph, record acquire.Record, rules Rules, idField string) error {
	id := entityID(record, idField)
	if !entityIDRe.MatchString(id) {
		return fmt.Errorf("%w: bad identifier %q", ErrBadRecord, id)
	}
	entity := rdf.Data(rules.EntityType + "/" + id)

	// Stage the record on its own graph so a mid-record failure leaves
	// no partial entity behind.
	staged := rdf.NewGraph()
	staged.Add(rdf.Triple{Subject: entity, Predicate: rdf.RDFType, Object: rdf.Onto(rules.EntityType)})

	for field, property := range rules.Fields {
		value, ok := record[field]
		if !ok || value == nil || value == "" {
			continue
		}
		predicate := rdf.Onto(property)

		items, isList := value.([]any)
		if !isList {
			items = []any{value}
		}
		for _, item := range items {
			lit, err := rdf.FromValue(item)
			if err != nil {
				return fmt.Errorf("%w: field %q: %v", ErrBadRecord, field, err)
			}
			staged.Add(rdf.Triple{Subject: entity, Predicate: predicate, Object: lit})
		}
	}

	g.AddAll(staged)
	return nil
}

func entityID(record acquire.Record, idField string) string {
	if v, ok := record[idField]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return uuid.NewString()
}

// AddRelation links two entities with an ontology property.
func AddRelation(g *rdf.Graph, subject rdf.IRI, property string, object rdf.IRI) error {
	if !sparql.ValidLocalName(property) {
		return fmt.Errorf("%w: bad property %q", ErrBadRules, property)
	}
	if !subject.Valid() || !object.Valid() {
		return fmt.Errorf("%w: invalid IRI in relation", ErrBadRecord)
	}
	g.Add(rdf.Triple{Subject: subject, Predicate: rdf.Onto(property), Object: object})
	return nil
}

// Skill is the typed shortcut for mapping one skill entity.
type Skill struct {
	ID          string
	Name        string
	Level       string
	Description string
}

// AddSkill maps a skill into the fragment and returns its URI.
func AddSkill(g *rdf.Graph, s Skill) (rdf.IRI, error) {
	uri, err := entityURI("Skill", s.ID)
	if err != nil {
		return "", err
	}
	g.Add(rdf.Triple{Subject: uri, Predicate: rdf.RDFType, Object: rdf.ClassSkill})
	g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropSkillName, Object: rdf.String(s.Name)})
	if s.Level != "" {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropSkillLevel, Object: rdf.String(s.Level)})
	}
	if s.Description != "" {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropDescription, Object: rdf.String(s.Description)})
	}
	return uri, nil
}

// Course is the typed shortcut for mapping one course entity.
type Course struct {
	ID         string
	Name       string
	URL        string
	Duration   int
	Difficulty string
}

// AddCourse maps a course into the fragment and returns its URI.
func AddCourse(g *rdf.Graph, c Course) (rdf.IRI, error) {
	uri, err := entityURI("Course", c.ID)
	if err != nil {
		return "", err
	}
	g.Add(rdf.Triple{Subject: uri, Predicate: rdf.RDFType, Object: rdf.ClassCourse})
	g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropCourseName, Object: rdf.String(c.Name)})
	if c.URL != "" {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropCourseURL, Object: rdf.AnyURI(c.URL)})
	}
	if c.Duration > 0 {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropDuration, Object: rdf.Int(c.Duration)})
	}
	if c.Difficulty != "" {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropDifficulty, Object: rdf.String(c.Difficulty)})
	}
	return uri, nil
}

// Job is the typed shortcut for mapping one job entity.
type Job struct {
	ID          string
	Title       string
	Salary      float64
	Description string
}

// AddJob maps a job into the fragment and returns its URI.
func AddJob(g *rdf.Graph, j Job) (rdf.IRI, error) {
	uri, err := entityURI("Job", j.ID)
	if err != nil {
		return "", err
	}
	g.Add(rdf.Triple{Subject: uri, Predicate: rdf.RDFType, Object: rdf.ClassJob})
	g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropJobTitle, Object: rdf.String(j.Title)})
	if j.Salary > 0 {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropSalary, Object: rdf.Float(j.Salary)})
	}
	if j.Description != "" {
		g.Add(rdf.Triple{Subject: uri, Predicate: rdf.PropDescription, Object: rdf.String(j.Description)})
	}
	return uri, nil
}

func entityURI(entityType, id string) (rdf.IRI, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !entityIDRe.MatchString(id) {
		return "", fmt.Errorf("%w: bad identifier %q", ErrBadRecord, id)
	}
	return rdf.Data(entityType + "/" + id), nil
}
