package linker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gkf-org/skillgraph/sparql"
)

// LinkedUniversities and Open University both publish their catalogues
// with the AIISO vocabulary over public SPARQL endpoints, so the two
// linkers share one lookup shape.

const (
	linkedUniversitiesEndpoint = "http://linkeduniversities.org/sparql"
	openUniversityEndpoint     = "http://data.open.ac.uk/query"

	nsAIISO = "http://purl.org/vocab/aiiso/schema#"
)

const aiisoLookupTmpl = `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT DISTINCT ?uri ?label
WHERE {
  ?uri rdfs:label ?label .
  FILTER (CONTAINS(LCASE(STR(?label)), LCASE(%s)))
}
LIMIT %s`

const aiisoTypedLookupTmpl = `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT DISTINCT ?uri ?label
WHERE {
  ?uri a %s ;
       rdfs:label ?label .
  FILTER (CONTAINS(LCASE(STR(?label)), LCASE(%s)))
}
LIMIT %s`

// aiisoLink resolves a name by case-insensitive label containment,
// optionally narrowed to one AIISO class.
func aiisoLink(ctx context.Context, q sparql.Querier, source, name, class string, maxResults int) (string, error) {
	var (
		query sparql.Query
		err   error
	)
	if class != "" {
		query, err = sparql.Bind(aiisoTypedLookupTmpl,
			sparql.IRI(class), sparql.Str(name), sparql.Int(maxResults))
	} else {
		query, err = sparql.Bind(aiisoLookupTmpl,
			sparql.Str(name), sparql.Int(maxResults))
	}
	if err != nil {
		return "", err
	}

	rows, err := q.Select(ctx, query)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", source, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: %q in %s", ErrNoMatch, name, source)
	}

	uri := rows[0]["uri"].Value
	slog.Debug("linker: academic match", "source", source, "name", name, "uri", uri)
	return uri, nil
}

// LinkedUniversities links institutions, courses and programmes against
// the LinkedUniversities.org dataset.
type LinkedUniversities struct {
	cfg Config
	q   sparql.Querier
}

func NewLinkedUniversities(cfg Config) *LinkedUniversities {
	cfg = cfg.withDefaults(linkedUniversitiesEndpoint)
	return &LinkedUniversities{
		cfg: cfg,
		q: sparql.NewClient(sparql.Config{
			QueryEndpoint: cfg.Endpoint,
			Timeout:       cfg.Timeout,
		}),
	}
}

func (l *LinkedUniversities) Source() string { return "linkeduniversities" }

func (l *LinkedUniversities) Link(ctx context.Context, name, typeHint string) (string, error) {
	var class string
	switch strings.ToLower(typeHint) {
	case "university", "institution":
		class = nsAIISO + "Institution"
	case "course":
		class = nsAIISO + "Course"
	case "program", "programme":
		class = nsAIISO + "Programme"
	case "module":
		class = nsAIISO + "Module"
	}
	return aiisoLink(ctx, l.q, l.Source(), name, class, l.cfg.MaxResults)
}

// OpenUniversity links courses, qualifications and organizational units
// against the Open University linked-data service (data.open.ac.uk).
type OpenUniversity struct {
	cfg Config
	q   sparql.Querier
}

func NewOpenUniversity(cfg Config) *OpenUniversity {
	cfg = cfg.withDefaults(openUniversityEndpoint)
	return &OpenUniversity{
		cfg: cfg,
		q: sparql.NewClient(sparql.Config{
			QueryEndpoint: cfg.Endpoint,
			Timeout:       cfg.Timeout,
		}),
	}
}

func (o *OpenUniversity) Source() string { return "openuniversity" }

func (o *OpenUniversity) Link(ctx context.Context, name, typeHint string) (string, error) {
	var class string
	switch strings.ToLower(typeHint) {
	case "course":
		class = nsAIISO + "Course"
	case "qualification":
		class = nsAIISO + "Qualification"
	case "unit":
		class = nsAIISO + "OrganizationalUnit"
	}
	return aiisoLink(ctx, o.q, o.Source(), name, class, o.cfg.MaxResults)
}
