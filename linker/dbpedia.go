package linker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gkf-org/skillgraph/sparql"
)

const dbpediaEndpoint = "https://dbpedia.org/sparql"

// DBpedia links entities by label lookup against the public DBpedia
// SPARQL endpoint, reusing the same protocol client that talks to the
// knowledge store.
type DBpedia struct {
	cfg Config
	q   sparql.Querier
}

func NewDBpedia(cfg Config) *DBpedia {
	cfg = cfg.withDefaults(dbpediaEndpoint)
	return &DBpedia{
		cfg: cfg,
		q: sparql.NewClient(sparql.Config{
			QueryEndpoint: cfg.Endpoint,
			Timeout:       cfg.Timeout,
		}),
	}
}

func (d *DBpedia) Source() string { return "dbpedia" }

const dbpediaLookupTmpl = `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT DISTINCT ?entity ?comment
WHERE {
  ?entity rdfs:label ?label .
  FILTER (LCASE(STR(?label)) = LCASE(%s) && LANGMATCHES(LANG(?label), %s))
  OPTIONAL {
    ?entity rdfs:comment ?comment .
    FILTER (LANGMATCHES(LANG(?comment), %s))
  }
}
LIMIT %s`

// Link resolves the name by exact case-insensitive label match. When a
// type hint is given, a candidate whose comment mentions it is preferred
// over the first row.
func (d *DBpedia) Link(ctx context.Context, name, typeHint string) (string, error) {
	q, err := sparql.Bind(dbpediaLookupTmpl,
		sparql.Str(name),
		sparql.Str(d.cfg.Language),
		sparql.Str(d.cfg.Language),
		sparql.Int(d.cfg.MaxResults))
	if err != nil {
		return "", err
	}

	rows, err := d.q.Select(ctx, q)
	if err != nil {
		return "", fmt.Errorf("querying dbpedia: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: %q in dbpedia", ErrNoMatch, name)
	}

	best := rows[0]["entity"].Value
	if typeHint != "" {
		for _, row := range rows {
			if matchesHint(row["comment"].Value, typeHint) {
				best = row["entity"].Value
				break
			}
		}
	}

	slog.Debug("linker: dbpedia match", "name", name, "uri", best)
	return best, nil
}
