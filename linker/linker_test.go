package linker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gkf-org/skillgraph/sparql"
)

func TestWikidataLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "wbsearchentities" {
			t.Errorf("action = %q", got)
		}
		if got := r.URL.Query().Get("search"); got != "Python" {
			t.Errorf("search = %q", got)
		}
		w.Write([]byte(`{"search":[
			{"id":"Q1","label":"Python","description":"genus of snakes"},
			{"id":"Q28865","label":"Python","description":"programming language"}
		]}`))
	}))
	defer srv.Close()

	l := NewWikidata(Config{Endpoint: srv.URL})

	// Without a hint the top-ranked candidate wins.
	uri, err := l.Link(context.Background(), "Python", "")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if uri != "http://www.wikidata.org/entity/Q1" {
		t.Errorf("uri = %q", uri)
	}

	// A type hint picks the candidate whose description mentions it.
	uri, err = l.Link(context.Background(), "Python", "programming language")
	if err != nil {
		t.Fatalf("Link with hint: %v", err)
	}
	if uri != "http://www.wikidata.org/entity/Q28865" {
		t.Errorf("uri = %q", uri)
	}
}

func TestWikidataNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"search":[]}`))
	}))
	defer srv.Close()

	l := NewWikidata(Config{Endpoint: srv.URL})
	if _, err := l.Link(context.Background(), "gibberish", ""); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

func TestWikidataServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewWikidata(Config{Endpoint: srv.URL})
	_, err := l.Link(context.Background(), "Python", "")
	if err == nil || errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

type fakeQuerier struct {
	rows    []sparql.Binding
	lastQ   string
	failErr error
}

func (f *fakeQuerier) Select(_ context.Context, q sparql.Query) ([]sparql.Binding, error) {
	f.lastQ = q.Text()
	return f.rows, f.failErr
}

func (f *fakeQuerier) Ask(context.Context, sparql.Query) (bool, error) { return false, nil }

func TestDBpediaLink(t *testing.T) {
	q := &fakeQuerier{rows: []sparql.Binding{
		{
			"entity":  sparql.Value{Type: "uri", Value: "http://dbpedia.org/resource/Python"},
			"comment": sparql.Value{Type: "literal", Value: "A genus of snakes."},
		},
		{
			"entity":  sparql.Value{Type: "uri", Value: "http://dbpedia.org/resource/Python_(programming_language)"},
			"comment": sparql.Value{Type: "literal", Value: "A programming language."},
		},
	}}
	l := &DBpedia{cfg: Config{}.withDefaults(dbpediaEndpoint), q: q}

	uri, err := l.Link(context.Background(), "Python", "programming language")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if uri != "http://dbpedia.org/resource/Python_(programming_language)" {
		t.Errorf("uri = %q", uri)
	}
	if !strings.Contains(q.lastQ, `"Python"`) {
		t.Errorf("name not bound as literal:\n%s", q.lastQ)
	}
}

func TestDBpediaEscapesName(t *testing.T) {
	q := &fakeQuerier{}
	l := &DBpedia{cfg: Config{}.withDefaults(dbpediaEndpoint), q: q}

	_, err := l.Link(context.Background(), `x" } DROP ALL #`, "")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	if strings.Contains(q.lastQ, `x" }`) {
		t.Errorf("unescaped quote reached query text:\n%s", q.lastQ)
	}
}

func TestLinkedUniversitiesLink(t *testing.T) {
	q := &fakeQuerier{rows: []sparql.Binding{
		{
			"uri":   sparql.Value{Type: "uri", Value: "http://linkeduniversities.org/lu/course/42"},
			"label": sparql.Value{Type: "literal", Value: "Introduction to Databases"},
		},
	}}
	l := &LinkedUniversities{cfg: Config{}.withDefaults(linkedUniversitiesEndpoint), q: q}

	uri, err := l.Link(context.Background(), "Databases", "course")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if uri != "http://linkeduniversities.org/lu/course/42" {
		t.Errorf("uri = %q", uri)
	}
	if !strings.Contains(q.lastQ, "<http://purl.org/vocab/aiiso/schema#Course>") {
		t.Errorf("type hint not narrowed to the AIISO class:\n%s", q.lastQ)
	}
	if !strings.Contains(q.lastQ, `"Databases"`) {
		t.Errorf("name not bound as literal:\n%s", q.lastQ)
	}
}

func TestOpenUniversityLink(t *testing.T) {
	q := &fakeQuerier{rows: []sparql.Binding{
		{
			"uri":   sparql.Value{Type: "uri", Value: "http://data.open.ac.uk/course/m269"},
			"label": sparql.Value{Type: "literal", Value: "Algorithms, data structures and computability"},
		},
	}}
	l := &OpenUniversity{cfg: Config{}.withDefaults(openUniversityEndpoint), q: q}

	// An unrecognized hint falls back to an untyped label search.
	uri, err := l.Link(context.Background(), "Algorithms", "snack")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if uri != "http://data.open.ac.uk/course/m269" {
		t.Errorf("uri = %q", uri)
	}
	if strings.Contains(q.lastQ, "aiiso") {
		t.Errorf("unexpected type narrowing for unknown hint:\n%s", q.lastQ)
	}
}

func TestOpenUniversityNoMatch(t *testing.T) {
	q := &fakeQuerier{}
	l := &OpenUniversity{cfg: Config{}.withDefaults(openUniversityEndpoint), q: q}
	if _, err := l.Link(context.Background(), "gibberish", "qualification"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

func TestESCOLink(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.URL.Query().Get("type")
		w.Write([]byte(`{"_embedded":{"results":[{"uri":"http://data.europa.eu/esco/skill/abc"}]}}`))
	}))
	defer srv.Close()

	l := NewESCO(Config{Endpoint: srv.URL})
	uri, err := l.Link(context.Background(), "data analysis", "job")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if uri != "http://data.europa.eu/esco/skill/abc" {
		t.Errorf("uri = %q", uri)
	}
	if gotType != "occupation" {
		t.Errorf("type hint mapped to %q, want occupation", gotType)
	}
}

func TestESCONoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_embedded":{"results":[]}}`))
	}))
	defer srv.Close()

	l := NewESCO(Config{Endpoint: srv.URL})
	if _, err := l.Link(context.Background(), "gibberish", "skill"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

// stubLinker answers from a fixed table, failing unknown names.
type stubLinker struct{ known map[string]string }

func (s stubLinker) Source() string { return "stub" }

func (s stubLinker) Link(_ context.Context, name, _ string) (string, error) {
	uri, ok := s.known[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, name)
	}
	return uri, nil
}

func TestBatchLinkPartialFailure(t *testing.T) {
	l := stubLinker{known: map[string]string{
		"Go":  "http://example.org/go",
		"SQL": "http://example.org/sql",
	}}

	results := BatchLink(context.Background(), l, []string{"Go", "COBOL", "SQL"}, "")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].URI != "http://example.org/go" || results[0].Err != nil {
		t.Errorf("results[0] = %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrNoMatch) {
		t.Errorf("results[1].Err = %v, want ErrNoMatch", results[1].Err)
	}
	if results[2].URI != "http://example.org/sql" {
		t.Errorf("results[2] = %+v", results[2])
	}
}

func TestRegistryLazyCaching(t *testing.T) {
	r := NewRegistry()

	built := 0
	r.Register("stub", func(Config) Linker {
		built++
		return &stubLinker{}
	})

	a, err := r.Get("stub")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := r.Get("stub")
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if built != 1 {
		t.Fatalf("built %d times, want 1", built)
	}
	if a != b {
		t.Fatal("Get returned distinct instances for the same source")
	}

	if _, err := r.Get("freebase"); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("err = %v, want ErrUnknownSource", err)
	}
}
