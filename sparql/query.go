package sparql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gkf-org/skillgraph/rdf"
)

// Query is an executable SPARQL query or update. Instances are built only
// through Bind, which keeps templates separate from bound values: caller
// input never reaches query text without validation and escaping.
type Query struct {
	text string
}

// Text returns the final query text.
func (q Query) Text() string { return q.text }

// Arg is a value bound into a query template placeholder.
type Arg interface {
	encode() (string, error)
}

type iriArg string

func (a iriArg) encode() (string, error) {
	iri := rdf.IRI(a)
	if !iri.Valid() {
		return "", fmt.Errorf("%w: invalid IRI %q", ErrBadBinding, string(a))
	}
	return iri.NTriples(), nil
}

// IRI binds an IRI term. The value is validated before it is spliced.
func IRI(v string) Arg { return iriArg(v) }

type iriListArg []string

func (a iriListArg) encode() (string, error) {
	if len(a) == 0 {
		return "", fmt.Errorf("%w: empty IRI list", ErrBadBinding)
	}
	parts := make([]string, len(a))
	for i, v := range a {
		iri := rdf.IRI(v)
		if !iri.Valid() {
			return "", fmt.Errorf("%w: invalid IRI %q", ErrBadBinding, v)
		}
		parts[i] = iri.NTriples()
	}
	return strings.Join(parts, " "), nil
}

// IRIList binds a whitespace-joined sequence of IRIs, for VALUES blocks.
func IRIList(vs []string) Arg { return iriListArg(vs) }

type strArg string

func (a strArg) encode() (string, error) {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range string(a) {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String(), nil
}

// Str binds a string literal, escaped for safe embedding.
func Str(v string) Arg { return strArg(v) }

type intArg int

func (a intArg) encode() (string, error) { return strconv.Itoa(int(a)), nil }

// Int binds an integer value.
func Int(v int) Arg { return intArg(v) }

type rawGraphArg struct{ g *rdf.Graph }

func (a rawGraphArg) encode() (string, error) {
	if err := a.g.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadBinding, err)
	}
	return a.g.NTriples(), nil
}

// Triples binds a validated graph fragment as N-Triples statements, for
// INSERT DATA / DELETE DATA blocks.
func Triples(g *rdf.Graph) Arg { return rawGraphArg{g: g} }

// localNameRe matches safe local names for ontology properties built from
// caller-supplied keys (e.g. interaction metadata fields).
var localNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidLocalName reports whether s may be used as the local part of an
// ontology IRI.
func ValidLocalName(s string) bool { return localNameRe.MatchString(s) }

// Bind fills the %s placeholders of template with encoded arguments.
// The placeholder count must match the argument count exactly.
func Bind(template string, args ...Arg) (Query, error) {
	if n := strings.Count(template, "%s"); n != len(args) {
		return Query{}, fmt.Errorf("%w: template has %d placeholders, got %d arguments",
			ErrBadBinding, n, len(args))
	}
	encoded := make([]any, len(args))
	for i, a := range args {
		s, err := a.encode()
		if err != nil {
			return Query{}, fmt.Errorf("binding argument %d: %w", i, err)
		}
		encoded[i] = s
	}
	return Query{text: fmt.Sprintf(template, encoded...)}, nil
}

// MustBind is Bind for templates with compile-time-known arguments; it
// panics on a binding error and is reserved for static query construction
// in tests.
func MustBind(template string, args ...Arg) Query {
	q, err := Bind(template, args...)
	if err != nil {
		panic(err)
	}
	return q
}
