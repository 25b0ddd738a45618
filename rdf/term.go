// Package rdf provides a minimal RDF term and triple model: just enough to
// build INSERT DATA payloads and knowledge fragments for a SPARQL store.
// It is not a general-purpose RDF library; fragments are always serialized
// as N-Triples.
package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Term is an RDF term usable in the object position of a triple.
// Subjects and predicates are always IRIs.
type Term interface {
	// NTriples returns the N-Triples encoding of the term.
	NTriples() string
}

// IRI is an absolute IRI reference.
type IRI string

// NTriples encodes the IRI as <...>.
func (i IRI) NTriples() string { return "<" + string(i) + ">" }

func (i IRI) String() string { return string(i) }

// Valid reports whether the IRI is non-empty and free of characters that
// are illegal inside an IRI reference (whitespace, angle brackets, quotes
// and control characters). Values failing this check must never be spliced
// into query text.
func (i IRI) Valid() bool {
	if i == "" {
		return false
	}
	for _, r := range string(i) {
		if r <= 0x20 || strings.ContainsRune(`<>"{}|^`+"`\\", r) {
			return false
		}
	}
	return true
}

// XSD datatype IRIs used by typed literals.
const (
	XSDString   IRI = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger  IRI = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal  IRI = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDBoolean  IRI = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDAnyURI   IRI = "http://www.w3.org/2001/XMLSchema#anyURI"
	XSDDateTime IRI = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// Literal is a typed RDF literal.
type Literal struct {
	Value    string
	Datatype IRI
}

// NTriples encodes the literal with its datatype annotation. Plain strings
// are emitted without the (redundant) xsd:string suffix.
func (l Literal) NTriples() string {
	quoted := `"` + escapeLiteral(l.Value) + `"`
	if l.Datatype == "" || l.Datatype == XSDString {
		return quoted
	}
	return quoted + "^^" + l.Datatype.NTriples()
}

func (l Literal) String() string { return l.Value }

// String builds an xsd:string literal.
func String(v string) Literal { return Literal{Value: v, Datatype: XSDString} }

// Int builds an xsd:integer literal.
func Int(v int) Literal { return Literal{Value: strconv.Itoa(v), Datatype: XSDInteger} }

// Float builds an xsd:decimal literal.
func Float(v float64) Literal {
	return Literal{Value: strconv.FormatFloat(v, 'f', -1, 64), Datatype: XSDDecimal}
}

// Bool builds an xsd:boolean literal.
func Bool(v bool) Literal { return Literal{Value: strconv.FormatBool(v), Datatype: XSDBoolean} }

// AnyURI builds an xsd:anyURI literal.
func AnyURI(v string) Literal { return Literal{Value: v, Datatype: XSDAnyURI} }

// Time builds an xsd:dateTime literal in RFC 3339 form.
func Time(t time.Time) Literal {
	return Literal{Value: t.Format(time.RFC3339), Datatype: XSDDateTime}
}

// FromValue converts a Go scalar into a typed literal. Unsupported types
// report an error so callers can surface per-record diagnostics instead of
// silently stringifying.
func FromValue(v any) (Literal, error) {
	switch x := v.(type) {
	case string:
		return String(x), nil
	case int:
		return Int(x), nil
	case int64:
		return Literal{Value: strconv.FormatInt(x, 10), Datatype: XSDInteger}, nil
	case float64:
		return Float(x), nil
	case bool:
		return Bool(x), nil
	case time.Time:
		return Time(x), nil
	default:
		return Literal{}, fmt.Errorf("rdf: unsupported literal type %T", v)
	}
}

// escapeLiteral escapes the characters N-Triples requires escaping inside
// a quoted literal.
func escapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
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
	return b.String()
}
