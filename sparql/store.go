package sparql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gkf-org/skillgraph/rdf"
)

// GraphWriter is the write side of the port at triple granularity: appends
// and deletions scoped to a single partition.
type GraphWriter interface {
	InsertData(ctx context.Context, graph rdf.IRI, g *rdf.Graph) error
	DeleteData(ctx context.Context, graph rdf.IRI, t rdf.Triple) error
	ClearGraph(ctx context.Context, graph rdf.IRI) error
}

// InsertData appends a fragment to a named graph. INSERT DATA has set
// semantics in the store, so re-inserting identical triples is a no-op.
func (c *Client) InsertData(ctx context.Context, graph rdf.IRI, g *rdf.Graph) error {
	if g.Len() == 0 {
		return nil
	}
	q, err := Bind("INSERT DATA { GRAPH %s {\n%s} }", IRI(string(graph)), Triples(g))
	if err != nil {
		return err
	}
	return c.Update(ctx, q)
}

// DeleteData removes a single triple from a named graph.
func (c *Client) DeleteData(ctx context.Context, graph rdf.IRI, t rdf.Triple) error {
	g := rdf.NewGraph()
	g.Add(t)
	q, err := Bind("DELETE DATA { GRAPH %s {\n%s} }", IRI(string(graph)), Triples(g))
	if err != nil {
		return err
	}
	return c.Update(ctx, q)
}

// ClearGraph removes every triple in a named graph.
func (c *Client) ClearGraph(ctx context.Context, graph rdf.IRI) error {
	q, err := Bind("CLEAR GRAPH %s", IRI(string(graph)))
	if err != nil {
		return err
	}
	return c.Update(ctx, q)
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(data, v)
}
