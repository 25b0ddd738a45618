// Package sparql implements the graph query port: a SPARQL 1.1 Protocol
// client over HTTP with parameterized query construction and the standard
// application/sparql-results+json bindings format.
package sparql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrUnavailable is returned when the store cannot be reached or
	// answers with a server-side failure.
	ErrUnavailable = errors.New("sparql: store unavailable")

	// ErrQueryRejected is returned when the store rejects a query or
	// update as malformed.
	ErrQueryRejected = errors.New("sparql: query rejected by store")

	// ErrBadBinding is returned when a template argument fails validation.
	ErrBadBinding = errors.New("sparql: invalid query binding")
)

// Config configures a store endpoint.
type Config struct {
	// QueryEndpoint receives SELECT/ASK queries.
	QueryEndpoint string `json:"query_endpoint" yaml:"query_endpoint"`

	// UpdateEndpoint receives updates. Defaults to QueryEndpoint +
	// "/statements" (the GraphDB convention) when empty.
	UpdateEndpoint string `json:"update_endpoint" yaml:"update_endpoint"`

	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// Timeout bounds a single round trip.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of additional attempts after a transport
	// failure or 5xx answer. Retrying is the adapter's job; reasoning
	// code never retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Querier executes read queries against the store.
type Querier interface {
	Select(ctx context.Context, q Query) ([]Binding, error)
	Ask(ctx context.Context, q Query) (bool, error)
}

// Updater executes writes against the store. Each call is atomic on its
// own; there is no multi-statement transaction guarantee.
type Updater interface {
	Update(ctx context.Context, q Query) error
}

// Client speaks the SPARQL 1.1 Protocol against a configurable endpoint.
// It implements Querier and Updater.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a store client. Zero config values get defaults:
// 30s timeout, update endpoint derived from the query endpoint.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UpdateEndpoint == "" && cfg.QueryEndpoint != "" {
		cfg.UpdateEndpoint = cfg.QueryEndpoint + "/statements"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Value is a single RDF term in a result binding, in the SPARQL JSON
// results encoding.
type Value struct {
	Type     string `json:"type"` // "uri", "literal" or "bnode"
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Int parses the value as an integer, returning 0 for empty values.
func (v Value) Int() (int, error) {
	if v.Value == "" {
		return 0, nil
	}
	return strconv.Atoi(v.Value)
}

// Binding maps query variable names to values for one result row.
type Binding map[string]Value

type resultsEnvelope struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Select executes a SELECT query and returns its bindings. An empty result
// is not an error.
func (c *Client) Select(ctx context.Context, q Query) ([]Binding, error) {
	env, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return env.Results.Bindings, nil
}

// Ask executes an ASK query.
func (c *Client) Ask(ctx context.Context, q Query) (bool, error) {
	env, err := c.query(ctx, q)
	if err != nil {
		return false, err
	}
	if env.Boolean == nil {
		return false, fmt.Errorf("%w: ASK response missing boolean", ErrQueryRejected)
	}
	return *env.Boolean, nil
}

// Update executes a SPARQL update (INSERT DATA, DELETE DATA, CLEAR, ...).
func (c *Client) Update(ctx context.Context, q Query) error {
	_, err := c.do(ctx, c.cfg.UpdateEndpoint, "application/sparql-update", q.Text())
	return err
}

// Ping checks connectivity with a trivial ASK.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Ask(ctx, Query{text: "ASK { ?s ?p ?o }"})
	return err
}

func (c *Client) query(ctx context.Context, q Query) (*resultsEnvelope, error) {
	body, err := c.do(ctx, c.cfg.QueryEndpoint, "application/sparql-query", q.Text())
	if err != nil {
		return nil, err
	}
	var env resultsEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding results: %v", ErrUnavailable, err)
	}
	return &env, nil
}

// do runs one protocol round trip with the configured retry budget.
// 4xx answers are not retried: the store considered the request malformed.
func (c *Client) do(ctx context.Context, endpoint, contentType, payload string) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
			slog.Debug("sparql: retrying request", "endpoint", endpoint, "attempt", attempt)
		}

		body, retryable, err := c.once(ctx, endpoint, contentType, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, endpoint, contentType, payload string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(payload)))
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrQueryRejected, resp.StatusCode, truncate(data, 300))
	default:
		return nil, true, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(data, 300))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
