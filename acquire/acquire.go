// Package acquire fetches raw records from external sources: CSV, JSON
// (file or API), XLSX, PDF and web pages. Records are untyped maps; the
// mapping package turns them into graph fragments.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownSource is returned for a source kind no connector handles.
	ErrUnknownSource = errors.New("acquire: unknown source kind")

	// ErrNotConfigured is returned when a connector is asked to fetch
	// without the config fields it needs.
	ErrNotConfigured = errors.New("acquire: connector not configured")
)

// Record is one raw row or document fetched from a source.
type Record map[string]any

// Config carries the per-source settings. Each connector reads the
// fields it understands and ignores the rest.
type Config struct {
	// SourcePath is a file path, or the endpoint URL for API sources.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// SourceType distinguishes "file" from "api" for the JSON connector.
	SourceType string `json:"source_type,omitempty" yaml:"source_type,omitempty"`

	// URLs lists the pages for the web connector.
	URLs []string `json:"urls,omitempty" yaml:"urls,omitempty"`

	// Delimiter for CSV sources. Defaults to ','.
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`

	// Sheet selects an XLSX worksheet. Defaults to the first sheet.
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"`

	// Headers are sent with every HTTP request.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Timeout bounds a single HTTP round trip. Defaults to 30s.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Connector fetches raw data from one source.
type Connector interface {
	// Connect verifies the source is reachable.
	Connect(ctx context.Context) error

	// Fetch reads all records from the source. Multi-item sources may
	// return partial results together with a *PartialError.
	Fetch(ctx context.Context) ([]Record, error)

	// Close releases any held resources.
	Close() error
}

// ItemError records the failure of one item in a batch.
type ItemError struct {
	Item string
	Err  error
}

func (e ItemError) Error() string { return fmt.Sprintf("%s: %v", e.Item, e.Err) }

func (e ItemError) Unwrap() error { return e.Err }

// PartialError reports that some items of a batch failed while others
// succeeded. Callers receive the successful records alongside it.
type PartialError struct {
	Items []ItemError
}

func (e *PartialError) Error() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = it.Error()
	}
	return fmt.Sprintf("acquire: %d item(s) failed: %s", len(e.Items), strings.Join(parts, "; "))
}
