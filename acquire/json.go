package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// JSONConnector reads JSON documents from a file or an HTTP API. A
// top-level object counts as a single record; a top-level array becomes
// one record per element.
type JSONConnector struct {
	cfg  Config
	http *http.Client
}

func NewJSONConnector(cfg Config) *JSONConnector {
	if cfg.SourceType == "" {
		cfg.SourceType = "file"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &JSONConnector{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *JSONConnector) Connect(ctx context.Context) error {
	if c.cfg.SourcePath == "" {
		return fmt.Errorf("%w: source path required", ErrNotConfigured)
	}
	switch c.cfg.SourceType {
	case "file":
		if _, err := os.Stat(c.cfg.SourcePath); err != nil {
			return fmt.Errorf("checking JSON source: %w", err)
		}
		return nil
	case "api":
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.SourcePath, nil)
		if err != nil {
			return fmt.Errorf("building probe request: %w", err)
		}
		c.setHeaders(req)
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("probing JSON API: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("probing JSON API: status %d", resp.StatusCode)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown source type %q", ErrNotConfigured, c.cfg.SourceType)
	}
}

func (c *JSONConnector) Fetch(ctx context.Context) ([]Record, error) {
	if c.cfg.SourcePath == "" {
		return nil, fmt.Errorf("%w: source path required", ErrNotConfigured)
	}

	var raw []byte
	switch c.cfg.SourceType {
	case "file":
		data, err := os.ReadFile(c.cfg.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("reading JSON file: %w", err)
		}
		raw = data
	case "api":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SourcePath, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		c.setHeaders(req)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching JSON API: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching JSON API: status %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading JSON response: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown source type %q", ErrNotConfigured, c.cfg.SourceType)
	}

	records, err := normalizeJSON(raw)
	if err != nil {
		return nil, err
	}
	slog.Info("acquire: fetched JSON records",
		"source", c.cfg.SourcePath, "type", c.cfg.SourceType, "count", len(records))
	return records, nil
}

func (c *JSONConnector) Close() error { return nil }

func (c *JSONConnector) setHeaders(req *http.Request) {
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
}

func normalizeJSON(raw []byte) ([]Record, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	switch v := doc.(type) {
	case map[string]any:
		return []Record{v}, nil
	case []any:
		records := make([]Record, 0, len(v))
		for i, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decoding JSON: element %d is not an object", i)
			}
			records = append(records, obj)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("decoding JSON: unexpected top-level %T", doc)
	}
}
