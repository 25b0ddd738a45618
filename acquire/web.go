package acquire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const defaultUserAgent = "GKF-Crawler/1.0"

// maxPageText bounds how much body text a page record keeps.
const maxPageText = 500

// WebConnector fetches pages and extracts title and body text. A custom
// Extract function can replace the default extraction.
type WebConnector struct {
	cfg  Config
	http *http.Client

	// Extract turns a parsed page into records. When nil, the default
	// title/text extraction is used.
	Extract func(doc *html.Node, url string) []Record
}

func NewWebConnector(cfg Config) *WebConnector {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &WebConnector{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *WebConnector) Connect(_ context.Context) error {
	if len(c.cfg.URLs) == 0 {
		return fmt.Errorf("%w: no URLs", ErrNotConfigured)
	}
	return nil
}

// Fetch scrapes every configured URL. A failing page does not abort the
// batch: successful records are returned together with a *PartialError
// naming the failures.
func (c *WebConnector) Fetch(ctx context.Context) ([]Record, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	var records []Record
	var failed []ItemError
	for _, url := range c.cfg.URLs {
		pageRecords, err := c.fetchPage(ctx, url)
		if err != nil {
			slog.Warn("acquire: page fetch failed", "url", url, "error", err)
			failed = append(failed, ItemError{Item: url, Err: err})
			continue
		}
		records = append(records, pageRecords...)
	}

	slog.Info("acquire: fetched web records",
		"urls", len(c.cfg.URLs), "records", len(records), "failed", len(failed))
	if len(failed) > 0 {
		return records, &PartialError{Items: failed}
	}
	return records, nil
}

func (c *WebConnector) Close() error { return nil }

func (c *WebConnector) fetchPage(ctx context.Context, url string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page: status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	if c.Extract != nil {
		return c.Extract(doc, url), nil
	}
	return []Record{defaultExtract(doc, url)}, nil
}

func defaultExtract(doc *html.Node, url string) Record {
	title := findTitle(doc)
	if title == "" {
		title = "No title"
	}
	text := collectText(doc)
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return Record{"url": url, "title": title, "text": text}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if title := findTitle(child); title != "" {
			return title
		}
	}
	return ""
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		if node.Type == html.TextNode {
			trimmed := strings.TrimSpace(node.Data)
			if trimmed != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(trimmed)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
