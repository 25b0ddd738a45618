package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFConnector extracts plain text from a PDF, one record per page.
// Records carry "page" and "text" fields.
type PDFConnector struct {
	cfg Config
}

func NewPDFConnector(cfg Config) *PDFConnector { return &PDFConnector{cfg: cfg} }

func (c *PDFConnector) Connect(_ context.Context) error {
	if c.cfg.SourcePath == "" {
		return fmt.Errorf("%w: source path required", ErrNotConfigured)
	}
	if _, err := os.Stat(c.cfg.SourcePath); err != nil {
		return fmt.Errorf("checking PDF source: %w", err)
	}
	return nil
}

func (c *PDFConnector) Fetch(ctx context.Context) ([]Record, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(c.cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	return c.collectPages(reader.NumPage(), func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
}

// collectPages builds one record per non-empty page. Pages whose
// extraction fails are reported as ItemErrors so a damaged page never
// silently drops out of the batch.
func (c *PDFConnector) collectPages(pages int, extract func(int) (string, error)) ([]Record, error) {
	var records []Record
	var failed []ItemError
	for i := 1; i <= pages; i++ {
		text, err := extract(i)
		if err != nil {
			slog.Warn("acquire: page extraction failed",
				"path", c.cfg.SourcePath, "page", i, "error", err)
			failed = append(failed, ItemError{Item: fmt.Sprintf("page %d", i), Err: err})
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		records = append(records, Record{
			"source": c.cfg.SourcePath,
			"page":   i,
			"text":   text,
		})
	}

	slog.Info("acquire: fetched PDF pages",
		"path", c.cfg.SourcePath, "count", len(records), "failed", len(failed))
	if len(failed) > 0 {
		return records, &PartialError{Items: failed}
	}
	return records, nil
}

func (c *PDFConnector) Close() error { return nil }
