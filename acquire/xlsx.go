package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// XLSXConnector reads spreadsheet rows keyed by the header row of one
// worksheet.
type XLSXConnector struct {
	cfg Config
}

func NewXLSXConnector(cfg Config) *XLSXConnector { return &XLSXConnector{cfg: cfg} }

func (c *XLSXConnector) Connect(_ context.Context) error {
	if c.cfg.SourcePath == "" {
		return fmt.Errorf("%w: source path required", ErrNotConfigured)
	}
	if _, err := os.Stat(c.cfg.SourcePath); err != nil {
		return fmt.Errorf("checking XLSX source: %w", err)
	}
	return nil
}

func (c *XLSXConnector) Fetch(ctx context.Context) ([]Record, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(c.cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	sheet := c.cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets in XLSX %s", c.cfg.SourcePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := Record{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			rec[header[i]] = cell
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}

	slog.Info("acquire: fetched XLSX records",
		"path", c.cfg.SourcePath, "sheet", sheet, "count", len(records))
	return records, nil
}

func (c *XLSXConnector) Close() error { return nil }
