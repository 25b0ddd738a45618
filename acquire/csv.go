package acquire

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
)

// CSVConnector reads delimited files, one record per row keyed by the
// header row.
type CSVConnector struct {
	cfg Config
}

func NewCSVConnector(cfg Config) *CSVConnector { return &CSVConnector{cfg: cfg} }

func (c *CSVConnector) Connect(_ context.Context) error {
	if c.cfg.SourcePath == "" {
		return fmt.Errorf("%w: source path required", ErrNotConfigured)
	}
	if _, err := os.Stat(c.cfg.SourcePath); err != nil {
		return fmt.Errorf("checking CSV source: %w", err)
	}
	return nil
}

func (c *CSVConnector) Fetch(ctx context.Context) ([]Record, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(c.cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if c.cfg.Delimiter != "" {
		reader.Comma = rune(c.cfg.Delimiter[0])
	}
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := Record{}
		for i, field := range row {
			if i >= len(header) {
				break
			}
			rec[header[i]] = field
		}
		records = append(records, rec)
	}

	slog.Info("acquire: fetched CSV records", "path", c.cfg.SourcePath, "count", len(records))
	return records, nil
}

func (c *CSVConnector) Close() error { return nil }
