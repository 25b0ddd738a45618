package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const (
	wikidataAPI      = "https://www.wikidata.org/w/api.php"
	wikidataEntityNS = "http://www.wikidata.org/entity/"
)

// Wikidata links entities through the wbsearchentities API.
type Wikidata struct {
	cfg  Config
	http *http.Client
}

func NewWikidata(cfg Config) *Wikidata {
	cfg = cfg.withDefaults(wikidataAPI)
	return &Wikidata{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (w *Wikidata) Source() string { return "wikidata" }

type wikidataSearchResult struct {
	Search []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"search"`
}

// Link searches Wikidata for the name and returns the entity URI of the
// best match. When a type hint is given, the first candidate whose
// description mentions it wins; otherwise the top-ranked candidate does.
func (w *Wikidata) Link(ctx context.Context, name, typeHint string) (string, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"format":   {"json"},
		"language": {w.cfg.Language},
		"search":   {name},
		"limit":    {strconv.Itoa(w.cfg.MaxResults)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		w.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building wikidata request: %w", err)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying wikidata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("querying wikidata: status %d", resp.StatusCode)
	}

	var result wikidataSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding wikidata response: %w", err)
	}
	if len(result.Search) == 0 {
		return "", fmt.Errorf("%w: %q in wikidata", ErrNoMatch, name)
	}

	best := result.Search[0]
	if typeHint != "" {
		for _, candidate := range result.Search {
			if matchesHint(candidate.Description, typeHint) {
				best = candidate
				break
			}
		}
	}

	uri := wikidataEntityNS + best.ID
	slog.Debug("linker: wikidata match", "name", name, "uri", uri)
	return uri, nil
}
