package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const escoAPI = "https://ec.europa.eu/esco/api"

// ESCO links skills, occupations and qualifications against the European
// Skills, Competences, Qualifications and Occupations taxonomy.
type ESCO struct {
	cfg  Config
	http *http.Client
}

func NewESCO(cfg Config) *ESCO {
	cfg = cfg.withDefaults(escoAPI)
	return &ESCO{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *ESCO) Source() string { return "esco" }

// escoType maps generic type hints onto the taxonomy's own types.
func escoType(typeHint string) string {
	switch strings.ToLower(typeHint) {
	case "skill", "competence":
		return "skill"
	case "occupation", "job":
		return "occupation"
	case "qualification":
		return "qualification"
	default:
		return ""
	}
}

type escoSearchResult struct {
	Embedded struct {
		Results []struct {
			URI string `json:"uri"`
		} `json:"results"`
	} `json:"_embedded"`
}

// Link searches the taxonomy and returns the top match URI.
func (e *ESCO) Link(ctx context.Context, name, typeHint string) (string, error) {
	params := url.Values{
		"text":     {name},
		"language": {e.cfg.Language},
		"limit":    {strconv.Itoa(e.cfg.MaxResults)},
	}
	if t := escoType(typeHint); t != "" {
		params.Set("type", t)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.cfg.Endpoint+"/search?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building esco request: %w", err)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying esco: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("querying esco: status %d", resp.StatusCode)
	}

	var result escoSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding esco response: %w", err)
	}
	for _, candidate := range result.Embedded.Results {
		if candidate.URI != "" {
			slog.Debug("linker: esco match", "name", name, "uri", candidate.URI)
			return candidate.URI, nil
		}
	}
	return "", fmt.Errorf("%w: %q in esco", ErrNoMatch, name)
}
