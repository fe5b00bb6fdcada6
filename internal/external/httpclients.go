package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bitcast-network/bitcast-sub001/infrastructure/httputil"
	"github.com/bitcast-network/bitcast-sub001/internal/domain/brief"
)

const defaultMaxBodyBytes = 1 << 20

// HTTPBriefCatalog fetches briefs from a JSON HTTP endpoint. It is a thin
// adapter over the brief-catalog contract; the catalog service itself is
// out of scope (SPEC_FULL.md §1).
type HTTPBriefCatalog struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBriefCatalog builds a catalog client against baseURL + "/briefs".
func NewHTTPBriefCatalog(baseURL string, timeout time.Duration) (*HTTPBriefCatalog, error) {
	normalized, _, err := httputil.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("brief catalog: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPBriefCatalog{baseURL: normalized, client: &http.Client{Timeout: timeout}}, nil
}

type wireBrief struct {
	ID        string   `json:"id"`
	Weight    float64  `json:"weight"`
	Format    string   `json:"format"`
	Boost     float64  `json:"boost"`
	Cap       float64  `json:"cap"`
	StartDate string   `json:"start_date"`
	SubsMin   *int64   `json:"subs_min,omitempty"`
	SubsMax   *int64   `json:"subs_max,omitempty"`
}

// GetBriefs fetches and decodes the current campaign list.
func (c *HTTPBriefCatalog) GetBriefs(ctx context.Context) ([]brief.Brief, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/briefs", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brief catalog returned status %d", resp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(resp.Body, defaultMaxBodyBytes)
	if err != nil {
		return nil, err
	}

	var wire []wireBrief
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode briefs: %w", err)
	}

	briefs := make([]brief.Brief, 0, len(wire))
	for _, w := range wire {
		b := brief.Brief{
			ID:     w.ID,
			Weight: w.Weight,
			Format: brief.Format(w.Format),
			Boost:  w.Boost,
			Cap:    w.Cap,
		}
		if start, err := time.Parse("2006-01-02", w.StartDate); err == nil {
			b.StartDate = start
		}
		if w.SubsMin != nil || w.SubsMax != nil {
			b.SubsRange = &brief.SubsRange{Min: w.SubsMin, Max: w.SubsMax}
		}
		briefs = append(briefs, b)
	}
	return briefs, nil
}

// HTTPScalarOracle fetches a single named float field from a JSON HTTP
// endpoint; it backs both PriceOracle and EmissionOracle.
type HTTPScalarOracle struct {
	baseURL string
	field   string
	client  *http.Client
}

// NewHTTPScalarOracle builds a scalar oracle against baseURL, reading
// field from the JSON response body.
func NewHTTPScalarOracle(baseURL, field string, timeout time.Duration) (*HTTPScalarOracle, error) {
	normalized, _, err := httputil.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("scalar oracle: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPScalarOracle{baseURL: normalized, field: field, client: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPScalarOracle) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("scalar oracle returned status %d", resp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(resp.Body, defaultMaxBodyBytes)
	if err != nil {
		return 0, err
	}

	var payload map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode scalar response: %w", err)
	}
	value, ok := payload[c.field]
	if !ok {
		return 0, fmt.Errorf("field %q missing from scalar response", c.field)
	}
	return value, nil
}

// GetAlphaPriceUSD implements PriceOracle.
func (c *HTTPScalarOracle) GetAlphaPriceUSD(ctx context.Context) (float64, error) {
	return c.fetch(ctx)
}

// GetTotalDailyAlpha implements EmissionOracle.
func (c *HTTPScalarOracle) GetTotalDailyAlpha(ctx context.Context) (float64, error) {
	return c.fetch(ctx)
}
