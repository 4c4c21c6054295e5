package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// Geocoder resolves addresses to coordinates and back. Lookups are
// best-effort; callers must tolerate nil results.
type Geocoder interface {
	Forward(ctx context.Context, address string) (lat, lng *float64, err error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// NominatimClient talks to a Nominatim-compatible endpoint.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// NewNominatimClient builds a client from configuration.
func NewNominatimClient(cfg config.GeocodeConfig, logger *zap.Logger) *NominatimClient {
	return &NominatimClient{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout()},
		logger:    logger,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

// Forward geocodes a free-form address. A miss returns nil coordinates
// without error.
func (c *NominatimClient) Forward(ctx context.Context, address string) (*float64, *float64, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", c.baseURL, url.QueryEscape(address))

	var results []searchResult
	if err := c.get(ctx, endpoint, &results); err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("geocode: bad latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("geocode: bad longitude %q: %w", results[0].Lon, err)
	}
	return &lat, &lng, nil
}

// Reverse resolves coordinates to a display address. On failure it degrades
// to a coordinate placeholder so the caller always gets something renderable.
func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
	)

	var result reverseResult
	if err := c.get(ctx, endpoint, &result); err != nil {
		c.logger.Warn("reverse geocode failed", zap.Error(err))
		return fmt.Sprintf("Lat: %.4f, Lon: %.4f", lat, lng), nil
	}
	if result.DisplayName == "" {
		return fmt.Sprintf("Lat: %.4f, Lon: %.4f", lat, lng), nil
	}
	return result.DisplayName, nil
}

func (c *NominatimClient) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
