// Package geocode implements the reverse-geocoding boundary capability
// against a Nominatim-compatible endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Client resolves coordinates to place names. Calls are bounded by both the
// HTTP client timeout and the caller's context; failures wrap
// ErrGeocodeFailed so the query engine can degrade rather than fail.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient constructs a reverse-geocoding client. Nominatim requires an
// identifying User-Agent, so userAgent must be non-empty for the public
// instance.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// reverseResponse is the subset of the Nominatim reverse payload we read.
// Open-ocean coordinates come back as an error field, not a 404.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode resolves a latitude/longitude to a display name.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", model.ErrGeocodeFailed, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrGeocodeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", model.ErrGeocodeFailed, resp.StatusCode)
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", model.ErrGeocodeFailed, err)
	}
	if payload.Error != "" || payload.DisplayName == "" {
		return "", fmt.Errorf("%w: no place for %.4f,%.4f", model.ErrGeocodeFailed, lat, lon)
	}
	return payload.DisplayName, nil
}
