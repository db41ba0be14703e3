package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
	"github.com/angelmondragon/bloomcart-backend/pkg/geo"
)

const (
	defaultBaseURL              = "https://places.googleapis.com/v1"
	searchTextFieldMask         = "places.id,places.formattedAddress,places.location"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client geocodes store addresses through the Google Places text search API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	regionCode   string
	languageCode string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Places base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRegion biases results towards a country and response language.
func WithRegion(regionCode, languageCode string) Option {
	return func(c *Client) {
		c.regionCode = strings.TrimSpace(regionCode)
		c.languageCode = strings.TrimSpace(languageCode)
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GeocodeRequest is a free-form store address plus the administrative hints we hold for it.
type GeocodeRequest struct {
	Address  string
	Ward     string
	District string
}

func (r GeocodeRequest) query() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Address, r.Ward, r.District} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(parts) > 0 && strings.Contains(strings.ToLower(parts[0]), strings.ToLower(p)) {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

// GeocodeResult is the best match returned by Places.
type GeocodeResult struct {
	PlaceID          string
	FormattedAddress string
	Location         geo.Point
}

// Geocode resolves an address to coordinates. No match is a CodeNotFound error.
func (c *Client) Geocode(ctx context.Context, req GeocodeRequest) (*GeocodeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	query := req.query()
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	body := struct {
		TextQuery    string `json:"textQuery"`
		RegionCode   string `json:"regionCode,omitempty"`
		LanguageCode string `json:"languageCode,omitempty"`
		PageSize     int    `json:"pageSize"`
	}{TextQuery: query, RegionCode: c.regionCode, LanguageCode: c.languageCode, PageSize: 1}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal geocode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("places:searchText"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchTextFieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	var apiResp struct {
		Places []struct {
			ID               string `json:"id"`
			FormattedAddress string `json:"formattedAddress"`
			Location         *struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"location"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}

	for _, place := range apiResp.Places {
		if place.Location == nil {
			continue
		}
		point := geo.Point{Lat: place.Location.Latitude, Lng: place.Location.Longitude}
		if !point.Valid() {
			continue
		}
		return &GeocodeResult{
			PlaceID:          place.ID,
			FormattedAddress: place.FormattedAddress,
			Location:         point,
		}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no geocoding match").WithDetails(map[string]any{"query": query})
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
}
