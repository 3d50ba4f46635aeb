// Package nominatim resolves street addresses to coordinates through a
// Nominatim-compatible search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openapparel/facility-registry/internal/domain"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org/search"
	userAgent      = "facility-registry/1.0"
)

// Provider geocodes addresses through the Nominatim search API.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider with the default Nominatim URL.
func NewProvider(logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultBaseURL, logger)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "nominatim"),
	}
}

// Geocode resolves an address within a country. A result with a nil Point
// means the provider found nothing for the address; an error means the
// lookup itself failed.
func (p *Provider) Geocode(ctx context.Context, address, countryCode string) (*domain.GeocodeResult, error) {
	query := url.Values{}
	query.Set("q", address)
	query.Set("countrycodes", strings.ToLower(countryCode))
	query.Set("format", "jsonv2")
	query.Set("limit", "1")
	reqURL := p.baseURL + "?" + query.Encode()

	p.log.DebugContext(ctx, "geocode request", slog.String("address", address), slog.String("country", countryCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.doWithRetry(ctx, req, address)
	if err != nil {
		p.log.ErrorContext(ctx, "geocode request failed", slog.String("address", address), slog.String("error", err.Error()))
		return nil, fmt.Errorf("nominatim: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nominatim: read body: %w", err)
	}

	var places []apiPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("nominatim: decode json: %w", err)
	}

	result, err := mapAPIResponse(places)
	if err != nil {
		return nil, err
	}

	p.log.DebugContext(ctx, "geocode response",
		slog.String("address", address),
		slog.Int("status", resp.StatusCode),
		slog.Bool("found", result.Point != nil),
	)

	return result, nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (p *Provider) doWithRetry(ctx context.Context, req *http.Request, address string) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	p.log.WarnContext(ctx, "geocode retry", slog.String("address", address), slog.String("reason", reason))

	// Close body from the failed attempt before retrying.
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	time.Sleep(500 * time.Millisecond)

	resp, err = p.httpClient.Do(req)
	return resp, err
}

type apiPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// mapAPIResponse converts the first returned place into a GeocodeResult.
// An empty response maps to a result without a point.
func mapAPIResponse(places []apiPlace) (*domain.GeocodeResult, error) {
	if len(places) == 0 {
		return &domain.GeocodeResult{
			Payload: map[string]any{"result_count": 0},
		}, nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: parse lat %q: %w", place.Lat, err)
	}
	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: parse lon %q: %w", place.Lon, err)
	}

	return &domain.GeocodeResult{
		Point:   &domain.Point{Lat: lat, Lng: lng},
		Address: place.DisplayName,
		Payload: map[string]any{
			"result_count": len(places),
			"display_name": place.DisplayName,
			"type":         place.Type,
			"importance":   place.Importance,
		},
	}, nil
}
