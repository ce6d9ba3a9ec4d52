// Package nominatim implements ports.GeocodeProvider over OpenStreetMap Nominatim.
package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/pkg/httpx"
	"github.com/samirrijal/overland/internal/pkg/metrics"
)

const providerName = "nominatim"

// Geocoder resolves free text through Nominatim's /search endpoint.
// The public server allows one request per second; calls wait their turn.
type Geocoder struct {
	baseURL string
	http    *httpx.Client
	limiter *rate.Limiter
}

// New creates a Geocoder identifying itself with userAgent.
func New(baseURL, userAgent string, timeout time.Duration, opts ...httpx.Option) *Geocoder {
	opts = append([]httpx.Option{httpx.WithHeader("User-Agent", userAgent)}, opts...)
	return &Geocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpx.New(timeout, opts...),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type result struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve implements ports.GeocodeProvider.
func (g *Geocoder) Resolve(ctx context.Context, text string, limit int) ([]domain.Place, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	began := time.Now()
	var results []result
	err := g.http.GetJSON(ctx, g.baseURL+"/search?"+params.Encode(), &results)
	metrics.ObserveProvider(providerName, began, err)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: invalid latitude %q", r.Lat)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: invalid longitude %q", r.Lon)
		}
		places = append(places, domain.Place{
			Name:     r.DisplayName,
			Location: domain.Coordinate{Lat: lat, Lon: lon},
		})
	}
	return places, nil
}
