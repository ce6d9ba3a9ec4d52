// Package ridb implements ports.CampsiteProvider over the Recreation
// Information Database (recreation.gov) facility API.
package ridb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
	"github.com/samirrijal/overland/internal/pkg/httpx"
	"github.com/samirrijal/overland/internal/pkg/metrics"
	"github.com/samirrijal/overland/internal/pkg/telemetry"
)

const (
	providerName = "ridb"
	idPrefix     = "ridb-"
	sourceName   = "recreation_gov"

	// campingActivityID is the RIDB activity code for camping.
	campingActivityID = "9"
	defaultLimit      = 50
)

// Client searches RIDB facilities.
type Client struct {
	baseURL string
	http    *httpx.Client
}

// New creates a RIDB client authenticated with apiKey.
func New(baseURL, apiKey string, timeout time.Duration, opts ...httpx.Option) *Client {
	opts = append([]httpx.Option{
		httpx.WithHeader("apikey", apiKey),
		httpx.WithRetry(2, 250*time.Millisecond),
	}, opts...)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpx.New(timeout, opts...),
	}
}

func (c *Client) Name() string { return providerName }

type facilitiesResponse struct {
	RecData []facility `json:"RECDATA"`
}

type facility struct {
	FacilityID              string   `json:"FacilityID"`
	FacilityName            string   `json:"FacilityName"`
	FacilityDescription     string   `json:"FacilityDescription"`
	FacilityTypeDescription string   `json:"FacilityTypeDescription"`
	FacilityLatitude        float64  `json:"FacilityLatitude"`
	FacilityLongitude       float64  `json:"FacilityLongitude"`
	FacilityPhone           string   `json:"FacilityPhone"`
	FacilityReservationURL  string   `json:"FacilityReservationURL"`
	Reservable              bool     `json:"Reservable"`
	Activity                []struct {
		ActivityName string `json:"ActivityName"`
	} `json:"ACTIVITY"`
}

// Search implements ports.CampsiteProvider.
func (c *Client) Search(ctx context.Context, q ports.CampsiteQuery) ([]domain.Campsite, error) {
	ctx, span := telemetry.StartSpan(ctx, "ridb.Search", attribute.String(telemetry.AttrProvider, providerName))
	defer span.End()

	limit := q.Limit
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Center.Lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(q.Center.Lon, 'f', 6, 64))
	params.Set("radius", strconv.FormatFloat(q.RadiusMiles, 'f', 1, 64))
	params.Set("activity", campingActivityID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("full", "true")

	began := time.Now()
	var resp facilitiesResponse
	err := c.http.GetJSON(ctx, c.baseURL+"/facilities?"+params.Encode(), &resp)
	metrics.ObserveProvider(providerName, began, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ridb search: %w", err)
	}

	out := make([]domain.Campsite, 0, len(resp.RecData))
	for _, f := range resp.RecData {
		site, ok := normalize(f)
		if !ok {
			continue
		}
		site.DistanceMiles = geospatial.Distance(q.Center, site.Location)
		if site.DistanceMiles > q.RadiusMiles {
			continue
		}
		out = append(out, site)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrCandidates, len(out)))
	return out, nil
}

// GetByID implements ports.CampsiteProvider. IDs from other sources are not found.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Campsite, error) {
	raw, ok := strings.CutPrefix(id, idPrefix)
	if !ok || raw == "" {
		return nil, domain.ErrNotFound
	}

	began := time.Now()
	var f facility
	err := c.http.GetJSON(ctx, c.baseURL+"/facilities/"+url.PathEscape(raw)+"?full=true", &f)
	metrics.ObserveProvider(providerName, began, err)
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ridb facility %s: %w", raw, err)
	}

	site, ok := normalize(f)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &site, nil
}

// normalize maps a facility onto a Campsite. Facilities without a usable
// location are skipped.
func normalize(f facility) (domain.Campsite, bool) {
	if f.FacilityID == "" || (f.FacilityLatitude == 0 && f.FacilityLongitude == 0) {
		return domain.Campsite{}, false
	}
	loc := domain.Coordinate{Lat: f.FacilityLatitude, Lon: f.FacilityLongitude}
	if loc.Validate("location") != nil {
		return domain.Campsite{}, false
	}

	amenities := make([]string, 0, len(f.Activity))
	for _, a := range f.Activity {
		if name := slug(a.ActivityName); name != "" {
			amenities = append(amenities, name)
		}
	}

	return domain.Campsite{
		ID:                idPrefix + f.FacilityID,
		Name:              strings.TrimSpace(f.FacilityName),
		Location:          loc,
		Category:          category(f),
		Amenities:         amenities,
		VehicleAccessible: true,
		Source:            sourceName,
		Description:       stripHTML(f.FacilityDescription),
		ReservationURL:    f.FacilityReservationURL,
		Phone:             f.FacilityPhone,
	}, true
}

func category(f facility) domain.CampsiteCategory {
	text := strings.ToLower(f.FacilityName + " " + f.FacilityTypeDescription)
	switch {
	case strings.Contains(text, "rv park") || strings.Contains(text, "rv resort"):
		return domain.CategoryRVPark
	case strings.Contains(text, "dispersed") || strings.Contains(text, "primitive"):
		return domain.CategoryDispersed
	default:
		return domain.CategoryCampground
	}
}

var (
	tagRE   = regexp.MustCompile(`<[^>]*>`)
	spaceRE = regexp.MustCompile(`\s+`)
)

func stripHTML(s string) string {
	s = tagRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}
