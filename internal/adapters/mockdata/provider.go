// Package mockdata is an offline ports.CampsiteProvider that synthesizes a
// fixed set of sample campsites around any query point.
package mockdata

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
)

const providerName = "mock"

// defaultCenter anchors bare template IDs passed to GetByID.
var defaultCenter = domain.Coordinate{Lat: 35.0, Lon: -105.0}

type template struct {
	id         string
	name       string
	dLat, dLon float64
	category   domain.CampsiteCategory
	amenities  []string
	elevation  int
	rating     float64
	cell       string
	difficulty string
	source     string
}

var templates = []template{
	{
		id: "iov_001", name: "Hidden Valley Dispersed",
		dLat: 0.15, dLon: -0.2, category: domain.CategoryDispersed,
		amenities: []string{"fire_ring", "flat_ground"}, elevation: 5200,
		rating: 4.5, cell: "weak", difficulty: "moderate", source: "iOverlander",
	},
	{
		id: "rec_001", name: "Pine Creek Campground",
		dLat: -0.1, dLon: 0.15, category: domain.CategoryCampground,
		amenities: []string{"restrooms", "water", "picnic_table", "fire_ring"}, elevation: 4800,
		rating: 4.2, cell: "good", difficulty: "easy", source: "recreation_gov",
	},
	{
		id: "free_001", name: "BLM Road 4520 Spot",
		dLat: 0.08, dLon: -0.12, category: domain.CategoryDispersed,
		amenities: []string{"fire_ring"}, elevation: 6100,
		rating: 4.8, cell: "none", difficulty: "moderate", source: "freecampsites",
	},
	{
		id: "rv_001", name: "Mountain View RV Park",
		dLat: -0.05, dLon: 0.08, category: domain.CategoryRVPark,
		amenities: []string{"full_hookup", "wifi", "showers", "laundry"}, elevation: 4500,
		rating: 3.9, cell: "excellent", source: "user",
	},
}

// Provider serves synthetic campsites. It never fails.
type Provider struct{}

// New creates a Provider.
func New() *Provider { return &Provider{} }

func (p *Provider) Name() string { return providerName }

// Search places every template around q.Center. With a path hint the
// templates are anchored at successive points back along the path, so days
// of a long trip get distinct sites. Sites beyond q.RadiusMiles are dropped.
func (p *Provider) Search(ctx context.Context, q ports.CampsiteQuery) ([]domain.Campsite, error) {
	out := make([]domain.Campsite, 0, len(templates))
	for i, t := range templates {
		anchor := q.Center
		if len(q.Hint) >= 2 {
			anchor = pointBack(q.Hint, q.RadiusMiles*0.2*float64(i))
		}
		site := t.build(anchor)
		site.DistanceMiles = geospatial.Distance(q.Center, site.Location)
		if q.RadiusMiles > 0 && site.DistanceMiles > q.RadiusMiles {
			continue
		}
		out = append(out, site)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// GetByID resolves IDs produced by Search ("<template>@<lat>,<lon>") as well
// as bare template IDs, which are placed around a fixed default center.
func (p *Provider) GetByID(ctx context.Context, id string) (*domain.Campsite, error) {
	name, coords, hasCoords := strings.Cut(id, "@")
	t, ok := lookup(name)
	if !ok {
		return nil, domain.ErrNotFound
	}

	if !hasCoords {
		site := t.build(defaultCenter)
		site.DistanceMiles = geospatial.Distance(defaultCenter, site.Location)
		return &site, nil
	}

	latStr, lonStr, ok := strings.Cut(coords, ",")
	if !ok {
		return nil, domain.ErrNotFound
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return nil, domain.ErrNotFound
	}
	loc := domain.Coordinate{Lat: lat, Lon: lon}
	if loc.Validate("id") != nil {
		return nil, domain.ErrNotFound
	}

	site := t.at(loc)
	return &site, nil
}

func lookup(id string) (template, bool) {
	for _, t := range templates {
		if t.id == id {
			return t, true
		}
	}
	return template{}, false
}

// build places the template at its offset from anchor.
func (t template) build(anchor domain.Coordinate) domain.Campsite {
	loc := domain.Coordinate{
		Lat: math.Max(-90, math.Min(90, anchor.Lat+t.dLat)),
		Lon: wrapLon(anchor.Lon + t.dLon),
	}
	return t.at(loc)
}

func (t template) at(loc domain.Coordinate) domain.Campsite {
	// Round so the ID round-trips through GetByID.
	loc.Lat = math.Round(loc.Lat*1e5) / 1e5
	loc.Lon = math.Round(loc.Lon*1e5) / 1e5

	elevation := t.elevation
	rating := t.rating
	amenities := make([]string, len(t.amenities))
	copy(amenities, t.amenities)

	return domain.Campsite{
		ID:                fmt.Sprintf("%s@%.5f,%.5f", t.id, loc.Lat, loc.Lon),
		Name:              t.name,
		Location:          loc,
		Category:          t.category,
		Amenities:         amenities,
		Elevation:         &elevation,
		Rating:            &rating,
		CellService:       t.cell,
		Difficulty:        t.difficulty,
		VehicleAccessible: true,
		Source:            t.source,
	}
}

// pointBack walks miles back from the end of path and returns that point.
func pointBack(path domain.RouteGeometry, miles float64) domain.Coordinate {
	remaining := miles
	for i := len(path) - 1; i > 0; i-- {
		leg := geospatial.Distance(path[i-1], path[i])
		if leg >= remaining {
			if leg == 0 {
				return path[i]
			}
			return geospatial.Interpolate(path[i], path[i-1], remaining/leg)
		}
		remaining -= leg
	}
	return path[0]
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
