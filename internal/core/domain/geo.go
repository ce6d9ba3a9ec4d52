package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a geographic coordinate (WGS 84, degrees).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinate lies within WGS 84 bounds.
func (c Coordinate) Validate(field string) error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: field + ".lat", Message: fmt.Sprintf("latitude must be between -90 and 90, got %v", c.Lat)}
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{Field: field + ".lon", Message: fmt.Sprintf("longitude must be between -180 and 180, got %v", c.Lon)}
	}
	return nil
}

// RouteGeometry is an ordered sequence of coordinates from origin to destination.
type RouteGeometry []Coordinate

// First returns the first point of the geometry.
func (g RouteGeometry) First() (Coordinate, bool) {
	if len(g) == 0 {
		return Coordinate{}, false
	}
	return g[0], true
}

// Last returns the final point of the geometry.
func (g RouteGeometry) Last() (Coordinate, bool) {
	if len(g) == 0 {
		return Coordinate{}, false
	}
	return g[len(g)-1], true
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether c falls inside the box.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}
