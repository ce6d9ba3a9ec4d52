package domain

import (
	"time"
)

// CampsiteCategory classifies an overnight stop.
type CampsiteCategory string

const (
	CategoryDispersed  CampsiteCategory = "dispersed"
	CategoryCampground CampsiteCategory = "campground"
	CategoryRVPark     CampsiteCategory = "rv_park"
)

// Valid reports whether the category is one of the known kinds.
func (c CampsiteCategory) Valid() bool {
	switch c {
	case CategoryDispersed, CategoryCampground, CategoryRVPark:
		return true
	}
	return false
}

// DirectionStep is one turn-by-turn instruction.
type DirectionStep struct {
	Instruction      string  `json:"instruction"`
	DistanceMiles    float64 `json:"distance_miles"`
	DurationHours    float64 `json:"duration_hours"`
	ManeuverKind     string  `json:"maneuver_type"`
	ManeuverModifier string  `json:"maneuver_modifier,omitempty"`
	RoadRef          string  `json:"road,omitempty"`
}

// Routing sources reported on a RouteSummary.
const (
	RouteSourceOSRM     = "osrm"
	RouteSourceFallback = "fallback"
)

// RouteSummary is the immutable result of one routing query.
// Distances are miles and durations hours.
type RouteSummary struct {
	TotalDistanceMiles float64         `json:"total_distance_miles"`
	TotalDurationHours float64         `json:"total_duration_hours"`
	Geometry           RouteGeometry   `json:"geometry"`
	Directions         []DirectionStep `json:"directions"`
	Source             string          `json:"source"`
}

// Campsite is a candidate overnight stop. Two campsites with the same ID are
// the same physical site.
type Campsite struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Location          Coordinate       `json:"location"`
	Category          CampsiteCategory `json:"type"`
	Amenities         []string         `json:"amenities"`
	DistanceMiles     float64          `json:"distance_from_route"`
	Elevation         *int             `json:"elevation,omitempty"`
	Rating            *float64         `json:"rating,omitempty"`
	CellService       string           `json:"cell_service,omitempty"`
	Difficulty        string           `json:"difficulty,omitempty"`
	VehicleAccessible bool             `json:"vehicle_accessible"`
	Source            string           `json:"source"`
	Description       string           `json:"description,omitempty"`
	ReservationURL    string           `json:"reservation_url,omitempty"`
	Phone             string           `json:"phone,omitempty"`
}

// RatingOrZero returns the rating, treating a missing one as 0.
func (c *Campsite) RatingOrZero() float64 {
	if c.Rating == nil {
		return 0
	}
	return *c.Rating
}

// DaySegment is one day of driving.
type DaySegment struct {
	Day               int           `json:"day"`
	Start             Coordinate    `json:"start_point"`
	End               Coordinate    `json:"end_point"`
	StartIndex        int           `json:"start_index"`
	EndIndex          int           `json:"end_index"`
	DistanceMiles     float64       `json:"distance_miles"`
	DriveHours        float64       `json:"drive_time_hours"`
	Geometry          RouteGeometry `json:"geometry"`
	SuggestedCampsite *Campsite     `json:"suggested_campsite"`
}

// TripPlan is the full itinerary returned for one planning request.
type TripPlan struct {
	ID                 string          `json:"id"`
	TotalDistanceMiles float64         `json:"total_distance_miles"`
	TotalDriveHours    float64         `json:"total_drive_time_hours"`
	DaysNeeded         int             `json:"days_needed"`
	Segments           []DaySegment    `json:"segments"`
	CandidateCampsites []Campsite      `json:"candidate_campsites"`
	Geometry           RouteGeometry   `json:"route_geometry"`
	Directions         []DirectionStep `json:"directions"`
	RoutingSource      string          `json:"routing_source"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TripRequest holds the inputs of a planning request.
type TripRequest struct {
	Start           Coordinate         `json:"start"`
	Destination     Coordinate         `json:"destination"`
	MaxDetourMiles  float64            `json:"max_detour_miles"`
	DailyDriveHours float64            `json:"daily_drive_hours"`
	CampsiteTypes   []CampsiteCategory `json:"campsite_types"`
}

// Place is a named coordinate returned by geocoding.
type Place struct {
	Name     string     `json:"name"`
	Location Coordinate `json:"location"`
}

// Waypoint is a campsite detour suggested by route optimization.
type Waypoint struct {
	Campsite           Campsite `json:"campsite"`
	AddedDistanceMiles float64  `json:"added_distance_miles"`
}

// OptimizedRoute is the result of a route optimization.
type OptimizedRoute struct {
	DirectDistanceMiles float64    `json:"direct_distance_miles"`
	Waypoints           []Waypoint `json:"optimized_waypoints"`
	TotalWithWaypoints  float64    `json:"total_with_waypoints"`
}
