package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
)

// MaxSegmentDays is the most days Segment will produce.
const MaxSegmentDays = 366

// DayBoundary is one day's share of a route before campsites are attached.
// Distances and durations are unrounded.
type DayBoundary struct {
	Day           int
	StartIndex    int
	EndIndex      int
	Start         domain.Coordinate
	End           domain.Coordinate
	Geometry      domain.RouteGeometry
	DistanceMiles float64
	DurationHours float64
	// Interpolated is set when one of the day's endpoints lies between two
	// geometry points rather than on one.
	Interpolated bool
}

// DaysNeeded returns max(1, ceil(totalHours / dailyHours)), saturating at
// math.MaxInt32.
func DaysNeeded(totalHours, dailyHours float64) int {
	if dailyHours <= 0 || math.IsNaN(totalHours) || totalHours <= 0 {
		return 1
	}
	days := math.Ceil(totalHours / dailyHours)
	if math.IsNaN(days) || days >= math.MaxInt32 {
		return math.MaxInt32
	}
	if days < 1 {
		return 1
	}
	return int(days)
}

// Segment splits route into days of at most dailyHours driving. Distance and
// duration are divided uniformly; each day's progress fractions are mapped to
// indices into the route geometry with floor(progress * (n-1)).
//
// Consecutive days whose indices collapse onto the same geometry point would
// get an empty stretch of road. Boundaries touching such a day are placed at
// the exact progress fraction along the geometry instead, so every day keeps
// a slice of at least two points and days still chain end to start. A
// geometry with fewer than two points is interpolated between start and
// destination.
func Segment(route *domain.RouteSummary, start, destination domain.Coordinate, dailyHours float64) ([]DayBoundary, error) {
	if route == nil {
		return nil, fmt.Errorf("segment: nil route")
	}
	if math.IsNaN(dailyHours) || math.IsInf(dailyHours, 0) || dailyHours <= 0 {
		return nil, &domain.ValidationError{Field: "daily_drive_hours", Message: "must be a positive number of hours"}
	}

	days := DaysNeeded(route.TotalDurationHours, dailyHours)
	if days > MaxSegmentDays {
		return nil, &domain.ValidationError{
			Field:   "daily_drive_hours",
			Message: fmt.Sprintf("trip would take %d days, more than %d", days, MaxSegmentDays),
		}
	}

	geom := route.Geometry
	if len(geom) < 2 {
		geom = domain.RouteGeometry{start, destination}
	}
	last := len(geom) - 1

	// floor(progress * (n-1)) in integer arithmetic: d*(n-1)/days.
	index := func(d int) int { return d * last / days }

	// Boundary k sits on geometry point index(k) unless a neighbouring day
	// would collapse, in which case it sits at position k*(n-1)/days.
	pos := make([]float64, days+1)
	exact := make([]bool, days+1)
	for k := 0; k <= days; k++ {
		pos[k] = float64(index(k))
		if k == 0 || k == days {
			continue
		}
		if index(k) == index(k-1) || index(k) == index(k+1) {
			pos[k] = float64(k) * float64(last) / float64(days)
			exact[k] = true
		}
	}
	pointAt := func(k int) domain.Coordinate {
		if !exact[k] {
			return geom[index(k)]
		}
		i := int(pos[k])
		return geospatial.Interpolate(geom[i], geom[i+1], pos[k]-float64(i))
	}

	perDayMiles := route.TotalDistanceMiles / float64(days)
	perDayHours := route.TotalDurationHours / float64(days)

	out := make([]DayBoundary, 0, days)
	for d := 1; d <= days; d++ {
		b := DayBoundary{
			Day:           d,
			StartIndex:    index(d - 1),
			EndIndex:      index(d),
			Start:         pointAt(d - 1),
			End:           pointAt(d),
			DistanceMiles: perDayMiles,
			DurationHours: perDayHours,
			Interpolated:  exact[d-1] || exact[d] || len(route.Geometry) < 2,
		}

		if !exact[d-1] && !exact[d] {
			b.Geometry = geom[b.StartIndex : b.EndIndex+1]
		} else {
			// Endpoints plus the geometry points strictly between them.
			g := domain.RouteGeometry{b.Start}
			for j := int(math.Floor(pos[d-1])) + 1; float64(j) < pos[d]; j++ {
				g = append(g, geom[j])
			}
			b.Geometry = append(g, b.End)
		}

		out = append(out, b)
	}

	return out, nil
}

// round1 rounds v to one decimal place for display.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
