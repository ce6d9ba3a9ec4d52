package usecases_test

import (
	"math"
	"testing"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/usecases"
)

func straightGeometry(n int) domain.RouteGeometry {
	g := make(domain.RouteGeometry, n)
	for i := range g {
		g[i] = domain.Coordinate{Lat: 40, Lon: -110 + float64(i)*0.01}
	}
	return g
}

func TestDaysNeeded(t *testing.T) {
	tests := []struct {
		total, daily float64
		want         int
	}{
		{18, 8, 3},
		{16, 8, 2},
		{16.01, 8, 3},
		{0.5, 8, 1},
		{0, 8, 1},
		{8, 8, 1},
		{100, 10, 10},
		{10, 1e-15, math.MaxInt32},
	}
	for _, tt := range tests {
		if got := usecases.DaysNeeded(tt.total, tt.daily); got != tt.want {
			t.Errorf("DaysNeeded(%v, %v) = %d, want %d", tt.total, tt.daily, got, tt.want)
		}
	}
}

func TestSegment_InvalidDailyHours(t *testing.T) {
	route := &domain.RouteSummary{TotalDurationHours: 10, Geometry: straightGeometry(10)}
	for _, h := range []float64{0, -1, math.NaN()} {
		_, err := usecases.Segment(route, route.Geometry[0], route.Geometry[9], h)
		if !domain.IsValidation(err) {
			t.Errorf("daily hours %v: expected validation error, got %v", h, err)
		}
	}
}

func TestSegment_TooManyDays(t *testing.T) {
	route := &domain.RouteSummary{TotalDistanceMiles: 88, TotalDurationHours: 1.98, Geometry: straightGeometry(2)}
	for _, h := range []float64{1e-4, 1e-15} {
		days, err := usecases.Segment(route, route.Geometry[0], route.Geometry[1], h)
		if !domain.IsValidation(err) {
			t.Errorf("daily hours %v: expected validation error, got %v", h, err)
		}
		if days != nil {
			t.Errorf("daily hours %v: expected no days, got %d", h, len(days))
		}
	}
}

func TestSegment_SumsAndContiguity(t *testing.T) {
	geom := straightGeometry(101)
	route := &domain.RouteSummary{
		TotalDistanceMiles: 1000,
		TotalDurationHours: 18,
		Geometry:           geom,
	}

	days, err := usecases.Segment(route, geom[0], geom[100], 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}

	var dist, dur float64
	for i, d := range days {
		if d.Day != i+1 {
			t.Errorf("day %d has index %d", i+1, d.Day)
		}
		if d.Interpolated {
			t.Errorf("day %d unexpectedly interpolated", d.Day)
		}
		dist += d.DistanceMiles
		dur += d.DurationHours

		if len(d.Geometry) != d.EndIndex-d.StartIndex+1 {
			t.Errorf("day %d slice length %d does not match indices %d..%d", d.Day, len(d.Geometry), d.StartIndex, d.EndIndex)
		}
		if d.Start != geom[d.StartIndex] || d.End != geom[d.EndIndex] {
			t.Errorf("day %d endpoints do not match geometry", d.Day)
		}
		if i > 0 {
			prev := days[i-1]
			if prev.EndIndex != d.StartIndex {
				t.Errorf("day %d starts at %d, previous ended at %d", d.Day, d.StartIndex, prev.EndIndex)
			}
			if prev.End != d.Start {
				t.Errorf("day %d start %v != previous end %v", d.Day, d.Start, prev.End)
			}
		}
	}
	if math.Abs(dist-1000) > 1e-9 {
		t.Errorf("distances sum to %v, want 1000", dist)
	}
	if math.Abs(dur-18) > 1e-9 {
		t.Errorf("durations sum to %v, want 18", dur)
	}

	// floor((d/3) * 100)
	wantIdx := []int{0, 33, 66, 100}
	for i, d := range days {
		if d.StartIndex != wantIdx[i] || d.EndIndex != wantIdx[i+1] {
			t.Errorf("day %d indices %d..%d, want %d..%d", d.Day, d.StartIndex, d.EndIndex, wantIdx[i], wantIdx[i+1])
		}
	}
	if days[0].Start != geom[0] || days[2].End != geom[100] {
		t.Error("first day must start at origin and last day end at destination")
	}
}

func TestSegment_SingleDay(t *testing.T) {
	geom := straightGeometry(5)
	route := &domain.RouteSummary{TotalDistanceMiles: 120, TotalDurationHours: 2, Geometry: geom}

	days, err := usecases.Segment(route, geom[0], geom[4], 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if len(days[0].Geometry) != 5 {
		t.Errorf("expected the whole geometry, got %d points", len(days[0].Geometry))
	}
}

func TestSegment_SparseGeometryInterpolates(t *testing.T) {
	start := domain.Coordinate{Lat: 0, Lon: 0}
	dest := domain.Coordinate{Lat: 0, Lon: 4}
	route := &domain.RouteSummary{
		TotalDistanceMiles: 276,
		TotalDurationHours: 32,
		Geometry:           domain.RouteGeometry{start, dest},
	}

	days, err := usecases.Segment(route, start, dest, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	for i, d := range days {
		if !d.Interpolated {
			t.Errorf("day %d should be interpolated", d.Day)
		}
		if len(d.Geometry) != 2 {
			t.Errorf("day %d: expected synthesized 2-point slice, got %d", d.Day, len(d.Geometry))
		}
		wantEnd := domain.Coordinate{Lat: 0, Lon: float64(i + 1)}
		if d.End != wantEnd {
			t.Errorf("day %d end = %v, want %v", d.Day, d.End, wantEnd)
		}
		if i > 0 && days[i-1].End != d.Start {
			t.Errorf("day %d is not contiguous with day %d", d.Day, d.Day-1)
		}
	}
	if days[0].Start != start || days[3].End != dest {
		t.Error("interpolated route must run from start to destination")
	}
}

func TestSegment_EmptyGeometry(t *testing.T) {
	start := domain.Coordinate{Lat: 10, Lon: 10}
	dest := domain.Coordinate{Lat: 12, Lon: 10}
	route := &domain.RouteSummary{TotalDistanceMiles: 138, TotalDurationHours: 3}

	days, err := usecases.Segment(route, start, dest, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 || days[0].Start != start || days[0].End != dest {
		t.Fatalf("unexpected segmentation: %+v", days)
	}
}

func near(a, b domain.Coordinate) bool {
	return math.Abs(a.Lat-b.Lat) < 1e-9 && math.Abs(a.Lon-b.Lon) < 1e-9
}

func TestSegment_SparseGeometryFollowsRoad(t *testing.T) {
	// An L-shaped road: north two degrees, then east two degrees.
	geom := domain.RouteGeometry{{Lat: 0, Lon: 0}, {Lat: 2, Lon: 0}, {Lat: 2, Lon: 2}}
	route := &domain.RouteSummary{TotalDistanceMiles: 276, TotalDurationHours: 32, Geometry: geom}

	days, err := usecases.Segment(route, geom[0], geom[2], 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}

	wantEnds := []domain.Coordinate{{Lat: 1, Lon: 0}, {Lat: 2, Lon: 0}, {Lat: 2, Lon: 1}, {Lat: 2, Lon: 2}}
	for i, d := range days {
		if !near(d.End, wantEnds[i]) {
			t.Errorf("day %d end = %v, want %v on the road", d.Day, d.End, wantEnds[i])
		}
		if len(d.Geometry) < 2 {
			t.Errorf("day %d has a %d-point slice", d.Day, len(d.Geometry))
		}
		if d.Geometry[0] != d.Start || d.Geometry[len(d.Geometry)-1] != d.End {
			t.Errorf("day %d slice does not run from start to end", d.Day)
		}
		if i > 0 && days[i-1].End != d.Start {
			t.Errorf("day %d is not contiguous with day %d", d.Day, d.Day-1)
		}
	}
}

func TestSegment_OnlyCollapsedDaysInterpolate(t *testing.T) {
	geom := straightGeometry(4)
	route := &domain.RouteSummary{TotalDistanceMiles: 500, TotalDurationHours: 40, Geometry: geom}

	days, err := usecases.Segment(route, geom[0], geom[3], 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}

	// floor(3d/5) gives 0,0,1,1,2,3: the last day spans points 2..3 untouched.
	lastDay := days[4]
	if lastDay.Interpolated {
		t.Error("last day should use the route geometry as is")
	}
	if lastDay.StartIndex != 2 || lastDay.EndIndex != 3 || lastDay.Start != geom[2] || lastDay.End != geom[3] {
		t.Errorf("last day = %d..%d %v→%v", lastDay.StartIndex, lastDay.EndIndex, lastDay.Start, lastDay.End)
	}
	if len(lastDay.Geometry) != 2 {
		t.Errorf("last day slice has %d points, want 2", len(lastDay.Geometry))
	}

	var dist float64
	for i, d := range days {
		dist += d.DistanceMiles
		if i < 4 && !d.Interpolated {
			t.Errorf("day %d should be interpolated", d.Day)
		}
		if i > 0 && (days[i-1].End != d.Start || days[i-1].EndIndex != d.StartIndex) {
			t.Errorf("day %d is not contiguous with day %d", d.Day, d.Day-1)
		}
		if d.Start.Lat != 40 || d.End.Lat != 40 {
			t.Errorf("day %d left the road: %v→%v", d.Day, d.Start, d.End)
		}
	}
	if math.Abs(dist-500) > 1e-9 {
		t.Errorf("distances sum to %v, want 500", dist)
	}
	if days[0].Start != geom[0] || days[4].End != geom[3] {
		t.Error("route must run from origin to destination")
	}
}
