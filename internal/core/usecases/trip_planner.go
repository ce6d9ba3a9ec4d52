package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
	"github.com/samirrijal/overland/internal/pkg/logging"
	"github.com/samirrijal/overland/internal/pkg/metrics"
	"github.com/samirrijal/overland/internal/pkg/telemetry"
)

// DefaultFallbackSpeedMPH is the average speed assumed for straight-line routes.
const DefaultFallbackSpeedMPH = 45.0

const routeCacheTTL = 3600

const (
	defaultMaxDays           = 30
	defaultLookupConcurrency = 4
)

// PlannerConfig holds request defaults, the fallback speed and the limits on
// a single plan.
type PlannerConfig struct {
	DefaultMaxDetourMiles  float64
	DefaultDailyDriveHours float64
	// DefaultCampsiteTypes filters candidates when a request names no types.
	// Empty keeps every category.
	DefaultCampsiteTypes []domain.CampsiteCategory
	FallbackSpeedMPH     float64
	// MaxDays rejects plans needing more driving days. At most MaxSegmentDays.
	MaxDays int
	// LookupConcurrency bounds the campsite searches running at once.
	LookupConcurrency int
}

// DefaultPlannerConfig returns the stock planning defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DefaultMaxDetourMiles:  25,
		DefaultDailyDriveHours: 8,
		FallbackSpeedMPH:       DefaultFallbackSpeedMPH,
		MaxDays:                defaultMaxDays,
		LookupConcurrency:      defaultLookupConcurrency,
	}
}

// TripPlanner assembles multi-day itineraries.
type TripPlanner struct {
	routes    ports.RouteProvider
	campsites ports.CampsiteProvider
	cache     ports.CacheService
	events    ports.EventPublisher
	cfg       PlannerConfig
	now       func() time.Time
}

// NewTripPlanner creates a new TripPlanner. cache and events may be nil.
func NewTripPlanner(routes ports.RouteProvider, campsites ports.CampsiteProvider, cache ports.CacheService, events ports.EventPublisher, cfg PlannerConfig) *TripPlanner {
	if cfg.FallbackSpeedMPH <= 0 {
		cfg.FallbackSpeedMPH = DefaultFallbackSpeedMPH
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = defaultMaxDays
	}
	if cfg.MaxDays > MaxSegmentDays {
		cfg.MaxDays = MaxSegmentDays
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = defaultLookupConcurrency
	}
	return &TripPlanner{
		routes:    routes,
		campsites: campsites,
		cache:     cache,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

// NewRequest returns a request from start to destination carrying the
// configured defaults. Callers decode user input over it.
func (p *TripPlanner) NewRequest(start, destination domain.Coordinate) domain.TripRequest {
	var types []domain.CampsiteCategory
	if len(p.cfg.DefaultCampsiteTypes) > 0 {
		types = make([]domain.CampsiteCategory, len(p.cfg.DefaultCampsiteTypes))
		copy(types, p.cfg.DefaultCampsiteTypes)
	}
	return domain.TripRequest{
		Start:           start,
		Destination:     destination,
		MaxDetourMiles:  p.cfg.DefaultMaxDetourMiles,
		DailyDriveHours: p.cfg.DefaultDailyDriveHours,
		CampsiteTypes:   types,
	}
}

// ValidateTripRequest rejects malformed requests before any provider call.
func ValidateTripRequest(req domain.TripRequest) error {
	if err := req.Start.Validate("start"); err != nil {
		return err
	}
	if err := req.Destination.Validate("destination"); err != nil {
		return err
	}
	if !isPositive(req.DailyDriveHours) {
		return &domain.ValidationError{Field: "daily_drive_hours", Message: "must be a positive number of hours"}
	}
	if req.DailyDriveHours > 24 {
		return &domain.ValidationError{Field: "daily_drive_hours", Message: "cannot exceed 24 hours"}
	}
	if !isPositive(req.MaxDetourMiles) {
		return &domain.ValidationError{Field: "max_detour_miles", Message: "must be a positive number of miles"}
	}
	for _, t := range req.CampsiteTypes {
		if !t.Valid() {
			return &domain.ValidationError{Field: "campsite_types", Message: fmt.Sprintf("unknown campsite type %q", t)}
		}
	}
	return nil
}

func isPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// PlanTrip plans a trip from req.Start to req.Destination.
//
// Routing failure falls back to a straight line; a campsite provider failure
// only empties that day's suggestions. The returned error is therefore either
// a *domain.ValidationError or a context error. A trip needing more than
// MaxDays days is a validation error, raised before any campsite search.
func (p *TripPlanner) PlanTrip(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error) {
	if err := ValidateTripRequest(req); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "TripPlanner.PlanTrip")
	defer span.End()

	log := logging.FromContext(ctx)

	route := p.Route(ctx, req.Start, req.Destination)

	if n := DaysNeeded(route.TotalDurationHours, req.DailyDriveHours); n > p.cfg.MaxDays {
		return nil, &domain.ValidationError{
			Field:   "daily_drive_hours",
			Message: fmt.Sprintf("trip would take %d days, more than the limit of %d", n, p.cfg.MaxDays),
		}
	}

	days, err := Segment(route, req.Start, req.Destination, req.DailyDriveHours)
	if err != nil {
		return nil, err
	}

	type dayResult struct {
		selected   *domain.Campsite
		candidates []domain.Campsite
	}
	results := make([]dayResult, len(days))

	finder := NewCampsiteFinder(p.campsites, req.CampsiteTypes)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.LookupConcurrency)
	for i := range days {
		g.Go(func() error {
			sel, cands := finder.FindNear(gctx, days[i].End, req.MaxDetourMiles, days[i].Geometry)
			results[i] = dayResult{selected: sel, candidates: cands}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []domain.Campsite
	segments := make([]domain.DaySegment, len(days))
	for i, d := range days {
		segments[i] = domain.DaySegment{
			Day:               d.Day,
			Start:             d.Start,
			End:               d.End,
			StartIndex:        d.StartIndex,
			EndIndex:          d.EndIndex,
			DistanceMiles:     round1(d.DistanceMiles),
			DriveHours:        round1(d.DurationHours),
			Geometry:          d.Geometry,
			SuggestedCampsite: results[i].selected,
		}
		all = append(all, results[i].candidates...)
	}
	candidates := dedupeCampsites(all)
	cacheCampsites(ctx, p.cache, candidates)

	plan := &domain.TripPlan{
		ID:                 uuid.NewString(),
		TotalDistanceMiles: round1(route.TotalDistanceMiles),
		TotalDriveHours:    round1(route.TotalDurationHours),
		DaysNeeded:         len(days),
		Segments:           segments,
		CandidateCampsites: candidates,
		Geometry:           route.Geometry,
		Directions:         route.Directions,
		RoutingSource:      route.Source,
		CreatedAt:          p.now().UTC(),
	}

	span.SetAttributes(
		attribute.Int(telemetry.AttrDays, plan.DaysNeeded),
		attribute.String(telemetry.AttrRouteSrc, plan.RoutingSource),
		attribute.Int(telemetry.AttrCandidates, len(candidates)),
	)
	metrics.TripsPlanned.WithLabelValues(plan.RoutingSource).Inc()
	metrics.TripDays.Observe(float64(plan.DaysNeeded))

	log.Info("trip planned",
		slog.String("plan_id", plan.ID),
		slog.Int("days", plan.DaysNeeded),
		slog.Float64("distance_miles", plan.TotalDistanceMiles),
		slog.String("routing_source", plan.RoutingSource),
		slog.Int("candidates", len(candidates)),
	)

	if p.events != nil {
		if err := p.events.PublishTripPlanned(ctx, plan); err != nil {
			log.Warn("publish trip planned failed", slog.String("plan_id", plan.ID), slog.Any("error", err))
		}
	}

	return plan, nil
}

// Route returns the driving route between start and end, from cache when
// possible. Any provider failure yields the straight-line fallback.
func (p *TripPlanner) Route(ctx context.Context, start, end domain.Coordinate) *domain.RouteSummary {
	key := fmt.Sprintf("route:%.5f:%.5f:%.5f:%.5f", start.Lat, start.Lon, end.Lat, end.Lon)
	if p.cache != nil {
		if data, err := p.cache.Get(ctx, key); err == nil {
			var route domain.RouteSummary
			if err := json.Unmarshal(data, &route); err == nil {
				metrics.CacheHits.WithLabelValues("route").Inc()
				return &route
			}
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
	}

	if p.routes != nil {
		route, err := p.routes.FetchRoute(ctx, start, end)
		if err == nil && route != nil {
			if p.cache != nil {
				if data, err := json.Marshal(route); err == nil {
					_ = p.cache.Set(ctx, key, data, routeCacheTTL)
				}
			}
			return route
		}
		logging.FromContext(ctx).Warn("routing unavailable, using straight line", slog.Any("error", err))
	}

	metrics.RoutingFallbacks.Inc()
	return FallbackRoute(start, end, p.cfg.FallbackSpeedMPH)
}

// FallbackRoute is the straight-line route used when routing is unavailable:
// haversine distance, duration at speedMPH, geometry [start, end], no directions.
func FallbackRoute(start, end domain.Coordinate, speedMPH float64) *domain.RouteSummary {
	if !isPositive(speedMPH) {
		speedMPH = DefaultFallbackSpeedMPH
	}
	dist := geospatial.Distance(start, end)
	return &domain.RouteSummary{
		TotalDistanceMiles: dist,
		TotalDurationHours: dist / speedMPH,
		Geometry:           domain.RouteGeometry{start, end},
		Directions:         []domain.DirectionStep{},
		Source:             domain.RouteSourceFallback,
	}
}
