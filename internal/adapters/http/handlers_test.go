package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/overland/internal/adapters/http"
	"github.com/samirrijal/overland/internal/adapters/mockdata"
	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/core/usecases"
	"github.com/samirrijal/overland/internal/workflows"
)

// ---- Mocks ----

type mockRouteProvider struct {
	fetchFn func(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error)
}

func (m *mockRouteProvider) FetchRoute(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, start, end)
	}
	return nil, fmt.Errorf("osrm down: %w", ports.ErrRouteUnavailable)
}

type mockGeocoder struct {
	resolveFn func(ctx context.Context, text string, limit int) ([]domain.Place, error)
}

func (m *mockGeocoder) Resolve(ctx context.Context, text string, limit int) ([]domain.Place, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, text, limit)
	}
	return nil, nil
}

type mockWorkflows struct {
	startFn  func(ctx context.Context, req domain.TripRequest) (string, error)
	resultFn func(ctx context.Context, id string) (*domain.TripPlan, workflows.Status, error)
}

func (m *mockWorkflows) Start(ctx context.Context, req domain.TripRequest) (string, error) {
	return m.startFn(ctx, req)
}

func (m *mockWorkflows) Result(ctx context.Context, id string) (*domain.TripPlan, workflows.Status, error) {
	return m.resultFn(ctx, id)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ---- Helpers ----

func newDeps(routes ports.RouteProvider, geo ports.GeocodeProvider) *handler.Dependencies {
	sites := mockdata.New()
	planner := usecases.NewTripPlanner(routes, sites, nil, nil, usecases.DefaultPlannerConfig())
	return &handler.Dependencies{
		Planner:   planner,
		Campsites: usecases.NewCampsiteService(sites, nil),
		Routes:    usecases.NewRouteService(sites),
		Geocode:   usecases.NewGeocodeService(geo, nil),
		Version:   "test",
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New()
	handler.SetupRoutes(app, deps)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, url, body string) (int, []byte, map[string]string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, data, headers
}

func decodeError(t *testing.T, body []byte) handler.APIError {
	t.Helper()
	var e handler.APIError
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, body)
	}
	return e
}

// ---- Tests ----

func TestRootHandler(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, body, _ := doRequest(t, app, "GET", "/", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var m map[string]string
	_ = json.Unmarshal(body, &m)
	if m["version"] != "test" {
		t.Errorf("expected version test, got %q", m["version"])
	}
}

func TestHealthHandler(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, body, _ := doRequest(t, app, "GET", "/v1/health", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"healthy"`) {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestReadyHandler_NothingConfigured(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, body, _ := doRequest(t, app, "GET", "/v1/ready", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Checks["routing"] != "fallback only" {
		t.Errorf("expected routing fallback only, got %q", resp.Checks["routing"])
	}
	if resp.Checks["cache"] != "not configured" {
		t.Errorf("expected cache not configured, got %q", resp.Checks["cache"])
	}
}

func TestReadyHandler_CacheDown(t *testing.T) {
	deps := newDeps(&mockRouteProvider{}, &mockGeocoder{})
	deps.Cache = pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	deps.DB = pingerFunc(func(ctx context.Context) error { return nil })
	app := setupApp(deps)

	status, body, _ := doRequest(t, app, "GET", "/v1/ready", "")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
	if !strings.Contains(string(body), "connection refused") {
		t.Errorf("expected cache error in body: %s", body)
	}
	if !strings.Contains(string(body), `"database":"ok"`) {
		t.Errorf("expected database ok in body: %s", body)
	}
}

func TestPlanTripHandler_RouteUnavailable(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	body := `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105}}`
	status, data, _ := doRequest(t, app, "POST", "/v1/trips/plan", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var plan domain.TripPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.RoutingSource != domain.RouteSourceFallback {
		t.Errorf("expected fallback routing, got %q", plan.RoutingSource)
	}
	if plan.DaysNeeded != 1 || len(plan.Segments) != 1 {
		t.Fatalf("expected 1 day, got %d days / %d segments", plan.DaysNeeded, len(plan.Segments))
	}
	if plan.Segments[0].SuggestedCampsite == nil {
		t.Error("expected a suggested campsite for day 1")
	}
	if plan.TotalDistanceMiles <= 0 {
		t.Errorf("expected positive distance, got %v", plan.TotalDistanceMiles)
	}
}

func TestPlanTripHandler_UsesOSRMRoute(t *testing.T) {
	routes := &mockRouteProvider{fetchFn: func(ctx context.Context, start, end domain.Coordinate) (*domain.RouteSummary, error) {
		return &domain.RouteSummary{
			TotalDistanceMiles: 900,
			TotalDurationHours: 18,
			Geometry:           domain.RouteGeometry{start, {Lat: 37, Lon: -100}, {Lat: 38, Lon: -95}, end},
			Source:             domain.RouteSourceOSRM,
		}, nil
	}}
	app := setupApp(newDeps(routes, &mockGeocoder{}))

	body := `{"start":{"lat":36,"lon":-105},"destination":{"lat":39,"lon":-90},"daily_drive_hours":8}`
	status, data, _ := doRequest(t, app, "POST", "/v1/trips/plan", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var plan domain.TripPlan
	_ = json.Unmarshal(data, &plan)
	if plan.DaysNeeded != 3 {
		t.Errorf("expected 3 days, got %d", plan.DaysNeeded)
	}
	if plan.RoutingSource != domain.RouteSourceOSRM {
		t.Errorf("expected osrm routing, got %q", plan.RoutingSource)
	}
}

func TestPlanTripHandler_Validation(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	tests := []struct {
		name string
		body string
	}{
		{"missing start", `{"destination":{"lat":36,"lon":-105}}`},
		{"missing destination", `{"start":{"lat":36,"lon":-105}}`},
		{"latitude out of range", `{"start":{"lat":95,"lon":-105},"destination":{"lat":36,"lon":-105}}`},
		{"zero daily hours", `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105},"daily_drive_hours":0}`},
		{"too many daily hours", `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105},"daily_drive_hours":25}`},
		{"too many days", `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105},"daily_drive_hours":0.0001}`},
		{"negative detour", `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105},"max_detour_miles":-1}`},
		{"unknown campsite type", `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105},"campsite_types":["hotel"]}`},
		{"malformed json", `{"start":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data, _ := doRequest(t, app, "POST", "/v1/trips/plan", tt.body)
			if status != 400 {
				t.Fatalf("expected 400, got %d: %s", status, data)
			}
			if e := decodeError(t, data); e.Code != "bad_request" {
				t.Errorf("expected bad_request, got %q", e.Code)
			}
		})
	}
}

func TestPlanTripHandler_LegacyAliasIsDeprecated(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	body := `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105}}`
	status, _, headers := doRequest(t, app, "POST", "/api/trip/plan", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if headers["Deprecation"] != "true" {
		t.Errorf("expected Deprecation header, got %q", headers["Deprecation"])
	}
	if !strings.Contains(headers["Link"], "/v1/trips/plan") {
		t.Errorf("expected successor link, got %q", headers["Link"])
	}
	if headers["Sunset"] == "" {
		t.Error("expected Sunset header")
	}
}

func TestSearchCampsitesHandler_Paginated(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, data, headers := doRequest(t, app, "GET", "/v1/campsites/search?lat=35&lon=-105&radius=50&limit=2", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var resp struct {
		Data       []domain.Campsite  `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 4 || len(resp.Data) != 2 {
		t.Fatalf("expected 2 of 4, got %d of %d", len(resp.Data), resp.Pagination.Total)
	}
	if resp.Data[0].DistanceMiles > resp.Data[1].DistanceMiles {
		t.Error("expected nearest first")
	}
	if !strings.Contains(headers["Link"], `rel="next"`) {
		t.Errorf("expected next link, got %q", headers["Link"])
	}
	if !strings.Contains(headers["Link"], "lat=35") {
		t.Errorf("expected query params carried over, got %q", headers["Link"])
	}
	if headers["Cache-Control"] != "public, max-age=300" {
		t.Errorf("unexpected Cache-Control %q", headers["Cache-Control"])
	}
}

func TestSearchCampsitesHandler_Filters(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, data, _ := doRequest(t, app, "GET", "/api/campsites/search?lat=35&lon=-105&type=dispersed&min_rating=4.6", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var sites []domain.Campsite
	if err := json.Unmarshal(data, &sites); err != nil {
		t.Fatalf("legacy search should return a bare list: %v", err)
	}
	if len(sites) != 1 || sites[0].Name != "BLM Road 4520 Spot" {
		t.Fatalf("expected only BLM Road 4520 Spot, got %+v", sites)
	}
}

func TestSearchCampsitesHandler_BadInput(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	for _, url := range []string{
		"/v1/campsites/search?lon=-105",
		"/v1/campsites/search?lat=abc&lon=-105",
		"/v1/campsites/search?lat=35&lon=-200",
		"/v1/campsites/search?lat=35&lon=-105&radius=1000",
		"/v1/campsites/search?lat=35&lon=-105&type=hotel",
	} {
		status, data, _ := doRequest(t, app, "GET", url, "")
		if status != 400 {
			t.Errorf("%s: expected 400, got %d: %s", url, status, data)
		}
	}
}

func TestGetCampsiteHandler(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, data, _ := doRequest(t, app, "GET", "/v1/campsites/rec_001", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var site domain.Campsite
	_ = json.Unmarshal(data, &site)
	if site.Name != "Pine Creek Campground" {
		t.Errorf("unexpected campsite %q", site.Name)
	}

	status, data, _ = doRequest(t, app, "GET", "/v1/campsites/does-not-exist", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if e := decodeError(t, data); e.Code != "not_found" || e.Message != "campsite not found" {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestGetCampsiteHandler_ETag(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	_, _, headers := doRequest(t, app, "GET", "/v1/campsites/rec_001", "")
	etag := headers["Etag"]
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/campsites/rec_001", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestOptimizeRouteHandler(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, data, _ := doRequest(t, app, "GET", "/v1/route/optimize?start_lat=35&start_lon=-106&end_lat=36&end_lon=-105", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var route domain.OptimizedRoute
	_ = json.Unmarshal(data, &route)
	if len(route.Waypoints) != 1 {
		t.Fatalf("expected 1 waypoint, got %d", len(route.Waypoints))
	}
	if route.TotalWithWaypoints < route.DirectDistanceMiles {
		t.Errorf("total %v below direct %v", route.TotalWithWaypoints, route.DirectDistanceMiles)
	}

	status, data, _ = doRequest(t, app, "GET", "/v1/route/optimize?start_lat=35&start_lon=-106&end_lat=36&end_lon=-105&include_campsites=false", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	_ = json.Unmarshal(data, &route)
	if len(route.Waypoints) != 0 || route.TotalWithWaypoints != route.DirectDistanceMiles {
		t.Errorf("expected no waypoints, got %+v", route)
	}

	status, _, _ = doRequest(t, app, "GET", "/v1/route/optimize?start_lat=35&start_lon=-106&end_lat=36&end_lon=-105&include_campsites=maybe", "")
	if status != 400 {
		t.Errorf("expected 400 for bad boolean, got %d", status)
	}
}

func TestGeocodeHandler(t *testing.T) {
	geo := &mockGeocoder{resolveFn: func(ctx context.Context, text string, limit int) ([]domain.Place, error) {
		if text != "Moab" {
			t.Errorf("unexpected text %q", text)
		}
		return []domain.Place{{Name: "Moab, Utah", Location: domain.Coordinate{Lat: 38.57, Lon: -109.55}}}, nil
	}}
	app := setupApp(newDeps(&mockRouteProvider{}, geo))

	status, data, _ := doRequest(t, app, "GET", "/v1/geocode?q=Moab", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var places []domain.Place
	_ = json.Unmarshal(data, &places)
	if len(places) != 1 || places[0].Name != "Moab, Utah" {
		t.Errorf("unexpected places %+v", places)
	}

	status, _, _ = doRequest(t, app, "GET", "/v1/geocode", "")
	if status != 400 {
		t.Errorf("expected 400 for empty query, got %d", status)
	}
}

func TestGeocodeHandler_ProviderError(t *testing.T) {
	geo := &mockGeocoder{resolveFn: func(ctx context.Context, text string, limit int) ([]domain.Place, error) {
		return nil, errors.New("nominatim: 503")
	}}
	app := setupApp(newDeps(&mockRouteProvider{}, geo))

	status, data, _ := doRequest(t, app, "GET", "/v1/geocode?q=Moab", "")
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	if e := decodeError(t, data); e.Message != "internal error" {
		t.Errorf("internal details leaked: %q", e.Message)
	}
}

func TestAsyncPlan_NotConfigured(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	body := `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105}}`
	status, data, _ := doRequest(t, app, "POST", "/v1/trips/plan/async", body)
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
	if e := decodeError(t, data); e.Code != "unavailable" {
		t.Errorf("expected unavailable, got %q", e.Code)
	}
}

func TestAsyncPlan_Lifecycle(t *testing.T) {
	var started domain.TripRequest
	status := workflows.StatusRunning
	deps := newDeps(&mockRouteProvider{}, &mockGeocoder{})
	deps.Workflows = &mockWorkflows{
		startFn: func(ctx context.Context, req domain.TripRequest) (string, error) {
			started = req
			return "trip-plan-1", nil
		},
		resultFn: func(ctx context.Context, id string) (*domain.TripPlan, workflows.Status, error) {
			switch {
			case id != "trip-plan-1":
				return nil, "", domain.ErrNotFound
			case status == workflows.StatusRunning:
				return nil, status, nil
			}
			return &domain.TripPlan{ID: "plan-1", DaysNeeded: 1}, status, nil
		},
	}
	app := setupApp(deps)

	body := `{"start":{"lat":35,"lon":-106},"destination":{"lat":36,"lon":-105}}`
	code, data, _ := doRequest(t, app, "POST", "/v1/trips/plan/async", body)
	if code != 202 {
		t.Fatalf("expected 202, got %d: %s", code, data)
	}
	if !strings.Contains(string(data), "/v1/trips/plan/async/trip-plan-1") {
		t.Errorf("expected result_url in %s", data)
	}
	if started.DailyDriveHours != 8 || started.MaxDetourMiles != 25 {
		t.Errorf("expected defaults applied, got %+v", started)
	}

	code, _, _ = doRequest(t, app, "GET", "/v1/trips/plan/async/trip-plan-1", "")
	if code != 202 {
		t.Fatalf("expected 202 while running, got %d", code)
	}

	status = workflows.StatusCompleted
	code, data, _ = doRequest(t, app, "GET", "/v1/trips/plan/async/trip-plan-1", "")
	if code != 200 {
		t.Fatalf("expected 200 when done, got %d", code)
	}
	if !strings.Contains(string(data), `"plan-1"`) {
		t.Errorf("expected plan in %s", data)
	}

	code, _, _ = doRequest(t, app, "GET", "/v1/trips/plan/async/unknown", "")
	if code != 404 {
		t.Errorf("expected 404 for unknown id, got %d", code)
	}
}

func TestAsyncPlan_ValidatesBeforeStarting(t *testing.T) {
	deps := newDeps(&mockRouteProvider{}, &mockGeocoder{})
	deps.Workflows = &mockWorkflows{
		startFn: func(ctx context.Context, req domain.TripRequest) (string, error) {
			t.Error("workflow must not start for invalid input")
			return "", nil
		},
	}
	app := setupApp(deps)

	status, _, _ := doRequest(t, app, "POST", "/v1/trips/plan/async", `{"start":{"lat":35,"lon":-106}}`)
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestGraphQL_PlanTripAndCampsites(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	query := `{"query":"{ planTrip(start:{lat:35,lon:-106}, destination:{lat:36,lon:-105}) { days_needed routing_source segments { day suggested_campsite { name } } } campsitesNearby(lat:35, lon:-105, limit:2) { id name type } }"}`
	status, data, _ := doRequest(t, app, "POST", "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var resp struct {
		Data struct {
			PlanTrip struct {
				DaysNeeded    int    `json:"days_needed"`
				RoutingSource string `json:"routing_source"`
			} `json:"planTrip"`
			CampsitesNearby []struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"campsitesNearby"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if resp.Data.PlanTrip.DaysNeeded != 1 || resp.Data.PlanTrip.RoutingSource != "fallback" {
		t.Errorf("unexpected plan %+v", resp.Data.PlanTrip)
	}
	if len(resp.Data.CampsitesNearby) != 2 {
		t.Errorf("expected 2 campsites, got %d", len(resp.Data.CampsitesNearby))
	}
}

func TestGraphQL_InvalidBody(t *testing.T) {
	app := setupApp(newDeps(&mockRouteProvider{}, &mockGeocoder{}))

	status, _, _ := doRequest(t, app, "POST", "/graphql", `not json`)
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}
