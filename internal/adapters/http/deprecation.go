package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with a sunset date.
type DeprecatedRoute struct {
	Path        string    // Route pattern, e.g. /api/campsites/:id
	SunsetDate  time.Time // Date the endpoint will be removed
	Alternative string    // Successor endpoint (optional)
}

// legacySunset is when the unversioned /api aliases go away.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// LegacyRoutes lists the unversioned aliases kept for early clients.
var LegacyRoutes = []DeprecatedRoute{
	{Path: "/api/health", SunsetDate: legacySunset, Alternative: "/v1/health"},
	{Path: "/api/trip/plan", SunsetDate: legacySunset, Alternative: "/v1/trips/plan"},
	{Path: "/api/campsites/search", SunsetDate: legacySunset, Alternative: "/v1/campsites/search"},
	{Path: "/api/campsites/:id", SunsetDate: legacySunset, Alternative: "/v1/campsites/:id"},
	{Path: "/api/route/optimize", SunsetDate: legacySunset, Alternative: "/v1/route/optimize"},
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to
// deprecated endpoints.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if !matchPattern(c.Path(), d.Path) {
				continue
			}
			// RFC 8594
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
			if d.Alternative != "" {
				// RFC 8288
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}
			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
			break
		}
		return c.Next()
	}
}

// matchPattern matches a path against a route pattern whose :name segments
// match any single non-empty segment.
func matchPattern(path, pattern string) bool {
	if path == pattern {
		return true
	}
	ps := strings.Split(strings.Trim(path, "/"), "/")
	qs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(ps) != len(qs) {
		return false
	}
	for i, seg := range qs {
		if strings.HasPrefix(seg, ":") {
			if ps[i] == "" {
				return false
			}
			continue
		}
		if seg != ps[i] {
			return false
		}
	}
	return true
}
