package telemetry

// Span attribute keys shared by the planner and adapters.
const (
	AttrProvider   = "overland.provider"
	AttrDays       = "overland.days"
	AttrRouteSrc   = "overland.route_source"
	AttrCandidates = "overland.candidates"
)
