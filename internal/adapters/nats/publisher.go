package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/overland/internal/core/domain"
)

// SubjectTripPlanned prefixes per-plan subjects: trips.planned.<plan id>.
const SubjectTripPlanned = "trips.planned."

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      "TRIP_EVENTS",
		Subjects:  []string{SubjectTripPlanned + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// DayStop summarises one day of a planned trip.
type DayStop struct {
	Day          int               `json:"day"`
	End          domain.Coordinate `json:"end_point"`
	CampsiteID   string            `json:"campsite_id,omitempty"`
	CampsiteName string            `json:"campsite_name,omitempty"`
}

// TripPlannedEvent is the payload published for every plan. It omits
// geometry and directions to keep messages small.
type TripPlannedEvent struct {
	PlanID             string    `json:"plan_id"`
	DaysNeeded         int       `json:"days_needed"`
	TotalDistanceMiles float64   `json:"total_distance_miles"`
	TotalDriveHours    float64   `json:"total_drive_time_hours"`
	RoutingSource      string    `json:"routing_source"`
	Stops              []DayStop `json:"stops"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewTripPlannedEvent builds the event for plan.
func NewTripPlannedEvent(plan *domain.TripPlan) TripPlannedEvent {
	stops := make([]DayStop, len(plan.Segments))
	for i, s := range plan.Segments {
		stops[i] = DayStop{Day: s.Day, End: s.End}
		if s.SuggestedCampsite != nil {
			stops[i].CampsiteID = s.SuggestedCampsite.ID
			stops[i].CampsiteName = s.SuggestedCampsite.Name
		}
	}
	return TripPlannedEvent{
		PlanID:             plan.ID,
		DaysNeeded:         plan.DaysNeeded,
		TotalDistanceMiles: plan.TotalDistanceMiles,
		TotalDriveHours:    plan.TotalDriveHours,
		RoutingSource:      plan.RoutingSource,
		Stops:              stops,
		CreatedAt:          plan.CreatedAt,
	}
}

// PublishTripPlanned implements ports.EventPublisher.
func (p *Publisher) PublishTripPlanned(ctx context.Context, plan *domain.TripPlan) error {
	data, err := json.Marshal(NewTripPlannedEvent(plan))
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectTripPlanned+plan.ID, data, nats.Context(ctx))
	return err
}

// Connected reports whether the underlying connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("overland"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
