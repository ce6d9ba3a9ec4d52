package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/usecases"
)

// Activity names registered on the worker.
const (
	ActivityValidateTrip = "ValidateTrip"
	ActivityPlanTrip     = "PlanTrip"
)

// errTypeValidation marks non-retryable application errors for bad input.
const errTypeValidation = "ValidationError"

// TripPlanner is the planning operation the activities delegate to.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error)
}

// TripActivities holds the activity implementations for TripPlanWorkflow.
type TripActivities struct {
	Planner TripPlanner
}

// ValidateTrip rejects malformed requests without retrying.
func (a *TripActivities) ValidateTrip(ctx context.Context, req domain.TripRequest) error {
	return asNonRetryable(usecases.ValidateTripRequest(req))
}

// PlanTrip runs the planner. Provider outages are absorbed by the planner, so
// any error left here is worth a retry unless it is a validation failure.
func (a *TripActivities) PlanTrip(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error) {
	activity.GetLogger(ctx).Info("planning trip",
		"start_lat", req.Start.Lat, "start_lon", req.Start.Lon,
		"dest_lat", req.Destination.Lat, "dest_lon", req.Destination.Lon)

	plan, err := a.Planner.PlanTrip(ctx, req)
	if err != nil {
		return nil, asNonRetryable(err)
	}
	return plan, nil
}

func asNonRetryable(err error) error {
	if err == nil {
		return nil
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return temporal.NewNonRetryableApplicationError(ve.Error(), errTypeValidation, err, ve.Field)
	}
	return err
}
