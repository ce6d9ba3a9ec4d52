package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/overland/internal/core/domain"
)

// TripPlanInput is the input for TripPlanWorkflow.
type TripPlanInput struct {
	Request domain.TripRequest
}

// TripPlanWorkflow validates the request and then plans the trip. Validation
// failures end the workflow immediately; planning is retried on transient
// errors.
func TripPlanWorkflow(ctx workflow.Context, input TripPlanInput) (*domain.TripPlan, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting trip plan workflow", "dailyDriveHours", input.Request.DailyDriveHours)

	validateCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        1,
			NonRetryableErrorTypes: []string{errTypeValidation},
		},
	})
	if err := workflow.ExecuteActivity(validateCtx, ActivityValidateTrip, input.Request).Get(ctx, nil); err != nil {
		return nil, err
	}

	planCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{errTypeValidation},
		},
	})

	var plan domain.TripPlan
	if err := workflow.ExecuteActivity(planCtx, ActivityPlanTrip, input.Request).Get(ctx, &plan); err != nil {
		return nil, err
	}

	logger.Info("Trip planned", "planID", plan.ID, "days", plan.DaysNeeded)
	return &plan, nil
}
