package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/overland/internal/core/domain"
)

const workflowIDPrefix = "trip-plan-"

// Status is the state of an asynchronous plan.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Runner starts trip plan workflows and fetches their results.
type Runner struct {
	client    client.Client
	taskQueue string
}

// NewRunner creates a Runner on taskQueue.
func NewRunner(c client.Client, taskQueue string) *Runner {
	return &Runner{client: c, taskQueue: taskQueue}
}

// Start launches a workflow for req and returns its ID.
func (r *Runner) Start(ctx context.Context, req domain.TripRequest) (string, error) {
	id := workflowIDPrefix + uuid.NewString()
	_, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: r.taskQueue,
	}, TripPlanWorkflow, TripPlanInput{Request: req})
	if err != nil {
		return "", fmt.Errorf("start workflow: %w", err)
	}
	return id, nil
}

// Result returns the plan for a finished workflow. While the workflow is
// running the plan is nil and the status is StatusRunning. Unknown IDs return
// domain.ErrNotFound.
func (r *Runner) Result(ctx context.Context, id string) (*domain.TripPlan, Status, error) {
	desc, err := r.client.DescribeWorkflowExecution(ctx, id, "")
	if err != nil {
		var nf *serviceerror.NotFound
		if errors.As(err, &nf) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("describe workflow: %w", err)
	}

	switch desc.GetWorkflowExecutionInfo().GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return nil, StatusRunning, nil
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var plan domain.TripPlan
		if err := r.client.GetWorkflow(ctx, id, "").Get(ctx, &plan); err != nil {
			return nil, StatusFailed, err
		}
		return &plan, StatusCompleted, nil
	default:
		// Surface the failure cause when there is one.
		err := r.client.GetWorkflow(ctx, id, "").Get(ctx, nil)
		if err == nil {
			err = fmt.Errorf("workflow ended with status %s", desc.GetWorkflowExecutionInfo().GetStatus())
		}
		return nil, StatusFailed, err
	}
}
