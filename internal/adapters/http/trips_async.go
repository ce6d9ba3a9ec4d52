package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/overland/internal/workflows"
)

type asyncPlanResponse struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	ResultURL string      `json:"result_url,omitempty"`
	Plan      interface{} `json:"plan,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// StartPlanTripHandler validates the request and hands it to a workflow.
func StartPlanTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Workflows == nil {
			return errUnavailable(c, "asynchronous planning is not configured")
		}
		req, err := parseTripRequest(c, deps.Planner)
		if err != nil {
			return respondError(c, err, "")
		}

		id, err := deps.Workflows.Start(c.UserContext(), req)
		if err != nil {
			return respondError(c, err, "")
		}
		return c.Status(fiber.StatusAccepted).JSON(asyncPlanResponse{
			ID:        id,
			Status:    string(workflows.StatusRunning),
			ResultURL: "/v1/trips/plan/async/" + id,
		})
	}
}

// PlanTripResultHandler reports workflow progress: 202 while running, 200
// with the plan or the failure once finished.
func PlanTripResultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Workflows == nil {
			return errUnavailable(c, "asynchronous planning is not configured")
		}
		id := c.Params("id")

		plan, status, err := deps.Workflows.Result(c.UserContext(), id)
		switch {
		case status == workflows.StatusFailed:
			msg := "planning failed"
			if err != nil {
				msg = err.Error()
			}
			return c.JSON(asyncPlanResponse{ID: id, Status: string(status), Error: msg})
		case err != nil:
			return respondError(c, err, "plan not found")
		case status == workflows.StatusRunning:
			return c.Status(fiber.StatusAccepted).JSON(asyncPlanResponse{ID: id, Status: string(status)})
		}
		return c.JSON(asyncPlanResponse{ID: id, Status: string(status), Plan: plan})
	}
}
