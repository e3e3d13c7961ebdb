package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/postflowhq/publisher/internal/repository"
	"github.com/postflowhq/publisher/internal/transfer"
)

type RunHandler struct {
	runs repository.PublishRunRepository
}

func NewRunHandler(runs repository.PublishRunRepository) *RunHandler {
	return &RunHandler{runs: runs}
}

func (h *RunHandler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := h.runs.ListRecent(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list publish runs",
		})
	}

	return c.Status(fiber.StatusOK).JSON(runs)
}

func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	runID := c.Params("id")

	run, err := h.runs.GetByID(c.Context(), runID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to fetch publish run",
		})
	}
	if run == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}

	var posts []transfer.PostReport
	if len(run.Detail) > 0 {
		if err := json.Unmarshal(run.Detail, &posts); err != nil {
			posts = nil
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"run":   run,
		"posts": posts,
	})
}
