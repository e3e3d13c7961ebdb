package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/postflowhq/publisher/internal/service"
)

type CronHandler struct {
	ps service.PublishService
}

func NewCronHandler(ps service.PublishService) *CronHandler {
	return &CronHandler{ps: ps}
}

// PublishScheduled runs the batch pipeline and returns the run summary as
// the response body. The summary is the only feedback channel of the batch.
func (h *CronHandler) PublishScheduled(c *fiber.Ctx) error {
	report, err := h.ps.PublishDueScheduled(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to run publish batch",
		})
	}

	return c.Status(fiber.StatusOK).JSON(report)
}
