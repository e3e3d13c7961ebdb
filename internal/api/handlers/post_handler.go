package handlers

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/postflowhq/publisher/internal/queue"
	"github.com/postflowhq/publisher/internal/repository"
	"github.com/postflowhq/publisher/internal/transfer"
)

// PublishEnqueuer schedules a publish task for the queue worker.
type PublishEnqueuer interface {
	EnqueuePost(payload queue.PublishPostPayload, delay time.Duration) error
}

type PostHandler struct {
	enqueuer PublishEnqueuer
	posts    repository.PostRepository
	validate *validator.Validate
}

func NewPostHandler(enqueuer PublishEnqueuer, posts repository.PostRepository) *PostHandler {
	return &PostHandler{
		enqueuer: enqueuer,
		posts:    posts,
		validate: validator.New(),
	}
}

// PublishNow enqueues an immediate publish of one post, bypassing the cron
// window. Only the post's owner may trigger it; the worker runs the same
// claim-then-publish path as the batch.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	var req transfer.PublishNowRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	post, err := h.posts.GetByID(c.Context(), req.PostID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load post",
		})
	}
	if post == nil || post.UserID != GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	if err := h.enqueuer.EnqueuePost(queue.PublishPostPayload{PostID: req.PostID}, 0); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error enqueueing publish",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Publish enqueued",
	})
}
