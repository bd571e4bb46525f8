package handlers

import (
	"backend/internal/api/middleware"
	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// CounterHandler serves the shared counter demo endpoints. The counter is a
// single atomic Redis key, no in-process state.
type CounterHandler struct {
	repo *repository.RedisRepository
}

// NewCounterHandler creates a new counter handler
func NewCounterHandler(repo *repository.RedisRepository) *CounterHandler {
	return &CounterHandler{
		repo: repo,
	}
}

// Init handles GET /api/init
func (h *CounterHandler) Init(c *fiber.Ctx) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required but missing from context",
		})
	}

	count, err := h.repo.GetCount(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Initialization failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.InitResponse{
		Type:     "init",
		PostID:   postID,
		Count:    count,
		Username: middleware.Username(c),
	})
}

// Increment handles POST /api/increment
func (h *CounterHandler) Increment(c *fiber.Ctx) error {
	return h.adjust(c, "increment", 1)
}

// Decrement handles POST /api/decrement
func (h *CounterHandler) Decrement(c *fiber.Ctx) error {
	return h.adjust(c, "decrement", -1)
}

func (h *CounterHandler) adjust(c *fiber.Ctx, kind string, delta int64) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required",
		})
	}

	count, err := h.repo.IncrCount(c.Context(), delta)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to update count",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.CountResponse{
		Type:   kind,
		PostID: postID,
		Count:  count,
	})
}
