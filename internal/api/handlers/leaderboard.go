package handlers

import (
	"strconv"

	"backend/internal/api/middleware"
	"backend/internal/models"
	"backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LeaderboardHandler handles standalone board queries and health checks
type LeaderboardHandler struct {
	service *service.LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
	}
}

// GetLeaderboard handles GET /api/game/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required",
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		limit = service.TopBoardSize
	}

	board, err := h.service.GetLeaderboard(c.Context(), postID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to retrieve leaderboard",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(board)
}

// GetHistory handles GET /api/game/history, the durable run log for a post
func (h *LeaderboardHandler) GetHistory(c *fiber.Ctx) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required",
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		limit = service.TopBoardSize
	}

	results, err := h.service.GetHistory(c.Context(), postID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to retrieve history",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"postId":  postID,
		"results": results,
	})
}

// HealthCheck handles GET /api/health
func (h *LeaderboardHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.service.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}
