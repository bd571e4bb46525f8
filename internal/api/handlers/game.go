package handlers

import (
	"errors"

	"backend/internal/api/middleware"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GameHandler handles HTTP requests for the game session lifecycle
type GameHandler struct {
	game      *service.GameService
	validator *validator.Validate
}

// NewGameHandler creates a new game handler
func NewGameHandler(game *service.GameService) *GameHandler {
	return &GameHandler{
		game:      game,
		validator: validator.New(),
	}
}

// InitGame handles POST /api/game/init
func (h *GameHandler) InitGame(c *fiber.Ctx) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required but missing from context",
		})
	}

	session, err := h.game.InitGame(c.Context(), postID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to initialize game",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.GameInitResponse{
		Type:            "game-init",
		PostID:          session.PostID,
		GameID:          session.GameID,
		BackgroundImage: session.BackgroundImage,
		SnooPosition:    session.SnooPosition,
	})
}

// GetSession handles GET /api/game/session/:gameId, used by clients resuming
// after a reload
func (h *GameHandler) GetSession(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if gameID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Message: "gameId is required",
		})
	}

	session, err := h.game.LoadGame(c.Context(), gameID)
	if err != nil {
		return gameError(c, "Failed to load session", err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

// Click handles POST /api/game/click
func (h *GameHandler) Click(c *fiber.Ctx) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required",
		})
	}

	var req models.ClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	}

	session, hit, err := h.game.Click(c.Context(), req.GameID, req.ClickX, req.ClickY)
	if err != nil {
		return gameError(c, "Failed to process click", err)
	}

	return c.Status(fiber.StatusOK).JSON(models.GameClickResponse{
		Type:           "game-click",
		PostID:         postID,
		GameID:         session.GameID,
		Hit:            hit,
		LivesRemaining: session.Lives,
		Outcome:        session.Outcome,
	})
}

// Complete handles POST /api/game/complete
func (h *GameHandler) Complete(c *fiber.Ctx) error {
	postID := middleware.PostID(c)
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Missing context",
			Message: "postId is required",
		})
	}

	var req models.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	}

	result, err := h.game.Complete(c.Context(), req.GameID, middleware.Username(c), req.Won, req.TimeFinished)
	if err != nil {
		return gameError(c, "Failed to complete game", err)
	}

	return c.Status(fiber.StatusOK).JSON(models.GameCompleteResponse{
		Type:         "game-complete",
		PostID:       postID,
		GameID:       result.Session.GameID,
		Won:          req.Won,
		TimeFinished: req.TimeFinished,
		FinalScore:   result.FinalScore,
		Leaderboard:  result.Leaderboard,
		PlayerRank:   result.PlayerRank,
	})
}

// gameError maps service sentinels onto the wire taxonomy:
// SessionNotFound -> 404, state-machine violations -> 400, the rest -> 500
func gameError(c *fiber.Ctx, label string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "Game session not found",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrSessionCompleted):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Game already completed",
			Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   label,
			Message: err.Error(),
		})
	}
}
