package service

import (
	"context"
	"fmt"

	"backend/internal/models"
	"backend/internal/repository"
)

// LeaderboardService answers standalone board queries and health checks
type LeaderboardService struct {
	redisRepo    *repository.RedisRepository
	postgresRepo *repository.PostgresRepository
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(redisRepo *repository.RedisRepository, postgresRepo *repository.PostgresRepository) *LeaderboardService {
	return &LeaderboardService{
		redisRepo:    redisRepo,
		postgresRepo: postgresRepo,
	}
}

// PlayerRank returns the 1-based position of the first entry matching both
// username and score in the snapshot. A run that did not make the snapshot
// ranks just outside it, len(board)+1 — an approximation, not a true global
// rank; ties on username+score can resolve to the wrong index.
func PlayerRank(board []models.LeaderboardEntry, username string, score int) int {
	for i, entry := range board {
		if entry.Username == username && entry.Score == score {
			return i + 1
		}
	}
	return len(board) + 1
}

// GetLeaderboard retrieves a post's top entries without finishing a game
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, postID string, limit int) (*models.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = TopBoardSize
	}
	if limit > 100 {
		limit = 100 // Max limit to prevent abuse
	}

	entries, err := s.redisRepo.TopEntries(ctx, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top entries: %w", err)
	}

	total, err := s.redisRepo.LeaderboardSize(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board size: %w", err)
	}

	return &models.LeaderboardResponse{
		PostID:  postID,
		Entries: entries,
		Total:   total,
	}, nil
}

// GetHistory retrieves a post's durably recorded runs from PostgreSQL
func (s *LeaderboardService) GetHistory(ctx context.Context, postID string, limit int) ([]models.GameResult, error) {
	if limit <= 0 || limit > 100 {
		limit = TopBoardSize
	}
	return s.postgresRepo.ResultsForPost(ctx, postID, limit)
}

// HealthCheck checks the health of both Redis and PostgreSQL
func (s *LeaderboardService) HealthCheck(ctx context.Context) error {
	if err := s.redisRepo.Ping(ctx); err != nil {
		return fmt.Errorf("Redis health check failed: %w", err)
	}

	if err := s.postgresRepo.Ping(ctx); err != nil {
		return fmt.Errorf("PostgreSQL health check failed: %w", err)
	}

	return nil
}
