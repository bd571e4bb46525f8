package repository

import (
	"context"

	"backend/internal/models"

	"gorm.io/gorm"
)

// PostgresRepository handles all PostgreSQL operations
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// InsertResult appends one completed run. Runs are never deduplicated, which
// mirrors the leaderboard's no-dedup rule.
func (r *PostgresRepository) InsertResult(ctx context.Context, result models.GameResult) error {
	return r.db.WithContext(ctx).Create(&result).Error
}

// BulkInsertResults efficiently inserts multiple runs (used by the seeder)
func (r *PostgresRepository) BulkInsertResults(ctx context.Context, results []models.GameResult, batchSize int) error {
	return r.db.WithContext(ctx).CreateInBatches(results, batchSize).Error
}

// ResultsForPost retrieves a post's recorded runs, best score first
func (r *PostgresRepository) ResultsForPost(ctx context.Context, postID string, limit int) ([]models.GameResult, error) {
	var results []models.GameResult
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("score DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// CountResults returns the total number of recorded runs
func (r *PostgresRepository) CountResults(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GameResult{}).Count(&count).Error
	return count, err
}

// Ping checks if database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.GameResult{})
}
