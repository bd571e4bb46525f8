package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultRuns = 50
	batchSize   = 25
)

func main() {
	postID := flag.String("post", "t3_demo", "post whose leaderboard to seed")
	runs := flag.Int("runs", defaultRuns, "number of winning runs to seed")
	flag.Parse()

	log.Printf("Seeding %d runs onto post %s...", *runs, *postID)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	postgresRepo := repository.NewPostgresRepository(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	results := make([]models.GameResult, 0, *runs)

	for i := 0; i < *runs; i++ {
		elapsed := 1.0 + rng.Float64()*95.0
		entry := models.LeaderboardEntry{
			Username:     fmt.Sprintf("seed_player_%02d", rng.Intn(20)),
			Score:        service.ComputeScore(elapsed),
			TimeFinished: elapsed,
			Timestamp:    time.Now().UnixNano(),
		}

		if err := redisRepo.RecordWin(ctx, *postID, entry); err != nil {
			log.Fatalf("Failed to record win %d: %v", i, err)
		}

		results = append(results, models.GameResult{
			GameID:       fmt.Sprintf("game_%s_seed_%s", *postID, uuid.NewString()),
			PostID:       *postID,
			Username:     entry.Username,
			Won:          true,
			Score:        entry.Score,
			TimeFinished: entry.TimeFinished,
		})
	}

	if err := postgresRepo.BulkInsertResults(ctx, results, batchSize); err != nil {
		log.Fatalf("Failed to insert results: %v", err)
	}

	total, err := redisRepo.LeaderboardSize(ctx, *postID)
	if err != nil {
		log.Fatalf("Failed to read board size: %v", err)
	}
	log.Printf("Done: board for %s now holds %d runs", *postID, total)
}

// initPostgres initializes the PostgreSQL connection
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes the Redis connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
