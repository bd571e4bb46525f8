package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionKeyPrefix namespaces per-game session blobs
	SessionKeyPrefix = "game_session_"

	// LeaderboardKeyPrefix namespaces the per-post ranked sets
	LeaderboardKeyPrefix = "leaderboard_"

	// VersionKeyPrefix namespaces the per-post board version counters used
	// for websocket change detection
	VersionKeyPrefix = "leaderboard_version_"

	// CounterKey is the shared demo counter
	CounterKey = "count"

	// SessionTTL is the session expiry; every save refreshes it so an active
	// player is never cut off mid-game by an absolute timer
	SessionTTL = 300 * time.Second

	// TimestampDivisor maps nanosecond Unix timestamps into [0,1) for the
	// composite-score fraction, so the tie-break never bleeds into the next
	// integer score bucket
	TimestampDivisor = 1e19

	// maxUpdateRetries bounds the optimistic WATCH retry loop on session writes
	maxUpdateRetries = 5
)

// ErrSessionNotFound signals an absent or expired game session. Callers map
// it to 404 rather than treating it as an internal failure.
var ErrSessionNotFound = errors.New("game session not found")

// RedisRepository handles all Redis operations: session persistence, per-post
// leaderboards, version counters, and the demo counter
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

// ComputeCompositeScore calculates a composite sorted-set score for consistent
// tie-breaking. Formula: score + (1 - unixNanos/10^19), so two runs with the
// same score rank the earlier finish higher while the integer part stays the
// displayed score. Ties closer than a few milliseconds fall back to Redis
// member order, which is still deterministic.
func ComputeCompositeScore(score int, timestamp int64) float64 {
	return float64(score) + (1.0 - float64(timestamp)/TimestampDivisor)
}

// ExtractBaseScore extracts the integer score from a composite score
func ExtractBaseScore(compositeScore float64) int {
	return int(compositeScore)
}

func sessionKey(gameID string) string {
	return SessionKeyPrefix + gameID
}

func leaderboardKey(postID string) string {
	return LeaderboardKeyPrefix + postID
}

func versionKey(postID string) string {
	return VersionKeyPrefix + postID
}

// SaveSession serializes the session and writes it under its game key,
// setting (or refreshing) the 300s expiry
func (r *RedisRepository) SaveSession(ctx context.Context, session *models.GameSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	return r.client.Set(ctx, sessionKey(session.GameID), payload, SessionTTL).Err()
}

// LoadSession reads and deserializes a session, returning ErrSessionNotFound
// when the key is absent or expired
func (r *RedisRepository) LoadSession(ctx context.Context, gameID string) (*models.GameSession, error) {
	data, err := r.client.Get(ctx, sessionKey(gameID)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.GameSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("deserialize session: %w", err)
	}
	return &session, nil
}

// UpdateSession applies mutate to the stored session under WATCH with an
// optimistic retry loop, so two concurrent clicks on the same game cannot
// silently drop a life decrement. The write refreshes the TTL; a mutate error
// aborts without persisting anything.
func (r *RedisRepository) UpdateSession(ctx context.Context, gameID string, mutate func(*models.GameSession) error) (*models.GameSession, error) {
	key := sessionKey(gameID)
	var updated *models.GameSession

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var session models.GameSession
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			return fmt.Errorf("deserialize session: %w", err)
		}
		if err := mutate(&session); err != nil {
			return err
		}

		payload, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("serialize session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, SessionTTL)
			return nil
		})
		if err == nil {
			updated = &session
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err == redis.TxFailedErr {
			continue // another writer got there first, reload and retry
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("session %s: update retries exhausted", gameID)
}

// RecordWin inserts one entry into the post's ranked set and bumps the board
// version in the same pipeline. The full entry payload is the member, so
// duplicate scores and duplicate usernames coexist as distinct members.
func (r *RedisRepository) RecordWin(ctx context.Context, postID string, entry models.LeaderboardEntry) error {
	member, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize leaderboard entry: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, leaderboardKey(postID), redis.Z{
		Score:  ComputeCompositeScore(entry.Score, entry.Timestamp),
		Member: string(member),
	})
	pipe.Incr(ctx, versionKey(postID))

	_, err = pipe.Exec(ctx)
	return err
}

// TopEntries returns up to limit entries for a post, best score first
func (r *RedisRepository) TopEntries(ctx context.Context, postID string, limit int) ([]models.LeaderboardEntry, error) {
	results, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey(postID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		var entry models.LeaderboardEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, fmt.Errorf("deserialize leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// LeaderboardSize returns the total number of runs recorded for a post
func (r *RedisRepository) LeaderboardSize(ctx context.Context, postID string) (int64, error) {
	return r.client.ZCard(ctx, leaderboardKey(postID)).Result()
}

// LeaderboardVersion returns the post's board version, 0 when no win has
// ever been recorded
func (r *RedisRepository) LeaderboardVersion(ctx context.Context, postID string) (int64, error) {
	version, err := r.client.Get(ctx, versionKey(postID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// IncrCount atomically adjusts the demo counter and returns the new value
func (r *RedisRepository) IncrCount(ctx context.Context, delta int64) (int64, error) {
	return r.client.IncrBy(ctx, CounterKey, delta).Result()
}

// GetCount returns the demo counter, 0 when unset
func (r *RedisRepository) GetCount(ctx context.Context) (int64, error) {
	count, err := r.client.Get(ctx, CounterKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Ping checks if Redis is reachable
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
