package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"backend/internal/models"
	"backend/internal/worker"
)

const (
	// StartingLives is the miss budget for a fresh session
	StartingLives = 3

	// TopBoardSize is the leaderboard snapshot returned on completion
	TopBoardSize = 10
)

// Backgrounds a fresh game picks from. Asset references only; rendering is
// the client's problem.
var backgroundImages = []string{
	"backgrounds/checkerboard.svg",
	"backgrounds/polygons.svg",
	"backgrounds/blocks.svg",
	"backgrounds/bubbles.svg",
	"backgrounds/waves.svg",
}

var (
	// ErrSessionCompleted signals a click against an already-finished game
	ErrSessionCompleted = errors.New("game already completed")

	// ErrMissingPostID signals a request with no hosting-post context
	ErrMissingPostID = errors.New("postId is required")
)

// SessionStore is the slice of the Redis repository the game service needs
// for session persistence
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.GameSession) error
	LoadSession(ctx context.Context, gameID string) (*models.GameSession, error)
	UpdateSession(ctx context.Context, gameID string, mutate func(*models.GameSession) error) (*models.GameSession, error)
}

// LeaderboardStore is the slice of the Redis repository the game service
// needs for ranking
type LeaderboardStore interface {
	RecordWin(ctx context.Context, postID string, entry models.LeaderboardEntry) error
	TopEntries(ctx context.Context, postID string, limit int) ([]models.LeaderboardEntry, error)
}

// ResultSink receives completed runs for durable persistence
type ResultSink interface {
	Submit(task worker.ResultTask) error
}

// GameService orchestrates the init -> click -> complete protocol. It is the
// sole writer of session state; the leaderboard store is the sole writer of
// ranking state.
type GameService struct {
	sessions SessionStore
	board    LeaderboardStore
	results  ResultSink

	// rng is injected so target placement and background choice are
	// deterministic under test; rand.Rand is not goroutine-safe
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGameService creates a new game service. results may be nil when durable
// persistence is not wired (tests, seeder).
func NewGameService(sessions SessionStore, board LeaderboardStore, results ResultSink, rng *rand.Rand) *GameService {
	return &GameService{
		sessions: sessions,
		board:    board,
		results:  results,
		rng:      rng,
	}
}

// CompleteResult bundles everything the complete endpoint reports
type CompleteResult struct {
	Session     *models.GameSession
	FinalScore  int
	Leaderboard []models.LeaderboardEntry
	PlayerRank  int
}

// InitGame creates and persists a fresh session for the given post. Sessions
// are short-lived and post-scoped, so postId plus a nanosecond timestamp is
// collision-safe as an identifier.
func (s *GameService) InitGame(ctx context.Context, postID string) (*models.GameSession, error) {
	if postID == "" {
		return nil, ErrMissingPostID
	}

	s.mu.Lock()
	background := backgroundImages[s.rng.Intn(len(backgroundImages))]
	position := RandomPosition(s.rng)
	s.mu.Unlock()

	now := time.Now()
	session := &models.GameSession{
		GameID:          fmt.Sprintf("game_%s_%d", postID, now.UnixNano()),
		PostID:          postID,
		BackgroundImage: background,
		SnooPosition:    position,
		Lives:           StartingLives,
		StartTime:       now.UnixMilli(),
		Completed:       false,
		Outcome:         models.OutcomeActive,
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}
	return session, nil
}

// LoadGame fetches the current state of a session, letting a reloaded client
// resume an active game instead of burning a fresh session
func (s *GameService) LoadGame(ctx context.Context, gameID string) (*models.GameSession, error) {
	return s.sessions.LoadSession(ctx, gameID)
}

// Click runs the hit test for one click. A miss costs a life; there is no
// floor at zero, a stale client may keep clicking a lost game until it calls
// complete. Every processed click persists the session and refreshes its TTL.
// Clicks against a completed session are rejected without mutating anything.
func (s *GameService) Click(ctx context.Context, gameID string, clickX, clickY float64) (*models.GameSession, bool, error) {
	var hit bool
	session, err := s.sessions.UpdateSession(ctx, gameID, func(gs *models.GameSession) error {
		if gs.Completed {
			return ErrSessionCompleted
		}
		hit = IsHit(clickX, clickY, gs.SnooPosition.X, gs.SnooPosition.Y)
		if !hit {
			gs.Lives--
			if gs.Lives <= 0 {
				gs.Outcome = models.OutcomeLost
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return session, hit, nil
}

// Complete finishes a run: marks the session completed unconditionally,
// scores a win from the client-reported elapsed time, records winning runs on
// the post's board, and returns the top-10 snapshot with the player's rank.
func (s *GameService) Complete(ctx context.Context, gameID, username string, won bool, timeFinished float64) (*CompleteResult, error) {
	outcome := models.OutcomeLost
	if won {
		outcome = models.OutcomeWon
	}

	session, err := s.sessions.UpdateSession(ctx, gameID, func(gs *models.GameSession) error {
		gs.Completed = true
		gs.Outcome = outcome
		return nil
	})
	if err != nil {
		return nil, err
	}

	finalScore := 0
	if won {
		finalScore = ComputeScore(timeFinished)
		entry := models.LeaderboardEntry{
			Username:     username,
			Score:        finalScore,
			TimeFinished: timeFinished,
			Timestamp:    time.Now().UnixNano(),
		}
		if err := s.board.RecordWin(ctx, session.PostID, entry); err != nil {
			return nil, fmt.Errorf("record win: %w", err)
		}
	}

	if s.results != nil {
		task := worker.ResultTask{Result: models.GameResult{
			GameID:       session.GameID,
			PostID:       session.PostID,
			Username:     username,
			Won:          won,
			Score:        finalScore,
			TimeFinished: timeFinished,
		}}
		// Backpressure drops only the durable copy; Redis already holds the
		// win, so the request still succeeds.
		_ = s.results.Submit(task)
	}

	board, err := s.board.TopEntries(ctx, session.PostID, TopBoardSize)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	rank := 1
	if won {
		rank = PlayerRank(board, username, finalScore)
	}

	return &CompleteResult{
		Session:     session,
		FinalScore:  finalScore,
		Leaderboard: board,
		PlayerRank:  rank,
	}, nil
}
