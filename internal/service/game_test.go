package service

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"backend/internal/models"
	"backend/internal/repository"
)

type fakeSessionStore struct {
	sessions map[string]models.GameSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.GameSession)}
}

func (f *fakeSessionStore) SaveSession(_ context.Context, session *models.GameSession) error {
	f.sessions[session.GameID] = *session
	return nil
}

func (f *fakeSessionStore) LoadSession(_ context.Context, gameID string) (*models.GameSession, error) {
	session, ok := f.sessions[gameID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (f *fakeSessionStore) UpdateSession(_ context.Context, gameID string, mutate func(*models.GameSession) error) (*models.GameSession, error) {
	session, ok := f.sessions[gameID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if err := mutate(&session); err != nil {
		return nil, err
	}
	f.sessions[gameID] = session
	return &session, nil
}

type fakeBoard struct {
	entries map[string][]models.LeaderboardEntry
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{entries: make(map[string][]models.LeaderboardEntry)}
}

func (f *fakeBoard) RecordWin(_ context.Context, postID string, entry models.LeaderboardEntry) error {
	f.entries[postID] = append(f.entries[postID], entry)
	return nil
}

// TopEntries orders like the composite-score sorted set: score descending,
// earlier timestamp first on ties.
func (f *fakeBoard) TopEntries(_ context.Context, postID string, limit int) ([]models.LeaderboardEntry, error) {
	board := append([]models.LeaderboardEntry(nil), f.entries[postID]...)
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].Timestamp < board[j].Timestamp
	})
	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

func newTestService(sessions *fakeSessionStore, board *fakeBoard) *GameService {
	return NewGameService(sessions, board, nil, rand.New(rand.NewSource(1)))
}

func seedSession(store *fakeSessionStore, gameID string) models.GameSession {
	session := models.GameSession{
		GameID:          gameID,
		PostID:          "t3_post",
		BackgroundImage: "backgrounds/waves.svg",
		SnooPosition:    models.Position{X: 50, Y: 50},
		Lives:           StartingLives,
		Completed:       false,
		Outcome:         models.OutcomeActive,
	}
	store.sessions[gameID] = session
	return session
}

func TestInitGame(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())

	session, err := svc.InitGame(context.Background(), "t3_abc")
	if err != nil {
		t.Fatalf("InitGame: %v", err)
	}

	if !strings.HasPrefix(session.GameID, "game_t3_abc_") {
		t.Errorf("gameId %q missing post-scoped prefix", session.GameID)
	}
	if session.Lives != StartingLives {
		t.Errorf("lives = %d, want %d", session.Lives, StartingLives)
	}
	if session.Completed {
		t.Error("fresh session marked completed")
	}
	if session.Outcome != models.OutcomeActive {
		t.Errorf("outcome = %q, want active", session.Outcome)
	}
	if session.SnooPosition.X < 10 || session.SnooPosition.X > 90 ||
		session.SnooPosition.Y < 10 || session.SnooPosition.Y > 90 {
		t.Errorf("target position %v outside [10,90]", session.SnooPosition)
	}
	if session.BackgroundImage == "" {
		t.Error("no background selected")
	}
	if _, ok := store.sessions[session.GameID]; !ok {
		t.Error("session not persisted")
	}
}

func TestInitGameMissingPostID(t *testing.T) {
	svc := newTestService(newFakeSessionStore(), newFakeBoard())

	if _, err := svc.InitGame(context.Background(), ""); !errors.Is(err, ErrMissingPostID) {
		t.Fatalf("err = %v, want ErrMissingPostID", err)
	}
}

func TestInitGameUniqueIDs(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		session, err := svc.InitGame(context.Background(), "t3_same")
		if err != nil {
			t.Fatalf("InitGame #%d: %v", i, err)
		}
		if seen[session.GameID] {
			t.Fatalf("gameId collision after %d inits: %s", i, session.GameID)
		}
		seen[session.GameID] = true
	}
}

func TestClickMissSequence(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())
	seedSession(store, "g1")

	wantLives := []int{2, 1, 0}
	for i, want := range wantLives {
		session, hit, err := svc.Click(context.Background(), "g1", 10, 10)
		if err != nil {
			t.Fatalf("click #%d: %v", i+1, err)
		}
		if hit {
			t.Fatalf("click #%d far from target reported hit", i+1)
		}
		if session.Lives != want {
			t.Fatalf("click #%d: lives = %d, want %d", i+1, session.Lives, want)
		}
	}

	session := store.sessions["g1"]
	if session.Outcome != models.OutcomeLost {
		t.Errorf("outcome after third miss = %q, want lost", session.Outcome)
	}

	// No lives floor: a 0-lives, non-completed session still runs the hit
	// test, and a further miss keeps decrementing.
	updated, hit, err := svc.Click(context.Background(), "g1", 50, 50)
	if err != nil {
		t.Fatalf("click after zero lives: %v", err)
	}
	if !hit {
		t.Error("exact-target click after zero lives not reported as hit")
	}
	if updated.Lives != 0 {
		t.Errorf("hit mutated lives: %d", updated.Lives)
	}

	updated, _, err = svc.Click(context.Background(), "g1", 10, 10)
	if err != nil {
		t.Fatalf("fourth miss: %v", err)
	}
	if updated.Lives != -1 {
		t.Errorf("lives after fourth miss = %d, want -1", updated.Lives)
	}
}

func TestClickHitKeepsLives(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())
	seedSession(store, "g1")

	session, hit, err := svc.Click(context.Background(), "g1", 52, 48)
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if !hit {
		t.Fatal("near-target click not reported as hit")
	}
	if session.Lives != StartingLives {
		t.Errorf("hit changed lives: %d", session.Lives)
	}
	if session.Outcome != models.OutcomeActive {
		t.Errorf("hit changed outcome: %q", session.Outcome)
	}
}

func TestClickCompletedSessionRejected(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())
	session := seedSession(store, "g1")
	session.Completed = true
	session.Outcome = models.OutcomeWon
	store.sessions["g1"] = session

	_, _, err := svc.Click(context.Background(), "g1", 10, 10)
	if !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("err = %v, want ErrSessionCompleted", err)
	}
	if store.sessions["g1"].Lives != StartingLives {
		t.Errorf("rejected click mutated lives: %d", store.sessions["g1"].Lives)
	}
}

func TestClickSessionNotFound(t *testing.T) {
	svc := newTestService(newFakeSessionStore(), newFakeBoard())

	_, _, err := svc.Click(context.Background(), "missing", 10, 10)
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestCompleteWin(t *testing.T) {
	store := newFakeSessionStore()
	board := newFakeBoard()
	svc := newTestService(store, board)
	seedSession(store, "g1")

	result, err := svc.Complete(context.Background(), "g1", "alice", true, 10.0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if result.FinalScore != 900 {
		t.Errorf("finalScore = %d, want 900", result.FinalScore)
	}
	if result.PlayerRank != 1 {
		t.Errorf("playerRank = %d, want 1", result.PlayerRank)
	}
	if len(result.Leaderboard) != 1 || result.Leaderboard[0].Username != "alice" {
		t.Errorf("leaderboard snapshot missing the new entry: %+v", result.Leaderboard)
	}

	stored := store.sessions["g1"]
	if !stored.Completed {
		t.Error("session not marked completed")
	}
	if stored.Outcome != models.OutcomeWon {
		t.Errorf("outcome = %q, want won", stored.Outcome)
	}
}

func TestCompleteWinScoreFloor(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())
	seedSession(store, "g1")

	result, err := svc.Complete(context.Background(), "g1", "alice", true, 95.0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.FinalScore != 100 {
		t.Errorf("finalScore = %d, want 100", result.FinalScore)
	}
}

func TestCompleteLoss(t *testing.T) {
	store := newFakeSessionStore()
	board := newFakeBoard()
	svc := newTestService(store, board)
	seedSession(store, "g1")

	result, err := svc.Complete(context.Background(), "g1", "bob", false, 30.0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if result.FinalScore != 0 {
		t.Errorf("losing finalScore = %d, want 0", result.FinalScore)
	}
	if len(board.entries["t3_post"]) != 0 {
		t.Error("losing run landed on the leaderboard")
	}
	if store.sessions["g1"].Outcome != models.OutcomeLost {
		t.Errorf("outcome = %q, want lost", store.sessions["g1"].Outcome)
	}
}

func TestCompleteIsUnconditional(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestService(store, newFakeBoard())
	session := seedSession(store, "g1")
	session.Completed = true
	session.Outcome = models.OutcomeWon
	store.sessions["g1"] = session

	// Complete never rejects an already-completed session; only click does.
	if _, err := svc.Complete(context.Background(), "g1", "alice", false, 60.0); err != nil {
		t.Fatalf("second complete: %v", err)
	}
}

func TestCompleteSessionNotFound(t *testing.T) {
	svc := newTestService(newFakeSessionStore(), newFakeBoard())

	_, err := svc.Complete(context.Background(), "missing", "alice", true, 5.0)
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestFullGameScenario(t *testing.T) {
	store := newFakeSessionStore()
	board := newFakeBoard()
	svc := newTestService(store, board)
	ctx := context.Background()

	// Two prior runs on the board
	board.entries["t3_post"] = []models.LeaderboardEntry{
		{Username: "carol", Score: 900, TimeFinished: 10, Timestamp: 1},
		{Username: "dave", Score: 100, TimeFinished: 95, Timestamp: 2},
	}

	session, err := svc.InitGame(ctx, "t3_post")
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	// Miss far from the target
	missX, missY := 5.0, 5.0
	if session.SnooPosition.X < 50 {
		missX = 95.0
	}
	if session.SnooPosition.Y < 50 {
		missY = 95.0
	}
	updated, hit, err := svc.Click(ctx, session.GameID, missX, missY)
	if err != nil {
		t.Fatalf("miss click: %v", err)
	}
	if hit || updated.Lives != 2 {
		t.Fatalf("miss click: hit=%v lives=%d, want miss with 2 lives", hit, updated.Lives)
	}

	// Exact-target click
	_, hit, err = svc.Click(ctx, session.GameID, session.SnooPosition.X, session.SnooPosition.Y)
	if err != nil {
		t.Fatalf("hit click: %v", err)
	}
	if !hit {
		t.Fatal("exact-target click reported as miss")
	}

	result, err := svc.Complete(ctx, session.GameID, "erin", true, 5.0)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.FinalScore != 950 {
		t.Errorf("finalScore = %d, want 950", result.FinalScore)
	}
	if result.PlayerRank != 1 {
		t.Errorf("playerRank = %d, want 1", result.PlayerRank)
	}

	wantOrder := []int{950, 900, 100}
	if len(result.Leaderboard) != len(wantOrder) {
		t.Fatalf("leaderboard has %d entries, want %d", len(result.Leaderboard), len(wantOrder))
	}
	for i, want := range wantOrder {
		if result.Leaderboard[i].Score != want {
			t.Errorf("leaderboard[%d].Score = %d, want %d", i, result.Leaderboard[i].Score, want)
		}
	}
	if result.Leaderboard[0].Username != "erin" {
		t.Errorf("top entry = %q, want erin", result.Leaderboard[0].Username)
	}
}
