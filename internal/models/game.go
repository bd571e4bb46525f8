package models

import (
	"time"
)

// Outcome is the explicit session state, kept alongside lives/completed so
// client and server never disagree on what "lives == 0" means.
type Outcome string

const (
	OutcomeActive Outcome = "active"
	OutcomeWon    Outcome = "won"
	OutcomeLost   Outcome = "lost"
)

// Position is a point in percent-of-image units (0-100 on each axis)
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GameSession is the ephemeral per-game state held in Redis under a 300s TTL.
// SnooPosition is fixed at creation; Lives only ever decreases; Completed is
// monotonic false -> true.
type GameSession struct {
	GameID          string   `json:"gameId"`
	PostID          string   `json:"postId"`
	BackgroundImage string   `json:"backgroundImage"`
	SnooPosition    Position `json:"snooPosition"`
	Lives           int      `json:"lives"`
	StartTime       int64    `json:"startTime"`
	Completed       bool     `json:"completed"`
	Outcome         Outcome  `json:"outcome"`
}

// LeaderboardEntry is one recorded run on a post's board. Entries are never
// deduplicated: a player may appear once per winning run.
type LeaderboardEntry struct {
	Username     string  `json:"username"`
	Score        int     `json:"score"`
	TimeFinished float64 `json:"timeFinished"`
	Timestamp    int64   `json:"timestamp"`
}

// GameResult is the durable PostgreSQL record of a completed run
type GameResult struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	GameID       string    `gorm:"index;not null" json:"game_id"`
	PostID       string    `gorm:"index;not null" json:"post_id"`
	Username     string    `gorm:"index;not null" json:"username"`
	Won          bool      `gorm:"not null" json:"won"`
	Score        int       `gorm:"not null" json:"score"`
	TimeFinished float64   `json:"time_finished"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (GameResult) TableName() string {
	return "game_results"
}

// ClickRequest is the payload for POST /api/game/click
type ClickRequest struct {
	GameID string  `json:"gameId" validate:"required"`
	ClickX float64 `json:"clickX" validate:"gte=0,lte=100"`
	ClickY float64 `json:"clickY" validate:"gte=0,lte=100"`
}

// CompleteRequest is the payload for POST /api/game/complete
type CompleteRequest struct {
	GameID       string  `json:"gameId" validate:"required"`
	Won          bool    `json:"won"`
	TimeFinished float64 `json:"timeFinished" validate:"gte=0"`
}

// GameInitResponse mirrors the wire contract of the original game client.
// The target position is part of the init payload by design of the reference
// client; hiding it is a known anti-cheat gap tracked separately.
type GameInitResponse struct {
	Type            string   `json:"type"`
	PostID          string   `json:"postId"`
	GameID          string   `json:"gameId"`
	BackgroundImage string   `json:"backgroundImage"`
	SnooPosition    Position `json:"snooPosition"`
}

// GameClickResponse reports the hit-test result for one click
type GameClickResponse struct {
	Type           string  `json:"type"`
	PostID         string  `json:"postId"`
	GameID         string  `json:"gameId"`
	Hit            bool    `json:"hit"`
	LivesRemaining int     `json:"livesRemaining"`
	Outcome        Outcome `json:"outcome"`
}

// GameCompleteResponse closes out a run and carries the board snapshot
type GameCompleteResponse struct {
	Type         string             `json:"type"`
	PostID       string             `json:"postId"`
	GameID       string             `json:"gameId"`
	Won          bool               `json:"won"`
	TimeFinished float64            `json:"timeFinished"`
	FinalScore   int                `json:"finalScore"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	PlayerRank   int                `json:"playerRank"`
}

// InitResponse is the counter-demo bootstrap payload
type InitResponse struct {
	Type     string `json:"type"`
	PostID   string `json:"postId"`
	Count    int64  `json:"count"`
	Username string `json:"username"`
}

// CountResponse is shared by the increment and decrement endpoints
type CountResponse struct {
	Type   string `json:"type"`
	PostID string `json:"postId"`
	Count  int64  `json:"count"`
}

// LeaderboardResponse is the standalone board query payload
type LeaderboardResponse struct {
	PostID  string             `json:"postId"`
	Entries []LeaderboardEntry `json:"entries"`
	Total   int64              `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
