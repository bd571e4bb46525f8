package repository

import (
	"sort"
	"testing"
	"time"
)

var baseNanos = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()

func TestComputeCompositeScoreTieBreak(t *testing.T) {
	earlier := ComputeCompositeScore(900, baseNanos)
	later := ComputeCompositeScore(900, baseNanos+int64(time.Hour))

	if earlier <= later {
		t.Errorf("earlier run should rank higher: %v <= %v", earlier, later)
	}
	if ExtractBaseScore(earlier) != 900 || ExtractBaseScore(later) != 900 {
		t.Errorf("base score lost in composite: %v %v", earlier, later)
	}
}

func TestCompositeScoreOrdering(t *testing.T) {
	type run struct {
		score     int
		timestamp int64
	}
	runs := []run{
		{score: 900, timestamp: baseNanos},
		{score: 100, timestamp: baseNanos + int64(time.Minute)},
		{score: 950, timestamp: baseNanos + 2*int64(time.Minute)},
	}

	composites := make([]float64, len(runs))
	for i, r := range runs {
		composites[i] = ComputeCompositeScore(r.score, r.timestamp)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(composites)))

	want := []int{950, 900, 100}
	for i, w := range want {
		if got := ExtractBaseScore(composites[i]); got != w {
			t.Errorf("position %d: base score = %d, want %d", i, got, w)
		}
	}
}

func TestCompositeScoreStaysInBucket(t *testing.T) {
	// The timestamp fraction must never push a score past the next integer,
	// or a slow 900 would outrank a fast 901.
	composite := ComputeCompositeScore(900, baseNanos)
	if composite >= 901 {
		t.Errorf("composite %v crossed into the next score bucket", composite)
	}
	if composite < 900 {
		t.Errorf("composite %v fell below its own score bucket", composite)
	}
}

func TestKeyNamespaces(t *testing.T) {
	if got := sessionKey("game_t3_x_123"); got != "game_session_game_t3_x_123" {
		t.Errorf("sessionKey = %q", got)
	}
	if got := leaderboardKey("t3_x"); got != "leaderboard_t3_x" {
		t.Errorf("leaderboardKey = %q", got)
	}
	if got := versionKey("t3_x"); got != "leaderboard_version_t3_x" {
		t.Errorf("versionKey = %q", got)
	}
}
