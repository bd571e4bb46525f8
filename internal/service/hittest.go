package service

import (
	"math"
	"math/rand"

	"backend/internal/models"
)

const (
	// HitRadius is the hit tolerance in percent-of-dimension units,
	// approximating the rendered Snoo's visual footprint. Generous on
	// purpose so imprecise taps still register.
	HitRadius = 6.0

	// Target placement bounds keep the Snoo fully visible, away from edges
	minTargetPercent = 10.0
	maxTargetPercent = 90.0

	maxScore    = 1000
	minWinScore = 100
)

// IsHit reports whether a click lands within the target's footprint.
// Both points are percent-of-dimension coordinates; the boundary at exactly
// HitRadius counts as a hit.
func IsHit(clickX, clickY, targetX, targetY float64) bool {
	dx := clickX - targetX
	dy := clickY - targetY
	return math.Sqrt(dx*dx+dy*dy) <= HitRadius
}

// ComputeScore maps elapsed seconds to a score: max(1000 - floor(t*10), 100).
// Faster is better; the floor means even a 90+ second win is worth 100.
func ComputeScore(timeFinished float64) int {
	score := maxScore - int(math.Floor(timeFinished*10))
	if score < minWinScore {
		return minWinScore
	}
	return score
}

// RandomPosition draws each axis uniformly from [10, 90] percent
func RandomPosition(rng *rand.Rand) models.Position {
	return models.Position{
		X: minTargetPercent + rng.Float64()*(maxTargetPercent-minTargetPercent),
		Y: minTargetPercent + rng.Float64()*(maxTargetPercent-minTargetPercent),
	}
}
