package service

import (
	"math/rand"
	"testing"
)

func TestIsHit(t *testing.T) {
	tests := []struct {
		name             string
		clickX, clickY   float64
		targetX, targetY float64
		want             bool
	}{
		{
			name:   "dead center",
			clickX: 50, clickY: 50, targetX: 50, targetY: 50,
			want: true,
		},
		{
			name:   "inside radius",
			clickX: 53, clickY: 52, targetX: 50, targetY: 50,
			want: true,
		},
		{
			name:   "exactly on boundary horizontal",
			clickX: 56, clickY: 50, targetX: 50, targetY: 50,
			want: true,
		},
		{
			name:   "exactly on boundary vertical",
			clickX: 20, clickY: 36, targetX: 20, targetY: 30,
			want: true,
		},
		{
			name:   "just outside boundary",
			clickX: 56.01, clickY: 50, targetX: 50, targetY: 50,
			want: false,
		},
		{
			name:   "far miss",
			clickX: 10, clickY: 10, targetX: 80, targetY: 80,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsHit(tt.clickX, tt.clickY, tt.targetX, tt.targetY)
			if got != tt.want {
				t.Errorf("IsHit(%v,%v,%v,%v) = %v, want %v",
					tt.clickX, tt.clickY, tt.targetX, tt.targetY, got, tt.want)
			}
		})
	}
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name         string
		timeFinished float64
		want         int
	}{
		{name: "instant win", timeFinished: 0, want: 1000},
		{name: "five seconds", timeFinished: 5.0, want: 950},
		{name: "ten seconds", timeFinished: 10.0, want: 900},
		{name: "floor boundary", timeFinished: 90.0, want: 100},
		{name: "past the floor", timeFinished: 95.0, want: 100},
		{name: "absurdly slow", timeFinished: 100000, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.timeFinished)
			if got != tt.want {
				t.Errorf("ComputeScore(%v) = %d, want %d", tt.timeFinished, got, tt.want)
			}
		})
	}
}

func TestComputeScoreMonotonic(t *testing.T) {
	prev := ComputeScore(0)
	for i := 1; i <= 1200; i++ {
		elapsed := float64(i) / 10.0
		score := ComputeScore(elapsed)
		if score > prev {
			t.Fatalf("score increased with time: ComputeScore(%v)=%d > %d", elapsed, score, prev)
		}
		if score < 100 {
			t.Fatalf("score fell below the floor: ComputeScore(%v)=%d", elapsed, score)
		}
		prev = score
	}
}

func TestRandomPositionBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		pos := RandomPosition(rng)
		if pos.X < 10 || pos.X > 90 {
			t.Fatalf("x out of [10,90]: %v", pos.X)
		}
		if pos.Y < 10 || pos.Y > 90 {
			t.Fatalf("y out of [10,90]: %v", pos.Y)
		}
	}
}
