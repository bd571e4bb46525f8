package jobs

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"backend/internal/service"
)

// SimulationManager drives synthetic players through full
// init -> click -> complete runs against the game service.
// Bypasses the HTTP layer, same as hitting the service from a handler.
type SimulationManager struct {
	game   *service.GameService
	postID string

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Metrics
	gamesPlayed atomic.Int64
	winsPlayed  atomic.Int64
	errorCount  atomic.Int64
	startTime   time.Time

	tickInterval time.Duration
	rng          *rand.Rand
}

// SimulatorConfig holds configuration for the simulator
type SimulatorConfig struct {
	PostID       string        // Post whose board the bots play on
	TickInterval time.Duration // One full game per tick, default 2s
	Seed         int64         // 0 seeds from the clock
}

// NewSimulationManager creates a new simulation manager
func NewSimulationManager(game *service.GameService, config SimulatorConfig) *SimulationManager {
	if config.TickInterval == 0 {
		config.TickInterval = 2 * time.Second
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}

	return &SimulationManager{
		game:         game,
		postID:       config.PostID,
		stopCh:       make(chan struct{}),
		tickInterval: config.TickInterval,
		rng:          rand.New(rand.NewSource(config.Seed)),
	}
}

// Start begins the simulation loop
func (sm *SimulationManager) Start(ctx context.Context) error {
	if !sm.running.CompareAndSwap(false, true) {
		return fmt.Errorf("simulation already running")
	}

	sm.startTime = time.Now()
	sm.wg.Add(1)

	go func() {
		defer sm.wg.Done()

		ticker := time.NewTicker(sm.tickInterval)
		defer ticker.Stop()

		log.Printf("Simulator started: one game per %v on post %s", sm.tickInterval, sm.postID)

		for {
			select {
			case <-ticker.C:
				if err := sm.playOnce(ctx); err != nil {
					sm.errorCount.Add(1)
					log.Printf("Simulator game failed: %v", err)
				}
			case <-sm.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// playOnce runs a single bot through a full game. The bot fumbles a random
// number of misses, then either finds the Snoo or runs out of lives.
func (sm *SimulationManager) playOnce(ctx context.Context) error {
	session, err := sm.game.InitGame(ctx, sm.postID)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	misses := sm.rng.Intn(service.StartingLives + 1)
	for i := 0; i < misses; i++ {
		// Click the opposite corner of the target's quadrant, guaranteed out
		// of the hit radius.
		missX := 95.0
		if session.SnooPosition.X > 50 {
			missX = 5.0
		}
		missY := 95.0
		if session.SnooPosition.Y > 50 {
			missY = 5.0
		}
		if _, _, err := sm.game.Click(ctx, session.GameID, missX, missY); err != nil {
			return fmt.Errorf("miss click: %w", err)
		}
	}

	won := misses < service.StartingLives
	if won {
		_, hit, err := sm.game.Click(ctx, session.GameID, session.SnooPosition.X, session.SnooPosition.Y)
		if err != nil {
			return fmt.Errorf("hit click: %w", err)
		}
		won = hit
	}

	elapsed := 2.0 + sm.rng.Float64()*50.0
	username := fmt.Sprintf("sim_bot_%02d", sm.rng.Intn(20))
	if _, err := sm.game.Complete(ctx, session.GameID, username, won, elapsed); err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	sm.gamesPlayed.Add(1)
	if won {
		sm.winsPlayed.Add(1)
	}
	return nil
}

// Stop halts the simulation and logs final stats
func (sm *SimulationManager) Stop() {
	if !sm.running.CompareAndSwap(true, false) {
		return
	}

	close(sm.stopCh)
	sm.wg.Wait()

	elapsed := time.Since(sm.startTime)
	log.Printf("Simulator stopped: %d games (%d wins, %d errors) in %v",
		sm.gamesPlayed.Load(), sm.winsPlayed.Load(), sm.errorCount.Load(), elapsed.Round(time.Second))
}

// Stats returns a snapshot of simulator counters
func (sm *SimulationManager) Stats() map[string]int64 {
	return map[string]int64{
		"games_played": sm.gamesPlayed.Load(),
		"wins_played":  sm.winsPlayed.Load(),
		"errors":       sm.errorCount.Load(),
	}
}
