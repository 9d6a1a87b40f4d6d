package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/echothief/config"
	"github.com/pthm-cable/echothief/game"
	"github.com/pthm-cable/echothief/level"
	"github.com/pthm-cable/echothief/telemetry"
)

// Fitness weights.
const (
	weightCatchRate = 1.0
	weightTension   = 0.25
)

// FitnessEvaluator runs headless games and scores guard difficulty.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config
	level      *level.Level

	targetCatchRate float64 // fraction of seeds where the player is caught
	targetTension   float64 // mean guard alert level over the run

	mu          sync.Mutex
	lastOutcome outcome // aggregate from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. The level must have a player.
func NewFitnessEvaluator(params *ParamVector, lvl *level.Level, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:          params,
		maxTicks:        maxTicks,
		seeds:           seeds,
		baseConfig:      baseCfg,
		level:           lvl,
		targetCatchRate: 0.5,
		targetTension:   0.3,
	}
}

// outcome summarizes one or more runs.
type outcome struct {
	catchRate float64
	tension   float64
	seconds   float64 // mean sim time until the session ended
}

// runResult holds the result of a single game.
type runResult struct {
	caught  bool
	ticks   int32
	windows []telemetry.WindowStats
}

// LastOutcome returns the aggregate from the most recent evaluation.
func (fe *FitnessEvaluator) LastOutcome() outcome {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastOutcome
}

// Evaluate scores a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runGame(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	out := summarize(results, cfg.Sim.DT)

	fe.mu.Lock()
	fe.lastOutcome = out
	fe.mu.Unlock()

	return fe.score(out)
}

// score is the weighted squared distance from the targets.
func (fe *FitnessEvaluator) score(o outcome) float64 {
	dc := o.catchRate - fe.targetCatchRate
	dt := o.tension - fe.targetTension
	return weightCatchRate*dc*dc + weightTension*dt*dt
}

// runGame plays one seed until the session ends or maxTicks pass.
func (fe *FitnessEvaluator) runGame(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Level:          fe.level,
		Seed:           seed,
		StatsWindowSec: 1,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windows = append(result.windows, stats)
		},
	})
	if err != nil {
		slog.Error("failed to start game", "seed", seed, "error", err)
		return result
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks && g.Update() {
	}

	result.ticks = g.Tick()
	result.caught = g.Session().State() == game.SessionGameOver
	return result
}

// copyConfig returns a copy of the base config safe to mutate per evaluation.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// summarize averages catch rate, tension and duration over runs.
func summarize(results []*runResult, dt float64) outcome {
	if len(results) == 0 {
		return outcome{}
	}

	var caught int
	var tension, seconds float64
	for _, r := range results {
		if r.caught {
			caught++
		}
		tension += meanAlert(r.windows)
		seconds += float64(r.ticks) * dt
	}

	n := float64(len(results))
	return outcome{
		catchRate: float64(caught) / n,
		tension:   tension / n,
		seconds:   seconds / n,
	}
}

// meanAlert averages the per-window mean guard alert level.
func meanAlert(windows []telemetry.WindowStats) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for _, w := range windows {
		sum += w.MeanAlertLevel
	}
	return clamp01(sum / float64(len(windows)))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
