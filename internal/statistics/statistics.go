// Package statistics measures how evenly the shuffler distributes cards.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/lox/klondike/internal/deck"
	"github.com/lox/klondike/internal/randutil"
	"golang.org/x/sync/errgroup"
)

// DegreesOfFreedom for a goodness-of-fit test over one deck position
const DegreesOfFreedom = deck.Size - 1

// Chi-square critical values for 51 degrees of freedom
const (
	Critical05  = 68.669
	Critical001 = 86.661
)

// Errors returned by Config.Validate
var (
	ErrNoTrials        = errors.New("trials must be positive")
	ErrInvalidPosition = errors.New("position out of range")
)

// PositionCounts tallies which card lands at one position of a shuffled deck
type PositionCounts struct {
	Position int
	Trials   int
	Counts   [deck.Size]int
}

// NewPositionCounts creates an empty tally for position
func NewPositionCounts(position int) *PositionCounts {
	return &PositionCounts{Position: position}
}

// Add records the card at the tracked position of cards
func (pc *PositionCounts) Add(cards []deck.Card) {
	pc.Counts[cards[pc.Position].Index()]++
	pc.Trials++
}

// Merge folds another tally for the same position into pc
func (pc *PositionCounts) Merge(other *PositionCounts) {
	for i, n := range other.Counts {
		pc.Counts[i] += n
	}
	pc.Trials += other.Trials
}

// Expected returns the count every card would have under a uniform shuffle
func (pc *PositionCounts) Expected() float64 {
	return float64(pc.Trials) / deck.Size
}

// StdDev returns the standard deviation of the per-card counts
func (pc *PositionCounts) StdDev() float64 {
	mean := pc.Expected()
	sum := 0.0
	for _, n := range pc.Counts {
		d := float64(n) - mean
		sum += d * d
	}
	return math.Sqrt(sum / deck.Size)
}

// MinMax returns the smallest and largest per-card counts
func (pc *PositionCounts) MinMax() (int, int) {
	lo, hi := pc.Counts[0], pc.Counts[0]
	for _, n := range pc.Counts[1:] {
		lo = min(lo, n)
		hi = max(hi, n)
	}
	return lo, hi
}

// ChiSquare returns Pearson's statistic for the tally against a uniform distribution
func (pc *PositionCounts) ChiSquare() float64 {
	return ChiSquare(pc.Counts[:], pc.Expected())
}

// ChiSquare returns sum((observed-expected)^2/expected). It returns 0 when
// expected is not positive.
func ChiSquare(observed []int, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	chi := 0.0
	for _, n := range observed {
		d := float64(n) - expected
		chi += d * d / expected
	}
	return chi
}

// Config controls a uniformity run
type Config struct {
	Trials   int
	Workers  int // 0 means one per CPU
	Seed     int64
	Position int
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("%w: %d", ErrNoTrials, c.Trials)
	}
	if c.Position < 0 || c.Position >= deck.Size {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, c.Position)
	}
	return nil
}

// Report summarises a uniformity run
type Report struct {
	Trials    int
	Position  int
	Workers   int
	ChiSquare float64
	StdDev    float64
	MinCount  int
	MaxCount  int
	Counts    *PositionCounts
}

// Uniform reports whether the statistic is below the 0.1% critical value
func (r Report) Uniform() bool {
	return r.ChiSquare < Critical001
}

// String renders the report as a short summary
func (r Report) String() string {
	verdict := "uniform"
	if !r.Uniform() {
		verdict = "NOT uniform"
	}
	return fmt.Sprintf("%d shuffles, position %d: chi2=%.2f (df=%d, crit 0.1%%=%.2f) min=%d max=%d sd=%.2f -> %s",
		r.Trials, r.Position, r.ChiSquare, DegreesOfFreedom, Critical001, r.MinCount, r.MaxCount, r.StdDev, verdict)
}

// Run shuffles cfg.Trials fresh decks across cfg.Workers goroutines and
// tallies the card at cfg.Position. Each worker draws from its own random
// source derived from cfg.Seed, so a run is reproducible for a given seed and
// worker count.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, cfg.Trials)

	perWorker := cfg.Trials / workers
	remainder := cfg.Trials % workers
	seeds := randutil.New(cfg.Seed)

	g, ctx := errgroup.WithContext(ctx)
	results := make(chan *PositionCounts, workers)

	for w := 0; w < workers; w++ {
		trials := perWorker
		if w < remainder {
			trials++
		}
		workerSeed := seeds.Int64()

		g.Go(func() error {
			counts, err := runWorker(ctx, cfg.Position, trials, workerSeed)
			if err != nil {
				return err
			}
			results <- counts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("failed to run shuffle check: %w", err)
	}
	close(results)

	total := NewPositionCounts(cfg.Position)
	for counts := range results {
		total.Merge(counts)
	}

	lo, hi := total.MinMax()
	return Report{
		Trials:    total.Trials,
		Position:  cfg.Position,
		Workers:   workers,
		ChiSquare: total.ChiSquare(),
		StdDev:    total.StdDev(),
		MinCount:  lo,
		MaxCount:  hi,
		Counts:    total,
	}, nil
}

func runWorker(ctx context.Context, position, trials int, seed int64) (*PositionCounts, error) {
	rng := randutil.New(seed)
	base := deck.New()
	counts := NewPositionCounts(position)

	for i := 0; i < trials; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		counts.Add(deck.Shuffle(base, rng))
	}
	return counts, nil
}
