// Package timegrid generates the fixed-step sample instants of a run.
package timegrid

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// ErrInvalidRange is returned for a non-positive step or an end before the start.
var ErrInvalidRange = errors.New("invalid time range")

// Grid is the closed interval [start, end] sampled every step. The zero
// value is not valid; use New.
type Grid struct {
	start time.Time
	end   time.Time
	step  time.Duration
}

// New validates and captures the grid parameters once. Every unit of a run
// shares the same Grid value, so every unit sees the same instants.
func New(start, end time.Time, step time.Duration) (Grid, error) {
	if step <= 0 {
		return Grid{}, fmt.Errorf("%w: step %v must be positive", ErrInvalidRange, step)
	}
	if end.Before(start) {
		return Grid{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			end.Format(time.RFC3339Nano), start.Format(time.RFC3339Nano))
	}
	return Grid{start: start, end: end, step: step}, nil
}

// FromHorizon builds the grid [start, start+horizon].
func FromHorizon(start time.Time, horizon, step time.Duration) (Grid, error) {
	if horizon < 0 {
		return Grid{}, fmt.Errorf("%w: horizon %v is negative", ErrInvalidRange, horizon)
	}
	return New(start, start.Add(horizon), step)
}

func (g Grid) Start() time.Time    { return g.start }
func (g Grid) End() time.Time      { return g.end }
func (g Grid) Step() time.Duration { return g.step }

// Len is the number of instants: floor((end-start)/step) + 1.
func (g Grid) Len() int {
	if g.step <= 0 {
		return 0
	}
	return int(g.end.Sub(g.start)/g.step) + 1
}

// At returns instant i. Instants are computed from the start, not by repeated
// addition, so they do not drift.
func (g Grid) At(i int) time.Time {
	return g.start.Add(time.Duration(i) * g.step)
}

// Instants yields start, start+step, ... while the instant is <= end. The
// sequence is lazy and may be ranged over any number of times.
func (g Grid) Instants() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		n := g.Len()
		for i := 0; i < n; i++ {
			if !yield(g.At(i)) {
				return
			}
		}
	}
}

func (g Grid) String() string {
	return fmt.Sprintf("[%s, %s] every %v (%d instants)",
		g.start.UTC().Format(time.RFC3339Nano), g.end.UTC().Format(time.RFC3339Nano), g.step, g.Len())
}
