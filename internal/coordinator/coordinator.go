package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GSA9429/Satellite-vectors/internal/metrics"
	"github.com/GSA9429/Satellite-vectors/internal/partition"
	"github.com/GSA9429/Satellite-vectors/internal/propagation"
	"github.com/GSA9429/Satellite-vectors/internal/region"
	"github.com/GSA9429/Satellite-vectors/internal/timegrid"
	"github.com/GSA9429/Satellite-vectors/internal/tle"
)

// root is the rank that loads, broadcasts and reduces.
const root = 0

// Stage names the part of the protocol a unit was in.
type Stage string

const (
	StageLoad      Stage = "load"
	StageBroadcast Stage = "broadcast"
	StageDispatch  Stage = "dispatch"
	StageGather    Stage = "gather"
	StageMerge     Stage = "merge"
)

var (
	// ErrBroadcast marks a unit that never received the catalog.
	ErrBroadcast = errors.New("catalog broadcast failed")
	// ErrGather marks a reduction that did not receive every partial result.
	ErrGather = errors.New("gather failed")
)

// UnitError identifies which unit failed and where.
type UnitError struct {
	Rank  int
	Stage Stage
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d failed during %s: %v", e.Rank, e.Stage, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Evaluator produces the in-region rows of one partition at one instant.
// Each unit gets its own Evaluator; it is never shared between goroutines.
type Evaluator interface {
	Evaluate(part []tle.ElementSet, instant time.Time, roi region.Region) []propagation.ResultRow
	Stats() propagation.Stats
}

// EvaluatorFactory builds the Evaluator for a unit.
type EvaluatorFactory func(rank int, logger *slog.Logger) Evaluator

// SGP4Evaluator is the default factory: an SGP4 propagation worker per unit.
func SGP4Evaluator(rank int, logger *slog.Logger) Evaluator {
	return propagation.NewWorker(logger)
}

// LoadFunc obtains the catalog. Only the root unit calls it.
type LoadFunc func(ctx context.Context) (*tle.Catalog, error)

// Config holds the immutable inputs shared by every unit of a run.
type Config struct {
	Workers       int
	Remainder     partition.Remainder
	Grid          timegrid.Grid
	Region        region.Region
	GatherTimeout time.Duration // 0 waits for every unit indefinitely
}

// Coordinator drives runs. It holds no per-run state and may be reused.
type Coordinator struct {
	cfg          Config
	logger       *slog.Logger
	newEvaluator EvaluatorFactory
	onStage      func(Stage)
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithEvaluator replaces the SGP4 evaluator.
func WithEvaluator(f EvaluatorFactory) Option {
	return func(c *Coordinator) { c.newEvaluator = f }
}

// WithStageHook is called by the root unit each time the run enters a stage.
func WithStageHook(f func(Stage)) Option {
	return func(c *Coordinator) { c.onStage = f }
}

// New validates cfg and returns a Coordinator.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Coordinator, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("worker count %d must be at least 1", cfg.Workers)
	}
	if cfg.Grid.Len() < 1 {
		return nil, fmt.Errorf("%w: empty time grid", timegrid.ErrInvalidRange)
	}
	if cfg.GatherTimeout < 0 {
		return nil, fmt.Errorf("gather timeout %v must not be negative", cfg.GatherTimeout)
	}

	c := &Coordinator{
		cfg:          cfg,
		logger:       logger,
		newEvaluator: SGP4Evaluator,
		onStage:      func(Stage) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run executes one complete run and returns the merged dataset. On any
// run-level failure it returns a *UnitError and no dataset. When the gather
// timeout expires Run returns at once; units still inside Evaluate are
// abandoned and exit on their own once it returns.
func (c *Coordinator) Run(ctx context.Context, load LoadFunc) (*Dataset, error) {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("run starting",
		"workers", c.cfg.Workers,
		"grid", c.cfg.Grid.String(),
		"region", c.cfg.Region.String(),
		"remainder", c.cfg.Remainder.String(),
	)

	g, gctx := errgroup.WithContext(ctx)

	inboxes := make([]chan []tle.ElementSet, c.cfg.Workers)
	for i := range inboxes {
		inboxes[i] = make(chan []tle.ElementSet, 1)
	}
	gather := make(chan Partial, c.cfg.Workers)
	abandon := make(chan error, 1)

	var ds *Dataset
	for rank := 0; rank < c.cfg.Workers; rank++ {
		g.Go(func() error {
			if rank == root {
				var err error
				ds, err = c.reduce(gctx, logger, load, inboxes, gather, abandon)
				return err
			}
			return c.unit(gctx, logger, rank, inboxes[rank], gather)
		})
	}

	waited := make(chan error, 1)
	go func() { waited <- g.Wait() }()

	var err error
	select {
	case err = <-waited:
	case err = <-abandon:
		logger.Warn("abandoning units that did not finish before the gather timeout")
	}
	if err != nil {
		logger.Error("run failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	ds.RunID = runID
	elapsed := time.Since(start)
	metrics.ObserveRun(elapsed)
	logger.Info("run complete",
		"rows", len(ds.Rows),
		"propagated", ds.Stats.Propagated,
		"propagation_failures", ds.Stats.PropagationFailures,
		"conversion_failures", ds.Stats.ConversionFailures,
		"duration_ms", elapsed.Milliseconds(),
	)
	return ds, nil
}

// reduce is the root unit: load, broadcast, dispatch its own partition, then
// gather and merge everyone's partial results. A gather timeout is also
// sent on abandon so Run need not wait for the late units.
func (c *Coordinator) reduce(ctx context.Context, logger *slog.Logger, load LoadFunc, inboxes []chan []tle.ElementSet, gather <-chan Partial, abandon chan<- error) (*Dataset, error) {
	c.onStage(StageLoad)
	cat, err := load(ctx)
	if err != nil {
		return nil, &UnitError{Rank: root, Stage: StageLoad, Err: err}
	}
	if cat == nil || cat.Len() == 0 {
		return nil, &UnitError{Rank: root, Stage: StageLoad, Err: fmt.Errorf("%w: catalog is empty", tle.ErrLoad)}
	}

	c.onStage(StageBroadcast)
	// Each unit owns its copy; inboxes are buffered so this never blocks.
	for _, in := range inboxes {
		in <- slices.Clone(cat.ElementSets)
	}
	dropped := partition.Dropped(cat.Len(), c.cfg.Workers, c.cfg.Remainder)
	metrics.SetCatalog(cat.Len(), dropped)
	logger.Info("catalog broadcast",
		"source", cat.Source,
		"element_sets", cat.Len(),
		"per_unit", cat.Len()/c.cfg.Workers,
	)
	if dropped > 0 {
		logger.Warn("remainder policy drops element sets from every partition",
			"dropped", dropped,
			"element_sets", cat.Len(),
			"workers", c.cfg.Workers,
		)
	}

	c.onStage(StageDispatch)
	elems, err := receive(ctx, root, inboxes[root])
	if err != nil {
		return nil, err
	}
	own, err := c.dispatch(ctx, logger, root, elems)
	if err != nil {
		return nil, err
	}

	c.onStage(StageGather)
	partials := make([]Partial, c.cfg.Workers)
	got := make([]bool, c.cfg.Workers)
	partials[root], got[root] = own, true

	var timeout <-chan time.Time
	if c.cfg.GatherTimeout > 0 {
		timer := time.NewTimer(c.cfg.GatherTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for received := 1; received < c.cfg.Workers; {
		select {
		case p := <-gather:
			if p.Rank < 0 || p.Rank >= c.cfg.Workers || got[p.Rank] {
				return nil, &UnitError{Rank: root, Stage: StageGather, Err: fmt.Errorf("%w: unexpected contribution from rank %d", ErrGather, p.Rank)}
			}
			partials[p.Rank], got[p.Rank] = p, true
			received++
		case <-ctx.Done():
			return nil, &UnitError{Rank: root, Stage: StageGather, Err: fmt.Errorf("%w: %w (missing ranks %v)", ErrGather, ctx.Err(), missing(got))}
		case <-timeout:
			err := &UnitError{Rank: root, Stage: StageGather, Err: fmt.Errorf("%w: ranks %v did not contribute within %v", ErrGather, missing(got), c.cfg.GatherTimeout)}
			abandon <- err
			return nil, err
		}
	}

	c.onStage(StageMerge)
	ds := Merge(partials)
	ds.CatalogSize = cat.Len()
	ds.Dropped = dropped
	return ds, nil
}

// unit is every non-root rank: receive, dispatch, contribute.
func (c *Coordinator) unit(ctx context.Context, logger *slog.Logger, rank int, inbox <-chan []tle.ElementSet, gather chan<- Partial) error {
	elems, err := receive(ctx, rank, inbox)
	if err != nil {
		return err
	}
	p, err := c.dispatch(ctx, logger, rank, elems)
	if err != nil {
		return err
	}

	select {
	case gather <- p:
		return nil
	case <-ctx.Done():
		return &UnitError{Rank: rank, Stage: StageGather, Err: fmt.Errorf("%w: %w", ErrGather, ctx.Err())}
	}
}

func receive(ctx context.Context, rank int, inbox <-chan []tle.ElementSet) ([]tle.ElementSet, error) {
	select {
	case elems := <-inbox:
		return elems, nil
	case <-ctx.Done():
		return nil, &UnitError{Rank: rank, Stage: StageBroadcast, Err: fmt.Errorf("%w: %w", ErrBroadcast, ctx.Err())}
	}
}

// dispatch walks the full grid over this unit's partition. Rows accumulate in
// instant order, then partition order within an instant.
func (c *Coordinator) dispatch(ctx context.Context, logger *slog.Logger, rank int, elems []tle.ElementSet) (p Partial, err error) {
	log := logger.With("rank", rank, "stage", string(StageDispatch))

	defer func() {
		if r := recover(); r != nil {
			err = &UnitError{Rank: rank, Stage: StageDispatch, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	parts, err := partition.Split(elems, c.cfg.Workers, c.cfg.Remainder)
	if err != nil {
		return Partial{}, &UnitError{Rank: rank, Stage: StageDispatch, Err: err}
	}
	mine := parts[rank]
	ev := c.newEvaluator(rank, log)

	log.Debug("unit dispatching", "element_sets", len(mine), "instants", c.cfg.Grid.Len())

	start := time.Now()
	var rows []propagation.ResultRow
	for instant := range c.cfg.Grid.Instants() {
		if err := ctx.Err(); err != nil {
			return Partial{}, &UnitError{Rank: rank, Stage: StageDispatch, Err: err}
		}
		rows = append(rows, ev.Evaluate(mine, instant, c.cfg.Region)...)
	}
	elapsed := time.Since(start)

	st := ev.Stats()
	metrics.RecordUnit(rank, st, elapsed)
	log.Info("unit dispatch complete",
		"element_sets", len(mine),
		"rows", len(rows),
		"propagation_failures", st.PropagationFailures,
		"conversion_failures", st.ConversionFailures,
		"duration_ms", elapsed.Milliseconds(),
	)

	return Partial{Rank: rank, Rows: rows, Stats: st}, nil
}

func missing(got []bool) []int {
	var ranks []int
	for r, ok := range got {
		if !ok {
			ranks = append(ranks, r)
		}
	}
	return ranks
}
