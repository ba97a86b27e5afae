package propagation

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GSA9429/Satellite-vectors/internal/region"
	"github.com/GSA9429/Satellite-vectors/internal/tle"
	"github.com/GSA9429/Satellite-vectors/internal/transform"
)

// initResult caches the SGP4 initialization of one element set. A set that
// fails to initialize fails the same way at every instant.
type initResult struct {
	prop *SGP4Propagator
	err  error
}

// lineKey identifies an element set by its content. Index and NORAD id are
// not unique enough: callers may pass sets that share either.
type lineKey [2]string

// Worker propagates one catalog partition at a time and keeps the samples
// that fall inside a region. A Worker is owned by a single execution unit
// and is not safe for concurrent use.
type Worker struct {
	logger *slog.Logger
	props  map[lineKey]initResult
	stats  Stats
}

// NewWorker creates a worker that logs per-object failures at debug level.
func NewWorker(logger *slog.Logger) *Worker {
	return &Worker{
		logger: logger,
		props:  make(map[lineKey]initResult),
	}
}

// Stats returns the counters accumulated over every Evaluate call.
func (w *Worker) Stats() Stats {
	return w.stats
}

// Evaluate propagates every element set of partition to instant and returns
// the rows whose sub-point lies in roi, in partition order. A set that fails
// to propagate or convert is counted and skipped; it never aborts the partition.
// Neither partition nor roi is modified.
func (w *Worker) Evaluate(partition []tle.ElementSet, instant time.Time, roi region.Region) []ResultRow {
	w.stats.Instants++

	// Same GMST for every object at this instant.
	gmst := transform.GMST(instant)

	var rows []ResultRow
	for _, es := range partition {
		out := w.propagate(es, instant, gmst)
		if !out.OK() {
			w.stats.PropagationFailures++
			w.logger.Debug("propagation failed",
				"index", es.Index,
				"norad_id", es.NORADID,
				"status", out.Status.String(),
				"time", instant.UTC().Format(time.RFC3339Nano),
				"error", out.Err,
			)
			continue
		}
		w.stats.Propagated++

		pos := out.State.Position
		pt, err := transform.ToGeodetic(pos[0], pos[1], pos[2])
		if err != nil {
			w.stats.ConversionFailures++
			w.logger.Debug("geodetic conversion failed",
				"index", es.Index,
				"norad_id", es.NORADID,
				"error", err,
			)
			continue
		}

		if !roi.Contains(pt.LatDeg, pt.LonDeg) {
			continue
		}
		rows = append(rows, ResultRow{
			Time:    instant,
			NORADID: es.NORADID,
			State:   out.State,
			Point:   pt,
		})
	}

	w.stats.Rows += len(rows)
	return rows
}

// Propagate returns the tagged ECEF state of es at instant.
func (w *Worker) Propagate(es tle.ElementSet, instant time.Time) Outcome {
	return w.propagate(es, instant, transform.GMST(instant))
}

func (w *Worker) propagate(es tle.ElementSet, instant time.Time, gmst float64) Outcome {
	key := lineKey{es.Line1, es.Line2}
	ir, ok := w.props[key]
	if !ok {
		ir.prop, ir.err = NewSGP4Propagator(es.Line1, es.Line2, es.NORADID)
		w.props[key] = ir
	}
	if ir.err != nil {
		return Outcome{Status: StatusInvalidElements, Err: errors.Join(ErrPropagation, ir.err)}
	}

	teme, err := ir.prop.PropagateAt(instant)
	if err != nil {
		return Outcome{Status: StatusDiverged, Err: errors.Join(ErrPropagation, err)}
	}

	ecef := transform.TEMEToECEFWithGMST(teme, gmst)
	if !transform.InOrbitalRange(ecef) {
		return Outcome{
			Status: StatusOutOfRange,
			Err:    fmt.Errorf("%w: ECEF position [%.0f, %.0f, %.0f] m outside orbital range", ErrPropagation, ecef.X, ecef.Y, ecef.Z),
		}
	}

	return Outcome{
		Status: StatusOK,
		State: StateVector{
			Position: [3]float64{ecef.X, ecef.Y, ecef.Z},
			Velocity: [3]float64{ecef.VX, ecef.VY, ecef.VZ},
		},
	}
}
