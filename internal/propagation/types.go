package propagation

import (
	"errors"
	"time"

	"github.com/GSA9429/Satellite-vectors/internal/transform"
)

// ErrPropagation marks an element set that could not be propagated to an instant.
var ErrPropagation = errors.New("propagation failed")

// StateVector is a position/velocity pair in the Earth-fixed frame.
type StateVector struct {
	Position [3]float64 // meters (X, Y, Z in ECEF)
	Velocity [3]float64 // m/s (X, Y, Z in ECEF)
}

// Status tags the result of propagating one element set to one instant.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidElements
	StatusDiverged
	StatusOutOfRange
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidElements:
		return "invalid_elements"
	case StatusDiverged:
		return "diverged"
	case StatusOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one (element set, instant) propagation.
// State is meaningful only when Status is StatusOK; otherwise Err says why.
type Outcome struct {
	Status Status
	State  StateVector
	Err    error
}

// OK reports whether the propagation succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// ResultRow is one in-region sample: when, where (ECEF and geodetic), and which object.
type ResultRow struct {
	Time    time.Time
	NORADID int
	State   StateVector
	Point   transform.GeodeticPoint
}

// Stats counts what a worker did across all the instants it evaluated.
type Stats struct {
	Instants            int
	Propagated          int
	PropagationFailures int
	ConversionFailures  int
	Rows                int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Instants += o.Instants
	s.Propagated += o.Propagated
	s.PropagationFailures += o.PropagationFailures
	s.ConversionFailures += o.ConversionFailures
	s.Rows += o.Rows
}
