package propagation

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/GSA9429/Satellite-vectors/internal/transform"
)

// ISS TLE (epoch 2024, will still propagate reasonably for near-future times).
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

// Starlink TLE (typical LEO constellation satellite).
const (
	starlinkLine1 = "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995"
	starlinkLine2 = "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func norm(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

// TestPropagateSingle verifies that a single satellite can be propagated
// and that the ECEF output is reasonable.
func TestPropagateSingle(t *testing.T) {
	prop, err := NewSGP4Propagator(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewSGP4Propagator failed: %v", err)
	}

	target := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	teme, err := prop.PropagateAt(target)
	if err != nil {
		t.Fatalf("PropagateAt failed: %v", err)
	}

	// ISS orbits ~420 km up: ~6791 km from the centre.
	mag := norm(teme.X, teme.Y, teme.Z)
	if mag < 6500 || mag > 7000 {
		t.Errorf("TEME position magnitude = %.1f km, expected ~6791 km (ISS orbit)", mag)
	}

	ecef := transform.TEMEToECEF(teme, target)
	if !transform.InOrbitalRange(ecef) {
		t.Errorf("ECEF position failed validation: [%.1f, %.1f, %.1f] m", ecef.X, ecef.Y, ecef.Z)
	}
	if ecefMag := norm(ecef.X, ecef.Y, ecef.Z) / 1000.0; math.Abs(ecefMag-mag) > 0.01 {
		t.Errorf("ECEF magnitude = %.3f km, TEME magnitude = %.3f km (should match)", ecefMag, mag)
	}
}

func TestPropagateInvalidTLE(t *testing.T) {
	corrupt := func(line string, at int, with string) string {
		return line[:at] + with + line[at+len(with):]
	}

	tests := []struct {
		name         string
		line1, line2 string
	}{
		{"garbage", "invalid line 1", "invalid line 2"},
		{"swapped lines", issLine2, issLine1},
		{"short line2", issLine1, issLine2[:60]},
		{"letters in mean motion", issLine1, corrupt(issLine2, 52, "15.5abc0000")},
		{"letters in eccentricity", issLine1, corrupt(issLine2, 26, "00x1000")},
		{"letters in bstar", corrupt(issLine1, 53, " 1O270-3"), issLine2},
		{"bad epoch year", corrupt(issLine1, 18, "2x"), issLine2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSGP4Propagator(tt.line1, tt.line2, 99999); err == nil {
				t.Fatal("expected error for invalid TLE, got nil")
			}
		})
	}
}

func TestValidateTLELinesAcceptsReal(t *testing.T) {
	pairs := [][2]string{
		{issLine1, issLine2},
		{starlinkLine1, starlinkLine2},
		{
			"1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994",
			"2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533",
		},
	}
	for _, p := range pairs {
		if err := validateTLELines(p[0], p[1]); err != nil {
			t.Errorf("validateTLELines(%q): %v", strings.Fields(p[0])[1], err)
		}
	}
}

// TestPropagateAtSubSecond checks that fractional seconds move the satellite
// along its track instead of snapping to the enclosing second.
func TestPropagateAtSubSecond(t *testing.T) {
	prop, err := NewSGP4Propagator(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewSGP4Propagator failed: %v", err)
	}

	base := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	s0, err := prop.PropagateAt(base)
	if err != nil {
		t.Fatal(err)
	}
	sHalf, err := prop.PropagateAt(base.Add(500 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	sAlmost, err := prop.PropagateAt(base.Add(999 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	s1, err := prop.PropagateAt(base.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}

	speed := norm(s0.VX, s0.VY, s0.VZ) // km/s
	moved := norm(sHalf.X-s0.X, sHalf.Y-s0.Y, sHalf.Z-s0.Z)
	if math.Abs(moved-0.5*speed) > 0.005*speed {
		t.Errorf("moved %.4f km in 0.5 s, want ~%.4f km", moved, 0.5*speed)
	}

	// The extrapolated state 1 ms before the next whole second must meet
	// the library's own state at that second.
	gap := norm(s1.X-sAlmost.X, s1.Y-sAlmost.Y, s1.Z-sAlmost.Z) * 1000 // meters
	if gap > 20 {
		t.Errorf("gap between t+999ms and t+1s = %.2f m, want < 20 m", gap)
	}
}

func TestCheckStateRejectsNonFinite(t *testing.T) {
	pos := satellite.Vector3{X: 6778, Y: 0, Z: 0}
	vel := satellite.Vector3{X: 0, Y: 7.5, Z: 0}

	if _, err := checkState(1, pos, vel); err != nil {
		t.Fatalf("finite LEO state rejected: %v", err)
	}

	tests := []struct {
		name     string
		pos, vel satellite.Vector3
	}{
		{"NaN position", satellite.Vector3{X: math.NaN(), Y: 0, Z: 6778}, vel},
		{"Inf position", satellite.Vector3{X: math.Inf(1), Y: 0, Z: 0}, vel},
		{"NaN velocity", pos, satellite.Vector3{X: 0, Y: math.NaN(), Z: 0}},
		{"+Inf velocity", pos, satellite.Vector3{X: math.Inf(1), Y: 7.5, Z: 0}},
		{"-Inf velocity", pos, satellite.Vector3{X: 0, Y: 7.5, Z: math.Inf(-1)}},
		{"inside the Earth", satellite.Vector3{X: 1000, Y: 0, Z: 0}, vel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := checkState(1, tt.pos, tt.vel); err == nil {
				t.Errorf("checkState(%v, %v) = nil error, want rejection", tt.pos, tt.vel)
			}
		})
	}
}
