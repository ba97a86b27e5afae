package propagation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/GSA9429/Satellite-vectors/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go (no CGO), explicit TEME output, includes ECIToECEF and GSTimeFromDate
// for cross-validation of the transform package.
//
// Note: Propagate() takes Satellite by value so SGP4 error codes are not visible
// to the caller. We detect propagation failures by checking output for NaN/Inf
// and unreasonable position magnitudes. Propagate() also only accepts whole
// seconds; see PropagateAt for how sub-second instants are handled.

// muEarth is the WGS-84 gravitational parameter in km³/s².
const muEarth = 398600.4418

// SGP4Propagator wraps the go-satellite library for a single element set.
type SGP4Propagator struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4Propagator creates an SGP4 propagator from TLE lines.
// Returns an error if the TLE cannot be parsed or the SGP4 model fails to initialize.
//
// Pre-validates every field go-satellite parses, because the library calls
// log.Fatal on malformed input (which would kill the whole run).
func NewSGP4Propagator(line1, line2 string, noradID int) (*SGP4Propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, noradID: noradID}, nil
}

// validateTLELines checks line shape and that each numeric field parses the
// way go-satellite will parse it.
func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}

	ints := []struct {
		name, v string
	}{
		{"satnum", strings.TrimSpace(line1[2:7])},
		{"epoch year", line1[18:20]},
	}
	for _, f := range ints {
		if _, err := strconv.Atoi(f.v); err != nil {
			return fmt.Errorf("line1 %s %q: not an integer", f.name, f.v)
		}
	}

	floats := []struct {
		name, v string
	}{
		{"epoch day", line1[20:32]},
		{"ndot", strings.Replace(line1[33:43], " ", "", 2)},
		{"nddot", strings.Replace(line1[44:45]+"."+line1[45:50]+"e"+line1[50:52], " ", "", 2)},
		{"bstar", strings.Replace(line1[53:54]+"."+line1[54:59]+"e"+line1[59:61], " ", "", 2)},
		{"inclination", strings.Replace(line2[8:16], " ", "", 2)},
		{"raan", strings.Replace(line2[17:25], " ", "", 2)},
		{"eccentricity", "." + line2[26:33]},
		{"arg of perigee", strings.Replace(line2[34:42], " ", "", 2)},
		{"mean anomaly", strings.Replace(line2[43:51], " ", "", 2)},
		{"mean motion", strings.Replace(line2[52:63], " ", "", 2)},
	}
	for _, f := range floats {
		if _, err := strconv.ParseFloat(f.v, 64); err != nil {
			return fmt.Errorf("%s %q: not a number", f.name, f.v)
		}
	}
	return nil
}

// Propagate computes the position at a whole-second UTC time.
// Returns position and velocity in TEME frame (km, km/s).
func (p *SGP4Propagator) Propagate(year, month, day, hour, min, sec int) (transform.PositionTEME, error) {
	pos, vel := satellite.Propagate(p.sat, year, month, day, hour, min, sec)
	return checkState(p.noradID, pos, vel)
}

// checkState rejects SGP4 output with any non-finite component or a position
// magnitude outside ~6200-50000 km.
func checkState(noradID int, pos, vel satellite.Vector3) (transform.PositionTEME, error) {
	for _, v := range [...]float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", noradID)
		}
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", noradID, mag)
	}

	return transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}, nil
}

// PropagateAt computes the TEME state at t. The library resolves whole seconds,
// so the state at the enclosing second is advanced by the fractional remainder
// with a second-order two-body step. Over a sub-second interval this adds
// centimetres of error, well under SGP4's own.
func (p *SGP4Propagator) PropagateAt(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	base := t.Truncate(time.Second)

	s, err := p.Propagate(base.Year(), int(base.Month()), base.Day(), base.Hour(), base.Minute(), base.Second())
	if err != nil {
		return s, err
	}

	dt := t.Sub(base).Seconds()
	if dt == 0 {
		return s, nil
	}

	r := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
	k := -muEarth / (r * r * r)
	ax, ay, az := k*s.X, k*s.Y, k*s.Z

	return transform.PositionTEME{
		X:  s.X + s.VX*dt + 0.5*ax*dt*dt,
		Y:  s.Y + s.VY*dt + 0.5*ay*dt*dt,
		Z:  s.Z + s.VZ*dt + 0.5*az*dt*dt,
		VX: s.VX + ax*dt,
		VY: s.VY + ay*dt,
		VZ: s.VZ + az*dt,
	}, nil
}
