// Package transform converts SGP4 output into the frames a ground track is
// reported in.
//
// SGP4 produces TEME (True Equator Mean Equinox) vectors in km. They are
// rotated into ECEF (Earth-Centered Earth-Fixed) by Greenwich mean sidereal
// time alone, so TEME → PEF is taken as ECEF: polar motion and the equation of
// the equinoxes are ignored, an error of at most about 50 m. ECEF positions are
// then converted to WGS-84 geodetic coordinates for region filtering.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

const (
	secondsPerDay = 86400.0
	jdJ2000       = 2451545.0
)

// j2000 is the J2000.0 epoch. UT1 is taken as UTC throughout.
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// PositionTEME is an SGP4 state in the TEME frame.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// PositionECEF is a state in the Earth-fixed frame.
type PositionECEF struct {
	X, Y, Z    float64 // meters
	VX, VY, VZ float64 // m/s
}

// daysSinceJ2000 is exact to the nanosecond for instants within ±292 years
// of 2000, which time.Duration can represent.
func daysSinceJ2000(t time.Time) float64 {
	d := t.Sub(j2000)
	whole := d / (24 * time.Hour)
	frac := d - whole*24*time.Hour
	return float64(whole) + frac.Seconds()/secondsPerDay
}

// JulianDate returns the Julian Date of t.
func JulianDate(t time.Time) float64 {
	return jdJ2000 + daysSinceJ2000(t)
}

// GMST returns Greenwich mean sidereal time in radians, in [0, 2π), using
// the IAU-82 model (Vallado Eq. 3-47):
//
//	θ = 67310.54841 + (876600h + 8640184.812866)·T + 0.093104·T² − 6.2e-6·T³  [s]
//
// with T in Julian centuries of UT1 since J2000.0.
func GMST(t time.Time) float64 {
	T := daysSinceJ2000(t) / 36525

	sec := 67310.54841 + T*(876600*3600+8640184.812866+T*(0.093104-6.2e-6*T))
	sec = math.Mod(sec, secondsPerDay)
	if sec < 0 {
		sec += secondsPerDay
	}
	return sec * (2 * math.Pi / secondsPerDay)
}

// TEMEToECEF rotates a TEME state (km, km/s) at t into ECEF (m, m/s).
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST is TEMEToECEF with the sidereal angle already known,
// so a whole partition at one instant shares a single GMST evaluation.
//
//	r_ECEF = R3(θ)·r_TEME
//	v_ECEF = R3(θ)·v_TEME − ω × r_ECEF,  ω = [0, 0, OmegaEarth]
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	sin, cos := math.Sincos(gmst)

	x, y := rotZ(teme.X, teme.Y, sin, cos)
	vx, vy := rotZ(teme.VX, teme.VY, sin, cos)
	vx += OmegaEarth * y
	vy -= OmegaEarth * x

	const m = 1000.0
	return PositionECEF{
		X: x * m, Y: y * m, Z: teme.Z * m,
		VX: vx * m, VY: vy * m, VZ: teme.VZ * m,
	}
}

// rotZ applies R3(θ) to the (x, y) components.
func rotZ(x, y, sin, cos float64) (float64, float64) {
	return x*cos + y*sin, -x*sin + y*cos
}

// Orbital radius bounds accepted by InOrbitalRange: just below the Earth's
// surface out to beyond GEO.
const (
	MinOrbitalRadius = 6200e3  // m
	MaxOrbitalRadius = 50000e3 // m
)

// InOrbitalRange reports whether pos is finite and its distance from the
// geocentre is within [MinOrbitalRadius, MaxOrbitalRadius].
func InOrbitalRange(pos PositionECEF) bool {
	if !finite(pos.X) || !finite(pos.Y) || !finite(pos.Z) {
		return false
	}
	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	return r >= MinOrbitalRadius && r <= MaxOrbitalRadius
}
