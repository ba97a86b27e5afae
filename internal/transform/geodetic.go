package transform

import (
	"errors"
	"fmt"
	"math"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// ErrConversion is returned when an Earth-fixed position cannot be converted
// to geodetic coordinates.
var ErrConversion = errors.New("geodetic conversion failed")

// GeodeticPoint holds a geodetic position (longitude/latitude in degrees, altitude in meters).
type GeodeticPoint struct {
	LonDeg, LatDeg, AltM float64
}

// ToGeodetic converts an ECEF position (meters) to WGS-84 geodetic coordinates.
// Non-finite input yields ErrConversion instead of a NaN point.
func ToGeodetic(x, y, z float64) (GeodeticPoint, error) {
	if !finite(x) || !finite(y) || !finite(z) {
		return GeodeticPoint{}, fmt.Errorf("%w: non-finite position [%g, %g, %g]", ErrConversion, x, y, z)
	}
	p := ECEFToGeodetic(x, y, z)
	if !finite(p.LatDeg) || !finite(p.LonDeg) || !finite(p.AltM) {
		return GeodeticPoint{}, fmt.Errorf("%w: no solution for [%g, %g, %g]", ErrConversion, x, y, z)
	}
	return p, nil
}

// ECEFToGeodetic converts ECEF coordinates (meters) to geodetic coordinates
// using the iterative Bowring method. Converges in 2-3 iterations for Earth orbits.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)

	p := math.Sqrt(x*x + y*y)

	// Initial estimate using Bowring's method.
	lat := math.Atan2(z, p*(1-wgs84E2))

	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	switch {
	case math.Abs(cosLat) > 1e-10:
		alt = p/cosLat - N
	case sinLat != 0:
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	default:
		alt = -N
	}

	return GeodeticPoint{
		LonDeg: lon * 180.0 / math.Pi,
		LatDeg: lat * 180.0 / math.Pi,
		AltM:   alt,
	}
}

// GeodeticToECEF converts WGS-84 geodetic coordinates (degrees, meters above
// the ellipsoid) to ECEF meters.
func GeodeticToECEF(latDeg, lonDeg, altM float64) (x, y, z float64) {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x = (N + altM) * cosLat * math.Cos(lon)
	y = (N + altM) * cosLat * math.Sin(lon)
	z = (N*(1-wgs84E2) + altM) * sinLat
	return x, y, z
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
