// Package region implements the geographic filter applied to ground-track samples.
//
// A Region is the axis-aligned latitude/longitude box spanned by up to four
// corner coordinates. Only the minimum and maximum of the corners are used,
// so it is not a polygon test: a non-rectangular set of corners selects its
// bounding box, and a region meant to straddle the ±180° meridian selects
// the complementary band instead. Both are known limitations.
package region

import (
	"errors"
	"fmt"
	"math"
)

// MaxCorners is the number of corners a region may be described by.
const MaxCorners = 4

// Corner is a [latitude, longitude] pair in degrees.
type Corner [2]float64

// Lat returns the corner latitude.
func (c Corner) Lat() float64 { return c[0] }

// Lon returns the corner longitude.
func (c Corner) Lon() float64 { return c[1] }

// Region is an inclusive latitude/longitude bounding box in degrees.
type Region struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// New builds the bounding box of corners.
func New(corners []Corner) (Region, error) {
	if len(corners) == 0 {
		return Region{}, errors.New("region needs at least one corner")
	}
	if len(corners) > MaxCorners {
		return Region{}, fmt.Errorf("region takes at most %d corners, got %d", MaxCorners, len(corners))
	}

	r := Region{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for i, c := range corners {
		lat, lon := c.Lat(), c.Lon()
		if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return Region{}, fmt.Errorf("corner %d [%v, %v] is not a valid latitude/longitude", i, lat, lon)
		}
		r.MinLat = math.Min(r.MinLat, lat)
		r.MaxLat = math.Max(r.MaxLat, lat)
		r.MinLon = math.Min(r.MinLon, lon)
		r.MaxLon = math.Max(r.MaxLon, lon)
	}
	return r, nil
}

// Globe returns a region that contains every point.
func Globe() Region {
	return Region{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}
}

// Contains reports whether (lat, lon) lies inside the box, boundary included.
func (r Region) Contains(lat, lon float64) bool {
	return r.MinLat <= lat && lat <= r.MaxLat && r.MinLon <= lon && lon <= r.MaxLon
}

func (r Region) String() string {
	return fmt.Sprintf("lat[%g, %g] lon[%g, %g]", r.MinLat, r.MaxLat, r.MinLon, r.MaxLon)
}
