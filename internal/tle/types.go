package tle

import "time"

// ElementSet is one tracked object's two-line element set as it appeared in
// the catalog. Lines are kept verbatim; they are validated only when the
// set is propagated.
type ElementSet struct {
	Index   int       // 0-based position in the catalog
	NORADID int       // 0 when line 1 carries no parsable catalog number
	Epoch   time.Time // zero when line 1 carries no parsable epoch
	Line1   string
	Line2   string
}

// EpochRange represents the minimum and maximum epoch times in a catalog.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Catalog is a loaded, immutable sequence of element sets.
type Catalog struct {
	Source      string
	LoadedAt    time.Time
	EpochRange  EpochRange
	ElementSets []ElementSet
}

// Len returns the number of element sets in the catalog.
func (c *Catalog) Len() int {
	return len(c.ElementSets)
}

func epochRange(sets []ElementSet) EpochRange {
	var r EpochRange
	for _, es := range sets {
		if es.Epoch.IsZero() {
			continue
		}
		if r.Min.IsZero() || es.Epoch.Before(r.Min) {
			r.Min = es.Epoch
		}
		if r.Max.IsZero() || es.Epoch.After(r.Max) {
			r.Max = es.Epoch
		}
	}
	return r
}
