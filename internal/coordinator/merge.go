package coordinator

import (
	"cmp"
	"slices"

	"github.com/GSA9429/Satellite-vectors/internal/propagation"
)

// Partial is the ordered result set one unit produced over the whole grid.
type Partial struct {
	Rank  int
	Rows  []propagation.ResultRow
	Stats propagation.Stats
}

// UnitSummary reports what one unit contributed.
type UnitSummary struct {
	Rank  int
	Rows  int
	Stats propagation.Stats
}

// Dataset is the merged output of a run.
type Dataset struct {
	RunID       string
	CatalogSize int
	Dropped     int
	Rows        []propagation.ResultRow
	Units       []UnitSummary
	Stats       propagation.Stats
}

// Merge concatenates partial results in rank order, whatever order they
// arrived in. Rows keep their within-unit order.
func Merge(partials []Partial) *Dataset {
	ordered := slices.Clone(partials)
	slices.SortStableFunc(ordered, func(a, b Partial) int {
		return cmp.Compare(a.Rank, b.Rank)
	})

	n := 0
	for _, p := range ordered {
		n += len(p.Rows)
	}

	ds := &Dataset{
		Rows:  make([]propagation.ResultRow, 0, n),
		Units: make([]UnitSummary, 0, len(ordered)),
	}
	for _, p := range ordered {
		ds.Rows = append(ds.Rows, p.Rows...)
		ds.Stats.Add(p.Stats)
		ds.Units = append(ds.Units, UnitSummary{Rank: p.Rank, Rows: len(p.Rows), Stats: p.Stats})
	}
	return ds
}
