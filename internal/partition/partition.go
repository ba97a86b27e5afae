// Package partition splits a catalog into contiguous per-unit slices.
package partition

import (
	"fmt"
	"slices"
)

// Remainder says what happens to the n mod w items that do not divide evenly.
type Remainder int

const (
	// ToLast appends the leftover items to the last partition.
	ToLast Remainder = iota
	// Drop discards the leftover items: every partition has exactly n/w items.
	Drop
)

// ParseRemainder maps "last" and "drop" to a Remainder.
func ParseRemainder(s string) (Remainder, error) {
	switch s {
	case "last", "":
		return ToLast, nil
	case "drop":
		return Drop, nil
	default:
		return 0, fmt.Errorf("unknown remainder policy %q (want last or drop)", s)
	}
}

func (r Remainder) String() string {
	if r == Drop {
		return "drop"
	}
	return "last"
}

// Split cuts items into workers contiguous partitions of len(items)/workers
// each, in order. Partition i starts at i*(len/workers). The leftover tail is
// handled per policy. The partitions alias items and are clipped so that
// appending to one cannot overwrite its neighbour.
func Split[T any](items []T, workers int, policy Remainder) ([][]T, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count %d must be at least 1", workers)
	}

	size := len(items) / workers
	parts := make([][]T, workers)
	for i := range parts {
		lo, hi := i*size, (i+1)*size
		if i == workers-1 && policy == ToLast {
			hi = len(items)
		}
		parts[i] = slices.Clip(items[lo:hi])
	}
	return parts, nil
}

// Dropped returns how many of n items Split discards under policy.
func Dropped(n, workers int, policy Remainder) int {
	if policy != Drop || workers < 1 {
		return 0
	}
	return n % workers
}
