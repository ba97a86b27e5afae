package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ErrLoad marks a catalog that could not be obtained or holds no element sets.
var ErrLoad = errors.New("catalog load failed")

// Source says where a catalog comes from. Exactly one of the three is used,
// in order: URL (fetched, then archived in CacheDir), Path, newest file in CacheDir.
type Source struct {
	Path     string
	URL      string
	CacheDir string
	MaxFiles int
}

// Load reads the catalog described by src. Every failure, including an empty
// catalog, wraps ErrLoad.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*Catalog, error) {
	data, origin, err := read(ctx, src, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	sets, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, origin, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: %s holds no element sets", ErrLoad, origin)
	}

	cat := &Catalog{
		Source:      origin,
		LoadedAt:    time.Now(),
		EpochRange:  epochRange(sets),
		ElementSets: sets,
	}
	logger.Info("catalog loaded",
		"source", origin,
		"element_sets", cat.Len(),
		"epoch_min", cat.EpochRange.Min.Format(time.RFC3339),
		"epoch_max", cat.EpochRange.Max.Format(time.RFC3339),
	)
	return cat, nil
}

func read(ctx context.Context, src Source, logger *slog.Logger) ([]byte, string, error) {
	switch {
	case src.URL != "":
		data, err := NewFetcher(src.URL, logger).Fetch(ctx)
		if err != nil {
			return nil, src.URL, err
		}
		if src.CacheDir != "" {
			path, err := NewCache(src.CacheDir, src.MaxFiles).Write(data, time.Now())
			if err != nil {
				// The fetched bytes are still usable for this run.
				logger.Warn("failed to archive fetched catalog", "dir", src.CacheDir, "error", err)
			} else {
				logger.Info("catalog archived", "path", path)
			}
		}
		return data, src.URL, nil

	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, src.Path, fmt.Errorf("reading catalog: %w", err)
		}
		return data, src.Path, nil

	case src.CacheDir != "":
		path, _, err := NewCache(src.CacheDir, src.MaxFiles).Latest()
		if err != nil {
			return nil, src.CacheDir, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, fmt.Errorf("reading cached catalog: %w", err)
		}
		return data, path, nil

	default:
		return nil, "", errors.New("no catalog path, URL or cache directory configured")
	}
}
