package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/GSA9429/Satellite-vectors/internal/config"
	"github.com/GSA9429/Satellite-vectors/internal/propagation"
	"github.com/GSA9429/Satellite-vectors/internal/tle"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $"+config.PathEnvVar+")")
	at := flag.String("at", "", "instant to propagate to, RFC 3339 (default now)")
	show := flag.Int("show", 10, "number of failing element sets to list")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		fmt.Println("ERROR loading config:", err)
		os.Exit(1)
	}

	instant := time.Now().UTC()
	if *at != "" {
		instant, err = time.Parse(time.RFC3339Nano, *at)
		if err != nil {
			fmt.Println("ERROR parsing -at:", err)
			os.Exit(1)
		}
	}

	cat, err := tle.Load(context.Background(), tle.Source{
		Path:     cfg.Catalog.Path,
		URL:      cfg.Catalog.URL,
		CacheDir: cfg.Catalog.CacheDir,
		MaxFiles: cfg.Catalog.MaxFiles,
	}, logger)
	if err != nil {
		fmt.Println("ERROR loading catalog:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d element sets from %s\n", cat.Len(), cat.Source)
	fmt.Printf("Epochs: %v .. %v\n", cat.EpochRange.Min.Format(time.RFC3339), cat.EpochRange.Max.Format(time.RFC3339))
	fmt.Printf("Propagating to: %v\n", instant.Format(time.RFC3339Nano))

	w := propagation.NewWorker(logger)
	counts := make(map[propagation.Status]int)
	listed := 0
	for _, es := range cat.ElementSets {
		o := w.Propagate(es, instant)
		counts[o.Status]++
		if !o.OK() && listed < *show {
			fmt.Printf("  #%d NORAD %d: %s: %v\n", es.Index, es.NORADID, o.Status, o.Err)
			listed++
		}
	}

	fmt.Println()
	for _, s := range []propagation.Status{
		propagation.StatusOK,
		propagation.StatusInvalidElements,
		propagation.StatusDiverged,
		propagation.StatusOutOfRange,
	} {
		fmt.Printf("%-18s %d\n", s, counts[s])
	}
}
