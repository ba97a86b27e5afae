// Package config loads run configuration in three layers: built-in defaults,
// an optional YAML file, then GROUNDTRACK_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/GSA9429/Satellite-vectors/internal/partition"
	"github.com/GSA9429/Satellite-vectors/internal/region"
)

const (
	// EnvPrefix scopes the environment variables read as overrides.
	EnvPrefix = "GROUNDTRACK_"
	// PathEnvVar names the config file when no -config flag is given.
	PathEnvVar = EnvPrefix + "CONFIG"
)

// Config is the full run configuration, one section per concern.
type Config struct {
	Catalog CatalogConfig `koanf:"catalog"`
	Region  RegionConfig  `koanf:"region"`
	Run     RunConfig     `koanf:"run"`
	Output  OutputConfig  `koanf:"output"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// CatalogConfig selects where the TLE catalog comes from. URL wins over
// Path; with neither, the newest archived catalog in CacheDir is used.
type CatalogConfig struct {
	Path     string `koanf:"path"`
	URL      string `koanf:"url" validate:"omitempty,url"`
	CacheDir string `koanf:"cache_dir"`
	MaxFiles int    `koanf:"max_files" validate:"gte=0"`
}

// RegionConfig holds one to four [lat, lon] corners in degrees. The region
// of interest is their bounding box.
type RegionConfig struct {
	Corners []region.Corner `koanf:"corners" validate:"min=1,max=4,dive,corner"`
}

// RunConfig sets the time grid, the unit count and how the coordinator
// treats partition remainders and late units.
type RunConfig struct {
	Start         string        `koanf:"start"` // RFC 3339; empty means process start
	Horizon       time.Duration `koanf:"horizon"`
	Step          time.Duration `koanf:"step" validate:"gt=0"`
	Workers       int           `koanf:"workers" validate:"gte=1"`
	Remainder     string        `koanf:"remainder" validate:"oneof=last drop"`
	GatherTimeout time.Duration `koanf:"gather_timeout" validate:"gte=0"`
}

// OutputConfig names the CSV file the merged rows are written to.
type OutputConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// MetricsConfig enables the /metrics listener (Addr) and a post-run dump of
// all metrics in text format (Textfile). Both are off when empty.
type MetricsConfig struct {
	Addr     string `koanf:"addr"`
	Textfile string `koanf:"textfile"`
}

// LogConfig sets the minimum slog level.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path:     "27000sats.txt",
			CacheDir: "data/tle",
			MaxFiles: 10,
		},
		Region: RegionConfig{
			Corners: []region.Corner{{90, 120}, {90, -90}, {-90, 150}, {-90, -20}},
		},
		Run: RunConfig{
			Horizon:   24 * time.Hour,
			Step:      100 * time.Millisecond,
			Workers:   runtime.NumCPU(),
			Remainder: "last",
		},
		Output: OutputConfig{
			Path: "satellite_positions.csv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load layers defaults, the YAML file at path (skipped when path is empty)
// and the environment, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := parseCornersString(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file named by the flag value, falling back to
// GROUNDTRACK_CONFIG.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(PathEnvVar)
}

// envKey maps GROUNDTRACK_RUN_GATHER_TIMEOUT to run.gather_timeout: the
// first segment is the section, the rest is the key.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	return section + "." + rest
}

// parseCornersString expands region.corners given as a string, which is how
// it arrives from the environment: "lat,lon;lat,lon".
func parseCornersString(k *koanf.Koanf) error {
	raw, ok := k.Get("region.corners").(string)
	if !ok {
		return nil
	}

	var corners []region.Corner
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		latStr, lonStr, ok := strings.Cut(pair, ",")
		if !ok {
			return fmt.Errorf("region.corners: %q is not lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return fmt.Errorf("region.corners: latitude %q: %w", latStr, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return fmt.Errorf("region.corners: longitude %q: %w", lonStr, err)
		}
		corners = append(corners, region.Corner{lat, lon})
	}
	return k.Set("region.corners", corners)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// corner is a [lat, lon] pair in degrees.
	err := v.RegisterValidation("corner", func(fl validator.FieldLevel) bool {
		c, ok := fl.Field().Interface().(region.Corner)
		if !ok {
			return false
		}
		return c.Lat() >= -90 && c.Lat() <= 90 && c.Lon() >= -180 && c.Lon() <= 180
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks field constraints and that derived values parse.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Run.StartTime(time.Time{}); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// StartTime parses run.start, or returns now when it is empty. Callers
// capture now once so every unit shares the same grid origin.
func (r RunConfig) StartTime(now time.Time) (time.Time, error) {
	if r.Start == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339Nano, r.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("run.start %q: %w", r.Start, err)
	}
	return t.UTC(), nil
}

// RemainderPolicy parses run.remainder.
func (r RunConfig) RemainderPolicy() (partition.Remainder, error) {
	return partition.ParseRemainder(r.Remainder)
}

// Region builds the bounding box from the configured corners.
func (r RegionConfig) Region() (region.Region, error) {
	return region.New(r.Corners)
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
