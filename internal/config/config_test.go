package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GSA9429/Satellite-vectors/internal/partition"
	"github.com/GSA9429/Satellite-vectors/internal/region"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "groundtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	r, err := cfg.Region.Region()
	require.NoError(t, err)
	assert.Equal(t, region.Region{MinLat: -90, MaxLat: 90, MinLon: -90, MaxLon: 150}, r)

	policy, err := cfg.Run.RemainderPolicy()
	require.NoError(t, err)
	assert.Equal(t, partition.ToLast, policy)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
catalog:
  url: https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle
region:
  corners: [[10, 20], [30, 40]]
run:
  start: "2024-04-10T12:00:00Z"
  horizon: 1h
  step: 1s
  workers: 3
  remainder: drop
output:
  path: /tmp/out.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle", cfg.Catalog.URL)
	assert.Equal(t, []region.Corner{{10, 20}, {30, 40}}, cfg.Region.Corners)
	assert.Equal(t, time.Hour, cfg.Run.Horizon)
	assert.Equal(t, time.Second, cfg.Run.Step)
	assert.Equal(t, 3, cfg.Run.Workers)
	assert.Equal(t, "drop", cfg.Run.Remainder)
	assert.Equal(t, "/tmp/out.csv", cfg.Output.Path)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Catalog.MaxFiles)

	start, err := cfg.Run.StartTime(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), start)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeYAML(t, `
run:
  step: 1s
  workers: 3
`)
	t.Setenv("GROUNDTRACK_RUN_STEP", "250ms")
	t.Setenv("GROUNDTRACK_RUN_GATHER_TIMEOUT", "5s")
	t.Setenv("GROUNDTRACK_OUTPUT_PATH", "env.csv")
	t.Setenv("GROUNDTRACK_REGION_CORNERS", "10,20; -10,-20")
	t.Setenv("GROUNDTRACK_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Run.Step)
	assert.Equal(t, 3, cfg.Run.Workers)
	assert.Equal(t, 5*time.Second, cfg.Run.GatherTimeout)
	assert.Equal(t, "env.csv", cfg.Output.Path)
	assert.Equal(t, []region.Corner{{10, 20}, {-10, -20}}, cfg.Region.Corners)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero workers", "GROUNDTRACK_RUN_WORKERS", "0"},
		{"zero step", "GROUNDTRACK_RUN_STEP", "0s"},
		{"negative gather timeout", "GROUNDTRACK_RUN_GATHER_TIMEOUT", "-1s"},
		{"unknown remainder policy", "GROUNDTRACK_RUN_REMAINDER", "spread"},
		{"unparseable start", "GROUNDTRACK_RUN_START", "yesterday"},
		{"latitude out of range", "GROUNDTRACK_REGION_CORNERS", "95,0"},
		{"longitude out of range", "GROUNDTRACK_REGION_CORNERS", "0,181"},
		{"too many corners", "GROUNDTRACK_REGION_CORNERS", "0,0;1,1;2,2;3,3;4,4"},
		{"malformed corner", "GROUNDTRACK_REGION_CORNERS", "10"},
		{"empty output path", "GROUNDTRACK_OUTPUT_PATH", ""},
		{"unknown log level", "GROUNDTRACK_LOG_LEVEL", "loud"},
		{"relative catalog url", "GROUNDTRACK_CATALOG_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(PathEnvVar, "from-env.yaml")
	assert.Equal(t, "from-flag.yaml", Path("from-flag.yaml"))
	assert.Equal(t, "from-env.yaml", Path(""))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"GROUNDTRACK_RUN_STEP":           "run.step",
		"GROUNDTRACK_RUN_GATHER_TIMEOUT": "run.gather_timeout",
		"GROUNDTRACK_CATALOG_CACHE_DIR":  "catalog.cache_dir",
		"GROUNDTRACK_METRICS_ADDR":       "metrics.addr",
		"GROUNDTRACK_CONFIG":             "",
		"GROUNDTRACK_VERBOSE":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestStartTimeDefaultsToNow(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)
	got, err := RunConfig{}.StartTime(now)
	require.NoError(t, err)
	assert.Equal(t, now, got)
}

func TestDerivedValues(t *testing.T) {
	pol, err := RunConfig{Remainder: "drop"}.RemainderPolicy()
	require.NoError(t, err)
	assert.Equal(t, partition.Drop, pol)

	_, err = RunConfig{Remainder: "spread"}.RemainderPolicy()
	assert.Error(t, err)

	r, err := RegionConfig{Corners: []region.Corner{{10, -20}, {-5, 30}}}.Region()
	require.NoError(t, err)
	assert.Equal(t, region.Region{MinLat: -5, MaxLat: 10, MinLon: -20, MaxLon: 30}, r)

	_, err = RegionConfig{}.Region()
	assert.Error(t, err)
}
