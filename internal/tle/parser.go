package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// maxLineBytes bounds a single catalog line; real TLE lines are 69 bytes.
const maxLineBytes = 1 << 16

// Parse reads a two-line catalog from r: lines 2k and 2k+1 (ignoring blank
// lines) form element set k. Line pairs are not validated here; a malformed
// pair fails when it is propagated, not at load time. A dangling odd line at
// the end is dropped with a warning.
func Parse(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	if len(lines)%2 != 0 {
		logger.Warn("catalog has an odd number of lines, ignoring the last one",
			"lines", len(lines),
			"dangling", lines[len(lines)-1],
		)
		lines = lines[:len(lines)-1]
	}

	sets := make([]ElementSet, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		es := ElementSet{
			Index: i / 2,
			Line1: lines[i],
			Line2: lines[i+1],
		}
		es.NORADID, es.Epoch = header(es.Line1)
		sets = append(sets, es)
	}

	return sets, nil
}

// header extracts the catalog number (cols 3-7) and epoch (cols 19-32) from
// line 1. Either value is left zero when it cannot be parsed.
func header(line1 string) (int, time.Time) {
	var (
		noradID int
		epoch   time.Time
	)
	if len(line1) >= 7 && strings.HasPrefix(line1, "1 ") {
		if n, err := strconv.Atoi(strings.TrimSpace(line1[2:7])); err == nil {
			noradID = n
		}
	}
	if len(line1) >= 32 {
		if t, err := parseEpoch(strings.TrimSpace(line1[18:32])); err == nil {
			epoch = t
		}
	}
	return noradID, epoch
}

// parseEpoch decodes a YYDDD.DDDDDDDD epoch. Two-digit years 57-99 are
// 1957-1999 and 00-56 are 2000-2056.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch %q too short", s)
	}
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %w", s[:2], err)
	}
	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %w", s[2:], err)
	}
	if day < 1 || day >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", day)
	}

	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return jan1.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}
