package tle

import (
	"os"
	"testing"
	"time"
)

func TestCacheWriteAndLatest(t *testing.T) {
	c := NewCache(t.TempDir(), 5)

	base := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	if _, err := c.Write([]byte("old"), base); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := c.Write([]byte("new"), base.Add(time.Hour)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path, ts, err := c.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !ts.Equal(base.Add(time.Hour)) {
		t.Errorf("ts = %v, want %v", ts, base.Add(time.Hour))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("latest data = %q, want %q", data, "new")
	}
}

func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if _, err := c.Write([]byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	// Unrelated files are left alone.
	if err := os.WriteFile(dir+"/notes.txt", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := c.list()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d cached files, want 2", len(files))
	}
	if !files[0].ts.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("oldest kept = %v, want %v", files[0].ts, base.Add(2*time.Minute))
	}
}

func TestCacheLatestEmpty(t *testing.T) {
	c := NewCache(t.TempDir()+"/missing", 5)
	if _, _, err := c.Latest(); err == nil {
		t.Fatal("expected error for empty cache")
	}
}
