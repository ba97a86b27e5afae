package tle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"

	starlinkLine1 = "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995"
	starlinkLine2 = "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"
)

func catalogServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	body := issLine1 + "\n" + issLine2 + "\n"
	var gotUA string
	srv := catalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, body)
	})

	data, err := NewFetcher(srv.URL, testLogger).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != body {
		t.Errorf("Fetch returned %q, want %q", data, body)
	}
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, userAgent)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: "500",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			want: "404",
		},
		{
			// Declared length rejects before reading.
			name: "declared length over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "4096")
				io.WriteString(w, strings.Repeat("A", 4096))
			},
			want: "byte limit",
		},
		{
			// Chunked responses carry no length and are cut off while reading.
			name: "streamed body over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				for i := 0; i < 8; i++ {
					io.WriteString(w, strings.Repeat("A", 512))
					w.(http.Flusher).Flush()
				}
			},
			want: "byte limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := catalogServer(t, tt.handler)
			_, err := NewFetcher(srv.URL, testLogger, WithMaxBytes(1024)).Fetch(context.Background())
			if err == nil {
				t.Fatal("Fetch succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFetchHonoursContext(t *testing.T) {
	srv := catalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(srv.URL, testLogger).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch with cancelled context = %v, want context.Canceled", err)
	}
}

func TestFetchCustomClient(t *testing.T) {
	srv := catalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, starlinkLine1+"\n"+starlinkLine2+"\n")
	})

	f := NewFetcher(srv.URL, testLogger, WithHTTPClient(srv.Client()))
	if f.URL() != srv.URL {
		t.Errorf("URL() = %q, want %q", f.URL(), srv.URL)
	}
	data, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	sets, err := Parse(strings.NewReader(string(data)), testLogger)
	if err != nil || len(sets) != 1 || sets[0].NORADID != 44713 {
		t.Errorf("Parse(fetched) = %+v, %v; want one Starlink element set", sets, err)
	}
}
