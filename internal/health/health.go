package health

import (
	"net/http"
	"sync/atomic"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readiness tracks which stage a run has reached. A run is ready once the
// catalog has been broadcast and units are dispatching.
type Readiness struct {
	stage atomic.Value // string
	ready atomic.Bool
}

// NewReadiness starts in the "init" stage, not ready.
func NewReadiness() *Readiness {
	r := &Readiness{}
	r.stage.Store("init")
	return r
}

// SetStage records the current run stage; ready marks whether /readyz passes.
func (rd *Readiness) SetStage(stage string, ready bool) {
	rd.stage.Store(stage)
	rd.ready.Store(ready)
}

// Stage returns the last recorded stage.
func (rd *Readiness) Stage() string {
	return rd.stage.Load().(string)
}

// Readyz returns 200 "ready <stage>\n" once ready, 503 "not ready <stage>\n" before.
func (rd *Readiness) Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if !rd.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready " + rd.Stage() + "\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready " + rd.Stage() + "\n"))
}
