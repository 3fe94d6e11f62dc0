package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gridmdp/grid_world"
	"gridmdp/logs"
	"gridmdp/problem"
	"gridmdp/reinforcement"
	"gridmdp/server/fastview"
	"gridmdp/server/root_view"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
)

// createRun parses the posted problem synchronously, so malformed files are rejected with
// 400, then solves it in the background.
func (server *Server) createRun(w http.ResponseWriter, r *http.Request) {
	kind, err := problem.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prob, err := problem.Parse(kind, http.MaxBytesReader(w, r.Body, maxProblemBytes))
	if err != nil {
		http.Error(w, err.Error(), badInputStatus(err))
		return
	}

	run := newRun(prob)
	server.runs.add(run)
	logs.Info("run %s: %s on a %dx%d grid", run.id, kind, run.grid.Rows(), run.grid.Cols())
	go func() {
		run.solve(prob, problem.Options{Config: server.cfg})
		if status := run.status(); status.State == Failed {
			logs.Error("run %s failed: %s", run.id, status.Error)
		} else if status.ConvergedAt > 0 {
			logs.Info("run %s done after %d sweeps, converged at sweep %d", run.id, status.Sweeps, status.ConvergedAt)
		} else {
			logs.Info("run %s done after %d sweeps", run.id, status.Sweeps)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"id": run.id})
}

// badInputStatus is 400 for the typed input errors and 500 for anything else.
func badInputStatus(err error) int {
	var (
		parseErr  *grid_world.ParseError
		actionErr *grid_world.InvalidActionError
		domainErr *grid_world.DomainError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &parseErr),
		errors.As(err, &actionErr),
		errors.As(err, &domainErr):
		return http.StatusBadRequest
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (server *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := server.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.status())
}

// getDocument returns the rendered document: 409 while the run is in progress and 422 if
// it failed.
func (server *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	run, ok := server.lookup(w, r)
	if !ok {
		return
	}

	state, document, err := run.result()
	switch state {
	case Running:
		http.Error(w, "run in progress", http.StatusConflict)
	case Failed:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(document))
	}
}

// serveWebsocket replays the run's sweeps to the client as element updates, at the playback
// interval, then closes the socket.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	run, ok := server.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	rootView, err := root_view.NewRootView(ctx, run.grid, replay(ctx, run, server.playback))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cli, err := fastview.NewClient(rootView.Updates(), w, r)
	if err != nil {
		logs.Error("run %s: upgrade: %v", run.id, err)
		return
	}
	if err = cli.Sync(); err != nil {
		logs.Error("run %s: websocket: %v", run.id, err)
	}
}

// serveView serves the run's page, which opens the websocket.
func (server *Server) serveView(w http.ResponseWriter, r *http.Request) {
	run, ok := server.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The page only needs the views' templates; their update chans are never read.
	rootView, err := root_view.NewRootView(ctx, run.grid, make(chan reinforcement.Sweep))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	model := rootView.Model(
		fmt.Sprintf("%s %s", run.kind, run.id),
		"/runs/"+run.id+"/ws",
		"/runs/"+run.id+"/document")
	if err = renderTemplate(w, rootView, model); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

func (server *Server) lookup(w http.ResponseWriter, r *http.Request) (*run, bool) {
	run, err := server.runs.get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return run, true
}

// replay emits the run's sweeps in order, at most one per interval, following a live run
// until it finishes. The chan closes after the last sweep or when ctx is cancelled.
func replay(ctx context.Context, r *run, interval time.Duration) <-chan reinforcement.Sweep {
	sweeps := make(chan reinforcement.Sweep)

	go func() {
		defer close(sweeps)

		ticker := channerics.NewTicker(ctx.Done(), interval)
		next := 0
		for {
			pending, changed, finished := r.since(next)
			if len(pending) == 0 {
				if finished {
					return
				}
				select {
				case <-changed:
					continue
				case <-ctx.Done():
					return
				}
			}

			for _, sweep := range pending {
				select {
				case <-ticker:
				case <-ctx.Done():
					return
				}
				select {
				case sweeps <- sweep:
					next++
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return sweeps
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Error("encode response: %v", err)
	}
}
