package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"gridmdp/logs"
	"gridmdp/reinforcement"
	"gridmdp/server/fastview"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const (
	// Largest accepted problem file.
	maxProblemBytes = 1 << 20
	// Time given to in-flight requests on shutdown.
	shutdownGracePeriod = 5 * time.Second
)

// Server accepts problem files over http, solves each in its own goroutine, and replays
// the sweeps of a run to any number of websocket clients.
type Server struct {
	addr     string
	cfg      *reinforcement.SolverConfig
	playback time.Duration
	runs     *runStore
	router   *mux.Router
}

// NewServer builds the routes for the given config.
func NewServer(cfg *reinforcement.SolverConfig) (*Server, error) {
	if cfg == nil {
		cfg = reinforcement.DefaultConfig()
	}
	if _, err := cfg.Order(); err != nil {
		return nil, err
	}
	playback, err := cfg.PlaybackInterval()
	if err != nil {
		return nil, err
	}
	if playback <= 0 {
		return nil, fmt.Errorf("playback interval must be positive, got %v", playback)
	}

	server := &Server{
		addr:     cfg.Addr,
		cfg:      cfg,
		playback: playback,
		runs:     newRunStore(),
		router:   mux.NewRouter(),
	}
	server.router.HandleFunc("/runs", server.createRun).Methods(http.MethodPost)
	server.router.HandleFunc("/runs/{id}", server.getRun).Methods(http.MethodGet)
	server.router.HandleFunc("/runs/{id}/document", server.getDocument).Methods(http.MethodGet)
	server.router.HandleFunc("/runs/{id}/ws", server.serveWebsocket).Methods(http.MethodGet)
	server.router.HandleFunc("/runs/{id}/view", server.serveView).Methods(http.MethodGet)
	return server, nil
}

// Handler returns the server's routes, e.g. for httptest.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logs.Info("listening on %s", server.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
