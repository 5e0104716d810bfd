package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the command serving archived runs as JSON.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived runs over HTTP",
		Long: `Serve archived runs as read-only JSON.

Routes:
  GET /runs?limit=N   list runs, newest first
  GET /runs/{id}      one run with all results
  GET /healthz        liveness probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.archiveFromConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			logger := loggerFromContext(cmd.Context())
			observability.SetArchiveHooks(archiveLogHooks{logger})
			defer observability.SetArchiveHooks(observability.NoopArchiveHooks{})
			return serve(cmd.Context(), addr, newArchiveHandler(store, logger), logger)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8080", "listen address")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving archive", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// runSummary is the list view of an archived run.
type runSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"version"`
	Summary   string    `json:"summary"`
}

// newArchiveHandler returns the router for the archive API.
func newArchiveHandler(store archive.Store, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		recs, err := store.List(r.Context(), limit)
		if err != nil {
			logger.Error("list runs", "err", err)
			writeError(w, http.StatusInternalServerError, "unable to list runs")
			return
		}
		out := make([]runSummary, len(recs))
		for i, rec := range recs {
			out[i] = runSummary{ID: rec.ID, CreatedAt: rec.CreatedAt, Version: rec.Version, Summary: rec.Summary}
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := store.Get(r.Context(), id)
		if errors.Is(err, archive.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			logger.Error("get run", "id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "unable to read run")
			return
		}
		res, err := pipeline.DecodeRecord(rec)
		if err != nil {
			logger.Error("decode run", "id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "unable to decode run")
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
		})
	}
}

// archiveLogHooks logs archive lookups at debug level.
type archiveLogHooks struct {
	logger *log.Logger
}

var _ observability.ArchiveHooks = archiveLogHooks{}

func (h archiveLogHooks) OnArchiveHit(_ context.Context, id string) {
	h.logger.Debug("archive hit", "run", id)
}

func (h archiveLogHooks) OnArchiveMiss(_ context.Context, id string) {
	h.logger.Debug("archive miss", "run", id)
}

func (h archiveLogHooks) OnArchivePut(_ context.Context, id string, size int) {
	h.logger.Debug("archive put", "run", id, "bytes", size)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
