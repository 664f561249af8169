package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/poxc-cli/internal/assay"
	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/monitoring"
	"github.com/sells-group/poxc-cli/internal/store"
)

// maxComputeBody caps POST /v1/compute request bodies.
const maxComputeBody = 32 << 20

var (
	servePort    int
	serveArchive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP compute server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var st store.Store
		if serveArchive {
			s, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(newPipeline(0), monitoring.NewMetrics(), st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Bool("archive", st != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveArchive, "archive", false, "save every computed run to the configured store")
	rootCmd.AddCommand(serveCmd)
}

// server holds the dependencies of the HTTP handlers. store may be nil.
type server struct {
	pipeline *assay.Pipeline
	metrics  *monitoring.Metrics
	store    store.Store
}

// newRouter builds the HTTP API. The /v1/runs routes are mounted only when
// st is non-nil.
func newRouter(p *assay.Pipeline, m *monitoring.Metrics, st store.Store) http.Handler {
	s := &server{pipeline: p, metrics: m, store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Run-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/compute", s.compute)
		if st != nil {
			r.Get("/runs", s.listRuns)
			r.Get("/runs/{id}", s.getRun)
		}
	})
	return r
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

func (s *server) compute(w http.ResponseWriter, r *http.Request) {
	var in assay.Input
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxComputeBody), &in); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.Wells) == 0 {
		renderError(w, r, http.StatusBadRequest, "wells are required")
		return
	}

	report, err := s.pipeline.Run(r.Context(), in)
	if err != nil {
		zap.L().Error("compute request failed", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "compute failed")
		return
	}
	s.metrics.Observe(report)

	if s.store != nil {
		run := &model.Run{
			Inputs: map[string]string{"source": "http", "request_id": middleware.GetReqID(r.Context())},
			Report: report,
		}
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			zap.L().Error("archive run failed", zap.Error(err))
			renderError(w, r, http.StatusInternalServerError, "archive failed")
			return
		}
		w.Header().Set("X-Run-ID", run.ID)
	}

	render.JSON(w, r, report)
}

func (s *server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{})
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	render.JSON(w, r, runs)
}

func (s *server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		renderError(w, r, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("get run failed", zap.String("run_id", id), zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "get run failed")
		return
	}
	render.JSON(w, r, run)
}
