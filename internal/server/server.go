// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dshills/compliscope/internal/analysis"
	"github.com/dshills/compliscope/internal/description"
	"github.com/dshills/compliscope/internal/metrics"
	"github.com/dshills/compliscope/internal/render"
	"github.com/dshills/compliscope/internal/schema"
	"github.com/dshills/compliscope/internal/schema/validate"
)

const maxBodyBytes = 1 << 20

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, d *description.Description) (*schema.Result, error)
}

// Options configures a Server.
type Options struct {
	Render   render.Options
	Registry *prometheus.Registry // nil creates a private registry
	Logger   *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	analyzer Analyzer
	render   render.Options
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New returns a Server backed by a.
func New(a Analyzer, opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		analyzer: a,
		render:   opts.Render,
		registry: opts.Registry,
		metrics:  metrics.New(opts.Registry),
		logger:   opts.Logger,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/reports/{format}", s.handleReport)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type analyzeRequest struct {
	Description string `json:"description"`
}

type reportRequest struct {
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, ok := s.analyze(w, r, req.Description)
	if !ok {
		return
	}
	// The json renderer writes empty lists as [] rather than null.
	renderer, _ := render.NewRenderer("json", s.render)
	out, err := renderer.Render(result)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "encoding result failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleReport renders either a fresh analysis of the posted description or
// a previously returned result.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	renderer, err := render.NewRenderer(format, s.render)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req reportRequest
	if !s.decode(w, r, &req) {
		return
	}

	var result *schema.Result
	if len(req.Result) > 0 {
		result, err = validate.Parse(req.Result)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid result: "+err.Error())
			return
		}
	} else {
		var ok bool
		if result, ok = s.analyze(w, r, req.Description); !ok {
			return
		}
	}

	out, err := renderer.Render(result)
	if err != nil {
		s.logger.Error("render failed", zap.String("format", format), zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	s.metrics.IncrementReports(format)

	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="compliance-report.%s"`, render.Extension(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// analyze runs the pipeline and writes the error response on failure.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request, text string) (*schema.Result, bool) {
	start := time.Now()
	result, err := s.analyzer.Analyze(r.Context(), description.FromText(text))
	if err != nil {
		var srcErr *analysis.SourceError
		switch {
		case errors.Is(err, analysis.ErrEmptyDescription):
			s.writeError(w, r, http.StatusUnprocessableEntity, "description is empty")
		case errors.As(err, &srcErr):
			s.metrics.IncrementSourceErrors()
			s.logger.Error("compliance table unavailable", zap.String("location", srcErr.Location), zap.Error(srcErr.Err))
			s.writeError(w, r, http.StatusBadGateway, "compliance table unavailable")
		default:
			s.logger.Error("analysis failed", zap.Error(err))
			s.writeError(w, r, http.StatusInternalServerError, "analysis failed")
		}
		return nil, false
	}
	s.metrics.ObserveAnalysis(start, string(result.Summary.Status))
	return result, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: middleware.GetReqID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
