// Package web serves the generated dashboard over HTTP for e-ink devices
// that poll an image URL. The server regenerates the image on a fixed
// interval and always serves the most recent successful render, so a flaky
// upstream API never blanks the display.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/pipeline"
)

// DefaultInterval is how often the image regenerates when the config does
// not say otherwise.
const DefaultInterval = 10 * time.Minute

// Server regenerates and serves the dashboard image.
type Server struct {
	cfg    config.Server
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu     sync.RWMutex
	latest *pipeline.Result
}

// NewServer creates a server around the given run options.
func NewServer(cfg config.Server, runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, runner: runner, opts: opts, logger: logger}
}

// Serve generates an initial image, then serves HTTP until ctx is
// cancelled, regenerating on the configured interval.
func (s *Server) Serve(ctx context.Context) error {
	if _, err := s.regenerate(ctx); err != nil {
		// A degraded image is still an image; only fatal errors stop startup.
		if errors.IsFatal(err) {
			return err
		}
		s.logger.Error("initial generation failed, serving without image", "error", err)
	}

	interval := time.Duration(s.cfg.Interval)
	if interval <= 0 {
		interval = DefaultInterval
	}
	go s.regenerateLoop(ctx, interval)

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "interval", interval)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeInternal, err, "http server")
		}
		return nil
	}
}

func (s *Server) regenerateLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.regenerate(ctx); err != nil {
				s.logger.Error("regeneration failed, keeping previous image", "error", err)
			}
		}
	}
}

func (s *Server) regenerate(ctx context.Context) (*pipeline.Result, error) {
	result, err := s.runner.Generate(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()
	return result, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/display.png", s.handleDisplay)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/weather", s.handleSection("weather"))
		r.Get("/activities", s.handleSection("strava", "activity"))
		r.Get("/calendar", s.handleSection("calendar"))
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

// handleDisplay serves the most recent image. E-ink devices poll this URL,
// so caching is disabled end to end.
func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		// Nothing rendered yet; generate on demand.
		result, err := s.regenerate(r.Context())
		if err != nil {
			http.Error(w, "image generation failed", http.StatusServiceUnavailable)
			return
		}
		latest = result
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(latest.PNG)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	_, _ = w.Write(latest.PNG)
}

type healthResponse struct {
	Status   string            `json:"status"`
	RunID    string            `json:"run_id,omitempty"`
	Degraded map[string]string `json:"degraded,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	resp := healthResponse{Status: "ok"}
	switch {
	case latest == nil:
		resp.Status = "starting"
	case len(latest.Degraded) > 0:
		resp.Status = "degraded"
		resp.RunID = latest.RunID
		resp.Degraded = latest.Degraded
	default:
		resp.RunID = latest.RunID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSection serves the raw section data for one of the given section
// names, fetched through the same providers (and caches) the image uses.
func (s *Server) handleSection(names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binding, ok := s.findBinding(names)
		if !ok {
			http.Error(w, "section not configured", http.StatusNotFound)
			return
		}

		var payload []any
		for _, p := range binding.Providers {
			data, err := p.Fetch(r.Context())
			if err != nil {
				s.logger.Warn("api fetch failed", "provider", p.Name(), "error", err)
				writeJSON(w, apiStatus(err), map[string]string{
					"error": errors.UserMessage(err),
					"code":  string(errors.GetCode(err)),
				})
				return
			}
			payload = append(payload, data)
		}
		if len(payload) == 1 {
			writeJSON(w, http.StatusOK, payload[0])
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) findBinding(names []string) (pipeline.Binding, bool) {
	for _, name := range names {
		for _, b := range s.opts.Bindings {
			if b.Section == name {
				return b, true
			}
		}
	}
	return pipeline.Binding{}, false
}

func apiStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeAuth:
		return http.StatusBadGateway
	case errors.ErrCodeNoData:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
