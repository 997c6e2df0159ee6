// Package server serves timeline and activity widgets over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/cache"
	"github.com/dbitech/timeline2svg/internal/config"
)

// LogoResolver turns logo references into data URIs.
type LogoResolver interface {
	Resolve(ctx context.Context, refs []string) map[string]string
}

// ActivitySource supplies daily counts for a user.
type ActivitySource interface {
	Contributions(ctx context.Context, login string, from, to time.Time) ([]activity.Point, error)
}

// Deps are the server's collaborators. Only Cache is required.
type Deps struct {
	Cache    cache.Store
	Logos    LogoResolver   // nil disables logo embedding
	Activity ActivitySource // nil disables /activity?user=
	Log      *logrus.Logger
	Now      func() time.Time
	MaxAge   time.Duration // Cache-Control max-age for successful responses
}

type Server struct {
	cfg  config.Config
	deps Deps
}

func New(cfg config.Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxAge <= 0 {
		deps.MaxAge = time.Hour
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory(deps.MaxAge)
	}
	return &Server{cfg: cfg, deps: deps}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /timeline", s.handleTimeline)
	mux.HandleFunc("POST /timeline", s.handleTimeline)
	mux.HandleFunc("GET /activity", s.handleActivity)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.deps.Log.Infof("Starting server on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.deps.Log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	})
}
