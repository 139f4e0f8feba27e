package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/config"
	"github.com/podscribe/podscribe/internal/database"
	"github.com/podscribe/podscribe/internal/metrics"
	"github.com/podscribe/podscribe/internal/mqttclient"
	"github.com/podscribe/podscribe/internal/transcriber"
	"github.com/podscribe/podscribe/internal/watch"
)

// ServerOptions collects everything the HTTP server serves. DB, MQTT, and
// Watcher may be nil when the corresponding feature is disabled.
type ServerOptions struct {
	Config    *config.Config
	Pool      *transcriber.Pool
	DB        *database.DB
	MQTT      *mqttclient.Client
	Watcher   *watch.Watcher
	UploadDir string
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", promhttp.Handler())

	// Health endpoint, no auth
	health := NewHealthHandler(opts.DB, opts.MQTT, opts.Pool, opts.Watcher, opts.Version, opts.StartTime)
	r.Get("/api/v1/health", health.ServeHTTP)

	// Authenticated routes
	transcriptions := NewTranscriptionsHandler(opts.Pool, opts.DB, opts.UploadDir, opts.Log)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		transcriptions.Routes(r)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
