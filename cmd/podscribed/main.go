package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/api"
	"github.com/podscribe/podscribe/internal/asr"
	"github.com/podscribe/podscribe/internal/config"
	"github.com/podscribe/podscribe/internal/database"
	"github.com/podscribe/podscribe/internal/metrics"
	"github.com/podscribe/podscribe/internal/mqttclient"
	"github.com/podscribe/podscribe/internal/segment"
	"github.com/podscribe/podscribe/internal/storage"
	"github.com/podscribe/podscribe/internal/transcriber"
	"github.com/podscribe/podscribe/internal/watch"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var (
		envFile  = flag.String("env", "", "path to .env file (default .env)")
		httpAddr = flag.String("http-addr", "", "HTTP listen address")
		outDir   = flag.String("out", "", "transcript output directory")
		logLevel = flag.String("log-level", "", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	cfg, err := config.Load(config.Overrides{
		EnvFile:   *envFile,
		HTTPAddr:  *httpAddr,
		OutputDir: *outDir,
		LogLevel:  *logLevel,
	})
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("podscribed starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ASR sidecar
	pipeline := asr.NewFunASRClient(cfg.FunASRURL, cfg.Model, cfg.Language, cfg.ASRTimeout, log)
	if err := pipeline.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("ASR pipeline unavailable")
	}

	// Optional transcript index
	var db *database.DB
	if cfg.DatabaseURL != "" {
		dbLog := log.With().Str("component", "database").Logger()
		db, err = database.Connect(ctx, cfg.DatabaseURL, dbLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
	}

	// Optional MQTT completion events
	var mqtt *mqttclient.Client
	var publish transcriber.EventPublishFunc
	if cfg.MQTTBrokerURL != "" {
		mqttLog := log.With().Str("component", "mqtt").Logger()
		mqtt, err = mqttclient.Connect(mqttclient.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Log:       mqttLog,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer mqtt.Close()

		topic := cfg.MQTTTopic
		publish = func(event string, payload map[string]any) {
			data, err := json.Marshal(payload)
			if err != nil {
				return
			}
			mqtt.Publish(topic+"/"+event, data)
		}
	}

	// Output archive: dated copies next to the live output directory, or S3
	// when configured.
	archiveLog := log.With().Str("component", "archive").Logger()
	archive, err := storage.New(cfg, filepath.Join(cfg.OutputDir, "archive"), archiveLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize archive storage")
	}
	log.Info().Str("type", archive.Type()).Msg("archive storage ready")

	svc := transcriber.New(transcriber.Options{
		Pipeline: pipeline,
		Segmentation: segment.Options{
			Terminators:  segment.DefaultTerminators(),
			MaxSegmentMS: int(cfg.MaxSegmentDuration * 1000),
			MinSegmentMS: int(cfg.MinSegmentDuration * 1000),
			MaxMergedMS:  int(cfg.MaxMergedDuration * 1000),
		},
		Archive: archive,
		DB:      db,
		Publish: publish,
		Log:     log,
	})

	pool := transcriber.NewPool(transcriber.PoolOptions{
		Service:   svc,
		OutDir:    cfg.OutputDir,
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Log:       log,
	})
	pool.Start()

	// Scrape-time gauges: queue depth and pgx pool connection stats.
	var pgPool *pgxpool.Pool
	if db != nil {
		pgPool = db.Pool
	}
	prometheus.MustRegister(metrics.NewCollector(pool, pgPool))

	// Optional inbox watcher
	var watcher *watch.Watcher
	if cfg.InboxDir != "" {
		watcher = watch.New(watch.Options{
			InboxDir: cfg.InboxDir,
			OutDir:   cfg.OutputDir,
			Pool:     pool,
			Backfill: true,
			Log:      log,
		})
		if err := watcher.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start inbox watcher")
		}
	}

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(api.ServerOptions{
		Config:    cfg,
		Pool:      pool,
		DB:        db,
		MQTT:      mqtt,
		Watcher:   watcher,
		UploadDir: filepath.Join(os.TempDir(), "podscribe-uploads"),
		Version:   version,
		StartTime: startTime,
		Log:       httpLog,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if watcher != nil {
		watcher.Stop()
	}
	pool.Stop()

	log.Info().Msg("podscribed stopped")
}
