package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/asr"
	"github.com/podscribe/podscribe/internal/config"
	"github.com/podscribe/podscribe/internal/segment"
	"github.com/podscribe/podscribe/internal/transcriber"
)

var version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `podscribe %s - podcast transcription via a FunASR sidecar

Usage:
  podscribe [flags] <audio_path> <output_dir>
  podscribe [flags] -batch <glob> <output_dir>

Flags:
`, version)
	flag.PrintDefaults()
}

func main() {
	var (
		envFile   = flag.String("env", "", "path to .env file (default .env)")
		batch     = flag.String("batch", "", "transcribe every file matching this glob pattern")
		workers   = flag.Int("workers", 0, "concurrent transcriptions in batch mode")
		model     = flag.String("model", "", "ASR model name")
		language  = flag.String("language", "", "transcription language")
		funasrURL = flag.String("funasr-url", "", "FunASR sidecar base URL")
		logLevel  = flag.String("log-level", "", "log level (debug, info, warn, error)")
	)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(config.Overrides{
		EnvFile:   *envFile,
		FunASRURL: *funasrURL,
		Model:     *model,
		Language:  *language,
		Workers:   *workers,
		LogLevel:  *logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "podscribe: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)

	var input, outDir string
	args := flag.Args()
	switch {
	case *batch != "" && len(args) == 1:
		outDir = args[0]
	case *batch == "" && len(args) == 2:
		input, outDir = args[0], args[1]
	default:
		usage()
		os.Exit(2)
	}

	ctx := context.Background()

	pipeline := asr.NewFunASRClient(cfg.FunASRURL, cfg.Model, cfg.Language, cfg.ASRTimeout, log)
	if err := pipeline.Load(ctx); err != nil {
		log.Error().Err(err).Msg("ASR pipeline unavailable")
		os.Exit(1)
	}

	svc := transcriber.New(transcriber.Options{
		Pipeline: pipeline,
		Segmentation: segment.Options{
			Terminators:  segment.DefaultTerminators(),
			MaxSegmentMS: int(cfg.MaxSegmentDuration * 1000),
			MinSegmentMS: int(cfg.MinSegmentDuration * 1000),
			MaxMergedMS:  int(cfg.MaxMergedDuration * 1000),
		},
		Log: log,
	})

	if *batch != "" {
		os.Exit(runBatch(ctx, svc, log, *batch, outDir, cfg.Workers))
	}

	result, err := svc.TranscribeFile(ctx, input, outDir)
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("transcription failed")
		os.Exit(1)
	}
	fmt.Println(result.JSONPath)
	fmt.Println(result.SRTPath)
}

// runBatch transcribes every matched file. A partial failure still exits 0;
// only a batch where nothing succeeded exits 1.
func runBatch(ctx context.Context, svc *transcriber.Service, log zerolog.Logger, pattern, outDir string, workers int) int {
	items, err := svc.TranscribeBatch(ctx, pattern, outDir, workers)
	if err != nil {
		log.Error().Err(err).Msg("batch failed")
		return 1
	}
	if len(items) == 0 {
		log.Warn().Str("pattern", pattern).Msg("no files matched")
		return 1
	}

	var ok int
	for _, it := range items {
		if it.Err == nil {
			ok++
			fmt.Println(it.Result.JSONPath)
		}
	}
	log.Info().Int("ok", ok).Int("failed", len(items)-ok).Msg("batch complete")

	if ok == 0 {
		return 1
	}
	return 0
}
