package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/asr"
	"github.com/podscribe/podscribe/internal/audio"
	"github.com/podscribe/podscribe/internal/database"
	"github.com/podscribe/podscribe/internal/metrics"
	"github.com/podscribe/podscribe/internal/segment"
	"github.com/podscribe/podscribe/internal/storage"
	"github.com/podscribe/podscribe/internal/transcript"
)

// EventPublishFunc is a callback for publishing completion events.
type EventPublishFunc func(event string, payload map[string]any)

// Options configures the transcription service. Pipeline and Log are
// required; Archive, DB, and Publish are optional side channels.
type Options struct {
	Pipeline     asr.Pipeline
	Segmentation segment.Options
	Archive      storage.Store
	DB           *database.DB
	Publish      EventPublishFunc
	Log          zerolog.Logger
}

// Service orchestrates one transcription: input validation, the pipeline
// call, the segmentation core, output encoding, and the optional archive,
// index, and event side channels. Safe for concurrent use across
// independent input files.
type Service struct {
	opts Options
	now  func() time.Time
}

// FileResult summarizes one completed transcription.
type FileResult struct {
	Input         string  `json:"input"`
	JSONPath      string  `json:"json_path"`
	SRTPath       string  `json:"srt_path"`
	SegmentsCount int     `json:"segments_count"`
	Duration      float64 `json:"duration"`
}

// BatchItem is one entry of a batch run: either a result or the error that
// aborted that file.
type BatchItem struct {
	Input  string      `json:"input"`
	Result *FileResult `json:"result,omitempty"`
	Err    error       `json:"-"`
}

// New creates a Service.
func New(opts Options) *Service {
	return &Service{opts: opts, now: time.Now}
}

// TranscribeFile transcribes one audio file and writes <basename>.json and
// <basename>.srt into outDir, creating it if absent.
func (s *Service) TranscribeFile(ctx context.Context, audioPath, outDir string) (*FileResult, error) {
	start := time.Now()

	path, err := audio.Resolve(audioPath)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	res, err := s.opts.Pipeline.Transcribe(ctx, path)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	spans, err := segment.Align(res.Text, res.Timestamps)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	segs := segment.Build(spans, s.opts.Segmentation)

	tr := transcript.New(segs, res.Text, s.opts.Pipeline.Model(), s.opts.Pipeline.Language(), s.now())

	basename := audio.Basename(path)
	jsonPath, srtPath, err := tr.WriteFiles(outDir, basename)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := &FileResult{
		Input:         path,
		JSONPath:      jsonPath,
		SRTPath:       srtPath,
		SegmentsCount: len(segs),
		Duration:      tr.Metadata.Duration,
	}

	s.sideChannels(ctx, tr, result, basename)

	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
	metrics.TranscriptionSeconds.Observe(time.Since(start).Seconds())
	metrics.TranscriptSegments.Observe(float64(len(segs)))

	s.opts.Log.Info().
		Str("input", filepath.Base(path)).
		Int("segments", len(segs)).
		Float64("audio_s", result.Duration).
		Dur("took", time.Since(start)).
		Msg("transcription complete")

	return result, nil
}

// sideChannels runs the optional archive, index, and event hooks. Failures
// here are logged, not fatal: the transcript files are already on disk.
func (s *Service) sideChannels(ctx context.Context, tr *transcript.Transcript, result *FileResult, basename string) {
	var doc []byte
	if s.opts.Archive != nil || s.opts.DB != nil {
		var err error
		doc, err = tr.MarshalPretty()
		if err != nil {
			s.opts.Log.Warn().Err(err).Msg("transcript encode failed, archive and index skipped")
			doc = nil
		}
	}

	if s.opts.Archive != nil && doc != nil {
		at := s.now()
		if err := s.opts.Archive.Save(ctx, storage.ArchiveKey(at, basename+".json"), doc, "application/json"); err != nil {
			s.opts.Log.Warn().Err(err).Msg("archive json failed")
		}
		if srtData, err := tr.MarshalSRT(); err != nil {
			s.opts.Log.Warn().Err(err).Msg("srt encode failed, archive skipped")
		} else if err := s.opts.Archive.Save(ctx, storage.ArchiveKey(at, basename+".srt"), srtData, "application/x-subrip"); err != nil {
			s.opts.Log.Warn().Err(err).Msg("archive srt failed")
		}
	}

	if s.opts.DB != nil && doc != nil {
		_, err := s.opts.DB.InsertTranscript(ctx, &database.TranscriptRow{
			Source:        result.Input,
			Model:         tr.Metadata.Model,
			Language:      tr.Metadata.Language,
			Duration:      tr.Metadata.Duration,
			SegmentsCount: tr.Metadata.SegmentsCount,
			FullText:      tr.FullText,
			Transcript:    json.RawMessage(doc),
		})
		if err != nil {
			s.opts.Log.Warn().Err(err).Msg("transcript index insert failed")
		}
	}

	if s.opts.Publish != nil {
		s.opts.Publish("transcript", map[string]any{
			"input":          result.Input,
			"json_path":      result.JSONPath,
			"srt_path":       result.SRTPath,
			"segments_count": result.SegmentsCount,
			"duration":       result.Duration,
			"model":          tr.Metadata.Model,
		})
	}
}

// TranscribeBatch transcribes every file matching the glob pattern. A
// single file's failure is recorded in its BatchItem and never aborts the
// remaining files. Items keep the matched file order regardless of worker
// count.
func (s *Service) TranscribeBatch(ctx context.Context, pattern, outDir string, workers int) ([]BatchItem, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}

	items := make([]BatchItem, len(paths))
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p string) {
			defer wg.Done()
			defer func() { <-sem }()
			result, err := s.TranscribeFile(ctx, p, outDir)
			items[i] = BatchItem{Input: p, Result: result, Err: err}
			if err != nil {
				s.opts.Log.Warn().Err(err).Str("input", p).Msg("batch item failed")
			}
		}(i, p)
	}
	wg.Wait()

	return items, nil
}
