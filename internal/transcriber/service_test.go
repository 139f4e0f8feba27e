package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/asr"
	"github.com/podscribe/podscribe/internal/segment"
	"github.com/podscribe/podscribe/internal/transcript"
)

// fakePipeline returns a canned recognition result without a sidecar.
type fakePipeline struct {
	result *asr.Result
	err    error
}

func (f *fakePipeline) Load(ctx context.Context) error { return nil }
func (f *fakePipeline) Model() string                  { return "paraformer-zh" }
func (f *fakePipeline) Language() string               { return "zh" }

func (f *fakePipeline) Transcribe(ctx context.Context, audioPath string) (*asr.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func evenTimestamps(n, stepMS int) [][2]int {
	ts := make([][2]int, n)
	for i := range ts {
		ts[i] = [2]int{i * stepMS, (i + 1) * stepMS}
	}
	return ts
}

func writeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestService(p asr.Pipeline) *Service {
	return New(Options{
		Pipeline:     p,
		Segmentation: segment.DefaultOptions(),
		Log:          zerolog.Nop(),
	})
}

func TestTranscribeFile(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeAudio(t, dir, "episode42.wav")
	outDir := filepath.Join(dir, "out")

	text := "大家好。今天聊天气。"
	pipe := &fakePipeline{result: &asr.Result{
		Text:       text,
		Timestamps: evenTimestamps(8, 300),
		Duration:   2.4,
	}}

	svc := newTestService(pipe)
	result, err := svc.TranscribeFile(context.Background(), audioPath, outDir)
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}

	if result.JSONPath != filepath.Join(outDir, "episode42.json") {
		t.Errorf("json path = %q", result.JSONPath)
	}
	if result.SRTPath != filepath.Join(outDir, "episode42.srt") {
		t.Errorf("srt path = %q", result.SRTPath)
	}

	data, err := os.ReadFile(result.JSONPath)
	if err != nil {
		t.Fatalf("reading json output: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if doc["full_text"] != text {
		t.Errorf("full_text = %q, want %q", doc["full_text"], text)
	}

	srt, err := os.ReadFile(result.SRTPath)
	if err != nil {
		t.Fatalf("reading srt output: %v", err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:00,000 --> ") {
		t.Errorf("srt output does not start with first cue: %q", string(srt)[:40])
	}
}

func TestTranscribeFile_MissingInput(t *testing.T) {
	svc := newTestService(&fakePipeline{})
	_, err := svc.TranscribeFile(context.Background(), "/nope/missing.wav", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestTranscribeFile_PipelineError(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeAudio(t, dir, "a.wav")

	wantErr := errors.New("sidecar down")
	svc := newTestService(&fakePipeline{err: wantErr})
	_, err := svc.TranscribeFile(context.Background(), audioPath, dir)
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestTranscribeFile_PublishesEvent(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeAudio(t, dir, "ep.wav")

	var gotEvent string
	var gotPayload map[string]any
	svc := New(Options{
		Pipeline: &fakePipeline{result: &asr.Result{
			Text:       "你好。",
			Timestamps: evenTimestamps(2, 300),
		}},
		Segmentation: segment.DefaultOptions(),
		Publish: func(event string, payload map[string]any) {
			gotEvent = event
			gotPayload = payload
		},
		Log: zerolog.Nop(),
	})

	if _, err := svc.TranscribeFile(context.Background(), audioPath, dir); err != nil {
		t.Fatal(err)
	}
	if gotEvent != "transcript" {
		t.Errorf("event = %q, want transcript", gotEvent)
	}
	if gotPayload["segments_count"] != 1 {
		t.Errorf("payload segments_count = %v, want 1", gotPayload["segments_count"])
	}
}

// countingStore records archive writes.
type countingStore struct {
	saves []string
}

func (s *countingStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	s.saves = append(s.saves, key)
	return nil
}

func (s *countingStore) Exists(ctx context.Context, key string) bool { return false }
func (s *countingStore) Type() string                                { return "counting" }

func TestSideChannels(t *testing.T) {
	t.Run("archives_json_and_srt", func(t *testing.T) {
		archive := &countingStore{}
		svc := New(Options{
			Pipeline:     &fakePipeline{},
			Segmentation: segment.DefaultOptions(),
			Archive:      archive,
			Log:          zerolog.Nop(),
		})

		tr := transcript.New([]transcript.Segment{
			{ID: 0, Start: 0, End: 1.2, Text: "你好。", Words: []transcript.Word{}},
		}, "你好。", "paraformer-zh", "zh", time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

		svc.sideChannels(context.Background(), tr, &FileResult{Input: "ep.wav"}, "ep")

		if len(archive.saves) != 2 {
			t.Fatalf("archive saves = %d, want 2", len(archive.saves))
		}
		for _, key := range archive.saves {
			if !strings.HasSuffix(key, "/ep.json") && !strings.HasSuffix(key, "/ep.srt") {
				t.Errorf("unexpected archive key %q", key)
			}
		}
	})

	t.Run("encode_failure_skips_archive", func(t *testing.T) {
		archive := &countingStore{}
		svc := New(Options{
			Pipeline:     &fakePipeline{},
			Segmentation: segment.DefaultOptions(),
			Archive:      archive,
			Log:          zerolog.Nop(),
		})

		// NaN timing is unencodable JSON; the side channels must skip
		// rather than write an empty document.
		tr := transcript.New([]transcript.Segment{
			{ID: 0, Start: 0, End: math.NaN(), Text: "你好。", Words: []transcript.Word{}},
		}, "你好。", "paraformer-zh", "zh", time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

		svc.sideChannels(context.Background(), tr, &FileResult{Input: "ep.wav"}, "ep")

		if len(archive.saves) != 0 {
			t.Errorf("archive saves = %d, want 0 after encode failure", len(archive.saves))
		}
	})
}

func TestTranscribeBatch(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "one.wav")
	writeAudio(t, dir, "two.wav")
	outDir := filepath.Join(dir, "out")

	svc := newTestService(&fakePipeline{result: &asr.Result{
		Text:       "测试。",
		Timestamps: evenTimestamps(2, 300),
	}})

	items, err := svc.TranscribeBatch(context.Background(), filepath.Join(dir, "*.wav"), outDir, 2)
	if err != nil {
		t.Fatalf("TranscribeBatch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, it := range items {
		if it.Err != nil {
			t.Errorf("item %s failed: %v", it.Input, it.Err)
		}
		if it.Result == nil {
			t.Errorf("item %s has no result", it.Input)
		}
	}
}

func TestTranscribeBatch_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "good.wav")
	// Unsupported extension matched by the glob fails resolution but must
	// not abort the rest of the batch.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(&fakePipeline{result: &asr.Result{
		Text:       "测试。",
		Timestamps: evenTimestamps(2, 300),
	}})

	items, err := svc.TranscribeBatch(context.Background(), filepath.Join(dir, "*.*"), filepath.Join(dir, "out"), 1)
	if err != nil {
		t.Fatalf("TranscribeBatch: %v", err)
	}

	var ok, failed int
	for _, it := range items {
		if it.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	if ok != 1 || failed != 1 {
		t.Errorf("ok=%d failed=%d, want 1/1", ok, failed)
	}
}

func TestTranscribeBatch_NoMatches(t *testing.T) {
	svc := newTestService(&fakePipeline{})
	items, err := svc.TranscribeBatch(context.Background(), filepath.Join(t.TempDir(), "*.wav"), t.TempDir(), 1)
	if err != nil {
		t.Fatalf("TranscribeBatch: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}
