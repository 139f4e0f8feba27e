package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/asr"
	"github.com/podscribe/podscribe/internal/segment"
	"github.com/podscribe/podscribe/internal/transcriber"
)

type fakePipeline struct{}

func (fakePipeline) Load(ctx context.Context) error { return nil }
func (fakePipeline) Model() string                  { return "paraformer-zh" }
func (fakePipeline) Language() string               { return "zh" }

func (fakePipeline) Transcribe(ctx context.Context, audioPath string) (*asr.Result, error) {
	return &asr.Result{
		Text:       "测试。",
		Timestamps: [][2]int{{0, 300}, {300, 600}},
	}, nil
}

func newTestPool(t *testing.T, outDir string) *transcriber.Pool {
	t.Helper()
	svc := transcriber.New(transcriber.Options{
		Pipeline:     fakePipeline{},
		Segmentation: segment.DefaultOptions(),
		Log:          zerolog.Nop(),
	})
	return transcriber.NewPool(transcriber.PoolOptions{
		Service:   svc,
		OutDir:    outDir,
		Workers:   1,
		QueueSize: 8,
		Log:       zerolog.Nop(),
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcher_EnqueuesNewAudio(t *testing.T) {
	inbox := t.TempDir()
	outDir := t.TempDir()

	pool := newTestPool(t, outDir)
	pool.Start()

	w := New(Options{
		InboxDir: inbox,
		OutDir:   outDir,
		Pool:     pool,
		Log:      zerolog.Nop(),
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(inbox, "episode.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-audio files must be ignored.
	if err := os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(outDir, "episode.json"))
		return err == nil
	})

	if got := w.Status().FilesQueued; got != 1 {
		t.Errorf("files_queued = %d, want 1", got)
	}
}

func TestWatcher_Backfill(t *testing.T) {
	inbox := t.TempDir()
	outDir := t.TempDir()

	// One pending file, one already transcribed.
	if err := os.WriteFile(filepath.Join(inbox, "pending.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "done.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "done.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	pool := newTestPool(t, outDir)
	pool.Start()

	w := New(Options{
		InboxDir: inbox,
		OutDir:   outDir,
		Pool:     pool,
		Backfill: true,
		Log:      zerolog.Nop(),
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(outDir, "pending.json"))
		return err == nil
	})

	st := w.Status()
	if st.FilesQueued != 1 {
		t.Errorf("files_queued = %d, want 1", st.FilesQueued)
	}
	if st.FilesSkipped != 1 {
		t.Errorf("files_skipped = %d, want 1", st.FilesSkipped)
	}
}

func TestWatcher_CreatesInboxDir(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")

	pool := newTestPool(t, t.TempDir())
	w := New(Options{InboxDir: inbox, OutDir: t.TempDir(), Pool: pool, Log: zerolog.Nop()})
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()

	if _, err := os.Stat(inbox); err != nil {
		t.Errorf("inbox dir not created: %v", err)
	}
}
