package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/audio"
	"github.com/podscribe/podscribe/internal/transcriber"
)

// Status is the current watcher state for the health endpoint.
type Status struct {
	State        string `json:"state"`
	InboxDir     string `json:"inbox_dir"`
	FilesQueued  int64  `json:"files_queued"`
	FilesSkipped int64  `json:"files_skipped"`
}

// Options configures the inbox watcher.
type Options struct {
	InboxDir string
	OutDir   string
	Pool     *transcriber.Pool
	Backfill bool
	Log      zerolog.Logger
}

// Watcher monitors an inbox directory for new audio files and enqueues them
// for transcription. Recording tools drop files into the inbox; no API call
// is needed.
type Watcher struct {
	opts    Options
	log     zerolog.Logger
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	// Coalesce rapid Create+Write events while the file is still being
	// written.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	filesQueued  atomic.Int64
	filesSkipped atomic.Int64
	state        atomic.Value // string
}

// New creates a watcher. Start must be called to begin watching.
func New(opts Options) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		opts:           opts,
		log:            opts.Log.With().Str("component", "watcher").Logger(),
		ctx:            ctx,
		cancel:         cancel,
		debounceTimers: make(map[string]*time.Timer),
	}
	w.state.Store("starting")
	return w
}

// Start initializes the fsnotify watcher on the inbox directory, creating it
// if absent. With Backfill enabled, audio files already sitting in the inbox
// that have no JSON output yet are enqueued in the background.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.opts.InboxDir, 0o755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.opts.InboxDir); err != nil {
		fsw.Close()
		return err
	}
	w.watcher = fsw

	w.log.Info().Str("inbox_dir", w.opts.InboxDir).Msg("inbox watcher initialized")

	go w.watchLoop()

	if w.opts.Backfill {
		go w.backfill()
	} else {
		w.state.Store("watching")
	}

	return nil
}

// Stop closes the fsnotify watcher and cancels pending debounce timers.
func (w *Watcher) Stop() {
	w.state.Store("stopped")
	w.cancel()
	if w.watcher != nil {
		w.watcher.Close()
	}

	w.debounceMu.Lock()
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
	w.debounceMu.Unlock()

	w.log.Info().
		Int64("files_queued", w.filesQueued.Load()).
		Int64("files_skipped", w.filesSkipped.Load()).
		Msg("inbox watcher stopped")
}

// Status reports the watcher state.
func (w *Watcher) Status() Status {
	s, _ := w.state.Load().(string)
	return Status{
		State:        s,
		InboxDir:     w.opts.InboxDir,
		FilesQueued:  w.filesQueued.Load(),
		FilesSkipped: w.filesSkipped.Load(),
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			if !audio.Supported(event.Name) {
				continue
			}
			w.scheduleEnqueue(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleEnqueue debounces by 500ms so a file still being copied into the
// inbox is only picked up once its writes have settled.
func (w *Watcher) scheduleEnqueue(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(500 * time.Millisecond)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(500*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		w.enqueue(path)
	})
}

func (w *Watcher) enqueue(path string) {
	if !w.opts.Pool.Enqueue(transcriber.Job{AudioPath: path}) {
		w.filesSkipped.Add(1)
		w.log.Warn().Str("path", path).Msg("queue full, file skipped")
		return
	}
	w.filesQueued.Add(1)
	w.log.Debug().Str("path", path).Msg("file queued")
}

// backfill enqueues audio files already present in the inbox, skipping any
// whose JSON output already exists in the output directory.
func (w *Watcher) backfill() {
	w.state.Store("backfilling")

	var found int
	_ = filepath.WalkDir(w.opts.InboxDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !audio.Supported(path) {
			return nil
		}
		outPath := filepath.Join(w.opts.OutDir, audio.Basename(path)+".json")
		if _, err := os.Stat(outPath); err == nil {
			w.filesSkipped.Add(1)
			return nil
		}
		select {
		case <-w.ctx.Done():
			return filepath.SkipAll
		default:
		}
		w.enqueue(path)
		found++
		return nil
	})

	w.state.Store("watching")
	if found > 0 {
		w.log.Info().Int("files", found).Msg("backfill complete")
	}
}
