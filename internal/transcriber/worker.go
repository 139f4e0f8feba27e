package transcriber

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Job is one queued transcription in service mode.
type Job struct {
	AudioPath string
}

// QueueStats reports the current state of the transcription queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// PoolOptions configures the transcription worker pool.
type PoolOptions struct {
	Service   *Service
	OutDir    string
	Workers   int
	QueueSize int
	Log       zerolog.Logger
}

// Pool drains queued jobs through the service with a fixed number of
// workers. Inference dominates the cost of each job, so one worker per
// sidecar device is typical.
type Pool struct {
	jobs   chan Job
	svc    *Service
	opts   PoolOptions
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders Enqueue against Stop: a late producer (debounce timer,
	// in-flight upload) must never send on the closed jobs channel.
	mu     sync.RWMutex
	closed bool

	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a worker pool.
func NewPool(opts PoolOptions) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:   make(chan Job, opts.QueueSize),
		svc:    opts.Service,
		opts:   opts,
		log:    opts.Log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info().Int("workers", p.opts.Workers).Int("queue_size", p.opts.QueueSize).Msg("transcription worker pool started")
}

// Stop signals workers to drain and waits for completion. Enqueue calls
// after Stop are rejected.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	p.log.Info().
		Int64("completed", p.completed.Load()).
		Int64("failed", p.failed.Load()).
		Msg("transcription worker pool stopped")
}

// Enqueue adds a job to the queue. Returns false if the queue is full or the
// pool has been stopped.
func (p *Pool) Enqueue(j Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- j:
		return true
	default:
		return false
	}
}

// Stats returns current queue statistics.
func (p *Pool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(p.jobs),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// PendingJobs reports the queue depth, read at metrics scrape time.
func (p *Pool) PendingJobs() int { return len(p.jobs) }

// CompletedJobs reports jobs finished successfully since start.
func (p *Pool) CompletedJobs() int64 { return p.completed.Load() }

// FailedJobs reports jobs that ended in error since start.
func (p *Pool) FailedJobs() int64 { return p.failed.Load() }

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := p.log.With().Int("worker", id).Logger()

	for job := range p.jobs {
		if _, err := p.svc.TranscribeFile(p.ctx, job.AudioPath, p.opts.OutDir); err != nil {
			p.failed.Add(1)
			log.Warn().Err(err).Str("input", job.AudioPath).Msg("transcription failed")
		} else {
			p.completed.Add(1)
		}
	}
}
