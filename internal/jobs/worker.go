package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rkco/fuel-ledger/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs queued jobs on a fixed pool, fire-and-forget jobs under a
// semaphore, and named jobs on a schedule.
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan Job
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	statsMu       sync.RWMutex
	closeOnce     sync.Once
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int                `json:"active_jobs"`
	CompletedJobs int64              `json:"completed_jobs"`
	FailedJobs    int64              `json:"failed_jobs"`
	QueueLength   int                `json:"queue_length"`
	MaxConcurrent int                `json:"max_concurrent"`
	LastRuns      map[string]RunInfo `json:"last_runs"`
}

// RunInfo is the outcome of the latest run of a scheduled job
type RunInfo struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan Job, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
		stats:         WorkerStats{LastRuns: make(map[string]RunInfo)},
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to be processed by the worker pool
func (w *Worker) Enqueue(job Job) {
	if w.ctx.Err() != nil {
		logger.Warn("Worker stopped, dropping job")
		return
	}
	select {
	case w.queue <- job:
	default:
		logger.Warn("Worker queue full, running job synchronously")
		w.run("", job)
	}
}

// EnqueueAsync runs a job in a new goroutine, bounded by semaphore
func (w *Worker) EnqueueAsync(job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()

		w.run("", job)
	}()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run("", job)
			logger.Debug("Worker job finished", "worker", workerID)
		}
	}
}

// ScheduleEvery runs a named job at fixed intervals, first after one interval
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, job, false)
}

// ScheduleEveryImmediate runs a named job once at startup, then at fixed intervals
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, job, true)
}

func (w *Worker) schedule(name string, interval time.Duration, job Job, immediate bool) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.run(name, job)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run(name, job)
			}
		}
	}()
}

// run executes one job with panic recovery and stats tracking
func (w *Worker) run(name string, job Job) {
	w.trackJobStart()
	start := time.Now()
	var jobErr error

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panic", "job", name, "panic", r)
			jobErr = errPanic
		}
		if jobErr != nil {
			w.trackJobFailure()
		}
		w.trackJobEnd(name, start, jobErr)
	}()

	jobErr = job(w.ctx)
	if jobErr != nil {
		logger.Error("Job error", "job", name, "error", jobErr)
	} else if name != "" {
		logger.Info("Scheduled job completed", "job", name, "duration", time.Since(start))
	}
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.closeOnce.Do(func() {
		w.cancel()
		close(w.queue)
	})
	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	stats.LastRuns = make(map[string]RunInfo, len(w.stats.LastRuns))
	for k, v := range w.stats.LastRuns {
		stats.LastRuns[k] = v
	}
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

// trackJobEnd counts every finished job, failed or not
func (w *Worker) trackJobEnd(name string, start time.Time, err error) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	if name != "" {
		info := RunInfo{StartedAt: start, Duration: time.Since(start)}
		if err != nil {
			info.Error = err.Error()
		}
		w.stats.LastRuns[name] = info
	}
}

func (w *Worker) trackJobFailure() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
