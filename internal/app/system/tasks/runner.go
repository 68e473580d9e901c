// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a piece of periodic maintenance. Run is called once after Delay
// and then every Interval until the runner stops.
type Job struct {
	Name     string
	Interval time.Duration
	Delay    time.Duration
	Run      func(ctx context.Context) error
}

// Status is a snapshot of one job's history.
type Status struct {
	Name     string
	Runs     int
	Failures int
	Running  bool
	LastRun  time.Time
	LastErr  error
}

// Runner schedules registered jobs, one goroutine per job. Executions of the
// same job never overlap.
type Runner struct {
	logger *zap.Logger
	jobs   []Job

	mu     sync.Mutex
	status map[string]*Status

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New returns an empty runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		status: make(map[string]*Status),
	}
}

// Register adds job. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &Status{Name: job.Name}
	r.mu.Unlock()
}

// Start schedules every registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("background task runner started", zap.Strings("jobs", r.Jobs()))
}

// Stop cancels the jobs and waits for in-flight runs to return. If ctx ends
// first, the jobs still running are logged and ctx.Err() is returned.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		var busy []string
		for _, s := range r.Status() {
			if s.Running {
				busy = append(busy, s.Name)
			}
		}
		r.logger.Warn("background task runner stop timed out", zap.Strings("still_running", busy))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	wait := job.Delay
	for {
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		r.execute(ctx, job)
		wait = job.Interval
		if wait <= 0 {
			return
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	r.update(job.Name, func(s *Status) { s.Running = true })

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	// A run cut short by shutdown is not a failure.
	if ctx.Err() != nil {
		r.update(job.Name, func(s *Status) { s.Running = false })
		r.logger.Debug("job interrupted by shutdown", zap.String("job", job.Name), zap.Duration("elapsed", elapsed))
		return
	}

	metrics.TaskRuns.WithLabelValues(job.Name, metrics.Result(err)).Inc()
	r.update(job.Name, func(s *Status) {
		s.Running = false
		s.Runs++
		s.LastRun = start
		s.LastErr = err
		if err != nil {
			s.Failures++
		}
	})

	if err != nil {
		r.logger.Error("job failed", zap.String("job", job.Name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	r.logger.Debug("job done", zap.String("job", job.Name), zap.Duration("elapsed", elapsed))
}

func (r *Runner) update(name string, fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.status[name]; ok {
		fn(s)
	}
}

// RunOnce runs the named job now, outside its schedule. The run is not
// recorded in Status.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return ErrUnknownJob
}

// Jobs returns the registered job names in registration order.
func (r *Runner) Jobs() []string {
	names := make([]string, len(r.jobs))
	for i, job := range r.jobs {
		names[i] = job.Name
	}
	return names
}

// Status returns a copy of every job's history, sorted by name.
func (r *Runner) Status() []Status {
	r.mu.Lock()
	out := make([]Status, 0, len(r.status))
	for _, s := range r.status {
		out = append(out, *s)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
