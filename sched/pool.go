package sched

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chord-lang/chord-runtime/errors"
	"github.com/chord-lang/chord-runtime/task"
	"github.com/chord-lang/chord-runtime/upcall"
)

// Work is one task body. It runs on a worker with the task already bound to
// the worker's upcall layer.
type Work func(l *upcall.Layer, t *task.Task)

// Result reports how a task ended.
type Result struct {
	Task    uint64
	Name    string
	Failure *task.Failure // nil if the task completed
}

// Failed reports whether the task was torn down.
func (r Result) Failed() bool { return r.Failure != nil }

// Options configures a pool.
type Options struct {
	Workers int
	Task    task.Options // template for every task the pool creates
	Logger  *zap.Logger
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Failed    uint64
	Queued    int
}

type job struct {
	name string
	work Work
	done chan Result
}

// Pool dispatches task workloads to its workers.
type Pool struct {
	opts   Options
	logger *zap.Logger

	jobs chan *job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// New starts a pool with opts.Workers workers (default 4).
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	p := &Pool{
		opts:   opts,
		logger: opts.Logger,
		jobs:   make(chan *job, opts.Workers),
	}
	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Submit queues a task body and returns a channel that receives its result.
func (p *Pool) Submit(name string, w Work) (<-chan Result, error) {
	if w == nil {
		return nil, errors.InvalidInput(errors.PhaseSched, "nil work")
	}

	j := &job{name: name, work: w, done: make(chan Result, 1)}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.Closed(errors.PhaseSched, "pool")
	}
	p.submitted.Add(1)
	p.jobs <- j
	p.mu.Unlock()

	return j.done, nil
}

// Run submits a task body and waits for its result.
func (p *Pool) Run(name string, w Work) (Result, error) {
	done, err := p.Submit(name, w)
	if err != nil {
		return Result{}, err
	}
	return <-done, nil
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.opts.Workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Queued:    len(p.jobs),
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	l := upcall.NewLayer()
	log := p.logger.With(zap.Int("worker", id))

	for j := range p.jobs {
		p.runOne(l, log, j)
	}
}

// runOne executes a single task from creation to finalization. The teardown
// sentinel stops here; any other panic is not ours to hide and keeps going.
func (p *Pool) runOne(l *upcall.Layer, log *zap.Logger, j *job) {
	opts := p.opts.Task
	opts.Name = j.name
	if opts.Logger == nil {
		opts.Logger = p.logger
	}

	t := task.New(opts)
	l.Bind(t)
	defer l.Unbind()

	res := Result{Task: t.ID(), Name: t.Name()}
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			td, ok := r.(task.Teardown)
			if !ok {
				panic(r)
			}
			f := td.Failure
			res.Failure = &f
		}()
		j.work(l, t)
	}()

	if res.Failure != nil {
		p.failed.Add(1)
		log.Warn("task torn down",
			zap.Uint64("task", t.ID()),
			zap.String("name", t.Name()),
			zap.String("expr", res.Failure.Expr),
			zap.String("file", res.Failure.File),
			zap.Int("line", res.Failure.Line),
		)
	} else {
		p.completed.Add(1)
		log.Debug("task completed",
			zap.Uint64("task", t.ID()),
			zap.String("name", t.Name()),
			zap.Uint64("switches", t.Switches()),
			zap.Int("live_boxes", t.Boxes().Live()),
		)
	}

	j.done <- res
}
