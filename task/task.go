package task

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chord-lang/chord-runtime/heap"
)

// Domain identifies which stack a task is currently executing on.
type Domain uint8

const (
	// DomainManaged is the runtime-managed growable stack.
	DomainManaged Domain = iota
	// DomainNative is the host's fixed native stack.
	DomainNative
)

// String returns the domain name.
func (d Domain) String() string {
	if d == DomainNative {
		return "native"
	}
	return "managed"
}

// Failure describes why a task failed.
type Failure struct {
	Expr string
	File string
	Line int
}

// Teardown is the sentinel raised by Fail. Only the worker run loop may
// recover it; everything in between must let it pass.
type Teardown struct {
	Task    *Task
	Failure Failure
}

func (td Teardown) String() string {
	return fmt.Sprintf("task %d torn down: %s at %s:%d",
		td.Task.ID(), td.Failure.Expr, td.Failure.File, td.Failure.Line)
}

// Options configures a new task. Zero fields take defaults.
type Options struct {
	Name         string
	StackSize    uint64 // initial and default segment size
	MinStackSize uint64 // floor for grown segments
	GuardMargin  uint64 // probe headroom below the live stack pointer
	CacheCap     int    // popped segments kept for reuse
	TrackOrigins bool
	Logger       *zap.Logger
}

const (
	defaultStackSize   = 32 * 1024
	defaultMinStack    = 1024
	defaultGuardMargin = 256
	defaultCacheCap    = 4
)

func (o *Options) fill() {
	if o.StackSize == 0 {
		o.StackSize = defaultStackSize
	}
	if o.MinStackSize == 0 {
		o.MinStackSize = defaultMinStack
	}
	if o.GuardMargin == 0 {
		o.GuardMargin = defaultGuardMargin
	}
	if o.CacheCap == 0 {
		o.CacheCap = defaultCacheCap
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

var nextTaskID atomic.Uint64

// Task is one cooperatively scheduled unit of execution: a segment chain, a
// box heap, failure state, and the stack-domain bookkeeping the upcall layer
// queries.
type Task struct {
	id   uint64
	name string
	opts Options

	stack    *Segment // chain head
	sp       Addr
	limit    Addr
	nextBase Addr
	cache    *segmentCache
	depth    atomic.Int32

	domain   Domain
	switches atomic.Uint64

	boxes   *heap.Region
	origins *heap.OriginTable

	failed  atomic.Bool
	failure Failure

	logger *zap.Logger
}

// New creates a task with one initial stack segment, running on its managed
// stack.
func New(opts Options) *Task {
	opts.fill()

	t := &Task{
		id:       nextTaskID.Add(1),
		name:     opts.Name,
		opts:     opts,
		nextBase: segmentGap,
		cache:    newSegmentCache(opts.CacheCap),
		boxes:    heap.NewRegion(),
		origins:  heap.NewOriginTable(opts.TrackOrigins),
		logger:   opts.Logger,
	}
	if t.name == "" {
		t.name = fmt.Sprintf("task-%d", t.id)
	}

	seg := t.allocSegment(opts.StackSize)
	seg.savedSP = 0
	t.stack = seg
	t.depth.Store(1)
	t.sp = seg.Top()
	t.ResetStackLimit()
	return t
}

// ID returns the task's runtime-unique id.
func (t *Task) ID() uint64 { return t.id }

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

// Boxes returns the task-local box region.
func (t *Task) Boxes() *heap.Region { return t.boxes }

// Origins returns the task's provenance tracker.
func (t *Task) Origins() *heap.OriginTable { return t.origins }

// Logger returns the task's diagnostics logger.
func (t *Task) Logger() *zap.Logger { return t.logger }

// ---------------------------------------------------------------------------
// Stack domain and switching
// ---------------------------------------------------------------------------

// OnManagedStack reports whether the task is executing on its managed stack.
func (t *Task) OnManagedStack() bool { return t.domain == DomainManaged }

// OnNativeStack reports whether the task is executing on the native stack.
func (t *Task) OnNativeStack() bool { return t.domain == DomainNative }

// Switches returns the number of stack switches performed so far. Safe to
// call from any goroutine.
func (t *Task) Switches() uint64 { return t.switches.Load() }

// CallOnNativeStack runs fn on the native stack and returns to the original
// domain. One switch is recorded per round trip. The domain is restored even
// if fn raises, so expected non-local exits (teardown) pass through with the
// bookkeeping intact.
func (t *Task) CallOnNativeStack(fn func()) {
	t.callOn(DomainNative, fn)
}

// CallOnManagedStack runs fn on the managed stack; the counterpart of
// CallOnNativeStack.
func (t *Task) CallOnManagedStack(fn func()) {
	t.callOn(DomainManaged, fn)
}

func (t *Task) callOn(d Domain, fn func()) {
	prev := t.domain
	t.domain = d
	t.switches.Add(1)
	defer func() { t.domain = prev }()
	fn()
}

// ---------------------------------------------------------------------------
// Growable stack
// ---------------------------------------------------------------------------

// Head returns the current head of the segment chain.
func (t *Task) Head() *Segment { return t.stack }

// StackDepth returns the number of segments in the chain. Safe to call from
// any goroutine.
func (t *Task) StackDepth() int { return int(t.depth.Load()) }

// SP returns the task's modeled stack pointer.
func (t *Task) SP() Addr { return t.sp }

// SetSP installs a new stack pointer value. Compiled code owns the register;
// this is its model-world write.
func (t *Task) SetSP(sp Addr) { t.sp = sp }

// Limit returns the installed overflow-guard threshold.
func (t *Task) Limit() Addr { return t.limit }

// NewStack pushes a segment of at least size bytes onto the chain, copies
// the argument block into the segment's top slot, and returns the new stack
// pointer. Runs entirely on the calling stack.
func (t *Task) NewStack(size uint64, args []byte) Addr {
	argsLen := uint64(len(args))
	total := size + argsLen + t.opts.GuardMargin
	if total < size {
		// Wrapped: a truncated segment would hand back a valid-looking
		// stack pointer with almost none of the requested room behind it.
		panic("task: stack size overflow")
	}
	if total < t.opts.MinStackSize {
		total = t.opts.MinStackSize
	}

	seg := t.cache.obtain(total)
	if seg == nil {
		seg = t.allocSegment(total)
	} else {
		seg.base = t.reserve(seg.size)
	}

	if argsLen > 0 {
		copy(seg.ArgSlot(argsLen), args)
	}

	seg.savedSP = t.sp
	seg.prev = t.stack
	t.stack = seg
	t.depth.Add(1)

	t.sp = (seg.Top() - Addr(argsLen)) &^ 15
	t.ResetStackLimit()
	return t.sp
}

// PrevStack pops the chain head and restores the previous segment and stack
// pointer. Runs entirely on the calling stack.
func (t *Task) PrevStack() {
	head := t.stack
	if head == nil || head.prev == nil {
		panic("task: stack chain underflow")
	}

	t.stack = head.prev
	t.depth.Add(-1)
	t.sp = head.savedSP
	t.cache.release(head)
	t.ResetStackLimit()
}

// ResetStackLimit recomputes the overflow guard from the live stack pointer:
// probes at or above sp minus the guard margin pass, anything below faults.
// Mutates guard metadata only, never the chain. Safe to call from landing
// pads where the installed limit is stale.
func (t *Task) ResetStackLimit() {
	margin := Addr(t.opts.GuardMargin)
	if t.sp < margin {
		t.limit = 0
		return
	}
	t.limit = t.sp - margin
}

// Probe reports whether a stack probe at p passes the installed guard.
func (t *Task) Probe(p Addr) bool {
	return p >= t.limit
}

// CacheStats reports segment cache reuse counters.
func (t *Task) CacheStats() (hits, misses uint64) {
	return t.cache.stats()
}

func (t *Task) allocSegment(total uint64) *Segment {
	return &Segment{
		base: t.reserve(total),
		size: total,
		data: make([]byte, total),
	}
}

// reserve claims a base address for a segment of the given size, leaving a
// gap so addresses never alias across segments.
func (t *Task) reserve(size uint64) Addr {
	base := t.nextBase
	t.nextBase += Addr(size) + segmentGap
	return base
}

// ---------------------------------------------------------------------------
// Failure
// ---------------------------------------------------------------------------

// Fail records the failure and begins teardown by raising the Teardown
// sentinel. It does not return.
func (t *Task) Fail(expr, file string, line int) {
	t.failure = Failure{Expr: expr, File: file, Line: line}
	t.failed.Store(true)

	// Best effort; teardown must not depend on the logger surviving.
	t.logger.Error("task failed",
		zap.Uint64("task", t.id),
		zap.String("name", t.name),
		zap.String("expr", expr),
		zap.String("file", file),
		zap.Int("line", line),
	)

	panic(Teardown{Task: t, Failure: t.failure})
}

// Failed reports whether the task has failed. Safe to call from any
// goroutine.
func (t *Task) Failed() bool { return t.failed.Load() }

// FailureInfo returns the recorded failure, if any.
func (t *Task) FailureInfo() (Failure, bool) {
	if !t.failed.Load() {
		return Failure{}, false
	}
	return t.failure, true
}
