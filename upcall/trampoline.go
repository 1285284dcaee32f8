package upcall

import (
	"fmt"
	"os"

	"github.com/chord-lang/chord-runtime/task"
	"github.com/chord-lang/chord-runtime/unwind"
)

// Block carries the inputs and the return slot for one stack-switched call.
// A block has a single owner (the calling upcall), lives for the duration of
// the switch, and is never shared across concurrent calls.
type Block[A, R any] struct {
	Task *task.Task
	Args A
	Ret  R
}

// Fn is a function invoked on the opposite stack with one argument block.
type Fn[A, R any] func(*Block[A, R])

// abort terminates the process when a panic crosses a stack-switch boundary.
// Stack and frame identity cannot be trusted at that point, so no logging:
// one line straight to stderr, then exit. Must not return.
var abort = func(reason string) {
	fmt.Fprintln(os.Stderr, "fatal: "+reason)
	os.Exit(2)
}

// Layer is one worker's instance of the upcall entry points. The scheduler
// binds the running task at dispatch and unbinds it at completion; a Layer
// is owned by a single worker goroutine and needs no locking.
type Layer struct {
	current *task.Task
	native  unwind.Personality
}

// NewLayer creates a layer with no bound task and the reference native
// personality.
func NewLayer() *Layer {
	return &Layer{native: unwind.TableScan}
}

// Bind installs the task now running on this layer's worker.
func (l *Layer) Bind(t *task.Task) {
	l.current = t
}

// Unbind clears the current-task binding.
func (l *Layer) Unbind() {
	l.current = nil
}

// Current returns the task bound to this layer, or nil outside any task.
func (l *Layer) Current() *task.Task {
	return l.current
}

// SetNativePersonality replaces the personality routine the bridge delegates
// to.
func (l *Layer) SetNativePersonality(p unwind.Personality) {
	l.native = p
}

// mustCurrent returns the bound task or dies: most upcalls have no meaning
// outside task context.
func (l *Layer) mustCurrent(entry string) *task.Task {
	t := l.current
	if t == nil {
		abort(entry + " called outside task context")
		panic(entry + ": no current task") // abort must not return
	}
	return t
}

// CallShimOnNative invokes fn(b) on the native stack and returns control to
// the caller on its original stack, the result passed through the block's
// return slot.
//
// With no current task there is no stack pair to switch between; fn runs
// directly on the caller's stack with no switch recorded. Remaining headroom
// is not verified in that case; early-startup and foreign-thread callers
// rely on the direct call.
//
// A panic raised by fn across the switch is fatal: it is caught at the
// boundary and the process aborts. It is never propagated or logged.
func CallShimOnNative[A, R any](l *Layer, b *Block[A, R], fn Fn[A, R]) {
	t := l.Current()
	if t == nil {
		fn(b)
		return
	}

	b.Task = t
	defer func() {
		if r := recover(); r != nil {
			abort(fmt.Sprintf("foreign code panicked across a stack switch: %v", r))
		}
	}()
	t.CallOnNativeStack(func() { fn(b) })
}

// CallShimOnManaged is the opposite direction: it starts on the native stack
// and invokes fn(b) on the managed stack. The only upcall that runs from the
// native side. Same no-task fallback and same fatal boundary contract: a
// task panicking after reentering the managed stack cannot be unwound
// through arbitrary frames, so the process aborts.
func CallShimOnManaged[A, R any](l *Layer, b *Block[A, R], fn Fn[A, R]) {
	t := l.Current()
	if t == nil {
		fn(b)
		return
	}

	b.Task = t
	defer func() {
		if r := recover(); r != nil {
			abort(fmt.Sprintf("task panicked after reentering the managed stack: %v", r))
		}
	}()
	t.CallOnManagedStack(func() { fn(b) })
}
