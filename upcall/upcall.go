package upcall

import (
	"runtime"

	"github.com/chord-lang/chord-runtime/heap"
)

// ---------------------------------------------------------------------------
// Failure
// ---------------------------------------------------------------------------

type failArgs struct {
	Expr string
	File string
	Line int
}

func sFail(b *Block[failArgs, struct{}]) {
	b.Task.Fail(b.Args.Expr, b.Args.File, b.Args.Line)
}

// Fail retrieves the current task, switches to the native stack, and hands
// off to the task's failure entry point. Teardown is non-local: Fail does
// not return to the caller.
func (l *Layer) Fail(expr, file string, line int) {
	t := l.mustCurrent("upcall_fail")
	logEntry(t, "fail")

	b := &Block[failArgs, struct{}]{
		Task: t,
		Args: failArgs{Expr: expr, File: file, Line: line},
	}
	t.CallOnNativeStack(func() { sFail(b) })
}

// ---------------------------------------------------------------------------
// Task-local allocation
// ---------------------------------------------------------------------------

type mallocArgs struct {
	TD   *heap.TypeDesc
	Size uint64

	// Creating call site, captured before the switch.
	pc   uintptr
	file string
	line int
}

func sMalloc(b *Block[mallocArgs, heap.Handle]) {
	box := b.Task.Boxes().Malloc(b.Args.TD, b.Args.Size)
	b.Task.Origins().TrackAt(box, b.Args.pc, b.Args.file, b.Args.line)
	b.Ret = box
}

// Malloc allocates a box in the task-local heap on the native stack and
// returns its opaque handle. The body sits at heap.BoxHeaderSize from the
// handle. Allocation-failure policy belongs to the region; this layer adds
// no retry or recovery.
func (l *Layer) Malloc(td *heap.TypeDesc, size uint64) heap.Handle {
	t := l.mustCurrent("upcall_malloc")
	logEntry(t, "malloc")

	b := &Block[mallocArgs, heap.Handle]{
		Task: t,
		Args: mallocArgs{TD: td, Size: size},
	}
	if pc, file, line, ok := runtime.Caller(1); ok {
		b.Args.pc, b.Args.file, b.Args.line = pc, file, line
	}

	t.CallOnNativeStack(func() { sMalloc(b) })
	return b.Ret
}

type freeArgs struct {
	Handle heap.Handle
}

func sFree(b *Block[freeArgs, struct{}]) {
	b.Task.Origins().Untrack(b.Args.Handle)
	b.Task.Boxes().Free(b.Args.Handle)
}

// Free returns a box to the task-local heap on the native stack, removing
// its provenance entry first. The handle must come from Malloc and must not
// have been freed before; no defensive check is made.
func (l *Layer) Free(h heap.Handle) {
	t := l.mustCurrent("upcall_free")
	logEntry(t, "free")

	b := &Block[freeArgs, struct{}]{Task: t, Args: freeArgs{Handle: h}}
	t.CallOnNativeStack(func() { sFree(b) })
}

// ---------------------------------------------------------------------------
// Forwarding aliases
// ---------------------------------------------------------------------------

// The chord_upcall_* names are kept for the older code-generation path,
// which links runtime services under prefixed symbols. Pure pass-throughs;
// retire once nothing references them.

// ChordUpcallFail forwards to Fail.
func (l *Layer) ChordUpcallFail(expr, file string, line int) {
	l.Fail(expr, file, line)
}

// ChordUpcallMalloc forwards to Malloc.
func (l *Layer) ChordUpcallMalloc(td *heap.TypeDesc, size uint64) heap.Handle {
	return l.Malloc(td, size)
}

// ChordUpcallFree forwards to Free.
func (l *Layer) ChordUpcallFree(h heap.Handle) {
	l.Free(h)
}
