package upcall

import (
	"github.com/chord-lang/chord-runtime/task"
)

// The stack-management group is the hot path: called from every compiled
// function prologue that outgrows its segment. No stack switch, no argument
// block, no logging.

// NewStack obtains a stack segment of at least size bytes, copies the
// caller's argument block into the segment's designated slot, links it as
// the new chain head, and returns the address compiled code should install
// as its stack pointer.
func (l *Layer) NewStack(size uint64, args []byte) task.Addr {
	return l.mustCurrent("upcall_new_stack").NewStack(size, args)
}

// DelStack detaches the current head segment and restores the previous one.
func (l *Layer) DelStack() {
	l.mustCurrent("upcall_del_stack").PrevStack()
}

// ResetStackLimit recomputes the overflow guard from the task's live stack
// pointer. Landing pads call this because the limit for the segment they
// unwound onto may be stale; without the reset the next guarded call would
// fault spuriously. Runs on the managed stack because it needs the genuine
// stack pointer at the call site.
func (l *Layer) ResetStackLimit() {
	l.mustCurrent("upcall_reset_stack_limit").ResetStackLimit()
}
