// Package upcall implements the fixed runtime entry points compiled chord
// code targets.
//
// Upcalls are called on the task's managed stack and, in most cases,
// immediately switch to the native stack to do the real work. The exceptions
// are the stack-management group (NewStack, DelStack, ResetStackLimit),
// which must stay on the calling stack, and the personality bridge, which
// switches only when it finds itself on the managed side.
//
// A Layer is the per-worker instance of the entry points. Its current-task
// binding is installed by the scheduler when a task is dispatched and
// cleared when the task leaves the worker; it is never a process-wide
// global. A Layer with no bound task serves calls made outside any task
// (startup, foreign threads): the stack-switch shims then degrade to plain
// calls on the current stack.
//
// Entry points must not change shape without coordinating with the code
// generator; see the ABI table in the abi package for the wire names.
//
// Error model: the failure upcall is an expected non-local transfer into
// task teardown. Any other panic that would have to cross a stack-switch
// boundary is unrecoverable; the shims intercept it at the boundary and
// abort the process without logging, since no runtime state can be trusted
// there.
package upcall
