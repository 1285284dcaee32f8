// Package task implements the cooperatively scheduled unit of execution the
// upcall layer serves.
//
// A Task owns a growable stack modeled as a chain of segments with virtual
// addresses, a task-local box heap, and failure state. The managed/native
// stack pair is explicit: the task tracks which stack domain it is executing
// on and counts every switch, so placement decisions (and tests) can observe
// exactly how many switches an operation performed.
//
// A task executes single-threaded from its own perspective. Fields read by
// inspectors from other goroutines (switch count, segment depth, failure
// flag) are atomic; everything else is owned by the worker goroutine running
// the task.
//
// Failure is a non-local transfer: Fail records the failure and raises the
// Teardown sentinel, which only the worker run loop recovers.
package task
