// Package sched runs task workloads on a fixed pool of workers.
//
// Each worker goroutine owns one upcall layer. At dispatch the worker
// creates the task and binds it to its layer; at completion it unbinds and
// finalizes. The worker run loop is the only place allowed to recover the
// teardown sentinel a failing task raises.
package sched
