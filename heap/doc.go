// Package heap implements the task-local box heap behind the allocation
// upcalls.
//
// A box is a header plus a body; the body always sits at BoxHeaderSize bytes
// from the start of the box, so compiled code can reach it with a fixed
// offset from the opaque handle. Handles are virtual addresses in a per-task
// address space, never reused while live.
//
// The OriginTable is best-effort diagnostic bookkeeping correlating live
// boxes with the call site that created them. Entries are added and removed
// in matching pairs by the allocation upcalls; losing an entry is acceptable,
// leaking one is not.
//
// A Region belongs to exactly one task and is not synchronized; the origin
// table and the live counter are internally synchronized so inspectors can
// read them from other goroutines.
package heap
