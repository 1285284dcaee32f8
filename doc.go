// Package chordrt models the Chord language runtime's upcall layer: the
// services compiled Chord code reaches by switching from its growable
// managed stack onto the host's native stack.
//
// # Architecture Overview
//
//	chord-runtime/       Root package documentation
//	├── task/            Tasks, segment chains, stack domains, failure
//	├── heap/            Task-local box regions and allocation provenance
//	├── upcall/          The upcall entry points and stack-switch trampoline
//	├── unwind/          Personality routine types for exception dispatch
//	├── abi/             wazero host module exposing the numeric upcalls
//	├── sched/           Worker pool; binds tasks to upcall layers
//	├── config/          TOML tunables with human-readable sizes
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Run a task body against the upcall layer:
//
//	p := sched.New(sched.Options{Workers: 4})
//	defer p.Close()
//
//	res, err := p.Run("demo", func(l *upcall.Layer, t *task.Task) {
//	    sp := l.NewStack(4096, nil)
//	    defer l.DelStack()
//
//	    h := l.Malloc(&heap.TypeDesc{Size: 32, Align: 8, Name: "pair"}, 0)
//	    defer l.Free(h)
//	    _ = sp
//	})
//
// # Stack Domains
//
// A task is always on exactly one of two stacks: its managed segment chain
// or the host's native stack. Upcalls that do real work (fail, malloc, free)
// switch to the native stack and back; the stack group (new_stack,
// del_stack, reset_stack_limit) runs on the calling stack because it is the
// function-prologue hot path.
//
// # Thread Safety
//
// A Layer and the task bound to it belong to one worker goroutine. Counters
// and failure state may be read from other goroutines; everything else may
// not.
package chordrt
