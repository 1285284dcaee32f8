// Package errors provides structured error types for the chord-runtime library.
//
// Errors are categorized by Phase (which runtime surface the error occurred at)
// and Kind (error category). The Error type includes context: a component path,
// the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConfig, errors.KindInvalidInput).
//		Path("stack", "default-size").
//		Detail("size %q is not parseable", raw).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidInput(errors.PhaseABI, "namespace cannot be empty")
//	err := errors.NotFound(errors.PhaseTask, "segment", "head")
//
// All errors implement the standard error interface and support errors.Is/As.
//
// The upcall layer itself does not return errors: it is a thin synchronous
// forwarding layer whose only failure modes are the task-teardown transfer and
// the fatal boundary abort. This package serves the surfaces around it
// (configuration, ABI binding, scheduler).
package errors
