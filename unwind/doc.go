// Package unwind models the host exception-unwinding machinery the runtime
// delegates to.
//
// The runtime never walks frames or consumes unwind tables itself; it only
// forwards personality callbacks to a native routine with the right stack
// placement. This package defines the callback contract: reason codes, action
// flags, the exception and context records, and the Personality function
// type. Context and Exception are forwarded by the bridge, never owned or
// mutated.
//
// TableScan is a reference personality used as the default delegate and by
// tests; it implements just enough of the two-phase search/cleanup protocol
// to exercise the bridge.
package unwind
