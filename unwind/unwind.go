package unwind

// Reason is the result code a personality routine reports back to the
// unwinder after examining one frame.
type Reason int

const (
	ReasonNoReason         Reason = 0
	ReasonForeignCaught    Reason = 1
	ReasonFatalPhase2Error Reason = 2
	ReasonFatalPhase1Error Reason = 3
	ReasonNormalStop       Reason = 4
	ReasonEndOfStack       Reason = 5
	ReasonHandlerFound     Reason = 6
	ReasonInstallContext   Reason = 7
	ReasonContinueUnwind   Reason = 8
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNoReason:
		return "no-reason"
	case ReasonForeignCaught:
		return "foreign-exception-caught"
	case ReasonFatalPhase2Error:
		return "fatal-phase2-error"
	case ReasonFatalPhase1Error:
		return "fatal-phase1-error"
	case ReasonNormalStop:
		return "normal-stop"
	case ReasonEndOfStack:
		return "end-of-stack"
	case ReasonHandlerFound:
		return "handler-found"
	case ReasonInstallContext:
		return "install-context"
	case ReasonContinueUnwind:
		return "continue-unwind"
	default:
		return "unknown"
	}
}

// Action is the bitmask describing what the unwinder wants from the
// personality routine for the current frame.
type Action int

const (
	ActionSearchPhase  Action = 1 << 0
	ActionCleanupPhase Action = 1 << 1
	ActionHandlerFrame Action = 1 << 2
	ActionForceUnwind  Action = 1 << 3
	ActionEndOfStack   Action = 1 << 4
)

// Class tags the language and implementation that raised an exception.
type Class uint64

// ChordClass is the exception class for failures raised by chord tasks.
// Eight bytes, vendor then language, per the usual convention.
const ChordClass Class = 0x43484F5244000000 // "CHORD\0\0\0"

// Exception is the in-flight exception record. The bridge forwards it
// untouched; only the creator may mutate it.
type Exception struct {
	Class   Class
	Cleanup func(Reason, *Exception)
	// Private unwinder state, opaque to everything but the unwinder.
	private [2]uint64
}

// Context is the unwinder's view of the frame being examined: instruction
// pointer, canonical frame address, and the landing-pad slot the personality
// fills in when a handler is selected.
type Context struct {
	IP         uint64
	CFA        uint64
	LandingPad uint64
}

// Personality is the callback signature the unwinder invokes per frame.
type Personality func(version int, actions Action, class Class, exc *Exception, ctx *Context) Reason

// TableScan is the reference personality. Phase 1 reports a handler for
// chord-class exceptions; phase 2 installs the context. Foreign classes
// continue unwinding.
func TableScan(version int, actions Action, class Class, exc *Exception, ctx *Context) Reason {
	if version != 1 {
		return ReasonFatalPhase1Error
	}
	if exc == nil || ctx == nil {
		return ReasonFatalPhase1Error
	}
	if class != ChordClass {
		return ReasonContinueUnwind
	}
	if actions&ActionSearchPhase != 0 {
		return ReasonHandlerFound
	}
	if actions&(ActionCleanupPhase|ActionHandlerFrame) != 0 {
		ctx.LandingPad = ctx.IP
		return ReasonInstallContext
	}
	return ReasonContinueUnwind
}
