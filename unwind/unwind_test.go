package unwind

import "testing"

func TestTableScan_Phases(t *testing.T) {
	exc := &Exception{Class: ChordClass}

	if r := TableScan(1, ActionSearchPhase, ChordClass, exc, &Context{IP: 0x10}); r != ReasonHandlerFound {
		t.Fatalf("search phase = %v", r)
	}

	ctx := &Context{IP: 0x10}
	if r := TableScan(1, ActionCleanupPhase|ActionHandlerFrame, ChordClass, exc, ctx); r != ReasonInstallContext {
		t.Fatalf("cleanup phase = %v", r)
	}
	if ctx.LandingPad != 0x10 {
		t.Fatalf("landing pad = %#x", ctx.LandingPad)
	}
}

func TestTableScan_ForeignClassContinues(t *testing.T) {
	foreign := Class(0x474343432B2B0000)
	r := TableScan(1, ActionSearchPhase, foreign, &Exception{Class: foreign}, &Context{})
	if r != ReasonContinueUnwind {
		t.Fatalf("foreign class = %v", r)
	}
}

func TestTableScan_RejectsBadInputs(t *testing.T) {
	if r := TableScan(3, ActionSearchPhase, ChordClass, &Exception{}, &Context{}); r != ReasonFatalPhase1Error {
		t.Fatalf("unknown version = %v", r)
	}
	if r := TableScan(1, ActionSearchPhase, ChordClass, nil, &Context{}); r != ReasonFatalPhase1Error {
		t.Fatalf("nil exception = %v", r)
	}
	if r := TableScan(1, ActionSearchPhase, ChordClass, &Exception{}, nil); r != ReasonFatalPhase1Error {
		t.Fatalf("nil context = %v", r)
	}
}

func TestReason_String(t *testing.T) {
	cases := map[Reason]string{
		ReasonHandlerFound:   "handler-found",
		ReasonInstallContext: "install-context",
		ReasonContinueUnwind: "continue-unwind",
		Reason(99):           "unknown",
	}
	for r, want := range cases {
		if r.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(r), r.String(), want)
		}
	}
}
