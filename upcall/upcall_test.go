package upcall

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chord-lang/chord-runtime/heap"
	"github.com/chord-lang/chord-runtime/task"
)

func newBoundLayer(t *testing.T, opts task.Options) (*Layer, *task.Task) {
	t.Helper()
	l := NewLayer()
	tk := task.New(opts)
	l.Bind(tk)
	t.Cleanup(l.Unbind)
	return l, tk
}

func TestMalloc_ReturnsBoxWithBodyOffset(t *testing.T) {
	l, tk := newBoundLayer(t, task.Options{})
	td := &heap.TypeDesc{Size: 32, Align: 8, Name: "record"}

	h := l.Malloc(td, 0)
	if h == 0 {
		t.Fatal("malloc returned the invalid handle")
	}
	if heap.Body(h) != h+heap.BoxHeaderSize {
		t.Fatal("body not at the fixed offset")
	}
	if tk.Boxes().Live() != 1 {
		t.Fatalf("live boxes = %d, want 1", tk.Boxes().Live())
	}
	if tk.Switches() != 1 {
		t.Fatalf("switches = %d, want 1 (malloc switches to native)", tk.Switches())
	}
	if !tk.OnManagedStack() {
		t.Fatal("caller not back on managed stack")
	}
}

func TestMallocFree_ProvenancePairing(t *testing.T) {
	l, tk := newBoundLayer(t, task.Options{TrackOrigins: true})
	td := &heap.TypeDesc{Size: 16, Align: 8}

	h := l.Malloc(td, 0)

	o, ok := tk.Origins().Lookup(h)
	if !ok {
		t.Fatal("no provenance entry after malloc")
	}
	if !strings.HasSuffix(o.File, "upcall_test.go") {
		t.Fatalf("origin file = %q, want the calling site", o.File)
	}

	l.Free(h)
	if _, ok := tk.Origins().Lookup(h); ok {
		t.Fatal("provenance entry survived free")
	}
	if tk.Boxes().Live() != 0 {
		t.Fatalf("live boxes = %d after free, want 0", tk.Boxes().Live())
	}

	// Handles never returned by malloc have no entry.
	if _, ok := tk.Origins().Lookup(heap.Handle(0xdead0)); ok {
		t.Fatal("entry exists for a handle never allocated")
	}
}

func TestFree_SwitchesToNative(t *testing.T) {
	l, tk := newBoundLayer(t, task.Options{})

	h := l.Malloc(&heap.TypeDesc{Size: 8}, 0)
	before := tk.Switches()
	l.Free(h)

	if tk.Switches() != before+1 {
		t.Fatalf("free recorded %d switches, want 1", tk.Switches()-before)
	}
}

func TestFail_HandsOffToTeardown(t *testing.T) {
	l, tk := newBoundLayer(t, task.Options{})

	defer func() {
		td, ok := recover().(task.Teardown)
		if !ok {
			t.Fatal("fail did not raise the teardown sentinel")
		}
		if td.Failure.Expr != "assert(n < len)" {
			t.Fatalf("failure expr = %q", td.Failure.Expr)
		}
		if !tk.Failed() {
			t.Fatal("task not marked failed")
		}
		if tk.Switches() != 1 {
			t.Fatalf("switches = %d, want 1 (fail switches to native)", tk.Switches())
		}
	}()

	l.Fail("assert(n < len)", "vec.ch", 17)
	t.Fatal("fail returned to its caller")
}

func TestFail_LogsEntryWhenDiagnosticsAvailable(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	l, tk := newBoundLayer(t, task.Options{})

	func() {
		defer func() { recover() }()
		l.Fail("oops", "a.ch", 1)
	}()

	entries := logs.FilterMessage("upcall").All()
	if len(entries) == 0 {
		t.Fatal("no upcall entry logged")
	}
	fields := entries[0].ContextMap()
	if fields["fn"] != "fail" {
		t.Fatalf("fn field = %v", fields["fn"])
	}
	if fields["task"] != tk.ID() {
		t.Fatalf("task field = %v, want %d", fields["task"], tk.ID())
	}
	if fields["retpc"] == uintptr(0) {
		t.Fatal("return address not captured")
	}
}

func TestForwardingAliases(t *testing.T) {
	l, tk := newBoundLayer(t, task.Options{TrackOrigins: true})
	td := &heap.TypeDesc{Size: 8}

	h := l.ChordUpcallMalloc(td, 0)
	if h == 0 {
		t.Fatal("alias malloc returned the invalid handle")
	}
	if _, ok := tk.Origins().Lookup(h); !ok {
		t.Fatal("alias malloc skipped provenance tracking")
	}

	l.ChordUpcallFree(h)
	if tk.Boxes().Live() != 0 {
		t.Fatal("alias free did not release the box")
	}

	defer func() {
		if _, ok := recover().(task.Teardown); !ok {
			t.Fatal("alias fail did not reach teardown")
		}
	}()
	l.ChordUpcallFail("alias", "a.ch", 2)
}

func TestMalloc_OutsideTaskAborts(t *testing.T) {
	l := NewLayer()

	var aborts int
	swapAbort(t, &aborts)

	func() {
		defer func() { recover() }()
		l.Malloc(&heap.TypeDesc{Size: 8}, 0)
	}()

	if aborts != 1 {
		t.Fatalf("abort invoked %d times, want 1", aborts)
	}
}
