package upcall

import (
	"testing"

	"github.com/chord-lang/chord-runtime/task"
)

func TestNewStackDelStack_BalancedNesting(t *testing.T) {
	for _, n := range []uint64{0, 8, 512, 64 * 1024} {
		l, tk := newBoundLayer(t, task.Options{})
		head := tk.Head()

		sp := l.NewStack(n, []byte{1, 2, 3, 4})
		if sp == 0 {
			t.Fatalf("n=%d: zero stack pointer", n)
		}
		if tk.Head() == head {
			t.Fatalf("n=%d: chain head unchanged after grow", n)
		}

		l.DelStack()
		if tk.Head() != head {
			t.Fatalf("n=%d: chain head identity not restored", n)
		}
	}
}

func TestStackGroup_NeverSwitches(t *testing.T) {
	// The growth/shrink/reset group is the hot path and must stay on the
	// calling stack.
	l, tk := newBoundLayer(t, task.Options{})

	l.NewStack(4096, []byte("args"))
	l.ResetStackLimit()
	l.DelStack()

	if tk.Switches() != 0 {
		t.Fatalf("stack group performed %d switches, want 0", tk.Switches())
	}
}

func TestNewStack_DeepNesting(t *testing.T) {
	l, tk := newBoundLayer(t, task.Options{})
	head := tk.Head()

	const depth = 64
	for i := 0; i < depth; i++ {
		l.NewStack(uint64(i)*64, nil)
	}
	if tk.StackDepth() != depth+1 {
		t.Fatalf("depth = %d, want %d", tk.StackDepth(), depth+1)
	}
	for i := 0; i < depth; i++ {
		l.DelStack()
	}
	if tk.Head() != head {
		t.Fatal("chain not restored after deep nesting")
	}
}

func TestResetStackLimit_GuardBoundaryThroughLayer(t *testing.T) {
	const margin = 128
	l, tk := newBoundLayer(t, task.Options{GuardMargin: margin})

	sp := l.NewStack(2048, nil)
	l.ResetStackLimit()

	boundary := sp - margin
	if !tk.Probe(boundary) || !tk.Probe(sp) {
		t.Fatal("probe at or above the boundary reported overflow")
	}
	if tk.Probe(boundary - 1) {
		t.Fatal("probe below the boundary passed")
	}
}

func TestResetStackLimit_SafeInLandingPad(t *testing.T) {
	// After an unwind lands on the outer segment the installed limit still
	// belongs to the popped segment; reset must clear it so the very next
	// guarded call does not fault.
	l, tk := newBoundLayer(t, task.Options{GuardMargin: 64})

	outerSP := tk.SP()
	l.NewStack(8192, nil)
	l.DelStack()

	tk.SetSP(outerSP)
	l.ResetStackLimit()

	if !tk.Probe(outerSP - 64) {
		t.Fatal("spurious overflow fault after landing-pad reset")
	}
}
