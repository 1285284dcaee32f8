package upcall

import (
	"github.com/chord-lang/chord-runtime/unwind"
)

type personalityArgs struct {
	Version int
	Actions unwind.Action
	Class   unwind.Class
	Exc     *unwind.Exception
	Ctx     *unwind.Context
}

func (l *Layer) sPersonality(b *Block[personalityArgs, unwind.Reason]) {
	b.Ret = l.native(b.Args.Version, b.Args.Actions, b.Args.Class, b.Args.Exc, b.Args.Ctx)
}

// Personality adapts the native personality routine to segmented stacks. The
// unwinder runs it on the stack of whatever frame last threw or landed,
// which is sometimes the managed stack; the native routine's table lookups
// assume native-stack invariants, so switch first when on the managed side.
// Already native means no switch: a redundant switch mid-unwind is unsafe.
//
// The reason code comes back verbatim. No logging here: most logging paths
// are unsafe during unwinding.
func (l *Layer) Personality(version int, actions unwind.Action, class unwind.Class, exc *unwind.Exception, ctx *unwind.Context) unwind.Reason {
	b := &Block[personalityArgs, unwind.Reason]{
		Args: personalityArgs{
			Version: version,
			Actions: actions,
			Class:   class,
			Exc:     exc,
			Ctx:     ctx,
		},
	}

	t := l.Current()
	if t != nil && t.OnManagedStack() {
		b.Task = t
		t.CallOnNativeStack(func() { l.sPersonality(b) })
	} else {
		l.sPersonality(b)
	}
	return b.Ret
}
