package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/chord-lang/chord-runtime/config"
	"github.com/chord-lang/chord-runtime/heap"
	"github.com/chord-lang/chord-runtime/sched"
	"github.com/chord-lang/chord-runtime/task"
	"github.com/chord-lang/chord-runtime/upcall"
)

var workloads = map[string]sched.Work{
	"grow":  growWorkload,
	"alloc": allocWorkload,
	"fail":  failWorkload,
	"mixed": mixedWorkload,
}

func main() {
	var (
		cfgPath     = flag.String("config", "", "Path to TOML config file")
		workers     = flag.Int("workers", 0, "Worker count (overrides config)")
		tasks       = flag.Int("tasks", 8, "Number of tasks to run")
		workload    = flag.String("workload", "mixed", "Workload: grow, alloc, fail, mixed")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose runtime logging")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *workers > 0 {
		cfg.Sched.Workers = *workers
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger, *workload, *tasks); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, workload string, tasks int) error {
	w, ok := workloads[workload]
	if !ok {
		return fmt.Errorf("unknown workload %q (have: %s)", workload, workloadNames())
	}

	p := sched.New(sched.Options{
		Workers: cfg.Sched.Workers,
		Task:    cfg.TaskOptions(),
		Logger:  logger,
	})
	defer p.Close()

	fmt.Printf("Workload: %s\n", workload)
	fmt.Printf("Workers:  %d\n", cfg.Sched.Workers)

	done := make([]<-chan sched.Result, 0, tasks)
	for i := 0; i < tasks; i++ {
		ch, err := p.Submit(fmt.Sprintf("%s-%d", workload, i), w)
		if err != nil {
			return err
		}
		done = append(done, ch)
	}

	for _, ch := range done {
		res := <-ch
		if res.Failed() {
			fmt.Printf("  task %-4d %-12s torn down: %s at %s:%d\n",
				res.Task, res.Name, res.Failure.Expr, res.Failure.File, res.Failure.Line)
		} else {
			fmt.Printf("  task %-4d %-12s ok\n", res.Task, res.Name)
		}
	}

	s := p.Stats()
	fmt.Printf("\nCompleted: %d\nFailed:    %d\n", s.Completed, s.Failed)
	return nil
}

func workloadNames() string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// ---------------------------------------------------------------------------
// Demo workloads
// ---------------------------------------------------------------------------

// growWorkload exercises the stack group: deep nesting, guard resets, and
// balanced unwinding.
func growWorkload(l *upcall.Layer, t *task.Task) {
	const depth = 32
	for i := 0; i < depth; i++ {
		l.NewStack(uint64(512+i*64), []byte("frame args"))
		l.ResetStackLimit()
	}
	for i := 0; i < depth; i++ {
		l.DelStack()
	}
}

// allocWorkload exercises the box heap with interleaved lifetimes.
func allocWorkload(l *upcall.Layer, t *task.Task) {
	pair := &heap.TypeDesc{Size: 16, Align: 8, Name: "pair"}
	vec := &heap.TypeDesc{Size: 24, Align: 8, Name: "vec"}

	handles := make([]heap.Handle, 0, 64)
	for i := 0; i < 64; i++ {
		td := pair
		if i%2 == 0 {
			td = vec
		}
		handles = append(handles, l.Malloc(td, 0))
	}
	// Free evens first, then odds.
	for i := 0; i < len(handles); i += 2 {
		l.Free(handles[i])
	}
	for i := 1; i < len(handles); i += 2 {
		l.Free(handles[i])
	}
}

// failWorkload does some work and then trips an assertion.
func failWorkload(l *upcall.Layer, t *task.Task) {
	l.NewStack(2048, nil)
	h := l.Malloc(&heap.TypeDesc{Size: 8, Name: "counter"}, 0)
	_ = h
	l.Fail("assert(idx < bounds)", "demo.ch", 42)
}

// mixedWorkload interleaves stack growth with allocation.
func mixedWorkload(l *upcall.Layer, t *task.Task) {
	td := &heap.TypeDesc{Size: 32, Align: 16, Name: "closure"}
	for i := 0; i < 8; i++ {
		l.NewStack(1024, nil)
		h := l.Malloc(td, 0)
		l.Free(h)
	}
	for i := 0; i < 8; i++ {
		l.DelStack()
	}
}
