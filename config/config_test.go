package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chord-lang/chord-runtime/errors"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[stack]
default-size = "64KiB"
min-size     = "2KiB"
guard-margin = "512B"
cache-cap    = 8

[heap]
track-origins = false

[sched]
workers = 2
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Stack.DefaultSize != 64*1024 {
		t.Fatalf("default-size = %d", cfg.Stack.DefaultSize)
	}
	if cfg.Stack.MinSize != 2*1024 {
		t.Fatalf("min-size = %d", cfg.Stack.MinSize)
	}
	if cfg.Stack.GuardMargin != 512 {
		t.Fatalf("guard-margin = %d", cfg.Stack.GuardMargin)
	}
	if cfg.Stack.CacheCap != 8 {
		t.Fatalf("cache-cap = %d", cfg.Stack.CacheCap)
	}
	if cfg.Heap.TrackOrigins {
		t.Fatal("track-origins not overridden")
	}
	if cfg.Sched.Workers != 2 {
		t.Fatalf("workers = %d", cfg.Sched.Workers)
	}
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[sched]\nworkers = 16\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Sched.Workers != 16 {
		t.Fatalf("workers = %d", cfg.Sched.Workers)
	}
	def := Default()
	if cfg.Stack != def.Stack || cfg.Heap != def.Heap {
		t.Fatal("unmentioned sections lost their defaults")
	}
}

func TestParse_RejectsBadSize(t *testing.T) {
	_, err := Parse([]byte("[stack]\ndefault-size = \"lots\"\n"))
	if err == nil {
		t.Fatal("unparseable size accepted")
	}
}

func TestValidate_GuardMarginMustFitMinSegment(t *testing.T) {
	cfg := Default()
	cfg.Stack.GuardMargin = cfg.Stack.MinSize
	err := cfg.Validate()
	if err == nil {
		t.Fatal("guard margin covering whole segments accepted")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOutOfRange {
		t.Fatalf("err = %v, want out_of_range", err)
	}
}

func TestValidate_WorkersMustBePositive(t *testing.T) {
	cfg := Default()
	cfg.Sched.Workers = 0
	if cfg.Validate() == nil {
		t.Fatal("zero workers accepted")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chordrt.toml")
	if err := os.WriteFile(path, []byte("[stack]\ncache-cap = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stack.CacheCap != 1 {
		t.Fatalf("cache-cap = %d", cfg.Stack.CacheCap)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestTaskOptions_CarriesTunables(t *testing.T) {
	cfg := Default()
	cfg.Stack.DefaultSize = 8192
	cfg.Heap.TrackOrigins = false

	o := cfg.TaskOptions()
	if o.StackSize != 8192 {
		t.Fatalf("StackSize = %d", o.StackSize)
	}
	if o.GuardMargin != uint64(cfg.Stack.GuardMargin) {
		t.Fatalf("GuardMargin = %d", o.GuardMargin)
	}
	if o.TrackOrigins {
		t.Fatal("TrackOrigins carried wrongly")
	}
}
