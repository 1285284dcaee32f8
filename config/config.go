package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/inhies/go-bytesize"

	"github.com/chord-lang/chord-runtime/errors"
	"github.com/chord-lang/chord-runtime/task"
)

// Size is a byte count that unmarshals from strings like "32KiB".
type Size uint64

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(text []byte) error {
	b, err := bytesize.Parse(string(text))
	if err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(string(text)).
			Cause(err).
			Detail("size %q is not parseable", string(text)).
			Build()
	}
	*s = Size(b)
	return nil
}

// String renders the size back in human-readable form.
func (s Size) String() string {
	return bytesize.New(float64(s)).String()
}

// Stack holds the segmented-stack tunables.
type Stack struct {
	DefaultSize Size `toml:"default-size"`
	MinSize     Size `toml:"min-size"`
	GuardMargin Size `toml:"guard-margin"`
	CacheCap    int  `toml:"cache-cap"`
}

// Heap holds the box-heap tunables.
type Heap struct {
	TrackOrigins bool `toml:"track-origins"`
}

// Sched holds the worker-pool tunables.
type Sched struct {
	Workers int `toml:"workers"`
}

// Config is the full set of runtime tunables.
type Config struct {
	Stack Stack `toml:"stack"`
	Heap  Heap  `toml:"heap"`
	Sched Sched `toml:"sched"`
}

// Default returns the tunables used when no file is given.
func Default() *Config {
	return &Config{
		Stack: Stack{
			DefaultSize: 32 * 1024,
			MinSize:     1024,
			GuardMargin: 256,
			CacheCap:    4,
		},
		Heap:  Heap{TrackOrigins: true},
		Sched: Sched{Workers: 4},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config file")
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the runtime cannot honor.
func (c *Config) Validate() error {
	if c.Stack.MinSize == 0 {
		return errors.OutOfRange(errors.PhaseConfig, []string{"stack", "min-size"},
			c.Stack.MinSize, "must be positive")
	}
	if c.Stack.DefaultSize < c.Stack.MinSize {
		return errors.OutOfRange(errors.PhaseConfig, []string{"stack", "default-size"},
			c.Stack.DefaultSize, "smaller than stack.min-size")
	}
	if c.Stack.GuardMargin >= c.Stack.MinSize {
		return errors.OutOfRange(errors.PhaseConfig, []string{"stack", "guard-margin"},
			c.Stack.GuardMargin, "must be smaller than stack.min-size")
	}
	if c.Stack.CacheCap < 0 {
		return errors.OutOfRange(errors.PhaseConfig, []string{"stack", "cache-cap"},
			c.Stack.CacheCap, "must not be negative")
	}
	if c.Sched.Workers <= 0 {
		return errors.OutOfRange(errors.PhaseConfig, []string{"sched", "workers"},
			c.Sched.Workers, "must be positive")
	}
	return nil
}

// TaskOptions converts the tunables into per-task options.
func (c *Config) TaskOptions() task.Options {
	return task.Options{
		StackSize:    uint64(c.Stack.DefaultSize),
		MinStackSize: uint64(c.Stack.MinSize),
		GuardMargin:  uint64(c.Stack.GuardMargin),
		CacheCap:     c.Stack.CacheCap,
		TrackOrigins: c.Heap.TrackOrigins,
	}
}
