package heap

import (
	"runtime"
	"sync"
)

// Origin records where a live box came from.
type Origin struct {
	File string
	Line int
	PC   uintptr
	Seq  uint64
}

// OriginTable is the best-effort provenance tracker keyed by box handle.
// It is internally synchronized: the owning task writes, inspectors read.
type OriginTable struct {
	mu      sync.RWMutex
	entries map[Handle]Origin
	seq     uint64
	enabled bool
}

// NewOriginTable creates a tracker. A disabled table accepts every call and
// records nothing.
func NewOriginTable(enabled bool) *OriginTable {
	return &OriginTable{
		entries: make(map[Handle]Origin, 64),
		enabled: enabled,
	}
}

// Track records the allocation site for h. skip counts stack frames above
// the caller, as in runtime.Caller.
func (t *OriginTable) Track(h Handle, skip int) {
	if t == nil || !t.enabled || h == 0 {
		return
	}

	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		file, line = "unknown", 0
	}
	t.TrackAt(h, pc, file, line)
}

// TrackAt records an already-captured allocation site for h. Callers that
// cross a stack switch capture the site before switching and record it here.
func (t *OriginTable) TrackAt(h Handle, pc uintptr, file string, line int) {
	if t == nil || !t.enabled || h == 0 {
		return
	}
	t.mu.Lock()
	t.seq++
	t.entries[h] = Origin{File: file, Line: line, PC: pc, Seq: t.seq}
	t.mu.Unlock()
}

// Untrack removes the entry for h if present.
func (t *OriginTable) Untrack(h Handle) {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	delete(t.entries, h)
	t.mu.Unlock()
}

// Lookup returns the origin recorded for h.
func (t *OriginTable) Lookup(h Handle) (Origin, bool) {
	if t == nil {
		return Origin{}, false
	}
	t.mu.RLock()
	o, ok := t.entries[h]
	t.mu.RUnlock()
	return o, ok
}

// Len returns the number of tracked allocations.
func (t *OriginTable) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	n := len(t.entries)
	t.mu.RUnlock()
	return n
}

// Each iterates over tracked allocations until fn returns false. The
// iteration order is unspecified.
func (t *OriginTable) Each(fn func(Handle, Origin) bool) {
	if t == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for h, o := range t.entries {
		if !fn(h, o) {
			break
		}
	}
}
