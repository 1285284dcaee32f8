package heap

import (
	"sync/atomic"
)

// Handle is the opaque address of a box. Handle 0 is reserved and always
// invalid. The box body lives at Handle+BoxHeaderSize.
type Handle uint64

// BoxHeaderSize is the fixed distance from a box handle to its body.
const BoxHeaderSize = 16

// Body returns the body address for a box handle.
func Body(h Handle) Handle {
	return h + BoxHeaderSize
}

// TypeDesc is the layout metadata for a boxed value. The heap passes it
// through unexamined except for Size (used when the caller requests no
// explicit size) and Align.
type TypeDesc struct {
	Size  uint64
	Align uint64
	Name  string
}

// Box is one task-local heap object: header fields plus body storage.
type Box struct {
	TD   *TypeDesc
	Size uint64
	Refs int32
	body []byte
}

// Region is a task-private box allocator. It is owned by a single task and
// performs no locking of its own; only the live counter is shared with
// inspectors.
type Region struct {
	boxes  map[Handle]*Box
	next   Handle
	live   atomic.Int64
	allocs uint64
	frees  uint64
}

// regionBase keeps handle zero (and small integers) out of the address
// space, so a zero handle is always distinguishable from a real box.
const regionBase Handle = 0x1000

// NewRegion creates an empty box region.
func NewRegion() *Region {
	return &Region{
		boxes: make(map[Handle]*Box, 64),
		next:  regionBase,
	}
}

// Malloc allocates a box sized for td and size and returns its handle.
// A zero size falls back to the descriptor's intrinsic size. Out-of-memory
// policy is Go's own; the region adds no retry or recovery.
func (r *Region) Malloc(td *TypeDesc, size uint64) Handle {
	if size == 0 && td != nil {
		size = td.Size
	}

	align := uint64(BoxHeaderSize)
	if td != nil && td.Align > align {
		align = td.Align
	}

	h := alignUp(r.next, align)
	r.next = h + BoxHeaderSize + alignUp(Handle(size), BoxHeaderSize)

	r.boxes[h] = &Box{
		TD:   td,
		Size: size,
		Refs: 1,
		body: make([]byte, size),
	}
	r.allocs++
	r.live.Add(1)
	return h
}

// Free returns a box's storage to the region. The handle must have come from
// Malloc on this region and must not have been freed before; the region does
// not defend against a violated contract.
func (r *Region) Free(h Handle) {
	if _, ok := r.boxes[h]; ok {
		delete(r.boxes, h)
		r.frees++
		r.live.Add(-1)
	}
}

// Box returns the box behind a handle.
func (r *Region) Box(h Handle) (*Box, bool) {
	b, ok := r.boxes[h]
	return b, ok
}

// Bytes returns the body storage of a live box, nil otherwise.
func (r *Region) Bytes(h Handle) []byte {
	if b, ok := r.boxes[h]; ok {
		return b.body
	}
	return nil
}

// Live returns the number of boxes currently allocated. Safe to call from
// any goroutine.
func (r *Region) Live() int {
	return int(r.live.Load())
}

// Stats reports cumulative allocation counters.
func (r *Region) Stats() (allocs, frees uint64) {
	return r.allocs, r.frees
}

func alignUp(v Handle, align uint64) Handle {
	a := Handle(align)
	return (v + a - 1) &^ (a - 1)
}
