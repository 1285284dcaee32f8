package task

// Addr is a virtual address in a task's modeled stack address space.
type Addr uint64

// segmentGap separates consecutive segments in the virtual address space so
// an address can never fall into two segments.
const segmentGap = 4096

// Segment is one chunk of memory backing part of a task's growable stack.
// Segments form a singly-linked chain; the newest segment is the head.
type Segment struct {
	prev    *Segment
	base    Addr
	size    uint64
	data    []byte
	savedSP Addr // caller's stack pointer, restored on pop
}

// Base returns the lowest valid address of the segment.
func (s *Segment) Base() Addr {
	return s.base
}

// Size returns the segment size in bytes.
func (s *Segment) Size() uint64 {
	return s.size
}

// Top returns one past the highest valid address. The stack grows downward
// from here.
func (s *Segment) Top() Addr {
	return s.base + Addr(s.size)
}

// Contains reports whether p falls inside the segment.
func (s *Segment) Contains(p Addr) bool {
	return p >= s.base && p < s.Top()
}

// ArgSlot returns the designated argument-block slot: the top n bytes of the
// segment.
func (s *Segment) ArgSlot(n uint64) []byte {
	if n == 0 || n > s.size {
		return nil
	}
	return s.data[s.size-n:]
}

// segmentCache is a bounded free list of popped segments. Reuse is first
// fit; segments released over capacity are dropped.
type segmentCache struct {
	segs   []*Segment
	cap    int
	hits   uint64
	misses uint64
}

func newSegmentCache(capacity int) *segmentCache {
	return &segmentCache{cap: capacity}
}

// obtain returns a cached segment with at least total bytes, or nil.
func (c *segmentCache) obtain(total uint64) *Segment {
	for i, s := range c.segs {
		if s.size >= total {
			c.segs = append(c.segs[:i], c.segs[i+1:]...)
			c.hits++
			return s
		}
	}
	c.misses++
	return nil
}

// release parks a segment for reuse if there is room.
func (c *segmentCache) release(s *Segment) {
	if len(c.segs) >= c.cap {
		return
	}
	s.prev = nil
	s.savedSP = 0
	c.segs = append(c.segs, s)
}

func (c *segmentCache) stats() (hits, misses uint64) {
	return c.hits, c.misses
}
