package heap

import (
	"testing"
)

func TestRegion_BodyOffset(t *testing.T) {
	r := NewRegion()
	td := &TypeDesc{Size: 24, Align: 8, Name: "pair"}

	h := r.Malloc(td, 0)
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}
	if Body(h) != h+BoxHeaderSize {
		t.Fatalf("body at %#x, want fixed offset %d from %#x", Body(h), BoxHeaderSize, h)
	}

	b, ok := r.Box(h)
	if !ok {
		t.Fatal("box not found")
	}
	if b.Size != 24 {
		t.Fatalf("intrinsic size not used: got %d, want 24", b.Size)
	}
	if len(r.Bytes(h)) != 24 {
		t.Fatalf("body storage is %d bytes, want 24", len(r.Bytes(h)))
	}
}

func TestRegion_ExplicitSizeWins(t *testing.T) {
	r := NewRegion()
	td := &TypeDesc{Size: 8, Align: 8, Name: "vec"}

	h := r.Malloc(td, 64)
	b, _ := r.Box(h)
	if b.Size != 64 {
		t.Fatalf("explicit size ignored: got %d, want 64", b.Size)
	}
}

func TestRegion_HandlesDistinctAndAligned(t *testing.T) {
	r := NewRegion()
	td := &TypeDesc{Size: 1, Align: 16, Name: "byte"}

	seen := make(map[Handle]bool)
	for i := 0; i < 100; i++ {
		h := r.Malloc(td, 0)
		if seen[h] {
			t.Fatalf("handle %#x issued twice", h)
		}
		if uint64(h)%16 != 0 {
			t.Fatalf("handle %#x not aligned to 16", h)
		}
		seen[h] = true
	}
	if r.Live() != 100 {
		t.Fatalf("live = %d, want 100", r.Live())
	}
}

func TestRegion_FreeReturnsStorage(t *testing.T) {
	r := NewRegion()
	td := &TypeDesc{Size: 8, Align: 8}

	h := r.Malloc(td, 0)
	r.Free(h)

	if _, ok := r.Box(h); ok {
		t.Fatal("box still reachable after free")
	}
	if r.Live() != 0 {
		t.Fatalf("live = %d after free, want 0", r.Live())
	}

	allocs, frees := r.Stats()
	if allocs != 1 || frees != 1 {
		t.Fatalf("stats = %d/%d, want 1/1", allocs, frees)
	}
}
