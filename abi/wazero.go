package abi

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/chord-lang/chord-runtime/errors"
	"github.com/chord-lang/chord-runtime/heap"
	"github.com/chord-lang/chord-runtime/upcall"
)

// ModuleName is the import namespace guests link against.
const ModuleName = "chord"

// HostModule binds one upcall layer to a wazero runtime. Like the layer it
// wraps, a host module belongs to a single worker; only the type-descriptor
// registry is safe for concurrent use.
type HostModule struct {
	layer *upcall.Layer
	mod   api.Module

	mu    sync.RWMutex
	descs map[uint32]*heap.TypeDesc
	next  uint32
}

// Instantiate registers the "chord" host module with rt, routing every
// exported entry point through l.
func Instantiate(ctx context.Context, rt wazero.Runtime, l *upcall.Layer) (*HostModule, error) {
	if l == nil {
		return nil, errors.NotInitialized(errors.PhaseABI, "upcall layer")
	}

	h := &HostModule{
		layer: l,
		descs: make(map[uint32]*heap.TypeDesc),
	}

	b := rt.NewHostModuleBuilder(ModuleName)
	exports := map[string]any{
		"upcall_fail":              h.fail,
		"upcall_malloc":            h.malloc,
		"upcall_free":              h.free,
		"upcall_new_stack":         h.newStack,
		"upcall_del_stack":         h.delStack,
		"upcall_reset_stack_limit": h.resetStackLimit,

		// Prefixed aliases for the older code-generation path.
		"chord_upcall_fail":   h.fail,
		"chord_upcall_malloc": h.malloc,
		"chord_upcall_free":   h.free,
	}
	for name, fn := range exports {
		b.NewFunctionBuilder().WithFunc(fn).Export(name)
	}

	mod, err := b.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(errors.PhaseABI, ModuleName, "host module", err)
	}
	h.mod = mod
	return h, nil
}

// Module returns the instantiated host module.
func (h *HostModule) Module() api.Module { return h.mod }

// Close releases the host module's runtime resources.
func (h *HostModule) Close(ctx context.Context) error {
	if h.mod == nil {
		return nil
	}
	return h.mod.Close(ctx)
}

// RegisterTypeDesc adds a descriptor to the registry and returns the id
// guests pass to upcall_malloc.
func (h *HostModule) RegisterTypeDesc(td *heap.TypeDesc) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.descs[h.next] = td
	return h.next
}

// TypeDesc looks up a registered descriptor by id.
func (h *HostModule) TypeDesc(id uint32) (*heap.TypeDesc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	td, ok := h.descs[id]
	return td, ok
}

// ---------------------------------------------------------------------------
// Exported entry points
// ---------------------------------------------------------------------------

func (h *HostModule) fail(_ context.Context, m api.Module, exprPtr, exprLen, filePtr, fileLen, line uint32) {
	expr := readString(m, exprPtr, exprLen)
	file := readString(m, filePtr, fileLen)
	h.layer.Fail(expr, file, int(line))
}

// malloc allocates by descriptor id. An unregistered id fails the task: the
// guest's view of the type table has diverged from the host's and nothing
// it allocates after that can be trusted.
func (h *HostModule) malloc(_ context.Context, tdID uint32, size uint64) uint64 {
	td, ok := h.TypeDesc(tdID)
	if !ok {
		h.layer.Fail("unregistered type descriptor", ModuleName, int(tdID))
	}
	return uint64(h.layer.Malloc(td, size))
}

func (h *HostModule) free(_ context.Context, handle uint64) {
	h.layer.Free(heap.Handle(handle))
}

func (h *HostModule) newStack(_ context.Context, m api.Module, size uint64, argsPtr, argsLen uint32) uint64 {
	var args []byte
	if argsLen > 0 {
		args = readBytes(m, argsPtr, argsLen)
	}
	return uint64(h.layer.NewStack(size, args))
}

func (h *HostModule) delStack(_ context.Context) {
	h.layer.DelStack()
}

func (h *HostModule) resetStackLimit(_ context.Context) {
	h.layer.ResetStackLimit()
}

// readBytes copies a guest memory range. A module without memory or an
// out-of-range read yields nil.
func readBytes(m api.Module, ptr, n uint32) []byte {
	mem := m.Memory()
	if mem == nil {
		return nil
	}
	buf, ok := mem.Read(ptr, n)
	if !ok {
		return nil
	}
	out := make([]byte, n)
	copy(out, buf)
	return out
}

func readString(m api.Module, ptr, n uint32) string {
	b := readBytes(m, ptr, n)
	if b == nil {
		return "<unreadable>"
	}
	return string(b)
}
