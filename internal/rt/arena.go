package rt

import (
	"encoding/binary"
	"sync"

	"ferrite/internal/fatal"
)

// Handle identifies a live instance descriptor in the process arena.
// Handle zero is never issued; it is the unallocated slot state.
type Handle uint64

// The arena gives embedded-descriptor slots a stable 64-bit representation
// inside raw instance bytes. Released handles are reused; a descriptor
// registered for a static table reference is simply never released, which
// gives those entries process lifetime.
type descriptorArena struct {
	mu      sync.RWMutex
	entries []*Descriptor // entry for handle h lives at index h-1
	free    []Handle
}

var arena descriptorArena

func registerDescriptor(d *Descriptor) Handle {
	arena.mu.Lock()
	defer arena.mu.Unlock()
	if n := len(arena.free); n > 0 {
		h := arena.free[n-1]
		arena.free = arena.free[:n-1]
		arena.entries[h-1] = d
		return h
	}
	arena.entries = append(arena.entries, d)
	return Handle(len(arena.entries))
}

func lookupDescriptor(h Handle) (*Descriptor, bool) {
	arena.mu.RLock()
	defer arena.mu.RUnlock()
	if h == 0 || int(h) > len(arena.entries) {
		return nil, false
	}
	d := arena.entries[h-1]
	if d == nil {
		return nil, false
	}
	return d, true
}

func releaseDescriptor(h Handle) {
	arena.mu.Lock()
	defer arena.mu.Unlock()
	if h == 0 || int(h) > len(arena.entries) || arena.entries[h-1] == nil {
		return
	}
	arena.entries[h-1] = nil
	arena.free = append(arena.free, h)
}

// deallocateEmbedded tears down the descriptor held by an embedded slot and
// returns the slot to the unallocated state. An unallocated slot is a
// no-op; a nonzero handle that is not live means the instance bytes or the
// arena were corrupted, and execution cannot continue.
func (f *Field) deallocateEmbedded(instance []byte, finalize bool) {
	slot := f.Locate(instance)
	h := Handle(binary.LittleEndian.Uint64(slot))
	if h == 0 {
		return
	}
	d, ok := lookupDescriptor(h)
	fatal.Checkf(ok, "field %q: embedded descriptor handle %d is not live", f.name, h)
	d.Deallocate(finalize)
	releaseDescriptor(h)
	binary.LittleEndian.PutUint64(slot, 0)
}
