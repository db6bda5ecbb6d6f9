package builder

import "github.com/lingodb/lingo/internal/lingoutil"

// allocatedBlock tracks one allocated, 8-byte-aligned region of the file
// being built.
type allocatedBlock struct {
	offset uint64
	size   uint64
}

// allocator hands out end-of-file, 8-byte-aligned section offsets. There is
// no freed-space reuse: sections are written once, in order, during build.
type allocator struct {
	blocks     []allocatedBlock
	nextOffset uint64
}

func newAllocator(initialOffset uint64) *allocator {
	return &allocator{nextOffset: lingoutil.AlignUp8(initialOffset)}
}

// allocate reserves size bytes at the current end of file, rounding the
// returned offset up to the next 8-byte boundary first.
func (a *allocator) allocate(size uint64) uint64 {
	addr := lingoutil.AlignUp8(a.nextOffset)
	a.blocks = append(a.blocks, allocatedBlock{offset: addr, size: size})
	a.nextOffset = addr + size
	return addr
}

// end returns the first unallocated offset.
func (a *allocator) end() uint64 { return a.nextOffset }
