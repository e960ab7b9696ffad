// Package simplpool implements a two-level segregated-fit (TLSF) memory
// pool allocator over a single caller-supplied byte buffer: O(1) bounded
// allocate/free/realloc/memalign, all metadata embedded in the buffer
// itself, no calls into the OS allocator. A *Pool is not safe for
// concurrent use; callers serialize access themselves.
package simplpool

import "encoding/binary"

const headerFixedSize = 8 // available(4) + fl_bitmap(4)

// Pool is a TLSF allocator over a caller-owned buffer. The zero value is not
// usable; construct with New.
type Pool struct {
	buf []byte

	slBitmapsOff uint32
	freelistsOff uint32
	chunkBase    uint32
	classCount   uint32 // number of freelist classes (est)
	slBytes      uint32 // length of the sl_bitmaps byte table
	end          uint32 // 4-byte-aligned-down end of the usable buffer
}

func (p *Pool) available() uint32     { return binary.LittleEndian.Uint32(p.buf[0:]) }
func (p *Pool) setAvailable(v uint32) { binary.LittleEndian.PutUint32(p.buf[0:], v) }
func (p *Pool) flBitmap() uint32      { return binary.LittleEndian.Uint32(p.buf[4:]) }
func (p *Pool) setFlBitmap(v uint32)  { binary.LittleEndian.PutUint32(p.buf[4:], v) }

func (p *Pool) slByte(fli uint32) byte       { return p.buf[p.slBitmapsOff+fli] }
func (p *Pool) setSlByte(fli uint32, v byte) { p.buf[p.slBitmapsOff+fli] = v }

func (p *Pool) freelistHead(fi uint32) uint32 {
	return rawWord(p.buf, p.freelistsOff+fi*linkSize)
}

func (p *Pool) setFreelistHead(fi, v uint32) {
	writeRawWord(p.buf, p.freelistsOff+fi*linkSize, v)
}

func (p *Pool) setBitmap(fi uint32) {
	fli := flIndex(fi)
	p.setFlBitmap(p.flBitmap() | 1<<fli)
	p.setSlByte(fli, p.slByte(fli)|byte(1<<slIndex(fi)))
}

func (p *Pool) clrBitmap(fi uint32) {
	fli := flIndex(fi)
	p.setSlByte(fli, p.slByte(fli)&^byte(1<<slIndex(fi)))
	if p.slByte(fli) == 0 {
		p.setFlBitmap(p.flBitmap() &^ (1 << fli))
	}
}

// pushFree links a free chunk at the head of its class's freelist.
func (p *Pool) pushFree(off uint32) {
	assertf(isFree(p.buf, off), "pushFree: chunk %d not free", off)
	size := chunkSize(p.buf, off)
	fi := freelistMapping(size)
	head := p.freelistHead(fi)
	if head != 0 {
		setFreePrevOff(p.buf, head, off)
	}
	setFreePrevOff(p.buf, off, 0)
	setFreeNextOff(p.buf, off, head)
	p.setFreelistHead(fi, off)
	p.setBitmap(fi)

	p.setAvailable(p.available() + size)
}

// popFree unlinks a free chunk from its class's freelist.
func (p *Pool) popFree(off uint32) {
	assertf(isFree(p.buf, off), "popFree: chunk %d not free", off)
	size := chunkSize(p.buf, off)
	fi := freelistMapping(size)
	prev := freePrevOff(p.buf, off)
	next := freeNextOff(p.buf, off)

	if prev != 0 {
		setFreeNextOff(p.buf, prev, next)
	} else {
		p.setFreelistHead(fi, next)
	}
	if next != 0 {
		setFreePrevOff(p.buf, next, prev)
	} else {
		p.clrBitmap(fi)
	}

	p.setAvailable(p.available() - size)
}

// coalesce merges off with any free physical neighbors, returning the
// (possibly different) offset of the merged chunk. off must already be free
// and unlinked from any freelist.
func (p *Pool) coalesce(off uint32) uint32 {
	assertf(isFree(p.buf, off), "coalesce: chunk %d not free", off)

	if isPrevFree(p.buf, off) {
		prev := physPrevOff(p.buf, off)
		assertf(isFree(p.buf, prev), "coalesce: phys_prev %d not free", prev)
		p.popFree(prev)
		setPhysPrevAt(p.buf, nextPhysOff(p.buf, off), prev)

		setChunkSize(p.buf, prev, chunkSize(p.buf, prev)+chunkOverhead+chunkSize(p.buf, off))
		off = prev
	}

	next := nextPhysOff(p.buf, off)
	assertf(isPrevFree(p.buf, next), "coalesce: successor of free chunk %d not prev_free", off)
	if isFree(p.buf, next) {
		p.popFree(next)
		setPhysPrevAt(p.buf, nextPhysOff(p.buf, next), off)

		setChunkSize(p.buf, off, chunkSize(p.buf, off)+chunkOverhead+chunkSize(p.buf, next))
	}
	return off
}

// trimChunk marks off used, splitting off any excess beyond trimSize into a
// new free chunk (merged with its neighbors and pushed back) when the
// leftover is big enough to hold a chunk of its own.
func (p *Pool) trimChunk(off, trimSize uint32) uint32 {
	size := chunkSize(p.buf, off)
	assertf(trimSize%linkSize == 0, "trimChunk: trim size %d not %d-byte aligned", trimSize, linkSize)
	assertf(trimSize <= size, "trimChunk: trim size %d exceeds chunk size %d", trimSize, size)

	remain := size - trimSize
	if remain >= chunkOverhead+minChunkSize {
		size -= remain
		setChunkSize(p.buf, off, size)

		trim := nextPhysOff(p.buf, off)
		writeRawWord(p.buf, trim, remain-chunkOverhead) // freshly carved: flags start clear
		setPhysPrevAt(p.buf, nextPhysOff(p.buf, trim), trim)

		setChunkUsed(p.buf, off)
		setChunkFree(p.buf, trim)

		trim = p.coalesce(trim)
		p.pushFree(trim)
	} else {
		setChunkUsed(p.buf, off)
	}
	return off
}

// adjustAllocSize clamps a caller-requested size to the allocator's minimum
// and rounds it up to align, reporting ok=false on overflow.
func adjustAllocSize(allocSize uint64, align uint32) (adj uint32, ok bool) {
	if allocSize > uint64(maxChunkSize) {
		return 0, false
	}
	adj = uint32(allocSize)
	if adj < minChunkSize {
		adj = minChunkSize
	}
	adj = alignUp(adj, align)
	if uint64(adj) < allocSize {
		return 0, false
	}
	return adj, true
}

// checkedSearchSize adds minChunkSize, align and adj the way Memalign needs
// to before searching the freelists, in 64-bit arithmetic so the sum can't
// silently wrap a uint32 on a large pool with a large align (spec.md §9
// "Overflow discipline" calls out this exact intermediate by name). Reports
// ok=false if the true sum doesn't fit in a uint32.
func checkedSearchSize(base, align, adj uint32) (sum uint32, ok bool) {
	total := uint64(base) + uint64(align) + uint64(adj)
	if total > uint64(maxChunkSize) {
		return 0, false
	}
	return uint32(total), true
}

// payload returns the payload of the chunk at off as a slice of length n and
// capacity equal to the chunk's actual usable size.
func (p *Pool) payload(off, n uint32) []byte {
	po := payloadOff(off)
	cs := chunkSize(p.buf, off)
	return p.buf[po : po+n : po+cs]
}

// New initializes a pool over buf. buf must remain valid and must not be
// touched by the caller for as long as the returned *Pool is in use.
func New(buf []byte) (*Pool, error) {
	if len(buf) == 0 || uint64(len(buf)) > uint64(maxChunkSize) {
		return nil, ErrInvalidArgument
	}
	end := alignDown(uint32(len(buf)), linkSize)

	p := &Pool{buf: buf}
	off := uint32(headerFixedSize)
	p.slBitmapsOff = off

	// Overestimate the class-table size from the extent available before
	// sl_bitmaps/freelists are carved out of it; this never underestimates
	// since the real extent after carving is strictly smaller.
	estExtent := end - off
	est := freelistMapping(estExtent) + 1
	slBytes := (est + 7) / 8
	assertf(est <= maxFreelists, "New: est(%d) exceeds maxFreelists(%d)", est, maxFreelists)
	assertf(slBytes <= maxFLSize, "New: slBytes(%d) exceeds maxFLSize(%d)", slBytes, maxFLSize)

	off = alignUp(off+slBytes, linkSize)
	p.freelistsOff = off

	off = alignUp(off+est*linkSize, linkSize)
	if off > end {
		return nil, ErrPoolTooSmall
	}
	size := end - off
	if size < chunkOverhead*2+minChunkSize {
		return nil, ErrPoolTooSmall
	}

	p.classCount = est
	p.slBytes = slBytes
	p.chunkBase = off
	p.end = end

	p.setAvailable(0)
	p.setFlBitmap(0)
	for i := uint32(0); i < slBytes; i++ {
		p.setSlByte(i, 0)
	}
	for i := uint32(0); i < est; i++ {
		p.setFreelistHead(i, 0)
	}

	first := off
	writeRawWord(p.buf, first, size-chunkOverhead*2) // always prev-used: no predecessor to read
	assertf(!isPrevFree(p.buf, first), "New: first chunk must start prev-used")
	tail := nextPhysOff(p.buf, first)
	writeRawWord(p.buf, tail, 0) // tail sentinel: zero size, always used

	setChunkFree(p.buf, first)
	p.pushFree(first)
	return p, nil
}

// Available reports the total number of free payload bytes currently
// reachable through the freelists.
func (p *Pool) Available() uint32 { return p.available() }

// Malloc allocates n bytes, returning nil on failure (out of space, zero
// size, or size overflow). Use MallocErr for the failure reason.
func (p *Pool) Malloc(n uint32) []byte {
	b, _ := p.MallocErr(n)
	return b
}

// MallocErr is Malloc's error-returning sibling.
func (p *Pool) MallocErr(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, ErrInvalidArgument
	}
	adj, ok := adjustAllocSize(uint64(n), linkSize)
	if !ok {
		return nil, ErrSizeOverflow
	}
	if adj > p.available() {
		return nil, ErrOutOfSpace
	}
	adj = sizeRoundup(adj)

	fi, ok := p.searchFreelists(adj)
	if !ok {
		return nil, ErrOutOfSpace
	}
	off := p.freelistHead(fi)
	p.popFree(off)

	off = p.trimChunk(off, adj)
	return p.payload(off, n), nil
}

// chunkOffsetFromPayload recovers the owning chunk's offset from a payload
// slice previously returned by this pool, translating the slice's address
// back into a byte offset within buf via ptrDiff (one of the package's two
// unsafe.Pointer uses; alignAbs is the other).
func (p *Pool) chunkOffsetFromPayload(b []byte) uint32 {
	off := ptrDiff(&b[0], &p.buf[0])
	return off - chunkOverhead
}

// Free releases b, which must have been returned by Malloc, Realloc, or
// Memalign on this pool. Freeing a slice with zero capacity (such as nil) is
// a no-op. b is resliced to its full capacity before the emptiness check, the
// same way
// the teacher's Free does, so a caller that shrank b with b = b[:0] before
// freeing it is still recognized as the live allocation it is.
func (p *Pool) Free(b []byte) {
	b = b[:cap(b)]
	if len(b) == 0 {
		return
	}
	off := p.chunkOffsetFromPayload(b)
	setChunkFree(p.buf, off)
	setPhysPrevAt(p.buf, nextPhysOff(p.buf, off), off)

	off = p.coalesce(off)
	p.pushFree(off)
}

// UsableSize reports the actual payload capacity backing b, which may
// exceed the size originally requested once rounded up to a class boundary.
func (p *Pool) UsableSize(b []byte) uint32 {
	b = b[:cap(b)]
	if len(b) == 0 {
		return 0
	}
	off := p.chunkOffsetFromPayload(b)
	return chunkSize(p.buf, off)
}

// Realloc resizes b to n bytes, returning nil on failure. Realloc(b, 0)
// returns nil and does not free b — callers that want libc's free-on-zero
// behavior must call Free explicitly.
func (p *Pool) Realloc(b []byte, n uint32) []byte {
	r, _ := p.ReallocErr(b, n)
	return r
}

// ReallocErr is Realloc's error-returning sibling.
func (p *Pool) ReallocErr(b []byte, n uint32) ([]byte, error) {
	if len(b) == 0 {
		return p.MallocErr(n)
	}
	if n == 0 {
		return nil, nil
	}

	adj, ok := adjustAllocSize(uint64(n), linkSize)
	if !ok {
		return nil, ErrSizeOverflow
	}
	adj = sizeRoundup(adj)

	off := p.chunkOffsetFromPayload(b)
	size := chunkSize(p.buf, off)

	if adj <= size {
		off = p.trimChunk(off, adj)
		return p.payload(off, n), nil
	}

	next := nextPhysOff(p.buf, off)
	if isFree(p.buf, next) {
		size += chunkOverhead + chunkSize(p.buf, next)
		if adj <= size {
			p.popFree(next)
			setChunkSize(p.buf, off, size)

			off = p.trimChunk(off, adj)
			return p.payload(off, n), nil
		}
	}

	if isPrevFree(p.buf, off) {
		prev := physPrevOff(p.buf, off)
		assertf(isFree(p.buf, prev), "Realloc: phys_prev %d not free", prev)
		size += chunkSize(p.buf, prev) + chunkOverhead
		if adj <= size {
			p.popFree(prev)
			if isFree(p.buf, next) {
				p.popFree(next)
			}
			setChunkSize(p.buf, prev, size)
			copy(p.buf[payloadOff(prev):], p.buf[payloadOff(off):payloadOff(off)+chunkSize(p.buf, off)])

			off = p.trimChunk(prev, adj)
			return p.payload(off, n), nil
		}
	}

	payload, err := p.MallocErr(n)
	if err != nil {
		return nil, err
	}
	copy(payload, b[:min(uint32(len(b)), n)])
	p.Free(b)
	return payload, nil
}

// Memalign allocates n bytes aligned to align, which must be a power of two
// at least linkSize; n must also be a multiple of align. Returns nil on
// failure.
func (p *Pool) Memalign(align, n uint32) []byte {
	r, _ := p.MemalignErr(align, n)
	return r
}

// MemalignErr is Memalign's error-returning sibling.
func (p *Pool) MemalignErr(align, n uint32) ([]byte, error) {
	if align < linkSize {
		align = linkSize
	}
	mask := align - 1
	if n == 0 || align&mask != 0 || n&mask != 0 {
		return nil, ErrInvalidArgument
	}

	adj, ok := adjustAllocSize(uint64(n), align)
	if !ok {
		return nil, ErrSizeOverflow
	}
	if adj > p.available() {
		return nil, ErrOutOfSpace
	}
	adj = sizeRoundup(adj)

	searchSize, ok := checkedSearchSize(minChunkSize, align, adj)
	if !ok {
		return nil, ErrSizeOverflow
	}
	searchSize = sizeRoundup(searchSize)
	fi, ok := p.searchFreelists(searchSize)
	if !ok {
		return nil, ErrOutOfSpace
	}
	off := p.freelistHead(fi)
	p.popFree(off)

	chunkSz := chunkSize(p.buf, off)
	p0 := payloadOff(off)
	// Align the chunk's *absolute* memory address, not just its offset
	// within buf: buf's own backing array is not guaranteed aligned to
	// align, so aligning the relative offset alone would not guarantee a
	// truly aligned pointer.
	q := p0 + alignAbs(&p.buf[0], p0, align)
	alignedOff := q - chunkOverhead

	if q == p0 {
		setChunkSize(p.buf, alignedOff, chunkSz)
	} else {
		headSize := (q - p0) - chunkOverhead
		setChunkSize(p.buf, off, headSize)
		setChunkFree(p.buf, off)
		p.pushFree(off)

		setPhysPrevAt(p.buf, alignedOff, off)
		setChunkSize(p.buf, alignedOff, chunkSz-headSize-chunkOverhead)
	}
	alignedOff = p.trimChunk(alignedOff, adj)
	return p.payload(alignedOff, n), nil
}
