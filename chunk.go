package simplpool

import "encoding/binary"

// Chunk layout, addressed by chunkOff (the byte offset of the chunk's size
// word, not its phys_prev):
//
//	[phys_prev: 4]   <- overlaps the previous chunk's payload tail; only
//	                    valid to read when that chunk is free (P flag set)
//	[size|flags: 4]  <- chunkOff points here
//	[payload...]     <- when free, the first 8 bytes double as
//	                    free_prev/free_next offsets
//
// All links are uint32 byte offsets from the start of the pool's buffer, not
// Go pointers (REDESIGN FLAG R1): the backing buffer is caller-supplied and
// is not guaranteed to be memory the Go runtime's garbage collector owns, so
// no live pointer may be stored inside it.
const (
	linkSize      = 4 // width of an offset/link field
	chunkOverhead = 4 // per-chunk overhead: the size word itself
	chunkOverlap  = 4 // bytes phys_prev borrows from the predecessor's payload
	minChunkSize  = 2 * linkSize // room for free_prev + free_next when free

	flagFree     = 1 << 0
	flagPrevFree = 1 << 1
	flagMask     = flagFree | flagPrevFree

	maxChunkSize = ^uint32(0)
)

func rawWord(buf []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func writeRawWord(buf []byte, off, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

func chunkSize(buf []byte, off uint32) uint32 {
	return rawWord(buf, off) &^ flagMask
}

func chunkFlags(buf []byte, off uint32) uint32 {
	return rawWord(buf, off) & flagMask
}

func isFree(buf []byte, off uint32) bool {
	return rawWord(buf, off)&flagFree != 0
}

func isPrevFree(buf []byte, off uint32) bool {
	return rawWord(buf, off)&flagPrevFree != 0
}

// setChunkSize overwrites the size portion of the word at off, preserving
// whatever flag bits are already there.
func setChunkSize(buf []byte, off, size uint32) {
	assertf(size&flagMask == 0, "setChunkSize: size %d not 4-byte clean", size)
	writeRawWord(buf, off, size|chunkFlags(buf, off))
}

func payloadOff(off uint32) uint32 {
	return off + chunkOverhead
}

func nextPhysOff(buf []byte, off uint32) uint32 {
	return payloadOff(off) + chunkSize(buf, off)
}

// physPrevOff reads the physical-predecessor offset stored in the bytes the
// chunk at off overlaps with its predecessor's payload tail. Only valid
// when isPrevFree(buf, off).
func physPrevOff(buf []byte, off uint32) uint32 {
	assertf(isPrevFree(buf, off), "physPrevOff: chunk %d has no free predecessor", off)
	return rawWord(buf, off-chunkOverlap)
}

func setPhysPrevAt(buf []byte, off, prevOff uint32) {
	writeRawWord(buf, off-chunkOverlap, prevOff)
}

// setChunkFree marks the chunk at off free and flips its successor's
// prev-free flag.
func setChunkFree(buf []byte, off uint32) {
	writeRawWord(buf, off, rawWord(buf, off)|flagFree)
	n := nextPhysOff(buf, off)
	writeRawWord(buf, n, rawWord(buf, n)|flagPrevFree)
}

// setChunkUsed marks the chunk at off used and flips its successor's
// prev-free flag off.
func setChunkUsed(buf []byte, off uint32) {
	writeRawWord(buf, off, rawWord(buf, off)&^uint32(flagFree))
	n := nextPhysOff(buf, off)
	writeRawWord(buf, n, rawWord(buf, n)&^uint32(flagPrevFree))
}

// Free-list links, valid only while a chunk is free; they occupy the first
// two words of the chunk's payload.
func freePrevOff(buf []byte, off uint32) uint32 {
	return rawWord(buf, payloadOff(off))
}

func freeNextOff(buf []byte, off uint32) uint32 {
	return rawWord(buf, payloadOff(off)+linkSize)
}

func setFreePrevOff(buf []byte, off, v uint32) {
	writeRawWord(buf, payloadOff(off), v)
}

func setFreeNextOff(buf []byte, off, v uint32) {
	writeRawWord(buf, payloadOff(off)+linkSize, v)
}
