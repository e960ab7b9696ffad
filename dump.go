package simplpool

import (
	"fmt"
	"io"
)

// dump walks the physical chunk chain from the first chunk to the tail
// sentinel, writing one line per chunk. Unexported; used only from tests as
// a failure diagnostic, never from allocator state-changing code.
func (p *Pool) dump(w io.Writer) {
	off := p.chunkBase
	for {
		size := chunkSize(p.buf, off)
		if size == 0 {
			fmt.Fprintf(w, "chunk@%d: tail sentinel\n", off)
			return
		}
		fmt.Fprintf(w, "chunk@%d: size=%d free=%v prev_free=%v\n",
			off, size, isFree(p.buf, off), isPrevFree(p.buf, off))
		off = nextPhysOff(p.buf, off)
	}
}
