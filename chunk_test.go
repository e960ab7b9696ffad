package simplpool

import "testing"

func TestChunkSizeFlagsRoundTrip(t *testing.T) {
	buf := make([]byte, 128) // room for the successor word at 16+4+48
	const off = 16

	writeRawWord(buf, off, 32)
	if got := chunkSize(buf, off); got != 32 {
		t.Fatalf("chunkSize = %d, want 32", got)
	}
	if isFree(buf, off) || isPrevFree(buf, off) {
		t.Fatalf("freshly written chunk should start with no flags set")
	}

	setChunkSize(buf, off, 48)
	if got := chunkSize(buf, off); got != 48 {
		t.Fatalf("chunkSize after resize = %d, want 48", got)
	}

	setChunkFree(buf, off)
	if !isFree(buf, off) {
		t.Fatal("expected chunk to be free after setChunkFree")
	}
	next := nextPhysOff(buf, off)
	if !isPrevFree(buf, next) {
		t.Fatal("expected successor's prev_free flag to be set")
	}

	setChunkUsed(buf, off)
	if isFree(buf, off) {
		t.Fatal("expected chunk to be used after setChunkUsed")
	}
	if isPrevFree(buf, next) {
		t.Fatal("expected successor's prev_free flag to be cleared")
	}
}

func TestChunkFreeLinkRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	const off = 16
	writeRawWord(buf, off, 32)

	setFreePrevOff(buf, off, 100)
	setFreeNextOff(buf, off, 200)
	if got := freePrevOff(buf, off); got != 100 {
		t.Fatalf("freePrevOff = %d, want 100", got)
	}
	if got := freeNextOff(buf, off); got != 200 {
		t.Fatalf("freeNextOff = %d, want 200", got)
	}
}

func TestPhysPrevOverlapsPredecessorPayload(t *testing.T) {
	buf := make([]byte, 64)
	const predOff = 8
	const off = predOff + chunkOverhead + 16 // predecessor payload holds 16 bytes

	writeRawWord(buf, off, 8)
	setPhysPrevAt(buf, off, predOff)
	writeRawWord(buf, off, rawWord(buf, off)|flagPrevFree)

	if got := physPrevOff(buf, off); got != predOff {
		t.Fatalf("physPrevOff = %d, want %d", got, predOff)
	}
}

func TestNextPhysOff(t *testing.T) {
	buf := make([]byte, 64)
	const off = 8
	writeRawWord(buf, off, 20)
	want := off + chunkOverhead + 20
	if got := nextPhysOff(buf, off); got != want {
		t.Fatalf("nextPhysOff = %d, want %d", got, want)
	}
}
