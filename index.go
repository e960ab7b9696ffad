package simplpool

// Two-level segregated-fit index: a first-level class (fli) picked by the
// size's bit-length, subdivided into 8 second-level classes (sli). See the
// class table in the source this was ported from for the exact byte/KB/MB
// breakpoints; the arithmetic below reproduces it unchanged.
const (
	flShift = 3
	slMask  = 7

	byteShift  = 2  // sizes below 4KB are scaled by 4 bytes
	fourKShift = 12 // sizes below 4MB are scaled by 4KB
	fourMShift = 22 // sizes at or above 4MB are scaled by 4MB

	fourKSize = 1 << fourKShift
	fourMSize = 1 << fourMShift

	maxFLSize    = 24
	maxFreelists = maxFLSize * 8
)

func flIndex(fi uint32) uint32 { return fi >> flShift }
func slIndex(fi uint32) uint32 { return fi & slMask }

func freelistIndex(fli, sli uint32) uint32 { return fli<<flShift | sli }

// mappingSize returns the smallest chunk size belonging to class fi.
func mappingSize(fi uint32) uint32 {
	fli := flIndex(fi)

	var fliLocal, shift uint32
	switch {
	case fli < 8:
		fliLocal, shift = fli, 0
	case fli < 16:
		fliLocal, shift = fli-8, 10
	default:
		fliLocal, shift = fli-16, 20
	}

	var size uint32
	if fliLocal != 0 {
		size = 32 << (fliLocal - 1)
	}
	step := uint32(4)
	if size != 0 {
		step = size >> 3
	}
	size += slIndex(fi) * step
	return size << shift
}

// freelistMapping maps an already-adjusted chunk size to its class index.
func freelistMapping(size uint32) uint32 {
	var fli uint32
	switch {
	case size < fourKSize:
		fli = 0
		size >>= byteShift
	case size < fourMSize:
		fli = 8
		size >>= fourKShift
	default:
		fli = 16
		size >>= fourMShift
	}

	var sli uint32
	if ls := fls(size); ls > 3 {
		fli += uint32(ls - 3)
		sli = (size >> uint(ls-4)) & slMask
	} else {
		sli = size & slMask
	}
	return freelistIndex(fli, sli)
}

// sizeRoundup rounds size up to the start of its class if it isn't already
// class-aligned, guaranteeing any chunk popped from that class actually fits.
func sizeRoundup(size uint32) uint32 {
	fi := freelistMapping(size)
	if size > mappingSize(fi) {
		next := mappingSize(fi + 1)
		if next == 0 {
			// fi+1 is second-level class 0 of the next scale, which holds no
			// sizes; that scale's first real class is fi+2.
			next = mappingSize(fi + 2)
		}
		return next
	}
	return size
}

// searchFreelists finds the smallest non-empty class able to satisfy size,
// reporting ok=false if no class qualifies.
func (p *Pool) searchFreelists(size uint32) (fi uint32, ok bool) {
	fi = freelistMapping(size)
	fli := flIndex(fi)
	sli := slIndex(fi)

	if fs := ffs(uint32(p.slByte(fli)) & (^uint32(0) << sli)); fs != 0 {
		sli = uint32(fs - 1)
	} else {
		fs := ffs(p.flBitmap() & (^uint32(0) << (fli + 1)))
		if fs == 0 {
			return 0, false
		}
		fli = uint32(fs - 1)
		sli = uint32(ffs(uint32(p.slByte(fli))) - 1)
	}
	fi = freelistIndex(fli, sli)

	assertf(p.freelistHead(fi) != 0, "searchFreelists: class %d has no head", fi)
	assertf(sli < 8, "searchFreelists: sli %d out of range", sli)
	return fi, true
}
