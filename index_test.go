package simplpool

import "testing"

func TestFfsFls(t *testing.T) {
	cases := []struct {
		x        uint32
		wantFfs  int
		wantFls  int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{0x80000000, 32, 32},
		{0b0110, 2, 3},
		{0b1000, 4, 4},
	}
	for _, c := range cases {
		if got := ffs(c.x); got != c.wantFfs {
			t.Errorf("ffs(%b) = %d, want %d", c.x, got, c.wantFfs)
		}
		if got := fls(c.x); got != c.wantFls {
			t.Errorf("fls(%b) = %d, want %d", c.x, got, c.wantFls)
		}
	}
}

func TestMappingSizeTableBreakpoints(t *testing.T) {
	cases := []struct {
		fli, sli uint32
		want     uint32
	}{
		{0, 2, 8},
		{1, 0, 32},
		{8, 1, 4096},
		{16, 1, 4194304},
	}
	for _, c := range cases {
		fi := freelistIndex(c.fli, c.sli)
		if got := mappingSize(fi); got != c.want {
			t.Errorf("mappingSize(fl=%d,sl=%d) = %d, want %d", c.fli, c.sli, got, c.want)
		}
	}
}

func TestSizeRoundupNeverShrinks(t *testing.T) {
	for _, size := range []uint32{0, 1, 7, 8, 31, 32, 33, 4095, 4096, 1 << 20, 1 << 25} {
		got := sizeRoundup(size)
		if got < size {
			t.Errorf("sizeRoundup(%d) = %d, shrank below input", size, got)
		}
	}
}

func TestFreelistMappingMonotonic(t *testing.T) {
	prev := freelistMapping(8)
	for size := uint32(8); size < 1<<21; size += 37 {
		fi := freelistMapping(size)
		if fi < prev {
			t.Fatalf("freelistMapping regressed at size %d: %d < %d", size, fi, prev)
		}
		prev = fi
	}
}

func TestMappingSizeIsClassFloor(t *testing.T) {
	for _, size := range []uint32{8, 32, 256, 3072, 3 * 1024 * 1024} {
		fi := freelistMapping(size)
		if floor := mappingSize(fi); floor > size {
			t.Errorf("mappingSize(freelistMapping(%d)) = %d exceeds %d", size, floor, size)
		}
	}
}
