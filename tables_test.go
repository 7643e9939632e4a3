package opn2

import "testing"

func TestTLTabSignSymmetry(t *testing.T) {
	for k := 0; k < tlTabLen/2; k++ {
		pos := tlTab[2*k]
		neg := tlTab[2*k+1]
		if neg != -pos {
			t.Fatalf("tlTab[%d]=%d, tlTab[%d]=%d, want negation", 2*k, pos, 2*k+1, neg)
		}
	}
}

func TestTLTabMonotonicAcrossBlocks(t *testing.T) {
	// Each 2*tlResLen block is a right-shifted copy of block 0, so the
	// (non-negative) even entries must never increase with block index.
	for x := 0; x < tlResLen; x++ {
		prev := tlTab[x*2]
		for i := 1; i < 13; i++ {
			cur := tlTab[x*2+i*2*tlResLen]
			if cur < 0 {
				t.Fatalf("tlTab block %d index %d is negative: %d", i, x, cur)
			}
			if cur > prev {
				t.Fatalf("tlTab magnitude grew from block %d to %d at x=%d", i-1, i, x)
			}
			prev = cur
		}
	}
}

func TestSinTabSignMatchesQuadrant(t *testing.T) {
	// sinTab[i]'s LSB carries the sign of sin((2i+1)*pi/sinLen); the first
	// quarter of the table (0..sinLen/4) corresponds to a rising positive
	// quadrant of the sine wave, so every entry there must have LSB 0.
	for i := 0; i < sinLen/4; i++ {
		if sinTab[i]&1 != 0 {
			t.Fatalf("sinTab[%d] = %d has odd (negative-sign) LSB in positive quadrant", i, sinTab[i])
		}
	}
	// The third quarter (sinLen/2..3*sinLen/4) is the negative-going half.
	for i := sinLen / 2; i < 3*sinLen/4; i++ {
		if sinTab[i]&1 != 1 {
			t.Fatalf("sinTab[%d] = %d has even (positive-sign) LSB in negative quadrant", i, sinTab[i])
		}
	}
}

func TestSlTableMonotonic(t *testing.T) {
	for i := 1; i < 15; i++ {
		if slTable[i] < slTable[i-1] {
			t.Fatalf("slTable not monotonic at %d: %d < %d", i, slTable[i], slTable[i-1])
		}
	}
	if slTable[15] < slTable[14] {
		t.Fatalf("slTable[15] (register value 15, sc(31), off) must be the largest attenuation")
	}
}

func TestLFOPMTableOddSymmetry(t *testing.T) {
	// lfoPMTable's four quarters of each 32-step waveform are built from the
	// same positive quarter-wave, negated in the second half.
	for depth := 0; depth < 8; depth++ {
		for fnum := 0; fnum < 128; fnum++ {
			base := fnum*32*8 + depth*32
			for step := 0; step < 8; step++ {
				pos := lfoPMTable[base+step]
				neg := lfoPMTable[base+step+16]
				if neg != -pos {
					t.Fatalf("lfoPMTable fnum=%d depth=%d step=%d: %d != -%d", fnum, depth, step, neg, pos)
				}
			}
		}
	}
}

func TestEgRateSelectInfiniteRowAtZeroAndOne(t *testing.T) {
	// Rates 0 and 1 (rows 32,33 in the combined table) never reach minimum
	// attenuation: they must select the all-zero increment row.
	for _, row := range []int{32, 33} {
		sel := egRateSelect[row]
		for i := 0; i < rateSteps; i++ {
			if egInc[int(sel)+i] != 0 {
				t.Fatalf("egRateSelect row %d selects a nonzero increment at step %d", row, i)
			}
		}
	}
}
