// tables.go - precomputed logarithmic/exponential tables for the OPN2 core.
//
// Every table here is a pure function of the constants below; they are
// built once at package init and shared read-only across every Chip.

package opn2

import "math"

// Fixed-point shifts used throughout the phase and envelope generators.
const (
	freqShift = 16 // 16.16 fixed point (phase/frequency)
	egShift   = 16 // 16.16 fixed point (envelope timing)
	lfoShift  = 24 // 8.24 fixed point (LFO timing)

	sinBits = 10
	sinLen  = 1 << sinBits
	sinMask = sinLen - 1

	tlResLen = 256           // 8-bit addressing, as on the real chip
	tlTabLen = 13 * 2 * tlResLen

	envStep  = 128.0 / 1024.0
	envQuiet = tlTabLen >> 3

	maxAttIndex = 1023
	minAttIndex = 0

	rateSteps = 8
)

// Envelope generator phase. Off must be the zero value: a freshly zeroed
// Operator starts silent.
type egState uint8

const (
	egOff egState = iota
	egRelease
	egSustain
	egDecay
	egAttack
)

// tlTab is the linear power table: tlTab[2k+1] == -tlTab[2k] for all k.
var tlTab [tlTabLen]int32

// sinTab is the logarithmic sine table; its LSB carries the sign of
// sin((2i+1)*pi/1024) so it can be added directly to a TL-domain value.
var sinTab [sinLen]int32

// slTable maps a 4-bit sustain-level register value to an attenuation
// index, 3dB per step except for the last entry (31 -> effectively off).
var slTable = [16]uint32{
	sc(0), sc(1), sc(2), sc(3), sc(4), sc(5), sc(6), sc(7),
	sc(8), sc(9), sc(10), sc(11), sc(12), sc(13), sc(14), sc(31),
}

func sc(db int) uint32 {
	return uint32(float64(db) * (4.0 / envStep))
}

// egInc is the per-cycle increment matrix: 19 "rows" of 8 cycle phases.
// Row 18 (all zero) represents the infinite-time rates.
var egInc = [19 * rateSteps]uint8{
	/* 0 */ 0, 1, 0, 1, 0, 1, 0, 1,
	/* 1 */ 0, 1, 0, 1, 1, 1, 0, 1,
	/* 2 */ 0, 1, 1, 1, 0, 1, 1, 1,
	/* 3 */ 0, 1, 1, 1, 1, 1, 1, 1,

	/* 4 */ 1, 1, 1, 1, 1, 1, 1, 1,
	/* 5 */ 1, 1, 1, 2, 1, 1, 1, 2,
	/* 6 */ 1, 2, 1, 2, 1, 2, 1, 2,
	/* 7 */ 1, 2, 2, 2, 1, 2, 2, 2,

	/* 8 */ 2, 2, 2, 2, 2, 2, 2, 2,
	/* 9 */ 2, 2, 2, 4, 2, 2, 2, 4,
	/*10 */ 2, 4, 2, 4, 2, 4, 2, 4,
	/*11 */ 2, 4, 4, 4, 2, 4, 4, 4,

	/*12 */ 4, 4, 4, 4, 4, 4, 4, 4,
	/*13 */ 4, 4, 4, 8, 4, 4, 4, 8,
	/*14 */ 4, 8, 4, 8, 4, 8, 4, 8,
	/*15 */ 4, 8, 8, 8, 4, 8, 8, 8,

	/*16 */ 8, 8, 8, 8, 8, 8, 8, 8,
	/*17 */ 16, 16, 16, 16, 16, 16, 16, 16,
	/*18 */ 0, 0, 0, 0, 0, 0, 0, 0,
}

// egRateSelect carries the YM2612-specific quirk at rows 32..39: rows 32
// and 33 map to the infinite row (18), rows 34..37 to row 0 and rows 38..39
// to row 2, rather than following the regular O(0..3) progression.
var egRateSelect = [32 + 64 + 32]uint8{
	// 32 infinite-time rates (KSR-shifted rate 0, before the real table starts)
	o(18), o(18), o(18), o(18), o(18), o(18), o(18), o(18),
	o(18), o(18), o(18), o(18), o(18), o(18), o(18), o(18),
	o(18), o(18), o(18), o(18), o(18), o(18), o(18), o(18),
	o(18), o(18), o(18), o(18), o(18), o(18), o(18), o(18),

	// rates 00-11 (rows 32-39 carry the hardware-verified quirk)
	o(18), o(18), o(0), o(0),
	o(0), o(0), o(2), o(2),

	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),
	o(0), o(1), o(2), o(3),

	// rate 12
	o(4), o(5), o(6), o(7),
	// rate 13
	o(8), o(9), o(10), o(11),
	// rate 14
	o(12), o(13), o(14), o(15),
	// rate 15
	o(16), o(16), o(16), o(16),

	// 32 dummy rates, same as 15.3
	o(16), o(16), o(16), o(16), o(16), o(16), o(16), o(16),
	o(16), o(16), o(16), o(16), o(16), o(16), o(16), o(16),
	o(16), o(16), o(16), o(16), o(16), o(16), o(16), o(16),
	o(16), o(16), o(16), o(16), o(16), o(16), o(16), o(16),
}

func o(row int) uint8 { return uint8(row * rateSteps) }

// egRateShift holds the counter shift for each of the same 128 rows.
var egRateShift = [32 + 64 + 32]uint8{
	11, 11, 11, 11, 11, 11, 11, 11,
	11, 11, 11, 11, 11, 11, 11, 11,
	11, 11, 11, 11, 11, 11, 11, 11,
	11, 11, 11, 11, 11, 11, 11, 11,

	11, 11, 11, 11,
	10, 10, 10, 10,
	9, 9, 9, 9,
	8, 8, 8, 8,
	7, 7, 7, 7,
	6, 6, 6, 6,
	5, 5, 5, 5,
	4, 4, 4, 4,
	3, 3, 3, 3,
	2, 2, 2, 2,
	1, 1, 1, 1,
	0, 0, 0, 0,

	0, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,

	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// dtTabRaw is the un-scaled detune pattern in 10.10 fixed point, shared by
// the YM2151 and YM2612; index as [fd][kc], fd in 0..3 giving the magnitude
// and its negation, doubled here to 4..7 by opnState.buildTimeTables.
var dtTabRaw = [4 * 32]uint8{
	// FD=0
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	// FD=1
	0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2,
	2, 3, 3, 3, 4, 4, 4, 5, 5, 6, 6, 7, 8, 8, 8, 8,
	// FD=2
	1, 1, 1, 1, 2, 2, 2, 2, 2, 3, 3, 3, 4, 4, 4, 5,
	5, 6, 6, 7, 8, 8, 9, 10, 11, 12, 13, 14, 16, 16, 16, 16,
	// FD=3
	2, 2, 2, 2, 2, 3, 3, 3, 4, 4, 4, 5, 5, 6, 6, 7,
	8, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 20, 22, 22, 22, 22,
}

// opnFKTable maps the top 4 bits of a 12-bit fnum to the low 2 bits of a
// keycode.
var opnFKTable = [16]uint8{0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 3, 3, 3, 3, 3, 3}

// lfoSamplesPerStep: number of native samples one LFO level lasts for, one
// entry per 3-bit LFO speed selector.
var lfoSamplesPerStep = [8]uint32{108, 77, 71, 67, 62, 44, 8, 5}

// lfoAMSDepthShift: right-shift applied to the 0..126 AM ramp to produce
// one of the four selectable AM depths (AMS 0..3: 0dB, 1.4dB, 5.9dB, 11.8dB).
var lfoAMSDepthShift = [4]uint8{8, 3, 1, 0}

// lfoPMOutput is the first quarter (positive half) of the 128 LFO PM
// waveforms: [fnumBit*8 + depth][step].
var lfoPMOutput = [7 * 8][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 1, 1, 1, 1},

	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{0, 0, 1, 1, 2, 2, 2, 3},

	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 1},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{0, 0, 1, 1, 2, 2, 2, 3},
	{0, 0, 2, 3, 4, 4, 5, 6},

	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 1, 1},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{0, 0, 0, 1, 1, 1, 1, 2},
	{0, 0, 1, 1, 2, 2, 2, 3},
	{0, 0, 2, 3, 4, 4, 5, 6},
	{0, 0, 4, 6, 8, 8, 0xa, 0xc},

	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{0, 0, 0, 1, 1, 1, 2, 2},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 2, 2, 2, 3, 4},
	{0, 0, 2, 3, 4, 4, 5, 6},
	{0, 0, 4, 6, 8, 8, 0xa, 0xc},
	{0, 0, 8, 0xc, 0x10, 0x10, 0x14, 0x18},

	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 2, 2, 2, 2},
	{0, 0, 0, 2, 2, 2, 4, 4},
	{0, 0, 2, 2, 4, 4, 6, 6},
	{0, 0, 2, 4, 4, 4, 6, 8},
	{0, 0, 4, 6, 8, 8, 0xa, 0xc},
	{0, 0, 8, 0xc, 0x10, 0x10, 0x14, 0x18},
	{0, 0, 0x10, 0x18, 0x20, 0x20, 0x28, 0x30},

	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 4, 4, 4, 4},
	{0, 0, 0, 4, 4, 4, 8, 8},
	{0, 0, 4, 4, 8, 8, 0xc, 0xc},
	{0, 0, 4, 8, 8, 8, 0xc, 0x10},
	{0, 0, 8, 0xc, 0x10, 0x10, 0x14, 0x18},
	{0, 0, 0x10, 0x18, 0x20, 0x20, 0x28, 0x30},
	{0, 0, 0x20, 0x30, 0x40, 0x40, 0x50, 0x60},
}

// lfoPMTable is the full 128-waveform LFO phase-modulation table, expanded
// from lfoPMOutput's quarter-wave at init time: 128 fnum patterns * 8
// depths * 32 steps.
var lfoPMTable [128 * 8 * 32]int32

func init() {
	buildTLTab()
	buildSinTab()
	buildLFOPMTable()
}

func buildTLTab() {
	for x := 0; x < tlResLen; x++ {
		m := float64(int(1)<<16) / math.Pow(2, float64(x+1)*(envStep/4.0)/8.0)
		n := int32(m) // truncation matches the reference's floor for positive m
		n >>= 4
		if n&1 != 0 {
			n = (n >> 1) + 1
		} else {
			n = n >> 1
		}
		n <<= 2
		tlTab[x*2+0] = n
		tlTab[x*2+1] = -n
		for i := 1; i < 13; i++ {
			tlTab[x*2+0+i*2*tlResLen] = tlTab[x*2+0] >> uint(i)
			tlTab[x*2+1+i*2*tlResLen] = -tlTab[x*2+0+i*2*tlResLen]
		}
	}
}

func buildSinTab() {
	for i := 0; i < sinLen; i++ {
		m := math.Sin(float64(i*2+1) * math.Pi / float64(sinLen))
		var o float64
		if m > 0.0 {
			o = 8 * math.Log2(1.0/m)
		} else {
			o = 8 * math.Log2(-1.0/m)
		}
		o = o / (envStep / 4)
		n := int(2.0 * o)
		if n&1 != 0 {
			n = (n >> 1) + 1
		} else {
			n = n >> 1
		}
		sign := int32(0)
		if m < 0.0 {
			sign = 1
		}
		sinTab[i] = int32(n)*2 + sign
	}
}

func buildLFOPMTable() {
	for depth := 0; depth < 8; depth++ {
		for fnum := 0; fnum < 128; fnum++ {
			for step := 0; step < 8; step++ {
				var value uint8
				for bit := 0; bit < 7; bit++ {
					if fnum&(1<<uint(bit)) != 0 {
						value += lfoPMOutput[bit*8+depth][step]
					}
				}
				base := fnum*32*8 + depth*32
				lfoPMTable[base+step+0] = int32(value)
				lfoPMTable[base+(step^7)+8] = int32(value)
				lfoPMTable[base+step+16] = -int32(value)
				lfoPMTable[base+(step^7)+24] = -int32(value)
			}
		}
	}
}
