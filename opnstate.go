// opnstate.go - state shared by all six channels of one chip: the LFO, the
// envelope generator's global timebase, 3-slot mode, and the per-chip
// frequency tables derived from the clock/sample-rate ratio.

package opn2

// threeSlotState holds the extra per-operator frequency state needed when
// channel 2 is split into three independently-tuned operators (3-slot
// mode). Index 0/1/2 is the register offset of the 0xA8-0xAA/0xAC-0xAE
// write; GenerateSample applies index 1 to SLOT1, index 2 to SLOT2 and
// index 0 to SLOT3. SLOT4 keeps using the channel's ordinary
// fc/kcode/blockFnum.
type threeSlotState struct {
	fc        [3]uint32
	fnH       uint8
	kcode     [3]uint32
	blockFnum [3]uint32
	keyCSM    uint8 // shift register: CSM-driven key-on pending auto key-off
}

// opnState is the OPN-level state a Chip's six channels share: timebase,
// LFO, 3-slot mode, mode register, and the derived frequency tables.
type opnState struct {
	clock uint32
	rate  uint32

	freqbase float64

	detuneTab [8][32]int32
	fnTable   [4096]uint32
	fnMax     uint32

	fnH uint8 // 0xA4-series FNUM2/BLK latch, shared by all six channels; the next 0xA0-series write commits it

	mode uint32 // bits 6-7: 3-slot/CSM; bits 0-3: timer load/enable, as last written to 0x27

	ta, tb   int32
	tac, tbc int32

	sl3 threeSlotState

	egCnt           uint32
	egTimer         uint32
	egTimerAdd      uint32
	egTimerOverflow uint32

	lfoCnt           uint8
	lfoTimer         uint32
	lfoTimerAdd      uint32
	lfoTimerOverflow uint32
	lfoAM            uint32
	lfoPM            uint32

	pan [12]uint32 // per-channel L/R output masks, 0 or ^uint32(0)
}

// setPrescaler derives freqbase from the clock/rate/prescaler ratio and
// rebuilds every table that depends on it. At the native rate (clock/144,
// prescaler 144) freqbase is 1.0 up to the integer rounding of the rate;
// the ChipRateHighest and ChipRateCustom modes give other values.
func (st *opnState) setPrescaler(prescaler int) {
	if st.rate != 0 {
		st.freqbase = float64(st.clock) / float64(st.rate) / float64(prescaler)
	} else {
		st.freqbase = 0
	}
	st.egTimerAdd = uint32(float64(int(1)<<egShift) * st.freqbase)
	st.egTimerOverflow = 3 << egShift
	st.lfoTimerAdd = uint32(float64(int(1)<<lfoShift) * st.freqbase)
	st.buildTimeTables()
}

func (st *opnState) buildTimeTables() {
	for d := 0; d <= 3; d++ {
		for i := 0; i <= 31; i++ {
			rate := float64(dtTabRaw[d*32+i]) * st.freqbase * float64(int(1)<<(freqShift-10))
			st.detuneTab[d][i] = int32(rate)
			st.detuneTab[d+4][i] = -st.detuneTab[d][i]
		}
	}

	for i := 0; i < 4096; i++ {
		st.fnTable[i] = uint32(float64(i) * 32 * st.freqbase * float64(int(1)<<(freqShift-10)))
	}
	st.fnMax = uint32(float64(0x20000) * st.freqbase * float64(int(1)<<(freqShift-10)))
}

// writeMode dispatches a 0x20-0x2f register write other than 0x28 (key
// on/off, applied by Chip.KeyEvent) and 0x2a/0x2b (DAC, applied by the
// Chip). Channel 2 is the argument because 0x27's CSM transition acts on
// it directly, rather than through the usual per-channel OPN_CHAN decode.
func (st *opnState) writeMode(ch2 *Channel, reg, value int) {
	switch reg {
	case 0x22: // LFO frequency
		if value&8 != 0 {
			st.lfoTimerOverflow = lfoSamplesPerStep[value&7] << lfoShift
		} else {
			st.lfoTimerOverflow = 0
			st.lfoTimer = 0
			st.lfoCnt = 0
			st.lfoPM = 0
			st.lfoAM = 126
		}
	case 0x24: // Timer A high 8
		st.ta = (st.ta & 0x03) | (int32(value) << 2)
	case 0x25: // Timer A low 2
		st.ta = (st.ta & 0x3fc) | int32(value&3)
	case 0x26: // Timer B
		st.tb = int32(value)
	case 0x27: // mode / timer control
		st.setTimers(ch2, value)
	}
}

// setTimers applies an 0x27 write: CSM/3-slot mode selection plus timer
// load/stop bookkeeping. Per-sample timer countdown and CSM key-on are not
// modeled: nothing sets sl3.keyCSM, so a 0x28 write keys operators on the
// same way whether or not CSM mode is selected, and the CSM key-off paths
// (here and in GenerateSample) never fire.
func (st *opnState) setTimers(ch2 *Channel, v int) {
	if (st.mode^uint32(v))&0xC0 != 0 {
		ch2.markFreqDirty()
		if (v&0xC0) != 0x80 && st.sl3.keyCSM != 0 {
			ch2.slots[0].keyOffCSM()
			ch2.slots[1].keyOffCSM()
			ch2.slots[2].keyOffCSM()
			ch2.slots[3].keyOffCSM()
			st.sl3.keyCSM = 0
		}
	}

	if v&0x02 != 0 {
		if st.tbc == 0 {
			st.tbc = (256 - st.tb) << 4
		}
	} else if st.tbc != 0 {
		st.tbc = 0
	}

	if v&0x01 != 0 {
		if st.tac == 0 {
			st.tac = 1024 - st.ta
		}
	} else if st.tac != 0 {
		st.tac = 0
	}

	st.mode = uint32(v)
}

// advanceLFO steps the LFO's triangle AM ramp and PM phase by one native
// sample, when enabled.
func (st *opnState) advanceLFO() {
	if st.lfoTimerOverflow == 0 {
		return
	}
	st.lfoTimer += st.lfoTimerAdd
	for st.lfoTimer >= st.lfoTimerOverflow {
		st.lfoTimer -= st.lfoTimerOverflow
		st.lfoCnt = (st.lfoCnt + 1) & 127

		if st.lfoCnt < 64 {
			st.lfoAM = uint32(st.lfoCnt^63) << 1
		} else {
			st.lfoAM = uint32(st.lfoCnt&63) << 1
		}
		st.lfoPM = uint32(st.lfoCnt >> 2)
	}
}

func (st *opnState) threeSlotActive() bool {
	return st.mode&0xC0 != 0
}
