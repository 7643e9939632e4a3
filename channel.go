// channel.go - FM channel: four Operators wired together by one of eight
// fixed algorithms into a single audio output.

package opn2

// bus names the four scratch accumulators an algorithm's operators can
// write into before the channel's final carrier sum. These replace the
// raw pointer aliasing of the original register-transfer model with a
// small indexed routing table (see algoRouting).
type bus uint8

const (
	busMem bus = iota
	busM2
	busC1
	busC2
	busCarrier
	busDummy // write has no observable effect (algorithms with no MEM path)
	busNone  // special: algorithm 5's SLOT1 fans out to mem, c1 and c2 at once
)

// algoRoute holds one algorithm's four destinations: where each slot's
// output goes, and which bus receives the channel's delayed MEM sample at
// the start of the next period.
type algoRoute struct {
	slot1Dest, slot2Dest, slot3Dest bus
	memDest                         bus
}

// algoRouting is indexed by the 3-bit ALGO register field. slot4 always
// feeds the carrier directly, in every algorithm, so it has no column.
var algoRouting = [8]algoRoute{
	{busC1, busMem, busC2, busM2},             // 0: M1-C1-MEM-M2-C2-OUT
	{busMem, busMem, busC2, busM2},            // 1: M1-+-MEM-M2-C2-OUT (C1 also into MEM)
	{busC2, busMem, busC2, busM2},             // 2: C1-MEM-M2-+, M1-+-C2-OUT
	{busC1, busMem, busC2, busC2},             // 3: M1-C1-MEM-+-C2-OUT (M2 also into C2)
	{busC1, busCarrier, busC2, busDummy},       // 4: M1-C1-OUT, M2-C2-OUT
	{busNone, busCarrier, busCarrier, busM2},   // 5: M1 fans to MEM/C1/C2, all to OUT
	{busC1, busCarrier, busCarrier, busDummy},  // 6: M1-C1-OUT, M2-OUT, C2-OUT
	{busCarrier, busCarrier, busCarrier, busDummy}, // 7: all four operators straight to OUT
}

// Channel is one of the OPN2's six FM voices.
type Channel struct {
	slots [4]Operator // indices SLOT1..SLOT4

	algo uint8
	fb   uint8 // 0 or 7..13 (feedback shift amount, pre-added the base-6 offset)
	pms  int32 // PM sensitivity * 32, an index stride into lfoPMTable
	ams  uint8 // AM sensitivity, a shift applied to LFO_AM

	fc        int32  // phase increment base for this channel's fnum/block
	kcode     uint32 // keyscale code derived from fnum/block
	blockFnum uint32 // fnum/block packed for LFO PM lookups

	op1Out   [2]int32 // SLOT1 feedback history
	memValue int32    // delayed MEM sample, carried across samples

	freqDirty bool // internal recompute gate (see Operator.incr's -1 sentinel)
	muted     bool
}

// markFreqDirty schedules a phase/envelope-rate recompute at the start of
// the next sample. SLOT1's Incr is also forced to -1 so that it remains
// externally observable immediately after the write that caused this,
// even though the actual gate is the internal freqDirty flag.
func (ch *Channel) markFreqDirty() {
	ch.freqDirty = true
	ch.slots[0].incr = -1
}

// setAlgorithmFeedback applies a 0xB0-series (FB, ALGO) register write.
func (ch *Channel) setAlgorithmFeedback(v int) {
	feedback := (v >> 3) & 7
	ch.algo = uint8(v & 7)
	if feedback != 0 {
		ch.fb = uint8(feedback) + 6
	} else {
		ch.fb = 0
	}
}

// setStereoLFO applies a 0xB4-series (L, R, AMS, PMS) register write. The
// pan bits are owned by the Chip (they live in its per-channel pan mask
// array), so the caller applies those separately.
func (ch *Channel) setStereoLFO(v int) {
	ch.pms = int32(v&7) * 32
	ch.ams = lfoAMSDepthShift[(v>>4)&3]
}

// keyEvent applies an 0x28 key-on/off register write. csmActive suppresses
// the event when a CSM-driven envelope is already running. Each of the
// four bits gates its own slot independently: bit 4 is SLOT1, bit 5 is
// SLOT2, bit 6 is SLOT3, bit 7 is SLOT4.
func (ch *Channel) keyEvent(v int, csmActive uint8) {
	if v&0x10 != 0 {
		ch.slots[0].keyOn(csmActive)
	} else {
		ch.slots[0].keyOff(csmActive)
	}
	if v&0x20 != 0 {
		ch.slots[1].keyOn(csmActive)
	} else {
		ch.slots[1].keyOff(csmActive)
	}
	if v&0x40 != 0 {
		ch.slots[2].keyOn(csmActive)
	} else {
		ch.slots[2].keyOff(csmActive)
	}
	if v&0x80 != 0 {
		ch.slots[3].keyOn(csmActive)
	} else {
		ch.slots[3].keyOff(csmActive)
	}
}

// refreshFCEG recomputes every slot's phase increment (and, if the
// key-scale-rate code changed, envelope rate shifts) once per sample, but
// only when a register write actually dirtied the frequency state.
func (ch *Channel) refreshFCEG(fnMax uint32) {
	if !ch.freqDirty {
		return
	}
	ch.freqDirty = false
	fc, kc := ch.fc, ch.kcode
	ch.slots[0].refreshRates(fc, kc, fnMax)
	ch.slots[1].refreshRates(fc, kc, fnMax)
	ch.slots[2].refreshRates(fc, kc, fnMax)
	ch.slots[3].refreshRates(fc, kc, fnMax)
}

// opCalc evaluates the sine/TL table for a modulated operator. The phase
// modulation input is a raw operator output sample; opCalc scales it into
// a 16.16 phase delta with <<15.
func opCalc(phase uint32, env uint32, pm int32) int32 {
	p := (env << 3) + uint32(sinTab[(int32((phase&^uint32((1<<freqShift)-1)))+(pm<<15))>>freqShift&sinMask])
	if p >= tlTabLen {
		return 0
	}
	return tlTab[p]
}

// opCalc1 is opCalc's sibling for SLOT1's self-feedback path, where the
// modulation term is already a full 16.16 phase delta rather than a
// table-index delta needing the <<15 scale-up opCalc applies.
func opCalc1(phase uint32, env uint32, pm int32) int32 {
	p := (env << 3) + uint32(sinTab[(int32((phase&^uint32((1<<freqShift)-1)))+pm)>>freqShift&sinMask])
	if p >= tlTabLen {
		return 0
	}
	return tlTab[p]
}

// chanCalc synthesizes one native sample for this channel and accumulates
// it into *carrier (the caller's per-channel output accumulator, cleared
// before the call). st carries the chip-wide LFO outputs and the
// frequency tables; threeSlot marks that this is channel 2 with 3-slot
// mode active, in which case st.sl3 supplies per-operator frequency state.
func (ch *Channel) chanCalc(st *opnState, threeSlot bool, carrier *int32) {
	if ch.muted {
		return
	}

	route := algoRouting[ch.algo]
	var buses [4]int32 // indexed by busMem, busM2, busC1, busC2

	switch route.memDest {
	case busM2:
		buses[busM2] = ch.memValue
	case busC2:
		buses[busC2] = ch.memValue
	}

	am := st.lfoAM >> ch.ams

	egOut := ch.slots[0].volumeCalc(am)
	out := ch.op1Out[0] + ch.op1Out[1]
	ch.op1Out[0] = ch.op1Out[1]

	if route.slot1Dest == busNone {
		buses[busMem] = ch.op1Out[0]
		buses[busC1] = ch.op1Out[0]
		buses[busC2] = ch.op1Out[0]
	} else {
		addToBus(&buses, carrier, route.slot1Dest, ch.op1Out[0])
	}

	ch.op1Out[1] = 0
	if egOut < envQuiet {
		var fm int32
		if ch.fb != 0 {
			fm = out << ch.fb
		}
		ch.op1Out[1] = opCalc1(ch.slots[0].phase, egOut, fm)
	}

	egOut = ch.slots[2].volumeCalc(am)
	if egOut < envQuiet {
		addToBus(&buses, carrier, route.slot3Dest, opCalc(ch.slots[2].phase, egOut, buses[busM2]))
	}

	egOut = ch.slots[1].volumeCalc(am)
	if egOut < envQuiet {
		addToBus(&buses, carrier, route.slot2Dest, opCalc(ch.slots[1].phase, egOut, buses[busC1]))
	}

	egOut = ch.slots[3].volumeCalc(am)
	if egOut < envQuiet {
		*carrier += opCalc(ch.slots[3].phase, egOut, buses[busC2])
	}

	ch.memValue = buses[busMem]

	if ch.pms != 0 {
		if threeSlot {
			updatePhaseLFOSlot(st, &ch.slots[0], ch.pms, st.sl3.blockFnum[1])
			updatePhaseLFOSlot(st, &ch.slots[1], ch.pms, st.sl3.blockFnum[2])
			updatePhaseLFOSlot(st, &ch.slots[2], ch.pms, st.sl3.blockFnum[0])
			updatePhaseLFOSlot(st, &ch.slots[3], ch.pms, ch.blockFnum)
		} else {
			ch.updatePhaseLFO(st)
		}
	} else {
		ch.slots[0].phase += uint32(ch.slots[0].incr)
		ch.slots[1].phase += uint32(ch.slots[1].incr)
		ch.slots[2].phase += uint32(ch.slots[2].incr)
		ch.slots[3].phase += uint32(ch.slots[3].incr)
	}
}

func addToBus(buses *[4]int32, carrier *int32, dest bus, v int32) {
	switch dest {
	case busMem:
		buses[busMem] += v
	case busM2:
		buses[busM2] += v
	case busC1:
		buses[busC1] += v
	case busC2:
		buses[busC2] += v
	case busCarrier:
		*carrier += v
	}
}

// updatePhaseLFO advances all four operators' phases for one sample when
// LFO phase modulation is active, applying the channel-wide block/fnum.
func (ch *Channel) updatePhaseLFO(st *opnState) {
	updatePhaseLFOSlot(st, &ch.slots[0], ch.pms, ch.blockFnum)
	updatePhaseLFOSlot(st, &ch.slots[1], ch.pms, ch.blockFnum)
	updatePhaseLFOSlot(st, &ch.slots[2], ch.pms, ch.blockFnum)
	updatePhaseLFOSlot(st, &ch.slots[3], ch.pms, ch.blockFnum)
}

// updatePhaseLFOSlot advances one operator's phase, folding in LFO phase
// modulation derived from blockFnum when the LFO's current output for this
// channel's PM depth is nonzero.
func updatePhaseLFOSlot(st *opnState, op *Operator, pms int32, blockFnum uint32) {
	fnumLFO := ((blockFnum & 0x7f0) >> 4) * 32 * 8
	offset := lfoPMTable[fnumLFO+uint32(pms)+st.lfoPM]

	bf := blockFnum*2 + uint32(offset)

	if offset != 0 {
		blk := (bf & 0x7000) >> 12
		fn := bf & 0xfff

		kc := (blk << 2) | uint32(opnFKTable[fn>>8])

		fc := int32(st.fnTable[fn]>>(7-blk)) + op.detune[kc]
		if fc < 0 {
			fc += int32(st.fnMax)
		}
		op.phase += uint32((fc * int32(op.multiple)) >> 1)
	} else {
		op.phase += uint32(op.incr)
	}
}
