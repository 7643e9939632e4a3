// operator.go - the FM primitive: a phase-modulated oscillator (SLOT) with
// its own phase and envelope generator.

package opn2

// Operator is one of the four FM primitives making up a Channel.
type Operator struct {
	// Phase generator
	detune     []int32 // dt_tab[(v>>4)&7], one of the 8 rows built by opnState.buildTimeTables
	multiple   uint32  // 1..30, doubled register value (or 1 for register 0)
	phase      uint32  // 32-bit (16.16) phase accumulator
	incr       int32   // phase step; -1 is the "needs recompute" sentinel
	keyScale   uint8   // 3 - KSR register field
	keyScaleRC uint8   // kc >> keyScale, cached to detect when rates need recomputing

	// Envelope generator
	state  egState
	tl     uint32 // total level << (ENV_BITS-7)
	volume int32  // envelope attenuation counter, 0..1023
	sl     uint32 // sustain level (sl_table[v>>4])
	volOut uint32 // current EG output (volume, folded by SSG-EG inversion, + tl)

	ar, d1r, d2r, rr uint32 // attack/decay1/decay2(sustain)/release rate, pre-scaled by KSR table layout

	egShAr, egSelAr   uint8
	egShD1r, egSelD1r uint8
	egShD2r, egSelD2r uint8
	egShRr, egSelRr   uint8

	ssg  uint8 // SSG-EG register (4 meaningful bits)
	ssgn uint8 // SSG-EG output-inversion flag (0 or 4)

	key uint8 // 0 = last event was key-off, 1 = key-on

	amMask uint32 // ~0 if this operator receives LFO AM, else 0
}

// volumeCalc folds the LFO AM contribution into the operator's envelope
// output, ahead of the sine/TL lookup.
func (op *Operator) volumeCalc(am uint32) uint32 {
	return op.volOut + (am & op.amMask)
}

// setDetuneMultiple applies an 0x30-series (DET,MUL) register write.
// Per spec, this always dirties SLOT1's Incr so the channel recomputes
// all four phase increments at the start of the next sample.
func (op *Operator) setDetuneMultiple(dt *opnState, ch *Channel, v int) {
	if v&0x0f != 0 {
		op.multiple = uint32(v&0x0f) * 2
	} else {
		op.multiple = 1
	}
	op.detune = dt.detuneTab[(v>>4)&7][:]
	ch.markFreqDirty()
}

// setTotalLevel applies an 0x40-series (TL) register write.
func (op *Operator) setTotalLevel(v int) {
	op.tl = uint32(v&0x7f) << (10 - 7) // ENV_BITS=10
	op.recalcVolOut()
}

// setAttackKSR applies an 0x50-series (KS,AR) register write.
func (op *Operator) setAttackKSR(ch *Channel, v int) {
	oldKSR := op.keyScale
	if v&0x1f != 0 {
		op.ar = 32 + uint32(v&0x1f)<<1
	} else {
		op.ar = 0
	}
	op.keyScale = 3 - uint8(v>>6)
	if op.keyScale != oldKSR {
		ch.markFreqDirty()
	}
	op.refreshAttackRate()
}

func (op *Operator) refreshAttackRate() {
	idx := op.ar + uint32(op.keyScaleRC)
	if idx < 94 {
		op.egShAr = egRateShift[idx]
		op.egSelAr = egRateSelect[idx]
	} else {
		op.egShAr = 0
		op.egSelAr = 18 * rateSteps
	}
}

// setDecayRate applies an 0x60-series (AM enable, DR) register write. The
// AM-enable bit is handled by the caller, which also owns the register.
func (op *Operator) setDecayRate(v int) {
	if v&0x1f != 0 {
		op.d1r = 32 + uint32(v&0x1f)<<1
	} else {
		op.d1r = 0
	}
	op.egShD1r = egRateShift[op.d1r+uint32(op.keyScaleRC)]
	op.egSelD1r = egRateSelect[op.d1r+uint32(op.keyScaleRC)]
}

// setSustainRate applies an 0x70-series (SR) register write.
func (op *Operator) setSustainRate(v int) {
	if v&0x1f != 0 {
		op.d2r = 32 + uint32(v&0x1f)<<1
	} else {
		op.d2r = 0
	}
	op.egShD2r = egRateShift[op.d2r+uint32(op.keyScaleRC)]
	op.egSelD2r = egRateSelect[op.d2r+uint32(op.keyScaleRC)]
}

// setSustainLevelReleaseRate applies an 0x80-series (SL,RR) register write.
func (op *Operator) setSustainLevelReleaseRate(v int) {
	op.sl = slTable[v>>4]
	if op.state == egDecay && op.volume >= int32(op.sl) {
		op.state = egSustain
	}
	op.rr = 34 + uint32(v&0x0f)<<2
	op.egShRr = egRateShift[op.rr+uint32(op.keyScaleRC)]
	op.egSelRr = egRateSelect[op.rr+uint32(op.keyScaleRC)]
}

// setSSGEG applies an 0x90-series (SSG-EG) register write.
func (op *Operator) setSSGEG(v int) {
	op.ssg = uint8(v & 0x0f)
	if op.state > egRelease {
		op.recalcVolOut()
	}
}

func (op *Operator) recalcVolOut() {
	if op.ssg&0x08 != 0 && (op.ssgn^(op.ssg&0x04)) != 0 {
		op.volOut = uint32(0x200-op.volume)&maxAttIndex + op.tl
	} else {
		op.volOut = uint32(op.volume) + op.tl
	}
}

// refreshRates recomputes the phase increment and, if the key-scale-rate
// code changed, every envelope rate shift/select pair. fc/kc come from the
// owning channel (or the 3-slot state for channel 2's first three slots).
func (op *Operator) refreshRates(fc int32, kc uint32, fnMax uint32) {
	ksr := kc >> op.keyScale

	f := fc + op.detune[kc]
	if f < 0 {
		f += int32(fnMax)
	}
	op.incr = (f * int32(op.multiple)) >> 1

	if uint8(ksr) != op.keyScaleRC {
		op.keyScaleRC = uint8(ksr)
		op.refreshAttackRate()
		op.egShD1r = egRateShift[op.d1r+ksr]
		op.egShD2r = egRateShift[op.d2r+ksr]
		op.egShRr = egRateShift[op.rr+ksr]
		op.egSelD1r = egRateSelect[op.d1r+ksr]
		op.egSelD2r = egRateSelect[op.d2r+ksr]
		op.egSelRr = egRateSelect[op.rr+ksr]
	}
}

// keyOn gates the attack phase. csmActive suppresses it: CSM-driven
// key events never re-trigger a manually-gated operator.
func (op *Operator) keyOn(csmActive uint8) {
	if op.key == 0 && csmActive == 0 {
		op.phase = 0
		op.ssgn = 0
		if op.ar+uint32(op.keyScaleRC) < 94 {
			if op.volume <= minAttIndex {
				if op.sl == minAttIndex {
					op.state = egSustain
				} else {
					op.state = egDecay
				}
			} else {
				op.state = egAttack
			}
		} else {
			op.volume = minAttIndex
			if op.sl == minAttIndex {
				op.state = egSustain
			} else {
				op.state = egDecay
			}
		}
		op.recalcVolOut()
	}
	op.key = 1
}

// keyOff gates the release phase.
func (op *Operator) keyOff(csmActive uint8) {
	if op.key != 0 && csmActive == 0 {
		op.forceRelease()
	}
	op.key = 0
}

// keyOffCSM forces release without touching the key-down latch; used when
// leaving CSM mode while a CSM-driven key-on is still active.
func (op *Operator) keyOffCSM() {
	if op.key == 0 {
		op.forceRelease()
	}
}

// advanceEnvelope ticks this operator's EG state machine by one step, using
// the chip's eg_cnt counter shared by all of that chip's operators. Each
// state only updates when eg_cnt's low bits (masked by its own rate shift)
// are all zero, implementing each rate's distinct cadence.
func (op *Operator) advanceEnvelope(egCnt uint32) {
	switch op.state {
	case egAttack:
		if egCnt&((1<<op.egShAr)-1) == 0 {
			op.volume += (^op.volume * int32(egInc[op.egSelAr+uint8((egCnt>>op.egShAr)&7)])) >> 4
			if op.volume <= minAttIndex {
				op.volume = minAttIndex
				if op.sl == minAttIndex {
					op.state = egSustain
				} else {
					op.state = egDecay
				}
			}
			op.recalcVolOut()
		}
	case egDecay:
		if egCnt&((1<<op.egShD1r)-1) == 0 {
			if op.ssg&0x08 != 0 {
				if op.volume < 0x200 {
					op.volume += 4 * int32(egInc[op.egSelD1r+uint8((egCnt>>op.egShD1r)&7)])
					op.recalcVolOut()
				}
			} else {
				op.volume += int32(egInc[op.egSelD1r+uint8((egCnt>>op.egShD1r)&7)])
				op.volOut = uint32(op.volume) + op.tl
			}
			if op.volume >= int32(op.sl) {
				op.state = egSustain
			}
		}
	case egSustain:
		if egCnt&((1<<op.egShD2r)-1) == 0 {
			if op.ssg&0x08 != 0 {
				if op.volume < 0x200 {
					op.volume += 4 * int32(egInc[op.egSelD2r+uint8((egCnt>>op.egShD2r)&7)])
					op.recalcVolOut()
				}
			} else {
				op.volume += int32(egInc[op.egSelD2r+uint8((egCnt>>op.egShD2r)&7)])
				if op.volume >= maxAttIndex {
					op.volume = maxAttIndex
				}
				op.volOut = uint32(op.volume) + op.tl
			}
		}
	case egRelease:
		if egCnt&((1<<op.egShRr)-1) == 0 {
			if op.ssg&0x08 != 0 {
				if op.volume < 0x200 {
					op.volume += 4 * int32(egInc[op.egSelRr+uint8((egCnt>>op.egShRr)&7)])
				}
				if op.volume >= 0x200 {
					op.volume = maxAttIndex
					op.state = egOff
				}
			} else {
				op.volume += int32(egInc[op.egSelRr+uint8((egCnt>>op.egShRr)&7)])
				if op.volume >= maxAttIndex {
					op.volume = maxAttIndex
					op.state = egOff
				}
			}
			op.volOut = uint32(op.volume) + op.tl
		}
	}
}

// updateSSGEG runs the SSG-EG alternate-envelope transition check, executed
// once per sample ahead of advanceEnvelope. It is a no-op for operators
// with SSG-EG disabled (ssg&0x08 == 0).
func (op *Operator) updateSSGEG() {
	if op.ssg&0x08 == 0 || op.volume < 0x200 || op.state <= egRelease {
		return
	}
	if op.ssg&0x01 != 0 {
		if op.ssg&0x02 != 0 {
			op.ssgn = 4
		}
		if op.state != egAttack && (op.ssgn^(op.ssg&0x04)) == 0 {
			op.volume = maxAttIndex
		}
	} else {
		if op.ssg&0x02 != 0 {
			op.ssgn ^= 4
		} else {
			op.phase = 0
		}
		if op.state != egAttack {
			if op.ar+uint32(op.keyScaleRC) < 94 {
				if op.volume <= minAttIndex {
					if op.sl == minAttIndex {
						op.state = egSustain
					} else {
						op.state = egDecay
					}
				} else {
					op.state = egAttack
				}
			} else {
				op.volume = minAttIndex
				if op.sl == minAttIndex {
					op.state = egSustain
				} else {
					op.state = egDecay
				}
			}
		}
	}
	op.recalcVolOut()
}

func (op *Operator) forceRelease() {
	if op.state <= egRelease {
		return
	}
	op.state = egRelease
	if op.ssg&0x08 != 0 {
		if op.ssgn^(op.ssg&0x04) != 0 {
			op.volume = 0x200 - op.volume
		}
		if op.volume >= 0x200 {
			op.volume = maxAttIndex
			op.state = egOff
		}
		op.volOut = uint32(op.volume) + op.tl
	}
}
