// resampler.go - converts one Chip's native-rate output into the engine's
// shared output rate, one frame at a time.
//
// The four strategies below mirror the quality/speed tradeoffs a
// fixed-point audio resampler offers: exact copy when the rates match,
// linear interpolation when upsampling, energy-preserving averaging when
// downsampling, and a cheap block-average fallback selected by the
// low-quality presets.
// FIXPNT_BITS of 11 keeps the fractional position arithmetic in 32 bits
// while staying accurate enough that no audible ratio error accumulates.

package opn2

const (
	fixpntBits = 11
	fixpntFact = 1 << fixpntBits
	fixpntMask = fixpntFact - 1
)

func getFriction(x uint32) uint32  { return x & fixpntMask }
func getNFriction(x uint32) uint32 { return (fixpntFact - x) & fixpntMask }
func fp2iFloor(x uint32) uint32    { return x / fixpntFact }
func fp2iCeil(x uint32) uint32     { return (x + fixpntMask) / fixpntFact }

// resampleMode selects which of the four strategies a chipStream uses,
// chosen once at construction from the ratio between the chip's native
// rate and the engine's output rate.
type resampleMode uint8

const (
	resampleAverage    resampleMode = 0x00 // block-average fallback (forced by forceQuality for QualityLow/QualityLQDown)
	resampleUpsample   resampleMode = 0x01 // native rate < output rate
	resampleCopy       resampleMode = 0x02 // native rate == output rate
	resampleDownsample resampleMode = 0x03 // native rate > output rate
	resampleSkip       resampleMode = 0xFF // chip produced no native rate at all
)

type stereoSample struct {
	left, right int32
}

// chipStream resamples one Chip's native audio into the engine's shared
// output rate, one output frame at a time. It owns no audio thread of its
// own; the pipeline drives it by calling resample once per output frame.
type chipStream struct {
	chip *Chip

	nativeRate uint32
	outRate    uint32
	mode       resampleMode
	volume     uint32 // Q8, 0x100 = unity

	smpP, smpLast, smpNext uint32
	lSmpl, nSmpl           stereoSample

	bufL, bufR []int32 // scratch, grown on demand by getChipStream
}

// newChipStream builds a resampler for a chip running at nativeRate Hz,
// feeding a mix bus running at outRate Hz.
func newChipStream(chip *Chip, nativeRate, outRate uint32) *chipStream {
	cs := &chipStream{chip: chip, nativeRate: nativeRate, outRate: outRate, volume: 0x100}
	switch {
	case nativeRate == 0 || outRate == 0:
		cs.mode = resampleSkip
	case nativeRate < outRate:
		cs.mode = resampleUpsample
	case nativeRate == outRate:
		cs.mode = resampleCopy
	default:
		cs.mode = resampleDownsample
	}
	if cs.mode == resampleUpsample {
		// The upsampler always runs one native sample ahead, so it needs
		// a lookahead sample pre-generated before the first output frame.
		cs.getChipStream(1)
		cs.nSmpl = stereoSample{cs.bufL[0], cs.bufR[0]}
	}
	return cs
}

// setVolume applies a Q8 mix volume (0x100 == unity) to this chip's
// contribution to the shared output.
func (cs *chipStream) setVolume(vol uint32) {
	cs.volume = vol
}

// forceQuality overrides the ratio-derived mode, matching the "always use
// the cheap averaging resampler" and "never use it" quality presets.
func (cs *chipStream) forceQuality(lowQuality bool) {
	if cs.mode == resampleSkip {
		return
	}
	if lowQuality {
		cs.mode = resampleAverage
	}
}

// ensureBuf grows the scratch buffers to hold n frames, preserving any
// existing contents (callers that pre-seed buf[0]/buf[1] with cached
// samples do so after calling this).
func (cs *chipStream) ensureBuf(n int) {
	if cap(cs.bufL) < n {
		newL := make([]int32, n)
		newR := make([]int32, n)
		copy(newL, cs.bufL)
		copy(newR, cs.bufR)
		cs.bufL, cs.bufR = newL, newR
	}
	cs.bufL = cs.bufL[:n]
	cs.bufR = cs.bufR[:n]
}

// genInto pulls n fresh native samples from the chip into buf[offset:].
func (cs *chipStream) genInto(offset, n int) {
	for i := 0; i < n; i++ {
		l, r := cs.chip.GenerateSample()
		cs.bufL[offset+i] = l
		cs.bufR[offset+i] = r
	}
}

// getChipStream fills buf[0:n] with n fresh native samples.
func (cs *chipStream) getChipStream(n int) {
	cs.ensureBuf(n)
	cs.genInto(0, n)
}

// resample advances this chip by one output frame and accumulates its
// contribution into *dst, which the caller clears before mixing the
// first chip and reads after mixing the last one.
func (cs *chipStream) resample(dst *stereoSample) {
	switch cs.mode {
	case resampleSkip:
		return
	case resampleAverage:
		cs.resampleAverageStep(dst)
	case resampleUpsample:
		cs.resampleUpsampleStep(dst)
	case resampleCopy:
		cs.resampleCopyStep(dst)
	case resampleDownsample:
		cs.resampleDownsampleStep(dst)
	}
	if cs.smpLast >= cs.nativeRate {
		cs.smpLast -= cs.nativeRate
		cs.smpNext -= cs.nativeRate
		cs.smpP -= cs.outRate
	}
}

func (cs *chipStream) resampleAverageStep(dst *stereoSample) {
	cs.smpLast = cs.smpNext
	cs.smpP++
	cs.smpNext = uint32(uint64(cs.smpP) * uint64(cs.nativeRate) / uint64(cs.outRate))

	if cs.smpLast >= cs.smpNext {
		dst.left += cs.lSmpl.left * int32(cs.volume)
		dst.right += cs.lSmpl.right * int32(cs.volume)
		return
	}

	smpCnt := int(cs.smpNext - cs.smpLast)
	cs.getChipStream(smpCnt)

	switch smpCnt {
	case 1:
		dst.left += cs.bufL[0] * int32(cs.volume)
		dst.right += cs.bufR[0] * int32(cs.volume)
		cs.lSmpl = stereoSample{cs.bufL[0], cs.bufR[0]}
	case 2:
		dst.left += (cs.bufL[0] + cs.bufL[1]) * int32(cs.volume) >> 1
		dst.right += (cs.bufR[0] + cs.bufR[1]) * int32(cs.volume) >> 1
		cs.lSmpl = stereoSample{cs.bufL[1], cs.bufR[1]}
	default:
		var sumL, sumR int64
		for i := 0; i < smpCnt; i++ {
			sumL += int64(cs.bufL[i])
			sumR += int64(cs.bufR[i])
		}
		dst.left += int32(sumL * int64(cs.volume) / int64(smpCnt))
		dst.right += int32(sumR * int64(cs.volume) / int64(smpCnt))
		cs.lSmpl = stereoSample{cs.bufL[smpCnt-1], cs.bufR[smpCnt-1]}
	}
}

func (cs *chipStream) resampleUpsampleStep(dst *stereoSample) {
	chipRate := uint64(cs.nativeRate)
	inPosL := uint32(uint64(fixpntFact) * uint64(cs.smpP) * chipRate / uint64(cs.outRate))
	inPre := fp2iFloor(inPosL)
	inNow := fp2iCeil(inPosL)

	oldSmpNext := cs.smpNext
	need := int(inNow - oldSmpNext)
	cs.ensureBuf(need + 2)
	cs.bufL[0], cs.bufR[0] = cs.lSmpl.left, cs.lSmpl.right
	cs.bufL[1], cs.bufR[1] = cs.nSmpl.left, cs.nSmpl.right
	cs.genInto(2, need)

	cs.smpLast = inPre
	cs.smpNext = inNow

	// Rebase the scaled sample position into buf-local fixed-point
	// coordinates: buf[1] (the old SmpNext) sits at exactly one fixed-point
	// unit, buf[0] below it, and the freshly generated run above it. inPre
	// and inNow above are absolute positions used only to size the buffer
	// and update the cursors; indexing must go through this local frame.
	inBase := fixpntFact + (inPosL - oldSmpNext*fixpntFact)
	localPre := fp2iFloor(inBase)
	localNow := fp2iCeil(inBase)
	smpFrc := getFriction(inBase)

	tempL := int64(cs.bufL[localPre])*int64(fixpntFact-smpFrc) + int64(cs.bufL[localNow])*int64(smpFrc)
	tempR := int64(cs.bufR[localPre])*int64(fixpntFact-smpFrc) + int64(cs.bufR[localNow])*int64(smpFrc)
	dst.left += int32(tempL * int64(cs.volume) / fixpntFact)
	dst.right += int32(tempR * int64(cs.volume) / fixpntFact)

	cs.lSmpl = stereoSample{cs.bufL[localPre], cs.bufR[localPre]}
	cs.nSmpl = stereoSample{cs.bufL[localNow], cs.bufR[localNow]}
	cs.smpP++
}

func (cs *chipStream) resampleCopyStep(dst *stereoSample) {
	cs.smpNext = uint32(uint64(cs.smpP) * uint64(cs.nativeRate) / uint64(cs.outRate))
	cs.getChipStream(1)
	dst.left += cs.bufL[0] * int32(cs.volume)
	dst.right += cs.bufR[0] * int32(cs.volume)
	cs.smpP++
	cs.smpLast = cs.smpNext
}

func (cs *chipStream) resampleDownsampleStep(dst *stereoSample) {
	chipRate := uint64(cs.nativeRate)
	inPosL := uint32(uint64(fixpntFact) * uint64(cs.smpP+1) * chipRate / uint64(cs.outRate))
	cs.smpNext = fp2iCeil(inPosL)

	need := int(cs.smpNext - cs.smpLast)
	cs.ensureBuf(need + 1)
	cs.bufL[0], cs.bufR[0] = cs.lSmpl.left, cs.lSmpl.right
	cs.genInto(1, need)

	inPosL2 := uint32(uint64(fixpntFact) * uint64(cs.smpP) * chipRate / uint64(cs.outRate))
	inBase := fixpntFact + (inPosL2 - cs.smpLast*fixpntFact)
	inPos := inBase
	inPosNext := inBase + uint32(uint64(fixpntFact)*chipRate/uint64(cs.outRate))

	var tempL, tempR int64
	var smpCnt int32
	var inPre uint32

	smpFrc := getNFriction(inPos)
	if smpFrc != 0 {
		inPre = fp2iFloor(inPos)
		tempL = int64(cs.bufL[inPre]) * int64(smpFrc)
		tempR = int64(cs.bufR[inPre]) * int64(smpFrc)
		smpCnt = int32(smpFrc)
	}

	smpFrc = getFriction(inPosNext)
	inPre = fp2iFloor(inPosNext)
	if smpFrc != 0 {
		tempL += int64(cs.bufL[inPre]) * int64(smpFrc)
		tempR += int64(cs.bufR[inPre]) * int64(smpFrc)
		smpCnt += int32(smpFrc)
	}

	inNow := fp2iCeil(inPos)
	smpCnt += int32(inPre-inNow) * fixpntFact
	for inNow < inPre {
		tempL += int64(cs.bufL[inNow]) * fixpntFact
		tempR += int64(cs.bufR[inNow]) * fixpntFact
		inNow++
	}

	dst.left += int32(tempL * int64(cs.volume) / int64(smpCnt))
	dst.right += int32(tempR * int64(cs.volume) / int64(smpCnt))

	// inPosNext landing exactly on a sample boundary puts inPre one past
	// the last generated sample; that sample is buf[need].
	if int(inPre) > need {
		inPre = uint32(need)
	}
	cs.lSmpl = stereoSample{cs.bufL[inPre], cs.bufR[inPre]}
	cs.smpP++
	cs.smpLast = cs.smpNext
}

// primeAfterPause re-synchronizes the sample cursors and pulls one native
// sample from the chip (kept as the lookahead sample in Upsample mode,
// discarded in the other modes), matching the safe-update performed before
// a register write reaches a chip that has been silent long enough to pause
// the output stream. Without it the first write after a pause would be
// applied on top of however many native samples accumulated while idle.
func (cs *chipStream) primeAfterPause() {
	if cs.mode == resampleSkip {
		return
	}
	cs.smpP, cs.smpLast, cs.smpNext = 0, 0, 0
	cs.lSmpl, cs.nSmpl = stereoSample{}, stereoSample{}
	cs.getChipStream(1)
	if cs.mode == resampleUpsample {
		cs.nSmpl = stereoSample{cs.bufL[0], cs.bufR[0]}
	}
}
