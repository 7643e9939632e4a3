// pipeline.go - the engine: owns every chip slot, its resampler and DAC
// streamer, and mixes them down into the host's output buffer.

package opn2

import "sync"

const (
	// MasterClock is the YM2612's crystal frequency in Hz.
	MasterClock = 7670454
	// NativeRate is the chip's own sample rate, clock/144.
	NativeRate = MasterClock / 144
	// MaxChips bounds how many chips one Engine can host.
	MaxChips = 16
)

// ChipRateMode selects how a chip's native sample rate relates to the
// engine's output rate.
type ChipRateMode uint8

const (
	ChipRateNative ChipRateMode = iota // clock/144, the hardware's own rate
	ChipRateHighest                    // matches the output rate exactly (Copy mode, or Average under QualityLow)
	ChipRateCustom                     // an explicitly supplied rate
)

// Quality selects the resampler strategy family, independent of the
// per-chip rate ratio that otherwise picks it automatically.
type Quality uint8

const (
	QualityHigh   Quality = iota // ratio-appropriate mode (Upsample/Copy/Downsample)
	QualityLQDown                // like High, but downsampling falls back to Average
	QualityLow                   // always use the cheap Average resampler
)

// chipSlot bundles one chip with the resampler and DAC streamer that feed
// it into the shared mix.
type chipSlot struct {
	chip   *Chip
	stream *chipStream
	dac    *dacStream
}

// Engine owns the whole pipeline: every chip slot, the mutex serializing
// register writes against buffer fills, and the auto-pause counter; each
// chip's resampler keeps its own scratch buffers. It is created by a Driver's
// Open and torn down by Close; there is no package-level engine state.
type Engine struct {
	mu sync.Mutex

	outRate uint32
	slots   []chipSlot

	nullSamples uint32
	paused      bool
}

// NewEngine builds an Engine with nChips chips, each clocked at nativeRate
// and resampled into outRate-Hz stereo output. quality overrides the
// ratio-derived resampler mode per spec.md §6's resample_mode option.
func NewEngine(nChips int, outRate, nativeRate uint32, quality Quality) *Engine {
	e := &Engine{outRate: outRate}
	e.slots = make([]chipSlot, nChips)
	for i := range e.slots {
		chip := NewChip(MasterClock, nativeRate)
		stream := newChipStream(chip, nativeRate, outRate)
		switch quality {
		case QualityLow:
			stream.forceQuality(true)
		case QualityLQDown:
			if stream.mode == resampleDownsample {
				stream.forceQuality(true)
			}
		}
		e.slots[i] = chipSlot{
			chip:   chip,
			stream: stream,
			dac:    newDACStream(),
		}
	}
	e.nullSamples = 0xFFFFFFFF
	e.paused = true
	return e
}

func (e *Engine) chipCount() int { return len(e.slots) }

// flushIfPaused performs the safe-update hook: one throwaway native
// sample pulled before a register write lands on a chip whose stream has
// been paused, so the write doesn't apply on top of stale phase/envelope
// state accumulated while idle. Caller holds e.mu.
func (e *Engine) flushIfPaused(ci int) {
	if !e.paused || ci < 0 || ci >= len(e.slots) {
		return
	}
	e.slots[ci].stream.primeAfterPause()
}

// write applies a register write to chip ci. Caller holds e.mu.
func (e *Engine) write(ci int, address, value uint8) {
	if ci < 0 || ci >= len(e.slots) {
		return
	}
	e.slots[ci].chip.Write(address, value)
}

func (e *Engine) resume() {
	e.nullSamples = 0
	e.paused = false
}

func (e *Engine) mute(ci int, mask uint32) {
	if ci < 0 || ci >= len(e.slots) {
		return
	}
	e.slots[ci].chip.SetMuteMask(mask)
}

// playDACSample installs data into chip ci's DAC streamer. freq == 0
// reuses the previously set playback frequency.
func (e *Engine) playDACSample(ci int, data []uint8, freq uint32) {
	if ci < 0 || ci >= len(e.slots) {
		return
	}
	slot := &e.slots[ci]
	slot.dac.play(data, freq, e.outRate)
	e.resume()
}

func (e *Engine) setDACFrequency(ci int, freq uint32) {
	if ci < 0 || ci >= len(e.slots) {
		return
	}
	e.slots[ci].dac.setFrequency(freq, e.outRate)
}

func (e *Engine) setDACVolume(ci int, vol uint32) {
	if ci < 0 || ci >= len(e.slots) {
		return
	}
	e.slots[ci].dac.setVolume(vol)
}

// FillBuffer renders frames stereo int16 samples into dst (length
// 2*frames, interleaved L/R), advancing every chip's DAC streamer and
// resampler by one frame at a time, exactly as the reference pipeline
// does, so the auto-pause heuristic's silence counting stays accurate to
// the frame.
func (e *Engine) FillBuffer(dst []int16, frames int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < frames; i++ {
		var acc stereoSample

		for s := range e.slots {
			slot := &e.slots[s]
			slot.dac.advance(slot.chip)
			if slot.dac.active {
				e.nullSamples = 0
			}
		}
		for s := range e.slots {
			e.slots[s].stream.resample(&acc)
		}

		left := acc.left >> 7
		right := acc.right >> 7

		if left == 0 && right == 0 {
			e.nullSamples++
		} else {
			e.nullSamples = 0
		}

		dst[i*2] = clipInt16(left)
		dst[i*2+1] = clipInt16(right)
	}

	if e.nullSamples >= e.outRate {
		e.nullSamples = 0xFFFFFFFF
		e.paused = true
	}
}

func clipInt16(v int32) int16 {
	if v < -0x8000 {
		return -0x8000
	}
	if v > 0x7fff {
		return 0x7fff
	}
	return int16(v)
}
