// driver.go - the public façade: configure, open, write registers, close.
// Mirrors the source driver's small status-enum contract instead of
// returning Go errors, since this is the one surface external hosts
// (a tracker player, a game's sound code) bind against directly.

package opn2

import "log"

// Status is the driver's small result enum, matching the source driver's
// contract rather than Go's usual error interface.
type Status uint8

const (
	StatusSuccess            Status = 0x00
	StatusAlreadyInitialized Status = 0x80
	StatusTooManyChips       Status = 0xFF
	StatusSoundDeviceError   Status = 0xC0
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAlreadyInitialized:
		return "already initialized"
	case StatusTooManyChips:
		return "too many chips"
	case StatusSoundDeviceError:
		return "sound device error"
	default:
		return "unknown status"
	}
}

// Options configures a Driver before Open. Zero value is not valid; use
// DefaultOptions as a starting point.
type Options struct {
	OutputRate   uint32       // host output sample rate, Hz
	Quality      Quality      // resampler strategy family
	ChipRateMode ChipRateMode // how each chip's native rate is derived
	CustomRate   uint32       // used only when ChipRateMode == ChipRateCustom

	// Logger receives cold-path diagnostics: Open logs when it rejects a
	// call (already initialized, too many chips). Nil-safe: a nil Logger falls back to
	// log.Default(), matching the teacher's plain *log.Logger usage.
	Logger *log.Logger
}

// DefaultOptions matches the hardware's own timing: 53,267 Hz native
// chips resampled into 44,100 Hz stereo output with the ratio-appropriate
// resampler.
func DefaultOptions() Options {
	return Options{
		OutputRate:   44100,
		Quality:      QualityHigh,
		ChipRateMode: ChipRateNative,
	}
}

// Driver is the engine's public façade. Its zero value is not ready for
// use; call SetOptions then Open.
type Driver struct {
	opts   Options
	engine *Engine
	logger *log.Logger
}

// SetOptions configures a Driver before Open. Calling it again before
// Open replaces the prior configuration; calling it after Open has no
// effect on the already-running engine.
func (d *Driver) SetOptions(opts Options) {
	d.opts = opts
	if opts.Logger != nil {
		d.logger = opts.Logger
	} else {
		d.logger = log.Default()
	}
}

func (d *Driver) log() *log.Logger {
	if d.logger == nil {
		return log.Default()
	}
	return d.logger
}

// nativeRateFor resolves the per-chip sample rate SetOptions selected.
func (d *Driver) nativeRateFor() uint32 {
	switch d.opts.ChipRateMode {
	case ChipRateHighest:
		return d.opts.OutputRate
	case ChipRateCustom:
		return d.opts.CustomRate
	default:
		return NativeRate
	}
}

// Open initializes nChips chips and starts the pipeline in a paused
// state, matching the source driver's power-on-silent behavior.
func (d *Driver) Open(nChips int) Status {
	if d.engine != nil {
		d.log().Println("opn2: Open called while already initialized")
		return StatusAlreadyInitialized
	}
	if nChips > MaxChips {
		d.log().Printf("opn2: Open requested %d chips, max is %d", nChips, MaxChips)
		return StatusTooManyChips
	}
	rate := d.opts.OutputRate
	if rate == 0 {
		rate = DefaultOptions().OutputRate
	}
	d.engine = NewEngine(nChips, rate, d.nativeRateFor(), d.opts.Quality)
	return StatusSuccess
}

// Close tears down the engine. Safe to call when not open.
func (d *Driver) Close() {
	d.engine = nil
}

// Write applies a register write. reg's high byte selects port 0 or 1;
// the low byte is the register address. A nonzero key mask on register
// 0x28 resumes the stream before the write is applied, matching the
// source driver's wake condition.
func (d *Driver) Write(chipID uint8, reg uint16, data uint8) {
	if d.engine == nil || int(chipID) >= d.engine.chipCount() {
		return
	}
	ci := int(chipID)
	regSet := uint8(reg >> 8)

	d.engine.mu.Lock()
	if reg&0xff == 0x28 && data&0xf0 != 0 {
		d.engine.resume()
	} else {
		d.engine.flushIfPaused(ci)
	}
	d.engine.write(ci, regSet<<1, uint8(reg))
	d.engine.write(ci, 1|regSet<<1, data)
	d.engine.mu.Unlock()
}

// Mute applies a 7-bit mute mask: bits 0..5 mute channels 0..5, bit 6
// mutes the DAC substitute.
func (d *Driver) Mute(chipID uint8, mask uint8) {
	if d.engine == nil {
		return
	}
	d.engine.mu.Lock()
	d.engine.mute(int(chipID), uint32(mask))
	d.engine.mu.Unlock()
}

// PlayDACSample installs an externally owned unsigned-8-bit PCM buffer
// into chip chipID's DAC streamer and resumes the stream. The caller
// must keep data alive until it detaches or is replaced; freq == 0
// reuses the previously set playback frequency.
func (d *Driver) PlayDACSample(chipID uint8, data []uint8, freq uint32) {
	if d.engine == nil {
		return
	}
	d.engine.mu.Lock()
	d.engine.playDACSample(int(chipID), data, freq)
	d.engine.mu.Unlock()
}

// SetDACFrequency adjusts a chip's DAC playback rate without replacing
// its installed sample buffer.
func (d *Driver) SetDACFrequency(chipID uint8, freq uint32) {
	if d.engine == nil {
		return
	}
	d.engine.mu.Lock()
	d.engine.setDACFrequency(int(chipID), freq)
	d.engine.mu.Unlock()
}

// SetDACVolume adjusts a chip's DAC playback volume (Q8, 0x100 = unity).
func (d *Driver) SetDACVolume(chipID uint8, vol uint32) {
	if d.engine == nil {
		return
	}
	d.engine.mu.Lock()
	d.engine.setDACVolume(int(chipID), vol)
	d.engine.mu.Unlock()
}

// FillBuffer renders frames stereo int16 samples (length 2*frames,
// interleaved L/R) into dst. This is the function the host audio
// adapter's output callback drives on its dedicated thread.
func (d *Driver) FillBuffer(dst []int16, frames int) {
	if d.engine == nil {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	d.engine.FillBuffer(dst, frames)
}
