package opn2

import "testing"

func TestDriverOpenThenOpenAgainFails(t *testing.T) {
	var d Driver
	d.SetOptions(DefaultOptions())

	if st := d.Open(1); st != StatusSuccess {
		t.Fatalf("first Open must succeed, got %v", st)
	}
	if st := d.Open(1); st != StatusAlreadyInitialized {
		t.Fatalf("second Open must report already-initialized, got %v", st)
	}
}

func TestDriverOpenTooManyChips(t *testing.T) {
	var d Driver
	d.SetOptions(DefaultOptions())

	if st := d.Open(MaxChips + 1); st != StatusTooManyChips {
		t.Fatalf("Open beyond MaxChips must report too-many-chips, got %v", st)
	}
}

func TestDriverCloseAllowsReopen(t *testing.T) {
	var d Driver
	d.SetOptions(DefaultOptions())
	d.Open(1)
	d.Close()
	if st := d.Open(1); st != StatusSuccess {
		t.Fatalf("Open after Close must succeed, got %v", st)
	}
}

func TestDriverFillBufferBeforeOpenProducesSilence(t *testing.T) {
	var d Driver
	dst := make([]int16, 20)
	d.FillBuffer(dst, 10)
	for i, s := range dst {
		if s != 0 {
			t.Fatalf("unopened driver must fill silence, got %d at %d", s, i)
		}
	}
}

func TestDriverWriteOutOfRangeChipIDIsSafe(t *testing.T) {
	var d Driver
	d.SetOptions(DefaultOptions())
	d.Open(1)
	d.Write(5, 0x28, 0xf0) // chip 5 doesn't exist; must not panic
}

func TestDriverStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusSuccess:            "success",
		StatusAlreadyInitialized: "already initialized",
		StatusTooManyChips:       "too many chips",
		StatusSoundDeviceError:   "sound device error",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Fatalf("Status(%d).String() = %q, want %q", st, got, want)
		}
	}
}

func TestDriverWriteKeyOnResumesAfterSilence(t *testing.T) {
	var d Driver
	d.SetOptions(DefaultOptions())
	d.Open(1)
	d.engine.resume() // start from a clean, unpaused null-sample count

	// render enough silent frames to trip the auto-pause heuristic
	dst := make([]int16, 2*44100)
	d.FillBuffer(dst, 44100)
	if !d.engine.paused {
		t.Fatalf("expected engine to auto-pause after a second of silence")
	}

	d.Write(0, 0x28, 0xf0) // key-on with a nonzero mask on register 0x28
	if d.engine.paused {
		t.Fatalf("a nonzero-mask 0x28 write must resume the engine")
	}
}

func TestDriverNativeRateForModes(t *testing.T) {
	var d Driver
	d.SetOptions(Options{OutputRate: 48000, ChipRateMode: ChipRateHighest})
	if got := d.nativeRateFor(); got != 48000 {
		t.Fatalf("ChipRateHighest must resolve to the output rate, got %d", got)
	}

	d.SetOptions(Options{OutputRate: 48000, ChipRateMode: ChipRateCustom, CustomRate: 12345})
	if got := d.nativeRateFor(); got != 12345 {
		t.Fatalf("ChipRateCustom must resolve to CustomRate, got %d", got)
	}

	d.SetOptions(Options{OutputRate: 48000, ChipRateMode: ChipRateNative})
	if got := d.nativeRateFor(); got != NativeRate {
		t.Fatalf("ChipRateNative must resolve to NativeRate, got %d", got)
	}
}

func TestDriverMuteAndPlayDACSampleDoNotPanicUnopened(t *testing.T) {
	var d Driver
	d.Mute(0, 0x3f)
	d.PlayDACSample(0, []uint8{0x80}, 8000)
	d.SetDACFrequency(0, 8000)
	d.SetDACVolume(0, 0x100)
}
