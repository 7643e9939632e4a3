package opn2

import "testing"

func TestNewEngineStartsPaused(t *testing.T) {
	e := NewEngine(1, 44100, NativeRate, QualityHigh)
	if !e.paused {
		t.Fatalf("a freshly opened engine must start paused")
	}
	if e.nullSamples != 0xFFFFFFFF {
		t.Fatalf("a freshly opened engine must start with nullSamples at the pause sentinel")
	}
}

func TestFillBufferOfSilentEngineProducesSilence(t *testing.T) {
	e := NewEngine(1, 44100, NativeRate, QualityHigh)
	dst := make([]int16, 2*256)
	e.FillBuffer(dst, 256)
	for i, s := range dst {
		if s != 0 {
			t.Fatalf("silent engine produced nonzero sample at %d: %d", i, s)
		}
	}
}

func TestFillBufferAutoPausesAfterOneSecondOfSilence(t *testing.T) {
	e := NewEngine(1, 1000, NativeRate, QualityHigh) // low outRate so the test runs fast
	e.resume()
	dst := make([]int16, 2*1000)
	e.FillBuffer(dst, 1000) // exactly one second at outRate=1000
	if !e.paused {
		t.Fatalf("engine must auto-pause after outRate frames of silence")
	}
}

func TestResumeClearsNullSamplesAndPause(t *testing.T) {
	e := NewEngine(1, 44100, NativeRate, QualityHigh)
	e.resume()
	if e.paused {
		t.Fatalf("resume must clear paused")
	}
	if e.nullSamples != 0 {
		t.Fatalf("resume must reset nullSamples to 0, got %d", e.nullSamples)
	}
}

func TestFlushIfPausedOnlyActsWhenPaused(t *testing.T) {
	e := NewEngine(1, 44100, NativeRate, QualityHigh)
	e.resume()
	before := e.slots[0].stream.smpP
	e.slots[0].stream.smpP = 77
	e.flushIfPaused(0)
	if e.slots[0].stream.smpP != 77 {
		t.Fatalf("flushIfPaused must be a no-op while not paused")
	}
	_ = before

	e.paused = true
	e.flushIfPaused(0)
	if e.slots[0].stream.smpP != 0 {
		t.Fatalf("flushIfPaused must reset the stream's cursor while paused, got %d", e.slots[0].stream.smpP)
	}
}

func TestMuteOutOfRangeChipIDIsSafe(t *testing.T) {
	e := NewEngine(2, 44100, NativeRate, QualityHigh)
	e.mute(5, 0x3f) // must not panic
	e.write(5, 0x28, 0xf0)
}

func TestClipInt16Bounds(t *testing.T) {
	cases := []struct {
		in   int32
		want int16
	}{
		{0, 0},
		{0x7fff, 0x7fff},
		{0x8000, 0x7fff},
		{-0x8000, -0x8000},
		{-0x8001, -0x8000},
	}
	for _, c := range cases {
		if got := clipInt16(c.in); got != c.want {
			t.Fatalf("clipInt16(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPlayDACSampleResumesEngine(t *testing.T) {
	e := NewEngine(1, 44100, NativeRate, QualityHigh)
	if !e.paused {
		t.Fatalf("expected engine to start paused")
	}
	e.playDACSample(0, []uint8{0x80, 0x90, 0xa0}, 8000)
	if e.paused {
		t.Fatalf("playDACSample must resume the engine")
	}
}
