package opn2

import "testing"

// newSilentChannel builds a Channel whose four operators are all silent
// (tl maxed out) except where a test overrides them, so chanCalc's bus
// routing can be probed without full envelope/phase machinery.
func newSilentChannel() *Channel {
	ch := &Channel{}
	for i := range ch.slots {
		ch.slots[i].tl = uint32(127) << 3
		ch.slots[i].volOut = maxAttIndex + ch.slots[i].tl
		ch.slots[i].multiple = 1
		ch.slots[i].detune = make([]int32, 32)
	}
	return ch
}

func TestAlgorithm7AllOperatorsToCarrier(t *testing.T) {
	route := algoRouting[7]
	if route.slot1Dest != busCarrier || route.slot2Dest != busCarrier || route.slot3Dest != busCarrier {
		t.Fatalf("algorithm 7 must route every slot straight to the carrier bus, got %+v", route)
	}
}

func TestAlgorithm4TwoIndependentFMPairs(t *testing.T) {
	route := algoRouting[4]
	if route.slot1Dest != busC1 {
		t.Fatalf("algorithm 4 slot1 must feed C1, got %v", route.slot1Dest)
	}
	if route.slot2Dest != busCarrier {
		t.Fatalf("algorithm 4 slot2 must feed the carrier directly, got %v", route.slot2Dest)
	}
	if route.slot3Dest != busC2 {
		t.Fatalf("algorithm 4 slot3 must feed C2, got %v", route.slot3Dest)
	}
}

func TestAlgorithm5Slot1FansOutToThreeBuses(t *testing.T) {
	route := algoRouting[5]
	if route.slot1Dest != busNone {
		t.Fatalf("algorithm 5 slot1 must use the busNone fan-out marker, got %v", route.slot1Dest)
	}
}

// TestChanCalcMutedChannelProducesNoOutput exercises the muted short-circuit:
// a muted channel must leave the caller's carrier accumulator untouched.
func TestChanCalcMutedChannelProducesNoOutput(t *testing.T) {
	ch := newSilentChannel()
	ch.muted = true
	st := &opnState{}
	st.fnTable[0] = 0
	st.pan = [12]uint32{}

	var carrier int32 = 42
	ch.chanCalc(st, false, &carrier)

	if carrier != 42 {
		t.Fatalf("muted channel must not touch the carrier accumulator, got %d", carrier)
	}
}

// TestChanCalcSilentOperatorsProduceZero exercises the steady-state silent
// path: every operator's envelope output is at/above envQuiet, so chanCalc
// should accumulate nothing into the carrier.
func TestChanCalcSilentOperatorsProduceZero(t *testing.T) {
	ch := newSilentChannel()
	ch.algo = 7 // all four slots straight to carrier
	st := &opnState{}

	var carrier int32
	ch.chanCalc(st, false, &carrier)

	if carrier != 0 {
		t.Fatalf("fully attenuated operators must contribute 0, got %d", carrier)
	}
}

func TestMarkFreqDirtySetsIncrSentinel(t *testing.T) {
	ch := &Channel{}
	ch.slots[0].incr = 1234
	ch.freqDirty = false

	ch.markFreqDirty()

	if !ch.freqDirty {
		t.Fatalf("markFreqDirty must set freqDirty")
	}
	if ch.slots[0].incr != -1 {
		t.Fatalf("markFreqDirty must set SLOT1's incr to the -1 recompute sentinel, got %d", ch.slots[0].incr)
	}
}

func TestRefreshFCEGSkipsWhenNotDirty(t *testing.T) {
	ch := &Channel{}
	for i := range ch.slots {
		ch.slots[i].detune = make([]int32, 32)
		ch.slots[i].incr = 555
	}
	ch.freqDirty = false

	ch.refreshFCEG(1000)

	if ch.slots[0].incr != 555 {
		t.Fatalf("refreshFCEG must be a no-op when freqDirty is false")
	}
}

func TestSetAlgorithmFeedbackZeroFeedbackField(t *testing.T) {
	ch := &Channel{}
	ch.setAlgorithmFeedback(0x05) // feedback field 0, algo 5

	if ch.fb != 0 {
		t.Fatalf("feedback register field 0 must produce fb=0, got %d", ch.fb)
	}
	if ch.algo != 5 {
		t.Fatalf("expected algo 5, got %d", ch.algo)
	}
}

func TestSetAlgorithmFeedbackNonzero(t *testing.T) {
	ch := &Channel{}
	ch.setAlgorithmFeedback((3 << 3) | 2) // feedback field 3, algo 2

	if ch.fb != 9 { // 3 + 6 base offset
		t.Fatalf("feedback field 3 must produce fb=9, got %d", ch.fb)
	}
}

// TestKeyEventBit80GatesSlot4NotSlot3 pins the corrected 0x28 bit layout:
// bit 0x80 must gate SLOT4 (slots[3]), not SLOT3 (slots[2]) as the
// original's documented key-off typo would. A future refactor that
// reintroduces the off-by-one would flip which slot's key latch moves.
func TestKeyEventBit80GatesSlot4NotSlot3(t *testing.T) {
	ch := newSilentChannel()
	for i := range ch.slots {
		ch.slots[i].key = 0
		ch.slots[i].state = egOff
	}

	ch.keyEvent(0x80, 0)

	if ch.slots[3].key != 1 {
		t.Fatalf("bit 0x80 must key on SLOT4 (slots[3]), got key=%d", ch.slots[3].key)
	}
	if ch.slots[3].state != egAttack && ch.slots[3].state != egDecay && ch.slots[3].state != egSustain {
		t.Fatalf("SLOT4 must leave egOff once keyed on, got %v", ch.slots[3].state)
	}
	if ch.slots[2].key != 0 {
		t.Fatalf("bit 0x80 must not key on SLOT3 (slots[2]), got key=%d", ch.slots[2].key)
	}
	if ch.slots[2].state != egOff {
		t.Fatalf("SLOT3 must remain untouched (egOff), got %v", ch.slots[2].state)
	}
	if ch.slots[0].key != 0 || ch.slots[1].key != 0 {
		t.Fatalf("bits 0x10/0x20 were not set; SLOT1/SLOT2 must stay keyed off")
	}
}

// TestChipKeyEventRoutesThroughBit80 exercises the same fix through the
// chip-level bus decode, confirming KeyEvent's channel/bank selection
// doesn't itself reintroduce a slot mismatch.
func TestChipKeyEventRoutesThroughBit80(t *testing.T) {
	c := NewChip(MasterClock, NativeRate)

	c.KeyEvent(0x80) // channel 0, bit 0x80 only

	if c.channels[0].slots[3].key != 1 {
		t.Fatalf("KeyEvent(0x80) must key on channel 0's SLOT4")
	}
	if c.channels[0].slots[2].key != 0 {
		t.Fatalf("KeyEvent(0x80) must not key on channel 0's SLOT3")
	}
}
