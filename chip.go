// chip.go - a single YM2612: its register file, the six FM channels, and
// the DAC-substitute path on channel 6.

package opn2

// Chip emulates one YM2612. Its zero value is not ready for use; call
// Reset before the first Write or GenerateSample.
type Chip struct {
	regs [512]uint8
	st   opnState

	channels [6]Channel

	address uint8
	addrA1  uint8

	dacEnable uint8
	dacOut    int32
	muteDAC   bool
}

// NewChip builds a Chip clocked at clock Hz, generating native samples at
// rate Hz, and resets it to power-on state.
func NewChip(clock, rate uint32) *Chip {
	c := &Chip{}
	c.st.clock = clock
	c.st.rate = rate
	c.Reset()
	return c
}

// Reset restores power-on state: all registers zeroed, every envelope
// forced to Off at maximum attenuation, DAC disabled, LFO and 3-slot mode
// disabled.
func (c *Chip) Reset() {
	c.st.setPrescaler(6 * 24)

	c.st.egTimer = 0
	c.st.egCnt = 0
	c.st.lfoTimer = 0
	c.st.lfoCnt = 0
	c.st.lfoAM = 126
	c.st.lfoPM = 0
	c.st.tac = 0
	c.st.tbc = 0
	c.st.sl3.keyCSM = 0
	c.st.mode = 0

	for i := range c.regs {
		c.regs[i] = 0
	}

	c.st.writeMode(&c.channels[2], 0x22, 0x00)
	c.st.writeMode(&c.channels[2], 0x27, 0x30)
	c.st.writeMode(&c.channels[2], 0x26, 0x00)
	c.st.writeMode(&c.channels[2], 0x25, 0x00)
	c.st.writeMode(&c.channels[2], 0x24, 0x00)

	c.resetChannels()

	for i := 0xb6; i >= 0xb4; i-- {
		c.WriteReg(i, 0xc0)
		c.WriteReg(i|0x100, 0xc0)
	}
	for i := 0xb2; i >= 0x30; i-- {
		c.WriteReg(i, 0)
		c.WriteReg(i|0x100, 0)
	}

	c.dacEnable = 0
	c.dacOut = 0
}

func (c *Chip) resetChannels() {
	for i := range c.channels {
		ch := &c.channels[i]
		ch.memValue = 0
		ch.op1Out[0] = 0
		ch.op1Out[1] = 0
		ch.fc = 0
		for s := range ch.slots {
			op := &ch.slots[s]
			op.incr = -1
			op.key = 0
			op.phase = 0
			op.ssg = 0
			op.ssgn = 0
			op.state = egOff
			op.volume = maxAttIndex
			op.volOut = maxAttIndex
		}
	}
}

// Write applies one byte written to the chip's 4-port address/data bus:
// address ports latch a register number, data ports apply its value.
func (c *Chip) Write(address, value uint8) {
	switch address & 3 {
	case 0: // address port 0
		c.address = value
		c.addrA1 = 0
	case 1: // data port 0
		if c.addrA1 != 0 {
			return
		}
		c.writeData(uint16(c.address), value)
	case 2: // address port 1
		c.address = value
		c.addrA1 = 1
	case 3: // data port 1
		if c.addrA1 != 1 {
			return
		}
		c.writeData(uint16(c.address)|0x100, value)
	}
}

func (c *Chip) writeData(reg uint16, value uint8) {
	c.regs[reg] = value
	switch {
	case reg&0xf0 == 0x20 && reg < 0x100:
		switch reg {
		case 0x28: // key on/off
			c.KeyEvent(int(value))
		case 0x2a: // DAC data
			c.dacOut = (int32(value) - 0x80) << 6
		case 0x2b: // DAC enable
			c.dacEnable = value & 0x80
		default:
			c.st.writeMode(&c.channels[2], int(reg), int(value))
		}
	default:
		c.WriteReg(int(reg), int(value))
	}
}

// WriteReg applies a 0x30-0xff register write (0x130-0x1ff for the second
// port) directly, bypassing the port/address state machine. Exported so a
// driver can prime a chip's operator and channel state (e.g. when
// restoring state) without replaying writes through the bus protocol. It
// does not update the regs shadow; only Write does.
func (c *Chip) WriteReg(reg, value int) {
	slotIdx := (reg >> 2) & 3
	chanIdx := reg & 3
	if chanIdx == 3 {
		return
	}
	if reg >= 0x100 {
		chanIdx += 3
	}
	ch := &c.channels[chanIdx]
	op := &ch.slots[slotIdx]

	switch reg & 0xf0 {
	case 0x30:
		op.setDetuneMultiple(&c.st, ch, value)
	case 0x40:
		op.setTotalLevel(value)
	case 0x50:
		op.setAttackKSR(ch, value)
	case 0x60:
		op.setDecayRate(value)
		if value&0x80 != 0 {
			op.amMask = ^uint32(0)
		} else {
			op.amMask = 0
		}
	case 0x70:
		op.setSustainRate(value)
	case 0x80:
		op.setSustainLevelReleaseRate(value)
	case 0x90:
		op.setSSGEG(value)
	case 0xa0:
		switch slotIdx {
		case 0: // FNUM1
			fn := (uint32(c.st.fnH)&7)<<8 + uint32(value)
			blk := c.st.fnH >> 3
			ch.kcode = uint32(blk)<<2 | uint32(opnFKTable[fn>>7])
			ch.fc = int32(c.st.fnTable[fn*2] >> (7 - blk))
			ch.blockFnum = uint32(blk)<<11 | fn
			ch.markFreqDirty()
		case 1: // FNUM2, BLK
			c.st.fnH = uint8(value & 0x3f)
		case 2: // 3CH FNUM1
			if reg < 0x100 {
				fn := (uint32(c.st.sl3.fnH)&7)<<8 + uint32(value)
				blk := c.st.sl3.fnH >> 3
				c.st.sl3.kcode[chanIdx] = uint32(blk)<<2 | uint32(opnFKTable[fn>>7])
				c.st.sl3.fc[chanIdx] = c.st.fnTable[fn*2] >> (7 - blk)
				c.st.sl3.blockFnum[chanIdx] = uint32(blk)<<11 | fn
				c.channels[2].markFreqDirty()
			}
		case 3: // 3CH FNUM2, BLK
			if reg < 0x100 {
				c.st.sl3.fnH = uint8(value & 0x3f)
			}
		}
	case 0xb0:
		switch slotIdx {
		case 0: // FB, ALGO
			ch.setAlgorithmFeedback(value)
			// routing is looked up by algorithm on every chanCalc call, so
			// no further per-write bookkeeping is needed here.
		case 1: // L, R, AMS, PMS
			ch.setStereoLFO(value)
			if value&0x80 != 0 {
				c.st.pan[chanIdx*2] = ^uint32(0)
			} else {
				c.st.pan[chanIdx*2] = 0
			}
			if value&0x40 != 0 {
				c.st.pan[chanIdx*2+1] = ^uint32(0)
			} else {
				c.st.pan[chanIdx*2+1] = 0
			}
		}
	}
}

// KeyEvent applies an 0x28 key-on/off write for the channel selected by
// its low bits (0-2, with bit 2 selecting the second bank of three).
func (c *Chip) KeyEvent(value int) {
	ci := value & 0x03
	if ci == 3 {
		return
	}
	if value&0x04 != 0 {
		ci += 3
	}
	c.channels[ci].keyEvent(value, c.st.sl3.keyCSM)
}

// SetMuteMask mutes channels 0-5 (bits 0-5) and the DAC (bit 6).
func (c *Chip) SetMuteMask(mask uint32) {
	for i := range c.channels {
		c.channels[i].muted = (mask>>uint(i))&1 != 0
	}
	c.muteDAC = (mask>>6)&1 != 0
}

// GenerateSample advances the chip by one native-rate sample and returns
// its stereo mix: each channel's contribution is clamped to the
// -8192..8192 window the reference hardware applies, then summed into
// left and right through the pan masks.
func (c *Chip) GenerateSample() (left, right int32) {
	dacOut := c.dacOut
	if c.muteDAC {
		dacOut = 0
	}

	threeSlot := c.st.threeSlotActive()
	for i := range c.channels {
		if threeSlot && i == 2 {
			continue
		}
		c.channels[i].refreshFCEG(c.st.fnMax)
	}
	if threeSlot {
		ch2 := &c.channels[2]
		if ch2.freqDirty {
			ch2.slots[0].refreshRates(int32(c.st.sl3.fc[1]), c.st.sl3.kcode[1], c.st.fnMax)
			ch2.slots[1].refreshRates(int32(c.st.sl3.fc[2]), c.st.sl3.kcode[2], c.st.fnMax)
			ch2.slots[2].refreshRates(int32(c.st.sl3.fc[0]), c.st.sl3.kcode[0], c.st.fnMax)
			ch2.slots[3].refreshRates(ch2.fc, ch2.kcode, c.st.fnMax)
			ch2.freqDirty = false
		}
	}

	for i := range c.channels {
		c.updateSSGEG(&c.channels[i])
	}

	var out [6]int32
	for i := 0; i < 5; i++ {
		c.channels[i].chanCalc(&c.st, c.st.threeSlotActive() && i == 2, &out[i])
	}
	if c.dacEnable != 0 {
		out[5] += dacOut
	} else {
		c.channels[5].chanCalc(&c.st, false, &out[5])
	}

	c.st.advanceLFO()

	c.st.egTimer += c.st.egTimerAdd
	for c.st.egTimer >= c.st.egTimerOverflow {
		c.st.egTimer -= c.st.egTimerOverflow
		c.st.egCnt++
		for i := range c.channels {
			ch := &c.channels[i]
			ch.slots[0].advanceEnvelope(c.st.egCnt)
			ch.slots[1].advanceEnvelope(c.st.egCnt)
			ch.slots[2].advanceEnvelope(c.st.egCnt)
			ch.slots[3].advanceEnvelope(c.st.egCnt)
		}
	}

	for i := range out {
		if out[i] > 8192 {
			out[i] = 8192
		} else if out[i] < -8192 {
			out[i] = -8192
		}
	}

	var lt, rt int32
	for i := 0; i < 6; i++ {
		lt += out[i] & int32(c.st.pan[i*2])
		rt += out[i] & int32(c.st.pan[i*2+1])
	}

	c.st.sl3.keyCSM <<= 1
	if c.st.sl3.keyCSM&2 != 0 {
		ch2 := &c.channels[2]
		ch2.slots[0].keyOffCSM()
		ch2.slots[1].keyOffCSM()
		ch2.slots[2].keyOffCSM()
		ch2.slots[3].keyOffCSM()
		c.st.sl3.keyCSM = 0
	}

	return lt, rt
}

func (c *Chip) updateSSGEG(ch *Channel) {
	ch.slots[0].updateSSGEG()
	ch.slots[1].updateSSGEG()
	ch.slots[2].updateSSGEG()
	ch.slots[3].updateSSGEG()
}
