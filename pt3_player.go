// pt3_player.go - ProTracker 3 tick interpreter: pattern bytecode in,
// one PSG register image per tick out.

package main

// PT3_FRAME_RATE is the tracker tick rate. PT3 songs are authored against
// the ZX Spectrum 50 Hz interrupt.
const PT3_FRAME_RATE = 50

// pt3Channel is the per-channel interpreter state.
type pt3Channel struct {
	stream []uint8
	cursor int

	sample             *PT3Sample
	ornament           *PT3Ornament
	positionInSample   int
	positionInOrnament int

	volume      int
	note        int
	prevNote    int
	prevSliding int
	slideToNote int

	currentTonSliding       int
	currentAmplitudeSliding int
	currentNoiseSliding     int
	currentEnvelopeSliding  int
	tonAccumulator          int

	tonSlideStep  int
	tonSlideDelay int
	tonSlideCount int
	tonDelta      int

	currentOnOff int
	onOffDelay   int
	offOnDelay   int

	envelopeEnabled bool
	enabled         bool
	simpleGliss     bool

	numberOfNotesToSkip int
	noteSkipCounter     int
}

// next reads one bytecode byte. Reads past the stream end return 0x00, so
// a truncated row degrades to end-of-track instead of a panic.
func (c *pt3Channel) next() uint8 {
	if c.cursor >= len(c.stream) {
		return 0
	}
	b := c.stream[c.cursor]
	c.cursor++
	return b
}

func (c *pt3Channel) peek() uint8 {
	if c.cursor >= len(c.stream) {
		return 0
	}
	return c.stream[c.cursor]
}

// PT3Player interprets one module. TurboSound files run two players, one
// per chip, fed from the two halves of the file.
type PT3Player struct {
	file        *PT3File
	toneTable   *[PT3_NOTE_COUNT]uint16
	volumeTable *[16][16]uint8

	channels [3]pt3Channel

	delay           uint8
	delayCounter    int
	currentPosition int
	hasLooped       bool

	noiseBase        int
	envBase          int
	curEnvSlide      int
	envSlideAdd      int
	envDelay         int
	curEnvDelay      int
	newEnvelopeShape uint8

	// Per-tick scratch, rebuilt by every generateRegisters call.
	addToNoise int
	addToEnv   int
}

// NewPT3Player builds the interpreter positioned at the first row.
func NewPT3Player(file *PT3File) *PT3Player {
	p := &PT3Player{
		file:        file,
		toneTable:   pt3ToneTable(file.ToneTableID, file.Version),
		volumeTable: pt3VolumeTable(file.Version),
	}
	p.Reset()
	return p
}

// Reset restores the power-on interpreter state: position zero, default
// volume, sample 1, no ornament.
func (p *PT3Player) Reset() {
	for ch := range p.channels {
		p.channels[ch] = pt3Channel{
			sample: p.file.Samples[1],
			volume: 15,
		}
	}
	p.delay = p.file.Delay
	p.delayCounter = 1
	p.hasLooped = false
	p.noiseBase = 0
	p.envBase = 0
	p.curEnvSlide = 0
	p.envSlideAdd = 0
	p.envDelay = 0
	p.curEnvDelay = 0
	p.newEnvelopeShape = PSG_ENV_NO_WRITE
	p.loadPosition(0)
}

// HasLooped reports that the position list has wrapped to the loop point
// at least once.
func (p *PT3Player) HasLooped() bool { return p.hasLooped }

func (p *PT3Player) CurrentPosition() int { return p.currentPosition }

// loadPosition points all three channels at the pattern of the given
// position, wrapping to the loop position past the end of the song.
func (p *PT3Player) loadPosition(position int) {
	if position >= len(p.file.Positions) {
		position = p.file.LoopPos
		p.hasLooped = true
	}
	p.currentPosition = position
	pattern := int(p.file.Positions[position]) / 3
	for ch := range p.channels {
		c := &p.channels[ch]
		c.stream = p.file.Patterns[pattern].Streams[ch]
		c.cursor = 0
		c.noteSkipCounter = -1 // due on the tick that loaded the position
	}
}

// Tick advances the interpreter by one frame and returns the register
// image to apply. Register 13 is PSG_ENV_NO_WRITE unless a row set a new
// envelope shape this tick.
func (p *PT3Player) Tick() [PSG_REG_COUNT]uint8 {
	p.delayCounter--
	if p.delayCounter <= 0 {
		p.rowStep()
		p.delayCounter = int(p.delay)
		if p.delayCounter < 1 {
			p.delayCounter = 1
		}
	}
	return p.generateRegisters()
}

// rowStep runs the outer level of the state machine: note-skip countdown,
// position advance on end-of-track, then the pattern interpreter for every
// channel that is due.
func (p *PT3Player) rowStep() {
	for ch := range p.channels {
		p.channels[ch].noteSkipCounter--
	}
	for ch := range p.channels {
		c := &p.channels[ch]
		if c.noteSkipCounter < 0 && c.peek() == 0x00 {
			p.loadPosition(p.currentPosition + 1)
			break
		}
	}
	for ch := range p.channels {
		c := &p.channels[ch]
		if c.noteSkipCounter < 0 {
			p.interpretRow(ch)
			c.noteSkipCounter = c.numberOfNotesToSkip
		}
	}
}

// interpretRow decodes one pattern row for a channel. Effect codes seen
// during the row stack up; their parameter bytes sit after the row
// terminator and are consumed in reverse order of appearance.
func (p *PT3Player) interpretRow(ch int) {
	c := &p.channels[ch]
	var effects []uint8

	for {
		b := c.peek()
		if b == 0x00 {
			// End of track: stay on the terminator so the outer loop
			// advances the position.
			break
		}
		c.cursor++

		switch {
		case b <= 0x09:
			effects = append(effects, b)

		case b == 0x10:
			c.envelopeEnabled = false
			c.positionInOrnament = 0
			p.setSample(c, int(c.next())/2)

		case b <= 0x1F:
			c.envelopeEnabled = true
			p.newEnvelopeShape = b - 0x10
			p.envBase = int(c.next())<<8 | int(c.next())
			c.positionInOrnament = 0
			p.setSample(c, int(c.next())/2)

		case b <= 0x3F:
			p.noiseBase = int(b - 0x20)

		case b <= 0x4F:
			p.setOrnament(c, int(b-0x40))

		case b <= 0xAF:
			c.prevNote = c.note
			c.prevSliding = c.currentTonSliding
			c.note = int(b - 0x50)
			c.positionInSample = 0
			c.positionInOrnament = 0
			c.currentAmplitudeSliding = 0
			c.currentNoiseSliding = 0
			c.currentEnvelopeSliding = 0
			c.currentTonSliding = 0
			c.tonSlideCount = 0
			c.tonAccumulator = 0
			c.currentOnOff = 0
			c.enabled = true
			p.readEffectParams(c, effects)
			return

		case b == 0xB0:
			c.envelopeEnabled = false
			c.positionInOrnament = 0

		case b == 0xB1:
			c.numberOfNotesToSkip = int(c.next())

		case b <= 0xBF:
			c.envelopeEnabled = true
			p.newEnvelopeShape = b - 0xB1
			p.envBase = int(c.next())<<8 | int(c.next())
			c.positionInOrnament = 0

		case b == 0xC0:
			c.positionInSample = 0
			c.positionInOrnament = 0
			c.currentAmplitudeSliding = 0
			c.currentNoiseSliding = 0
			c.currentEnvelopeSliding = 0
			c.currentTonSliding = 0
			c.tonSlideCount = 0
			c.tonAccumulator = 0
			c.currentOnOff = 0
			c.enabled = false
			p.readEffectParams(c, effects)
			return

		case b <= 0xCF:
			c.volume = int(b - 0xC0)

		case b == 0xD0:
			p.readEffectParams(c, effects)
			return

		case b <= 0xEF:
			p.setSample(c, int(b-0xD0))

		default: // 0xF0-0xFF
			p.setOrnament(c, int(b-0xF0))
			p.setSample(c, int(c.next())/2)
			c.envelopeEnabled = false
		}
	}
}

// readEffectParams consumes the post-row parameter bytes, popping the
// recorded effect codes last-in first-out.
func (p *PT3Player) readEffectParams(c *pt3Channel, effects []uint8) {
	for i := len(effects) - 1; i >= 0; i-- {
		switch effects[i] {
		case 0x01: // simple glissando
			delay := int(c.next())
			c.tonSlideDelay = delay
			c.tonSlideCount = delay
			c.tonSlideStep = int(int16(uint16(c.next()) | uint16(c.next())<<8))
			c.simpleGliss = true
			c.currentOnOff = 0

		case 0x02: // portamento towards the row's note
			delay := int(c.next())
			c.tonSlideDelay = delay
			c.tonSlideCount = delay
			c.next()
			c.next()
			step := int(int16(uint16(c.next()) | uint16(c.next())<<8))
			if step < 0 {
				step = -step
			}
			c.simpleGliss = false
			c.currentOnOff = 0
			c.tonDelta = int(p.toneTable[c.note]) - int(p.toneTable[c.prevNote])
			c.slideToNote = c.note
			c.note = c.prevNote
			if p.file.Version >= 6 {
				c.currentTonSliding = c.prevSliding
			}
			if c.tonDelta-c.currentTonSliding < 0 {
				step = -step
			}
			c.tonSlideStep = step

		case 0x03:
			c.positionInSample = int(c.next())

		case 0x04:
			c.positionInOrnament = int(c.next())

		case 0x05: // on/off vibrato
			c.onOffDelay = int(c.next())
			c.offOnDelay = int(c.next())
			c.currentOnOff = c.onOffDelay
			c.tonSlideCount = 0
			c.currentTonSliding = 0

		case 0x08: // envelope slide
			p.envDelay = int(c.next())
			p.curEnvDelay = p.envDelay
			p.envSlideAdd = int(int16(uint16(c.next()) | uint16(c.next())<<8))

		case 0x09: // song speed
			delay := c.next()
			if delay < 1 {
				delay = 1
			}
			p.delay = delay
		}
	}
}

func (p *PT3Player) setSample(c *pt3Channel, index int) {
	if index >= 0 && index < pt3SampleCount {
		c.sample = p.file.Samples[index]
	}
}

func (p *PT3Player) setOrnament(c *pt3Channel, index int) {
	if index >= 0 && index < pt3OrnamentCount {
		c.ornament = p.file.Ornaments[index]
	}
	c.positionInOrnament = 0
}

// generateRegisters runs the per-tick sample/ornament machinery for all
// three channels and assembles the register image.
func (p *PT3Player) generateRegisters() [PSG_REG_COUNT]uint8 {
	var regs [PSG_REG_COUNT]uint8
	p.addToNoise = 0
	p.addToEnv = 0

	mixer := uint8(0)
	for ch := 0; ch < 3; ch++ {
		tone, volume, toneOff, noiseOff := p.channelTick(ch)
		regs[PSG_REG_TONE_A_LO+ch*2] = uint8(tone)
		regs[PSG_REG_TONE_A_HI+ch*2] = uint8(tone >> 8)
		regs[PSG_REG_VOL_A+ch] = volume
		if toneOff {
			mixer |= 1 << ch
		}
		if noiseOff {
			mixer |= 1 << (3 + ch)
		}
	}
	regs[PSG_REG_MIXER] = mixer
	regs[PSG_REG_NOISE] = uint8((p.noiseBase + p.addToNoise) & 0x1F)

	envPeriod := p.envBase + p.curEnvSlide + p.addToEnv
	if envPeriod < 0 {
		envPeriod = 0
	} else if envPeriod > 0xFFFF {
		envPeriod = 0xFFFF
	}
	regs[PSG_REG_ENV_LO] = uint8(envPeriod)
	regs[PSG_REG_ENV_HI] = uint8(envPeriod >> 8)

	regs[PSG_REG_ENV_SHAPE] = p.newEnvelopeShape
	p.newEnvelopeShape = PSG_ENV_NO_WRITE

	if p.curEnvDelay > 0 {
		p.curEnvDelay--
		if p.curEnvDelay == 0 {
			p.curEnvDelay = p.envDelay
			p.curEnvSlide += p.envSlideAdd
		}
	}
	return regs
}

// channelTick produces one channel's tone period, volume register value
// and mixer mask bits, advancing its sample, ornament, slide and vibrato
// state by one tick.
func (p *PT3Player) channelTick(ch int) (tone uint16, volume uint8, toneOff, noiseOff bool) {
	c := &p.channels[ch]

	// Vibrato gates the channel on and off regardless of its other state.
	if c.currentOnOff > 0 {
		c.currentOnOff--
		if c.currentOnOff == 0 {
			c.enabled = !c.enabled
			reload := c.offOnDelay
			if c.enabled {
				reload = c.onOffDelay
			}
			if reload < 1 {
				reload = 1
			}
			c.currentOnOff = reload
		}
	}

	if !c.enabled || c.sample == nil || len(c.sample.Frames) == 0 {
		return 0, 0, true, true
	}

	if c.positionInSample >= len(c.sample.Frames) {
		c.positionInSample = c.sample.Loop
	}
	frame := &c.sample.Frames[c.positionInSample]

	ornOffset := 0
	if c.ornament != nil && len(c.ornament.Data) > 0 {
		if c.positionInOrnament >= len(c.ornament.Data) {
			c.positionInOrnament = c.ornament.Loop
		}
		ornOffset = int(c.ornament.Data[c.positionInOrnament])
	}

	toneAdd := int(frame.toneOffset) + c.tonAccumulator
	if frame.accumulateTone {
		c.tonAccumulator = toneAdd
	}

	note := c.note + ornOffset
	if note < 0 {
		note = 0
	} else if note >= PT3_NOTE_COUNT {
		note = PT3_NOTE_COUNT - 1
	}
	tone = uint16((toneAdd + c.currentTonSliding + int(p.toneTable[note])) & 0xFFF)

	if c.tonSlideCount > 0 {
		c.tonSlideCount--
		if c.tonSlideCount == 0 {
			c.currentTonSliding += c.tonSlideStep
			c.tonSlideCount = c.tonSlideDelay
			if !c.simpleGliss {
				reached := (c.tonSlideStep < 0 && c.currentTonSliding <= c.tonDelta) ||
					(c.tonSlideStep >= 0 && c.currentTonSliding >= c.tonDelta)
				if reached {
					c.note = c.slideToNote
					c.tonSlideCount = 0
					c.currentTonSliding = 0
				}
			}
		}
	}

	amplitude := int(frame.amplitude)
	if frame.amplitudeSlideEnabled {
		c.currentAmplitudeSliding += int(frame.amplitudeSlide)
		if c.currentAmplitudeSliding < -15 {
			c.currentAmplitudeSliding = -15
		} else if c.currentAmplitudeSliding > 15 {
			c.currentAmplitudeSliding = 15
		}
	}
	amplitude += c.currentAmplitudeSliding
	if amplitude < 0 {
		amplitude = 0
	} else if amplitude > 15 {
		amplitude = 15
	}
	volume = p.volumeTable[c.volume][amplitude]
	if c.envelopeEnabled && !frame.envelopeMask {
		volume |= 0x10
	}

	// The shared 5-bit field feeds the envelope when noise is masked and
	// the noise register otherwise.
	if frame.noiseMask {
		add := int(frame.envelopeOffset) + c.currentEnvelopeSliding
		if frame.accumulateNoise {
			c.currentEnvelopeSliding = add
		}
		p.addToEnv += add
	} else {
		add := int(frame.noiseOffset) + c.currentNoiseSliding
		if frame.accumulateNoise {
			c.currentNoiseSliding = add
		}
		p.addToNoise = add
	}

	c.positionInSample++
	if c.positionInSample >= len(c.sample.Frames) {
		c.positionInSample = c.sample.Loop
	}
	if c.ornament != nil && len(c.ornament.Data) > 0 {
		c.positionInOrnament++
		if c.positionInOrnament >= len(c.ornament.Data) {
			c.positionInOrnament = c.ornament.Loop
		}
	}

	return tone, volume, frame.toneMask, frame.noiseMask
}
