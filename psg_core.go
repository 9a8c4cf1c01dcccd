// psg_core.go - Bit-accurate YM2149/AY-3-8910 tone/noise/envelope core.

package main

import (
	"math"
	"sync/atomic"
)

// toneGenerator is one of the three 12-bit square wave counters.
type toneGenerator struct {
	period  uint32 // always >= 1
	counter uint32
	output  uint32 // 0 or 1
}

func (t *toneGenerator) setPeriod(period uint32) {
	if period == 0 {
		period = 1
	}
	t.period = period
}

func (t *toneGenerator) tick() uint32 {
	t.counter++
	if t.counter >= t.period {
		t.counter = 0
		t.output ^= 1
	}
	return t.output
}

// noiseGenerator is the 17-bit LFSR. The real chip clocks it at half the
// internal rate, so it advances on alternate ticks only.
type noiseGenerator struct {
	period   uint32 // always >= 1
	counter  uint32
	lfsr     uint32 // never zero
	output   uint32
	halfTick bool
}

func (n *noiseGenerator) setPeriod(period uint32) {
	period &= 0x1F
	if period == 0 {
		period = 1
	}
	n.period = period
}

func (n *noiseGenerator) tick() uint32 {
	n.halfTick = !n.halfTick
	if n.halfTick {
		return n.output
	}
	n.counter++
	if n.counter >= n.period {
		n.counter = 0
		feedback := (n.lfsr ^ (n.lfsr >> 2)) & 1
		n.lfsr = (n.lfsr >> 1) | (feedback << 16)
		n.output = feedback
	}
	return n.output
}

// envelopeGenerator walks one of the ten 128-step waveforms. Positions
// -64..-1 are the attack region entered on trigger; 0..63 loop forever.
type envelopeGenerator struct {
	period     uint32 // always >= 1
	counter    uint32
	position   int
	shape      uint8
	dataOffset int
}

func (e *envelopeGenerator) setPeriod(period uint32) {
	if period == 0 {
		period = 1
	}
	e.period = period
}

func (e *envelopeGenerator) setShape(shape uint8) {
	e.shape = shape & 0x0F
	e.dataOffset = psgShapeTable[e.shape] * ENV_SHAPE_STEPS
	e.trigger()
}

func (e *envelopeGenerator) trigger() {
	e.position = -ENV_REGION_STEPS
	e.counter = 0
}

func (e *envelopeGenerator) tick() {
	e.counter++
	if e.counter >= e.period {
		e.counter = 0
		e.position++
		if e.position > ENV_REGION_STEPS-1 {
			e.position = (e.position - ENV_REGION_STEPS) % ENV_REGION_STEPS
		}
	}
}

func (e *envelopeGenerator) level() uint8 {
	return psgEnvelopeData[e.dataOffset+e.position+ENV_REGION_STEPS]
}

// PSGChip is one emulated YM2149. It is owned by the audio actor: all
// mutation happens on the audio pull path, so no lock is held here. The
// level meters are the single cross-thread observation point.
type PSGChip struct {
	sampleRate     int
	masterClock    uint32
	ticksPerSample float64
	tickAccum      float64

	regs [PSG_REG_COUNT]uint8

	tones    [PSG_CHANNELS]toneGenerator
	noise    noiseGenerator
	envelope envelopeGenerator

	toneEnabled  [PSG_CHANNELS]bool
	noiseEnabled [PSG_CHANNELS]bool
	volume       [PSG_CHANNELS]uint8
	useEnvelope  [PSG_CHANNELS]bool

	drums  [PSG_CHANNELS]digiDrum
	sids   [PSG_CHANNELS]sidVoice
	buzzer syncBuzzer

	panLeft  [PSG_CHANNELS]float32
	panRight [PSG_CHANNELS]float32

	levels [PSG_CHANNELS]atomic.Uint32 // float32 bits, tearing accepted

	masterVolume float32
}

// NewPSGChip creates a chip clocked at masterClock Hz producing samples at
// sampleRate Hz. The internal counters run at masterClock / 8.
func NewPSGChip(masterClock uint32, sampleRate int) *PSGChip {
	chip := &PSGChip{
		sampleRate:   sampleRate,
		masterVolume: 1.0,
	}
	chip.SetMasterClock(masterClock)
	for ch := 0; ch < PSG_CHANNELS; ch++ {
		chip.SetChannelPan(ch, 0)
	}
	chip.Reset()
	return chip
}

// SetMasterClock changes the emulated master clock without resetting state.
func (p *PSGChip) SetMasterClock(masterClock uint32) {
	if masterClock == 0 {
		masterClock = PSG_CLOCK_ATARI_ST
	}
	p.masterClock = masterClock
	p.ticksPerSample = float64(masterClock) / PSG_CLOCK_DIVISOR / float64(p.sampleRate)
}

// Reset restores the exact post-construction generator state. The pan and
// master volume settings belong to the audio graph and are kept.
func (p *PSGChip) Reset() {
	for i := range p.regs {
		p.regs[i] = 0
	}
	for ch := range p.tones {
		p.tones[ch] = toneGenerator{period: 1}
		p.toneEnabled[ch] = true
		p.noiseEnabled[ch] = true
		p.volume[ch] = 0
		p.useEnvelope[ch] = false
		p.drums[ch] = digiDrum{}
		p.sids[ch] = sidVoice{}
		p.levels[ch].Store(0)
	}
	p.noise = noiseGenerator{period: 16, lfsr: 1}
	p.envelope = envelopeGenerator{period: 1}
	p.envelope.setShape(0)
	p.buzzer = syncBuzzer{}
	p.tickAccum = 0
}

// WriteRegister applies one register write. Out-of-range values are clamped
// rather than rejected; R13 = 0xFF is the "no write" sentinel and leaves the
// envelope untouched.
func (p *PSGChip) WriteRegister(reg uint8, value uint8) {
	if int(reg) >= PSG_REG_COUNT {
		return
	}
	p.regs[reg] = value

	switch reg {
	case PSG_REG_TONE_A_LO, PSG_REG_TONE_A_HI:
		p.tones[0].setPeriod(p.tonePeriod(0))
	case PSG_REG_TONE_B_LO, PSG_REG_TONE_B_HI:
		p.tones[1].setPeriod(p.tonePeriod(1))
	case PSG_REG_TONE_C_LO, PSG_REG_TONE_C_HI:
		p.tones[2].setPeriod(p.tonePeriod(2))
	case PSG_REG_NOISE:
		p.noise.setPeriod(uint32(value))
	case PSG_REG_MIXER:
		for ch := 0; ch < PSG_CHANNELS; ch++ {
			p.toneEnabled[ch] = value&(1<<ch) == 0
			p.noiseEnabled[ch] = value&(1<<(3+ch)) == 0
		}
	case PSG_REG_VOL_A, PSG_REG_VOL_B, PSG_REG_VOL_C:
		ch := int(reg - PSG_REG_VOL_A)
		p.volume[ch] = value & 0x0F
		p.useEnvelope[ch] = value&0x10 != 0
	case PSG_REG_ENV_LO, PSG_REG_ENV_HI:
		p.envelope.setPeriod(uint32(p.regs[PSG_REG_ENV_HI])<<8 | uint32(p.regs[PSG_REG_ENV_LO]))
	case PSG_REG_ENV_SHAPE:
		if value != PSG_ENV_NO_WRITE {
			p.envelope.setShape(value)
		}
	}
}

func (p *PSGChip) tonePeriod(ch int) uint32 {
	lo := uint32(p.regs[ch*2])
	hi := uint32(p.regs[ch*2+1] & 0x0F)
	return hi<<8 | lo
}

// SetChannelPan positions a channel in the stereo field with equal-power
// gains. pan is clamped to [-1, 1].
func (p *PSGChip) SetChannelPan(ch int, pan float32) {
	if ch < 0 || ch >= PSG_CHANNELS {
		return
	}
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := float64(pan+1) * math.Pi / 4
	p.panLeft[ch] = float32(math.Cos(angle))
	p.panRight[ch] = float32(math.Sin(angle))
}

// SetMasterVolume scales the final stereo output. volume is clamped to [0, 1].
func (p *PSGChip) SetMasterVolume(volume float32) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.masterVolume = volume
}

// ChannelLevel returns the most recent output magnitude of a channel.
// This is the visualisation hook; no frame accuracy is promised.
func (p *PSGChip) ChannelLevel(ch int) float32 {
	if ch < 0 || ch >= PSG_CHANNELS {
		return 0
	}
	return math.Float32frombits(p.levels[ch].Load())
}

// NextSample produces one stereo frame. High tone frequencies fold to a
// sustained gate by OR-accumulation across the internal ticks instead of
// aliasing.
func (p *PSGChip) NextSample() (left, right float32) {
	p.tickBuzzer()
	p.applySidGates()

	p.tickAccum += p.ticksPerSample
	ticks := int(p.tickAccum)
	p.tickAccum -= float64(ticks)

	var toneAccum [PSG_CHANNELS]uint32
	var noiseAccum uint32
	for i := 0; i < ticks; i++ {
		for ch := range p.tones {
			toneAccum[ch] |= p.tones[ch].tick()
		}
		noiseAccum |= p.noise.tick()
		p.envelope.tick()
	}

	for ch := 0; ch < PSG_CHANNELS; ch++ {
		out := p.channelOutput(ch, toneAccum[ch], noiseAccum)
		p.levels[ch].Store(math.Float32bits(out))
		left += out * p.panLeft[ch]
		right += out * p.panRight[ch]
	}

	scale := p.masterVolume / PSG_CHANNELS
	return left * scale, right * scale
}

func (p *PSGChip) channelOutput(ch int, toneAccum, noiseAccum uint32) float32 {
	if drum := &p.drums[ch]; drum.active {
		out := float32(drum.data[drum.pos>>DRUM_FRAC_BITS]) / 255 * DRUM_GAIN
		drum.advance()
		return out
	}

	toneGate := toneAccum != 0 || !p.toneEnabled[ch]
	noiseGate := noiseAccum != 0 || !p.noiseEnabled[ch]
	if !toneGate || !noiseGate {
		return 0
	}

	var level uint8
	if p.useEnvelope[ch] {
		level = p.envelope.level()
	} else {
		level = p.volume[ch] << 1
	}
	return psgVolumeTable[level]
}
