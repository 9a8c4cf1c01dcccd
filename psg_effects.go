// psg_effects.go - Timer-driven special effects: DigiDrum, SID voice, Sync Buzzer.

package main

import "math"

const (
	// DigiDrum sample positions carry a 15-bit fraction.
	DRUM_FRAC_BITS = 15

	// The drum DAC overdrives slightly on hardware; 0.85 matches the
	// perceived level against the tone channels.
	DRUM_GAIN = 0.85
)

// digiDrum replaces a channel's DAC output with an 8-bit unsigned sample.
// It always plays to the end of the sample, then deactivates itself.
type digiDrum struct {
	active bool
	data   []uint8
	pos    uint32
	step   uint32
}

func (d *digiDrum) advance() {
	d.pos += d.step
	if int(d.pos>>DRUM_FRAC_BITS) >= len(d.data) {
		d.active = false
	}
}

// sidVoice gates a channel's volume register at a timer frequency,
// imitating the C64 effect. isSinus selects the sine-shaped gate of YM6.
type sidVoice struct {
	active  bool
	pos     uint32
	step    uint32
	volume  uint8
	isSinus bool
}

// syncBuzzer retriggers the hardware envelope on every MSB 0->1 transition
// of its phase accumulator.
type syncBuzzer struct {
	active bool
	pos    uint32
	step   uint32
}

// effectFrequencyCap limits timer rates to sampleRate/4. Files in the wild
// carry nonsense >10 kHz timer values that would alias badly.
func effectFrequencyCap(freq, sampleRate int) int {
	if cap := sampleRate / 4; freq > cap {
		return cap
	}
	return freq
}

func phaseStep(freq, sampleRate int) uint32 {
	return uint32(uint64(freq) << 32 / uint64(sampleRate))
}

// StartDrum begins DigiDrum playback on a channel from sample position 0.
// A re-trigger restarts the sample.
func (p *PSGChip) StartDrum(ch int, data []uint8, freq int) {
	if ch < 0 || ch >= PSG_CHANNELS || len(data) == 0 || freq <= 0 {
		return
	}
	p.drums[ch] = digiDrum{
		active: true,
		data:   data,
		step:   uint32(uint64(freq) << DRUM_FRAC_BITS / uint64(p.sampleRate)),
	}
}

// StopDrum halts DigiDrum playback early. The YM replayer never calls this
// mid-sample; drums normally run to completion.
func (p *PSGChip) StopDrum(ch int) {
	if ch < 0 || ch >= PSG_CHANNELS {
		return
	}
	p.drums[ch].active = false
}

// StartSid begins SID gating of a channel at the given timer frequency.
func (p *PSGChip) StartSid(ch, freq int, volume uint8, sinus bool) {
	if ch < 0 || ch >= PSG_CHANNELS || freq <= 0 {
		return
	}
	freq = effectFrequencyCap(freq, p.sampleRate)
	// Frames re-issue the effect for as long as it runs; keep the phase so
	// per-frame restarts do not click.
	pos := uint32(0)
	if p.sids[ch].active {
		pos = p.sids[ch].pos
	}
	p.sids[ch] = sidVoice{
		active:  true,
		pos:     pos,
		step:    phaseStep(freq, p.sampleRate),
		volume:  volume & 0x0F,
		isSinus: sinus,
	}
}

func (p *PSGChip) StopSid(ch int) {
	if ch < 0 || ch >= PSG_CHANNELS {
		return
	}
	p.sids[ch].active = false
}

// StartSyncBuzzer sets the envelope shape and begins retriggering it at the
// timer frequency. The shape comes from R13 even when a frame marked it as
// "no write"; the sentinel only suppresses the ordinary register path.
func (p *PSGChip) StartSyncBuzzer(freq int, envShape uint8) {
	if freq <= 0 {
		return
	}
	freq = effectFrequencyCap(freq, p.sampleRate)
	step := phaseStep(freq, p.sampleRate)
	if p.buzzer.active {
		// Re-issued while running: retune without restarting the phase,
		// the MSB transitions keep triggering on their own.
		p.buzzer.step = step
		p.envelope.shape = envShape & 0x0F
		p.envelope.dataOffset = psgShapeTable[p.envelope.shape] * ENV_SHAPE_STEPS
		return
	}
	p.envelope.setShape(envShape)
	p.buzzer = syncBuzzer{
		active: true,
		step:   step,
	}
}

func (p *PSGChip) StopSyncBuzzer() {
	p.buzzer = syncBuzzer{}
}

func (p *PSGChip) tickBuzzer() {
	if !p.buzzer.active {
		return
	}
	prev := p.buzzer.pos
	p.buzzer.pos += p.buzzer.step
	if prev&(1<<31) == 0 && p.buzzer.pos&(1<<31) != 0 {
		p.envelope.trigger()
	}
}

// applySidGates overwrites the volume registers of SID-gated channels for
// this sample, then advances the SID phases.
func (p *PSGChip) applySidGates() {
	for ch := range p.sids {
		sid := &p.sids[ch]
		if !sid.active {
			continue
		}
		if sid.isSinus {
			phase := float64(sid.pos) / (1 << 32) * 2 * math.Pi
			p.volume[ch] = uint8(math.Round(0.5 * (1 + math.Sin(phase)) * float64(sid.volume)))
		} else if sid.pos&(1<<31) != 0 {
			p.volume[ch] = sid.volume
		} else {
			p.volume[ch] = 0
		}
		sid.pos += sid.step
	}
}
