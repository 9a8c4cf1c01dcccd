// pt3_replayer.go - Frame applier driving one or two PSGs from a PT3 module.

package main

// pt3MaxFrames caps the loop-finding pre-simulation. Matches the YM frame
// limit; no real tracker song comes anywhere near it.
const pt3MaxFrames = ymMaxFrames

// PT3Engine runs the tick interpreter and maps its register images onto a
// PSG chip. TurboSound modules get a second interpreter and chip.
type PT3Engine struct {
	file    *PT3File
	players []*PT3Player
	chips   []*PSGChip

	currentFrame int
	frameCount   int
	loopFrame    int
	loop         bool
	finished     bool
}

// NewPT3Engine builds players and ZX-clocked chips for the module. The
// total frame count is found by pre-simulating a scratch player until the
// position list wraps.
func NewPT3Engine(file *PT3File, sampleRate int) *PT3Engine {
	e := &PT3Engine{
		file: file,
		loop: true,
	}
	e.players = append(e.players, NewPT3Player(file))
	e.chips = append(e.chips, NewPSGChip(PSG_CLOCK_ZX_SPECTRUM, sampleRate))
	if file.IsTurboSound && file.SecondModule != nil {
		e.players = append(e.players, NewPT3Player(file.SecondModule))
		e.chips = append(e.chips, NewPSGChip(PSG_CLOCK_ZX_SPECTRUM, sampleRate))
	}
	e.frameCount, e.loopFrame = countPT3Frames(file)
	return e
}

// countPT3Frames finds the total frame count and the frame on which the
// loop position first starts, so the cursor can wrap to the audible loop
// entry rather than to zero.
func countPT3Frames(file *PT3File) (total, loopStart int) {
	scratch := NewPT3Player(file)
	for !scratch.HasLooped() && total < pt3MaxFrames {
		before := scratch.CurrentPosition()
		scratch.Tick()
		total++
		if !scratch.HasLooped() && scratch.CurrentPosition() != before &&
			scratch.CurrentPosition() == file.LoopPos {
			loopStart = total - 1
		}
	}
	return total, loopStart
}

// SetLoop controls wraparound. With looping off the engine reports
// Finished once the position list wraps.
func (e *PT3Engine) SetLoop(loop bool) {
	e.loop = loop
}

// PlayFrame ticks every interpreter and applies the resulting register
// image to its chip.
func (e *PT3Engine) PlayFrame() {
	if e.finished {
		return
	}
	for i, player := range e.players {
		regs := player.Tick()
		chip := e.chips[i]
		for reg := uint8(0); reg <= PSG_REG_ENV_HI; reg++ {
			chip.WriteRegister(reg, regs[reg])
		}
		if regs[PSG_REG_ENV_SHAPE] != PSG_ENV_NO_WRITE {
			chip.WriteRegister(PSG_REG_ENV_SHAPE, regs[PSG_REG_ENV_SHAPE])
		}
	}

	e.currentFrame++
	if e.players[0].HasLooped() {
		if e.loop {
			if e.currentFrame >= e.frameCount {
				e.currentFrame = e.loopFrame
			}
		} else {
			e.finished = true
		}
	}
}

// SeekFrame rebuilds interpreter state deterministically by re-running the
// tick machine from the start; PT3 state cannot be jumped into directly.
func (e *PT3Engine) SeekFrame(frame int) {
	if frame < 0 {
		frame = 0
	}
	if e.frameCount > 0 && frame >= e.frameCount {
		frame = e.frameCount - 1
	}
	if frame < e.currentFrame {
		for _, player := range e.players {
			player.Reset()
		}
		e.currentFrame = 0
	}
	for e.currentFrame < frame {
		for _, player := range e.players {
			player.Tick()
		}
		e.currentFrame++
	}
	e.finished = false
}

func (e *PT3Engine) CurrentFrame() int { return e.currentFrame }
func (e *PT3Engine) FrameCount() int   { return e.frameCount }
func (e *PT3Engine) FrameRate() int    { return PT3_FRAME_RATE }
func (e *PT3Engine) Finished() bool    { return e.finished }

// Chips returns one chip, or two for TurboSound.
func (e *PT3Engine) Chips() []*PSGChip { return e.chips }

// Reset rewinds the interpreters and restores the chips' power-on state.
func (e *PT3Engine) Reset() {
	for _, player := range e.players {
		player.Reset()
	}
	for _, chip := range e.chips {
		chip.Reset()
	}
	e.currentFrame = 0
	e.finished = false
}

// Metadata implements FramePlayer.
func (e *PT3Engine) Metadata() MusicMetadata {
	meta := e.file.GetMetadata()
	meta.Duration = float64(e.frameCount) / float64(PT3_FRAME_RATE)
	return meta
}
