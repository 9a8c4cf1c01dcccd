// ym_replayer.go - Frame applier driving the PSG from a parsed YM file.

package main

// YMEngine feeds one 16-byte register image per frame into a PSG chip and
// tracks effect slot transitions across frames.
type YMEngine struct {
	file *YMFile
	chip *PSGChip

	currentFrame int
	loop         bool
	finished     bool

	sidActive    [PSG_CHANNELS]bool
	buzzerActive bool
}

// NewYMEngine builds the engine and a chip clocked per the file header.
func NewYMEngine(file *YMFile, sampleRate int) *YMEngine {
	return &YMEngine{
		file: file,
		chip: NewPSGChip(file.MasterClock, sampleRate),
		loop: true,
	}
}

// SetLoop controls wraparound at end of stream. Looping is the YM default;
// with looping off the engine reports Finished after the last frame.
func (e *YMEngine) SetLoop(loop bool) {
	e.loop = loop
}

// PlayFrame applies frame registers and effect transitions, then advances.
func (e *YMEngine) PlayFrame() {
	if e.finished {
		return
	}

	frame := e.file.Frames[e.currentFrame]
	for reg := uint8(0); reg <= PSG_REG_ENV_HI; reg++ {
		e.chip.WriteRegister(reg, frame[reg])
	}
	if frame[PSG_REG_ENV_SHAPE] != PSG_ENV_NO_WRITE {
		e.chip.WriteRegister(PSG_REG_ENV_SHAPE, frame[PSG_REG_ENV_SHAPE])
	}

	e.applyEffects(frame)

	e.currentFrame++
	if e.currentFrame >= e.file.FrameCount {
		if e.loop {
			e.currentFrame = e.file.LoopFrame
		} else {
			e.currentFrame = e.file.FrameCount - 1
			e.finished = true
		}
	}
}

// applyEffects starts effects the frame they appear and stops SID and Sync
// Buzzer the frame they are no longer requested. DigiDrums run to
// completion on their own; every frame naming a drum restarts it.
func (e *YMEngine) applyEffects(frame []uint8) {
	var sidRequested [PSG_CHANNELS]bool
	buzzerRequested := false

	for _, effect := range decodeYMEffects(frame, e.file.Format) {
		switch effect.Kind {
		case EFFECT_SID:
			sidRequested[effect.Voice] = true
			e.chip.StartSid(effect.Voice, effect.Freq, effect.Volume, false)
		case EFFECT_SINUS_SID:
			sidRequested[effect.Voice] = true
			e.chip.StartSid(effect.Voice, effect.Freq, effect.Volume, true)
		case EFFECT_DIGIDRUM:
			if effect.DrumIndex < len(e.file.DigiDrums) {
				e.chip.StartDrum(effect.Voice, e.file.DigiDrums[effect.DrumIndex], effect.Freq)
			}
		case EFFECT_SYNC_BUZZER:
			buzzerRequested = true
			e.chip.StartSyncBuzzer(effect.Freq, effect.EnvShape)
		}
	}

	for voice := 0; voice < PSG_CHANNELS; voice++ {
		if e.sidActive[voice] && !sidRequested[voice] {
			e.chip.StopSid(voice)
		}
		e.sidActive[voice] = sidRequested[voice]
	}
	if e.buzzerActive && !buzzerRequested {
		e.chip.StopSyncBuzzer()
	}
	e.buzzerActive = buzzerRequested
}

// SeekFrame positions the cursor without replaying intermediate frames;
// the chip picks up the new register image on the next PlayFrame.
func (e *YMEngine) SeekFrame(frame int) {
	if frame < 0 {
		frame = 0
	}
	if frame >= e.file.FrameCount {
		frame = e.file.FrameCount - 1
	}
	e.currentFrame = frame
	e.finished = false
}

func (e *YMEngine) CurrentFrame() int { return e.currentFrame }
func (e *YMEngine) FrameCount() int   { return e.file.FrameCount }
func (e *YMEngine) FrameRate() int    { return e.file.FrameRate }
func (e *YMEngine) Finished() bool    { return e.finished }

// Chips returns the single chip the YM stream drives.
func (e *YMEngine) Chips() []*PSGChip { return []*PSGChip{e.chip} }

// Reset rewinds to frame zero and restores the chip's power-on state.
func (e *YMEngine) Reset() {
	e.currentFrame = 0
	e.finished = false
	e.sidActive = [PSG_CHANNELS]bool{}
	e.buzzerActive = false
	e.chip.Reset()
}

// Metadata implements FramePlayer.
func (e *YMEngine) Metadata() MusicMetadata {
	meta := e.file.GetMetadata()
	meta.Comment = e.file.Comment
	if e.file.FrameRate > 0 {
		meta.Duration = float64(e.file.FrameCount) / float64(e.file.FrameRate)
	}
	return meta
}
