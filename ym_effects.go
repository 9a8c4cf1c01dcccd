// ym_effects.go - Decoding of the two per-frame effect slots in YM5/YM6 files.

package main

// ymEffectKind tags the effect variants a frame slot can request.
type ymEffectKind int

const (
	EFFECT_NONE ymEffectKind = iota
	EFFECT_SID
	EFFECT_SINUS_SID
	EFFECT_DIGIDRUM
	EFFECT_SYNC_BUZZER
)

// ymEffect is one decoded effect slot.
type ymEffect struct {
	Kind      ymEffectKind
	Voice     int
	Freq      int
	Volume    uint8 // SID gate level
	DrumIndex int   // DigiDrum sample index
	EnvShape  uint8 // Sync Buzzer envelope shape
}

// mfpTimerFreq resolves an MFP timer setting to Hz. A stopped prescaler or
// a zero counter means no effect.
func mfpTimerFreq(prescalerIndex, counter uint8) int {
	prescaler := mfpPrescalerTable[prescalerIndex&0x07]
	if prescaler == 0 || counter == 0 {
		return 0
	}
	return int(MFP_CLOCK / (prescaler * uint32(counter)))
}

// decodeYMEffects reads both effect slots of a frame. YM2/YM3 frames carry
// no effect data.
func decodeYMEffects(frame []uint8, format YMFormat) [2]ymEffect {
	switch format {
	case YM_FORMAT_5:
		return [2]ymEffect{
			decodeYM5Sid(frame),
			decodeYM5Drum(frame),
		}
	case YM_FORMAT_6:
		return [2]ymEffect{
			decodeYM6Slot(frame, frame[1]>>4, frame[6]>>5, frame[14]),
			decodeYM6Slot(frame, frame[3]>>4, frame[8]>>5, frame[15]),
		}
	}
	return [2]ymEffect{}
}

// decodeYM6Slot interprets the YM6 code nibble: 1-3 SID, 5-7 DigiDrum,
// 9-11 sinus SID, 13-15 Sync Buzzer. Codes 4, 8 and 12 are reserved.
func decodeYM6Slot(frame []uint8, code, prescalerIndex, counter uint8) ymEffect {
	freq := mfpTimerFreq(prescalerIndex, counter)
	if freq == 0 {
		return ymEffect{}
	}

	switch {
	case code >= 1 && code <= 3:
		voice := int(code - 1)
		return ymEffect{
			Kind:   EFFECT_SID,
			Voice:  voice,
			Freq:   freq,
			Volume: frame[8+voice] & 0x0F,
		}
	case code >= 5 && code <= 7:
		voice := int(code - 5)
		return ymEffect{
			Kind:      EFFECT_DIGIDRUM,
			Voice:     voice,
			Freq:      freq,
			DrumIndex: int(frame[8+voice] & 0x1F),
		}
	case code >= 9 && code <= 11:
		voice := int(code - 9)
		return ymEffect{
			Kind:   EFFECT_SINUS_SID,
			Voice:  voice,
			Freq:   freq,
			Volume: frame[8+voice] & 0x0F,
		}
	case code >= 13:
		// The shape comes from R13 even when the frame marks it 0xFF;
		// "no register write" does not mean "no effect".
		return ymEffect{
			Kind:     EFFECT_SYNC_BUZZER,
			Freq:     freq,
			EnvShape: frame[13] & 0x0F,
		}
	}
	return ymEffect{}
}

// decodeYM5Sid reads the YM5 slot 1: SID only, 2-bit voice selector in
// R1[5:4], timer from R6/R14. Selector 0 means no effect.
func decodeYM5Sid(frame []uint8) ymEffect {
	selector := (frame[1] >> 4) & 0x03
	if selector == 0 {
		return ymEffect{}
	}
	freq := mfpTimerFreq(frame[6]>>5, frame[14])
	if freq == 0 {
		return ymEffect{}
	}
	voice := int(selector - 1)
	return ymEffect{
		Kind:   EFFECT_SID,
		Voice:  voice,
		Freq:   freq,
		Volume: frame[8+voice] & 0x0F,
	}
}

// decodeYM5Drum reads the YM5 slot 2: DigiDrum only, 2-bit voice selector
// in R3[5:4], timer from R8/R15.
func decodeYM5Drum(frame []uint8) ymEffect {
	selector := (frame[3] >> 4) & 0x03
	if selector == 0 {
		return ymEffect{}
	}
	freq := mfpTimerFreq(frame[8]>>5, frame[15])
	if freq == 0 {
		return ymEffect{}
	}
	voice := int(selector - 1)
	return ymEffect{
		Kind:      EFFECT_DIGIDRUM,
		Voice:     voice,
		Freq:      freq,
		DrumIndex: int(frame[8+voice] & 0x1F),
	}
}
