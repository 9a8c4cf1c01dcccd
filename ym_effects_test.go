// ym_effects_test.go - Tests for YM5/YM6 effect slot decoding.

package main

import "testing"

func effectFrame() []uint8 {
	return make([]uint8, PSG_REG_COUNT)
}

func TestYM6SidSlot(t *testing.T) {
	frame := effectFrame()
	frame[1] = 0x20      // code 2: SID on voice B
	frame[6] = 0x20      // prescaler index 1 (divide by 4)
	frame[14] = 100      // counter
	frame[9] = 0x2C      // voice B volume, extra bits masked
	frame[13] = 0xFF

	effects := decodeYMEffects(frame, YM_FORMAT_6)
	e := effects[0]
	if e.Kind != EFFECT_SID || e.Voice != 1 {
		t.Fatalf("expected SID on voice 1, got %+v", e)
	}
	if e.Freq != MFP_CLOCK/(4*100) {
		t.Fatalf("freq %d, want %d", e.Freq, MFP_CLOCK/(4*100))
	}
	if e.Volume != 0x0C {
		t.Fatalf("volume 0x%X, want 0x0C", e.Volume)
	}
}

func TestYM6DrumSlot(t *testing.T) {
	frame := effectFrame()
	frame[3] = 0x50 // code 5: DigiDrum on voice A in slot 2
	frame[8] = 0x40 // prescaler index 2
	frame[15] = 50
	frame[8] |= 0x03 // drum index lives in R8 for voice A

	effects := decodeYMEffects(frame, YM_FORMAT_6)
	e := effects[1]
	if e.Kind != EFFECT_DIGIDRUM || e.Voice != 0 {
		t.Fatalf("expected DigiDrum on voice 0, got %+v", e)
	}
	if e.DrumIndex != 3 {
		t.Fatalf("drum index %d, want 3", e.DrumIndex)
	}
}

func TestYM6SinusSidSlot(t *testing.T) {
	frame := effectFrame()
	frame[1] = 0x90 // code 9: sinus SID on voice A
	frame[6] = 0x20
	frame[14] = 10
	frame[8] = 0x0A

	e := decodeYMEffects(frame, YM_FORMAT_6)[0]
	if e.Kind != EFFECT_SINUS_SID || e.Voice != 0 || e.Volume != 0x0A {
		t.Fatalf("sinus SID decode wrong: %+v", e)
	}
}

func TestYM6SyncBuzzerSlot(t *testing.T) {
	frame := effectFrame()
	frame[1] = 0xD0 // code 13: Sync Buzzer
	frame[6] = 0x20
	frame[14] = 10
	frame[13] = 0xFF // shape still decodes from the low nibble

	e := decodeYMEffects(frame, YM_FORMAT_6)[0]
	if e.Kind != EFFECT_SYNC_BUZZER {
		t.Fatalf("expected Sync Buzzer, got %+v", e)
	}
	if e.EnvShape != 0x0F {
		t.Fatalf("shape 0x%X, want 0x0F", e.EnvShape)
	}
}

func TestYM6ReservedCodes(t *testing.T) {
	for _, code := range []uint8{0, 4, 8, 12} {
		frame := effectFrame()
		frame[1] = code << 4
		frame[6] = 0x20
		frame[14] = 10
		if e := decodeYMEffects(frame, YM_FORMAT_6)[0]; e.Kind != EFFECT_NONE {
			t.Fatalf("code %d decoded to %+v, want none", code, e)
		}
	}
}

func TestYM6StoppedTimerMeansNoEffect(t *testing.T) {
	frame := effectFrame()
	frame[1] = 0x10 // SID voice A
	frame[6] = 0x00 // prescaler stopped
	frame[14] = 10
	if e := decodeYMEffects(frame, YM_FORMAT_6)[0]; e.Kind != EFFECT_NONE {
		t.Fatalf("stopped timer still decoded: %+v", e)
	}
}

func TestYM5Slots(t *testing.T) {
	frame := effectFrame()
	frame[1] = 0x10 // SID voice A
	frame[6] = 0x20
	frame[14] = 100
	frame[3] = 0x20        // drum voice B
	frame[8] = 0x0F | 0x40 // SID volume in the low nibble, drum prescaler index 2 on top
	frame[15] = 50
	frame[9] = 0x05

	effects := decodeYMEffects(frame, YM_FORMAT_5)
	if effects[0].Kind != EFFECT_SID || effects[0].Voice != 0 {
		t.Fatalf("YM5 slot 1 wrong: %+v", effects[0])
	}
	if effects[1].Kind != EFFECT_DIGIDRUM || effects[1].Voice != 1 || effects[1].DrumIndex != 5 {
		t.Fatalf("YM5 slot 2 wrong: %+v", effects[1])
	}
}

func TestLegacyFormatsHaveNoEffects(t *testing.T) {
	frame := effectFrame()
	frame[1] = 0x10
	frame[6] = 0x20
	frame[14] = 100
	for _, format := range []YMFormat{YM_FORMAT_2, YM_FORMAT_3, YM_FORMAT_3B} {
		effects := decodeYMEffects(frame, format)
		if effects[0].Kind != EFFECT_NONE || effects[1].Kind != EFFECT_NONE {
			t.Fatalf("%v decoded effects from a legacy frame", format)
		}
	}
}
