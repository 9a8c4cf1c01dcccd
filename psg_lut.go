// psg_lut.go - Immutable lookup tables for the YM2149/AY-3-8910 core.

package main

// psgVolumeTable is the 32-level logarithmic DAC response of the YM2149,
// normalised so level 31 is full scale. Levels 0 and 1 are both silent on
// the real chip.
var psgVolumeTable = [32]float32{
	0.0, 0.0,
	0.00465400167849, 0.00772106507973,
	0.0109559777218, 0.0139620050355,
	0.0169985503929, 0.0200198367285,
	0.024368657969, 0.029694056611,
	0.0350652323186, 0.0403906309606,
	0.0485389486534, 0.0583352407111,
	0.0680552376593, 0.0777752346075,
	0.0925154497597, 0.111085679408,
	0.129747463188, 0.148485542077,
	0.17666895552, 0.211551079576,
	0.246387426566, 0.281101701381,
	0.333730067903, 0.400427252613,
	0.467383840696, 0.53443198291,
	0.635172045472, 0.75800717174,
	0.879926756695, 1.0,
}

// psgDrum4BitTable expands a 4-bit DigiDrum nibble to the 8-bit DAC value
// the ST-Sound tools used when packing samples (attribute bit 2 in YM5/YM6).
var psgDrum4BitTable = [16]uint8{
	0, 1, 2, 2, 4, 6, 9, 12, 17, 24, 35, 48, 72, 103, 165, 255,
}

// mfpPrescalerTable maps the 3-bit MFP timer control field to its divisor.
// Index 0 means the timer is stopped.
var mfpPrescalerTable = [8]uint32{0, 4, 10, 16, 50, 64, 100, 200}

// MFP_CLOCK is the Atari ST Multi-Function Peripheral timer clock in Hz.
const MFP_CLOCK = 2457600

// Envelope geometry. A hardware ramp is 32 steps; the waveform table stores
// an attack region of 64 steps (positions -64..-1) followed by a 64-step
// sustain loop (positions 0..63).
const (
	ENV_RAMP_STEPS   = 32
	ENV_REGION_STEPS = 64
	ENV_SHAPE_STEPS  = 128
	ENV_SHAPE_COUNT  = 10
	ENV_LEVEL_MAX    = 31
)

// psgShapeTable collapses the 16 values of register R13 onto the 10 distinct
// waveforms: shapes 0-3 behave as 9 (decay then hold zero) and 4-7 as 15
// (attack then hold zero).
var psgShapeTable = [16]int{
	0, 0, 0, 0,
	1, 1, 1, 1,
	2, 3, 4, 5,
	6, 7, 8, 9,
}

// psgEnvelopeData holds the 10 waveforms, 128 steps each, levels 0..31.
// Layout per shape: two half-ramps of attack region, two of sustain loop.
var psgEnvelopeData = buildEnvelopeData()

func buildEnvelopeData() [ENV_SHAPE_COUNT * ENV_SHAPE_STEPS]uint8 {
	const (
		rampDown = iota
		rampUp
		holdZero
		holdMax
	)

	// Attack region then sustain loop, four half-ramps per shape.
	shapes := [ENV_SHAPE_COUNT][4]int{
		{rampDown, holdZero, holdZero, holdZero}, // 0: R13 = 0-3  \___
		{rampUp, holdZero, holdZero, holdZero},   // 1: R13 = 4-7  /___
		{rampDown, rampDown, rampDown, rampDown}, // 2: R13 = 8    \\\\
		{rampDown, holdZero, holdZero, holdZero}, // 3: R13 = 9    \___
		{rampDown, rampUp, rampDown, rampUp},     // 4: R13 = 10   \/\/
		{rampDown, holdMax, holdMax, holdMax},    // 5: R13 = 11   \```
		{rampUp, rampUp, rampUp, rampUp},         // 6: R13 = 12   ////
		{rampUp, holdMax, holdMax, holdMax},      // 7: R13 = 13   /```
		{rampUp, rampDown, rampUp, rampDown},     // 8: R13 = 14   /\/\
		{rampUp, holdZero, holdZero, holdZero},   // 9: R13 = 15   /___
	}

	var data [ENV_SHAPE_COUNT * ENV_SHAPE_STEPS]uint8
	for shape, halves := range shapes {
		pos := shape * ENV_SHAPE_STEPS
		for _, half := range halves {
			for step := 0; step < ENV_RAMP_STEPS; step++ {
				var level uint8
				switch half {
				case rampDown:
					level = uint8(ENV_LEVEL_MAX - step)
				case rampUp:
					level = uint8(step)
				case holdZero:
					level = 0
				case holdMax:
					level = ENV_LEVEL_MAX
				}
				data[pos] = level
				pos++
			}
		}
	}
	return data
}
