// psg_constants.go - PSG clock rates and register layout constants.

package main

const (
	PSG_REG_COUNT = 16

	PSG_CLOCK_ATARI_ST    = 2000000
	PSG_CLOCK_ZX_SPECTRUM = 1773400
	PSG_CLOCK_CPC         = 1000000
	PSG_CLOCK_MSX         = 1789773

	// The tone/noise/envelope counters run at master clock / 8.
	PSG_CLOCK_DIVISOR = 8

	PSG_CHANNELS = 3
)

// Register indices within a 16-byte frame.
const (
	PSG_REG_TONE_A_LO = 0
	PSG_REG_TONE_A_HI = 1
	PSG_REG_TONE_B_LO = 2
	PSG_REG_TONE_B_HI = 3
	PSG_REG_TONE_C_LO = 4
	PSG_REG_TONE_C_HI = 5
	PSG_REG_NOISE     = 6
	PSG_REG_MIXER     = 7
	PSG_REG_VOL_A     = 8
	PSG_REG_VOL_B     = 9
	PSG_REG_VOL_C     = 10
	PSG_REG_ENV_LO    = 11
	PSG_REG_ENV_HI    = 12
	PSG_REG_ENV_SHAPE = 13
	PSG_REG_EFFECT_1  = 14
	PSG_REG_EFFECT_2  = 15
)

// R13 value meaning "no envelope shape write this frame".
const PSG_ENV_NO_WRITE = 0xFF
