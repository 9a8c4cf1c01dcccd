// psg_benchmark_test.go - Benchmarks for the PSG and replayer hot paths

package main

import (
	"testing"
)

// BenchmarkPSGChip_NextSample benchmarks the per-sample mixer path.
// This is called 48,000 times per second at 48kHz sample rate.
func BenchmarkPSGChip_NextSample(b *testing.B) {
	chip := NewPSGChip(PSG_CLOCK_ATARI_ST, 48000)
	chip.WriteRegister(PSG_REG_TONE_A_LO, 0xFE)
	chip.WriteRegister(PSG_REG_TONE_A_HI, 0x01)
	chip.WriteRegister(PSG_REG_NOISE, 0x10)
	chip.WriteRegister(PSG_REG_MIXER, 0x30)
	chip.WriteRegister(PSG_REG_VOL_A, 0x0F)
	chip.WriteRegister(PSG_REG_VOL_B, 0x10)
	chip.WriteRegister(PSG_REG_ENV_LO, 0x40)
	chip.WriteRegister(PSG_REG_ENV_SHAPE, 0x0A)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		chip.NextSample()
	}
}

// BenchmarkPSGChip_NextSampleWithEffects measures the overhead of an active
// SID voice and DigiDrum on the sample path.
func BenchmarkPSGChip_NextSampleWithEffects(b *testing.B) {
	chip := NewPSGChip(PSG_CLOCK_ATARI_ST, 48000)
	chip.WriteRegister(PSG_REG_MIXER, 0x38)
	chip.WriteRegister(PSG_REG_VOL_A, 0x0F)
	chip.StartSid(0, 6144, 0x0F, false)
	drum := make([]uint8, 4096)
	for i := range drum {
		drum[i] = uint8(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !chip.drums[1].active {
			chip.StartDrum(1, drum, 6144)
		}
		chip.NextSample()
	}
}

// BenchmarkYMEngine_PlayFrame benchmarks one frame of register application.
// This is called 50-60 times per second.
func BenchmarkYMEngine_PlayFrame(b *testing.B) {
	frames := zeroFrames(1000)
	for i := range frames {
		frames[i][0] = uint8(i)
		frames[i][8] = 0x0F
		frames[i][13] = PSG_ENV_NO_WRITE
	}
	engine := NewYMEngine(testYMFile(frames, 0), 48000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.PlayFrame()
	}
}

// BenchmarkPT3Player_Tick benchmarks one interpreter tick, the per-frame
// cost of a playing tracker module.
func BenchmarkPT3Player_Tick(b *testing.B) {
	file := playerFile(3, []uint8{
		0xD1, 0xCF, 0x5A, 0x5C, 0x5E, 0x60, 0x5A, 0x57, 0x00,
	})
	player := NewPT3Player(file)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		player.Tick()
	}
}

// BenchmarkReplayer_Produce benchmarks filling one audio pull buffer.
func BenchmarkReplayer_Produce(b *testing.B) {
	r := NewReplayer(48000)
	if err := r.LoadData(buildYM5("YM5!", 100, 0, nil, zeroFrames(100))); err != nil {
		b.Fatalf("load failed: %v", err)
	}
	r.mu.Lock()
	r.state = REPLAYER_PLAYING
	r.mu.Unlock()

	left := make([]float32, 512)
	right := make([]float32, 512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Produce(left, right)
	}
}
