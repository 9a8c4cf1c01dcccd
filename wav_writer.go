// wav_writer.go - Offline rendering of a loaded song to a WAV file.

package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavRenderChunk = 4096

// RenderWAV plays an engine to completion (or for the given number of
// seconds, when positive) and writes 16-bit PCM. The engine is rewound
// first and has looping disabled, so an unbounded render stops at the
// song's loop point.
func RenderWAV(engine FramePlayer, path string, sampleRate int, seconds float64, mono bool) error {
	engine.Reset()
	engine.SetLoop(false)

	totalSamples := int(seconds * float64(sampleRate))
	if seconds <= 0 {
		totalSamples = int(float64(engine.FrameCount()) / float64(engine.FrameRate()) * float64(sampleRate))
	}
	if totalSamples <= 0 {
		return fmt.Errorf("wav: nothing to render")
	}

	channels := 2
	if mono {
		channels = 1
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	chips := engine.Chips()
	chipScale := float32(1.0)
	if len(chips) > 1 {
		chipScale = 1.0 / float32(len(chips))
	}
	samplesPerFrame := float64(sampleRate) / float64(engine.FrameRate())

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, 0, wavRenderChunk*channels),
		SourceBitDepth: 16,
	}

	frameAccum := 0.0
	for produced := 0; produced < totalSamples; produced++ {
		if frameAccum <= 0 {
			if engine.Finished() {
				break
			}
			engine.PlayFrame()
			frameAccum += samplesPerFrame
		}
		frameAccum--

		var left, right float32
		for _, chip := range chips {
			l, r := chip.NextSample()
			left += l
			right += r
		}
		left *= chipScale
		right *= chipScale

		if mono {
			buf.Data = append(buf.Data, pcm16(0.5*(left+right)))
		} else {
			buf.Data = append(buf.Data, pcm16(left), pcm16(right))
		}

		if len(buf.Data) >= wavRenderChunk*channels {
			if err := enc.Write(buf); err != nil {
				return fmt.Errorf("wav: %w", err)
			}
			buf.Data = buf.Data[:0]
		}
	}

	if len(buf.Data) > 0 {
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("wav: %w", err)
		}
	}
	return enc.Close()
}

func pcm16(x float32) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int(x * 32767)
}
