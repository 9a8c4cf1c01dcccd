//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation.

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

type OtoPlayer struct {
	ctx      *oto.Context
	player   *oto.Player
	source   atomic.Pointer[Replayer] // Atomic for lock-free Read()
	leftBuf  []float32
	rightBuf []float32
	mixBuf   []float32 // interleaved stereo scratch
	started  bool
	mutex    sync.Mutex // Only for setup/control operations
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{
		ctx:     ctx,
		started: false,
	}, nil
}

func (op *OtoPlayer) SetupPlayer(source *Replayer) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.source.Store(source)
	op.player = op.ctx.NewPlayer(op)
	// Pre-allocate for typical oto buffer sizes (4096 bytes = 512 stereo frames)
	op.leftBuf = make([]float32, 2048)
	op.rightBuf = make([]float32, 2048)
	op.mixBuf = make([]float32, 4096)
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	// Load the source pointer atomically - no lock needed on the hot path
	source := op.source.Load()
	if source == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / 8 // 2 channels x 4 bytes

	if len(op.leftBuf) < frames {
		op.leftBuf = make([]float32, frames)
		op.rightBuf = make([]float32, frames)
		op.mixBuf = make([]float32, frames*2)
	}
	left := op.leftBuf[:frames]
	right := op.rightBuf[:frames]
	mix := op.mixBuf[:frames*2]

	source.Produce(left, right)
	for i := 0; i < frames; i++ {
		mix[i*2] = left[i]
		mix[i*2+1] = right[i]
	}

	copy(p[:frames*8], (*[1 << 30]byte)(unsafe.Pointer(&mix[0]))[:frames*8])
	return frames * 8, nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
