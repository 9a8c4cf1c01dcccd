//go:build !headless

// audio_backend_alsa.go - ALSA audio output implementation.

package main

/*
#cgo LDFLAGS: -lasound
#cgo CFLAGS: -Ofast -march=native -mtune=native -flto
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, 2);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

const alsaChunkFrames = 1024

type ALSAPlayer struct {
	handle  *C.snd_pcm_t
	source  SampleSource
	started bool
	mutex   sync.Mutex
	stop    chan struct{}
	done    chan struct{}

	left  []float32
	right []float32
	mix   []float32
}

func NewALSAPlayer(sampleRate int, source SampleSource) (*ALSAPlayer, error) {
	var err C.int
	device := C.CString("default")
	defer C.free(unsafe.Pointer(device))
	handle := C.openPCM(device, &err)
	if err < 0 {
		return nil, fmt.Errorf("%w: open PCM: %s", ErrAudioUnavailable, C.GoString(C.snd_strerror(err)))
	}

	if err = C.setupPCM(handle, C.uint(sampleRate)); err < 0 {
		C.closePCM(handle)
		return nil, fmt.Errorf("%w: setup PCM: %s", ErrAudioUnavailable, C.GoString(C.snd_strerror(err)))
	}

	return &ALSAPlayer{
		handle: handle,
		source: source,
		left:   make([]float32, alsaChunkFrames),
		right:  make([]float32, alsaChunkFrames),
		mix:    make([]float32, alsaChunkFrames*2),
	}, nil
}

func (ap *ALSAPlayer) IsStarted() bool {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()
	return ap.started
}

// Start spawns the feeder goroutine that pulls from the source and pushes
// interleaved chunks into the PCM device.
func (ap *ALSAPlayer) Start() {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if ap.started || ap.handle == nil {
		return
	}
	ap.started = true
	ap.stop = make(chan struct{})
	ap.done = make(chan struct{})
	go ap.feed(ap.stop, ap.done)
}

func (ap *ALSAPlayer) feed(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		ap.source.Produce(ap.left, ap.right)
		for i := 0; i < alsaChunkFrames; i++ {
			ap.mix[i*2] = ap.left[i]
			ap.mix[i*2+1] = ap.right[i]
		}
		ap.writeChunk()
	}
}

func (ap *ALSAPlayer) writeChunk() {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()
	if ap.handle == nil {
		return
	}
	frames := C.writePCM(ap.handle, (*C.float)(unsafe.Pointer(&ap.mix[0])), C.int(alsaChunkFrames))
	if frames == -C.EPIPE {
		// Underrun: recover and retry once.
		C.snd_pcm_prepare(ap.handle)
		C.writePCM(ap.handle, (*C.float)(unsafe.Pointer(&ap.mix[0])), C.int(alsaChunkFrames))
	}
}

func (ap *ALSAPlayer) Stop() {
	ap.mutex.Lock()
	if !ap.started {
		ap.mutex.Unlock()
		return
	}
	ap.started = false
	stop, done := ap.stop, ap.done
	ap.mutex.Unlock()

	close(stop)
	<-done
}

func (ap *ALSAPlayer) Close() {
	ap.Stop()
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if ap.handle != nil {
		C.closePCM(ap.handle)
		ap.handle = nil
	}
}
