// replayer.go - Playback driver: wall-clock frame scheduling over a
// format engine, with transport controls and observer notifications.

package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// replayerTickInterval is the catch-up timer period. It is much finer than
// a frame so throttled or late ticks are recovered by replaying the missed
// frames against the monotonic clock.
const replayerTickInterval = 4 * time.Millisecond

// Replayer owns a format engine and its chips. A mutex serialises the
// driver goroutine, the audio pull path and the control surface; the
// per-channel level meters bypass it (see PSGChip.ChannelLevel).
type Replayer struct {
	mu         sync.Mutex
	sampleRate int

	engine  FramePlayer
	backend AudioBackend

	state        ReplayerState
	loop         bool
	masterVolume float32
	pans         [PSG_CHANNELS]float32

	observer ReplayerObserver

	stopDriver chan struct{}
	driverDone chan struct{}
}

// NewReplayer creates a driver with no file loaded.
func NewReplayer(sampleRate int) *Replayer {
	return &Replayer{
		sampleRate:   sampleRate,
		loop:         true,
		masterVolume: 1.0,
	}
}

// SetObserver registers the playback observer. Callbacks arrive on the
// driver goroutine and must not block.
func (r *Replayer) SetObserver(observer ReplayerObserver) {
	r.mu.Lock()
	r.observer = observer
	r.mu.Unlock()
}

// AttachBackend connects an audio sink. The backend is expected to pull
// samples from Produce.
func (r *Replayer) AttachBackend(backend AudioBackend) {
	r.mu.Lock()
	r.backend = backend
	r.mu.Unlock()
}

// Load parses a file by extension and prepares its engine. Playback state
// becomes stopped; a previously loaded file is replaced.
func (r *Replayer) Load(path string) error {
	switch {
	case isYMExtension(path):
		file, err := ParseYMFile(path)
		if err != nil {
			return r.loadFailed(err)
		}
		return r.install(NewYMEngine(file, r.sampleRate))
	case isPT3Extension(path):
		file, err := ParsePT3File(path)
		if err != nil {
			return r.loadFailed(err)
		}
		return r.install(NewPT3Engine(file, r.sampleRate))
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return r.loadFailed(err)
		}
		return r.LoadData(data)
	}
}

// LoadData detects the format from content: LHA archives are extracted
// first, then YM magics are tried, then the PT3 tracker signature. A file
// that carries a YM magic but fails to parse surfaces the YM error rather
// than falling through to the tracker parser.
func (r *Replayer) LoadData(data []byte) error {
	if isLHAData(data) {
		decompressed, err := DecompressLHAData(data)
		if err != nil {
			return r.loadFailed(err)
		}
		data = decompressed
	}
	file, err := ParseYMData(data)
	if err == nil {
		return r.install(NewYMEngine(file, r.sampleRate))
	}
	if !errors.Is(err, ErrInvalidMagic) {
		return r.loadFailed(err)
	}
	pt3, pt3Err := ParsePT3Data(data)
	if pt3Err != nil {
		return r.loadFailed(pt3Err)
	}
	return r.install(NewPT3Engine(pt3, r.sampleRate))
}

func (r *Replayer) loadFailed(err error) error {
	r.mu.Lock()
	observer := r.observer
	r.mu.Unlock()
	if observer != nil {
		observer.OnError(err.Error())
	}
	return err
}

func (r *Replayer) install(engine FramePlayer) error {
	r.haltDriver()
	r.mu.Lock()
	r.engine = engine
	engine.SetLoop(r.loop)
	for _, chip := range engine.Chips() {
		chip.SetMasterVolume(r.masterVolume)
		for ch := 0; ch < PSG_CHANNELS; ch++ {
			chip.SetChannelPan(ch, r.pans[ch])
		}
	}
	r.setStateLocked(REPLAYER_STOPPED)
	r.mu.Unlock()
	return nil
}

// Play starts (or resumes) frame scheduling. Resuming from pause keeps the
// current position; starting from stopped begins at the current cursor.
func (r *Replayer) Play() error {
	r.mu.Lock()
	if r.engine == nil {
		r.mu.Unlock()
		return fmt.Errorf("replayer: %w", ErrNoFileLoaded)
	}
	if r.state == REPLAYER_PLAYING {
		r.mu.Unlock()
		return nil
	}
	rate := r.engine.FrameRate()
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stopDriver = stop
	r.driverDone = done
	r.setStateLocked(REPLAYER_PLAYING)
	backend := r.backend
	r.mu.Unlock()

	if backend != nil && !backend.IsStarted() {
		backend.Start()
	}
	go r.driverLoop(rate, stop, done)
	return nil
}

// Pause stops the frame clock, leaves all engine and chip state in place
// and writes zero volumes so held notes fall silent.
func (r *Replayer) Pause() {
	r.haltDriver()
	r.mu.Lock()
	if r.engine != nil && r.state == REPLAYER_PLAYING {
		r.silenceLocked()
		r.setStateLocked(REPLAYER_PAUSED)
	}
	r.mu.Unlock()
}

// Stop halts the frame clock and rewinds engine and chips to the start.
func (r *Replayer) Stop() {
	r.haltDriver()
	r.mu.Lock()
	if r.engine != nil {
		r.engine.Reset()
		r.setStateLocked(REPLAYER_STOPPED)
	}
	r.mu.Unlock()
}

// Seek positions the playback cursor by frame index.
func (r *Replayer) Seek(frame int) {
	r.mu.Lock()
	if r.engine != nil {
		r.engine.SeekFrame(frame)
	}
	r.mu.Unlock()
}

// SeekTime positions the playback cursor by seconds.
func (r *Replayer) SeekTime(seconds float64) {
	r.mu.Lock()
	if r.engine != nil {
		if seconds < 0 {
			seconds = 0
		}
		r.engine.SeekFrame(int(seconds * float64(r.engine.FrameRate())))
	}
	r.mu.Unlock()
}

// SetLoop controls end-of-song wraparound for the current and future files.
func (r *Replayer) SetLoop(loop bool) {
	r.mu.Lock()
	r.loop = loop
	if r.engine != nil {
		r.engine.SetLoop(loop)
	}
	r.mu.Unlock()
}

// SetMasterVolume scales the final output on every chip. Clamped to [0, 1].
func (r *Replayer) SetMasterVolume(volume float32) {
	r.mu.Lock()
	r.masterVolume = volume
	if r.engine != nil {
		for _, chip := range r.engine.Chips() {
			chip.SetMasterVolume(volume)
		}
	}
	r.mu.Unlock()
}

// SetChannelPan positions one channel in the stereo field on every chip.
func (r *Replayer) SetChannelPan(ch int, pan float32) {
	r.mu.Lock()
	if ch >= 0 && ch < PSG_CHANNELS {
		r.pans[ch] = pan
		if r.engine != nil {
			for _, chip := range r.engine.Chips() {
				chip.SetChannelPan(ch, pan)
			}
		}
	}
	r.mu.Unlock()
}

func (r *Replayer) State() ReplayerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Replayer) CurrentFrame() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return 0
	}
	return r.engine.CurrentFrame()
}

func (r *Replayer) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return 0
	}
	return r.engine.FrameCount()
}

func (r *Replayer) FrameRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return 0
	}
	return r.engine.FrameRate()
}

func (r *Replayer) Metadata() MusicMetadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return MusicMetadata{}
	}
	return r.engine.Metadata()
}

// ChannelLevels reads the lock-free level meters of the first chip.
func (r *Replayer) ChannelLevels() [PSG_CHANNELS]float32 {
	r.mu.Lock()
	engine := r.engine
	r.mu.Unlock()

	var levels [PSG_CHANNELS]float32
	if engine == nil {
		return levels
	}
	chip := engine.Chips()[0]
	for ch := 0; ch < PSG_CHANNELS; ch++ {
		levels[ch] = chip.ChannelLevel(ch)
	}
	return levels
}

// Close stops playback and releases the audio backend.
func (r *Replayer) Close() {
	r.haltDriver()
	r.mu.Lock()
	backend := r.backend
	r.backend = nil
	r.mu.Unlock()
	if backend != nil {
		backend.Close()
	}
}

// Produce fills stereo buffers from the loaded chips. This is the audio
// actor entry point; it runs under the same mutex as the driver so a
// frame's register writes land between buffer fills in order.
func (r *Replayer) Produce(left, right []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil || r.state == REPLAYER_STOPPED {
		for i := range left {
			left[i] = 0
			right[i] = 0
		}
		return
	}

	chips := r.engine.Chips()
	scale := float32(1.0)
	if len(chips) > 1 {
		scale = 1.0 / float32(len(chips))
	}
	for i := range left {
		var l, rr float32
		for _, chip := range chips {
			cl, cr := chip.NextSample()
			l += cl
			rr += cr
		}
		left[i] = l * scale
		right[i] = rr * scale
	}
}

// driverLoop replays frames against the monotonic clock. The fine ticker
// plus catch-up loop keeps long-run timing exact even when individual
// ticks arrive late.
func (r *Replayer) driverLoop(frameRate int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if frameRate <= 0 {
		frameRate = 50
	}
	interval := time.Second / time.Duration(frameRate)
	next := time.Now()

	ticker := time.NewTicker(replayerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			for !now.Before(next) {
				if finished := r.stepFrame(); finished {
					return
				}
				next = next.Add(interval)
			}
		}
	}
}

// stepFrame advances the engine one frame and notifies the observer.
func (r *Replayer) stepFrame() bool {
	r.mu.Lock()
	if r.engine == nil || r.state != REPLAYER_PLAYING {
		r.mu.Unlock()
		return true
	}
	r.engine.PlayFrame()
	current := r.engine.CurrentFrame()
	total := r.engine.FrameCount()
	finished := r.engine.Finished()
	if finished {
		r.silenceLocked()
		r.stopDriver = nil
		r.setStateLocked(REPLAYER_STOPPED)
	}
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer.OnFrameChange(current, total)
	}
	return finished
}

// silenceLocked writes zero volumes to every chip so pausing does not hold
// a sustained note. Callers hold the mutex.
func (r *Replayer) silenceLocked() {
	for _, chip := range r.engine.Chips() {
		chip.WriteRegister(PSG_REG_VOL_A, 0)
		chip.WriteRegister(PSG_REG_VOL_B, 0)
		chip.WriteRegister(PSG_REG_VOL_C, 0)
	}
}

// setStateLocked records the new state and schedules the observer callback
// outside the lock. Callers hold the mutex.
func (r *Replayer) setStateLocked(state ReplayerState) {
	if r.state == state {
		return
	}
	r.state = state
	if observer := r.observer; observer != nil {
		go observer.OnStateChange(state)
	}
}

// haltDriver stops the driver goroutine and waits for it to exit.
func (r *Replayer) haltDriver() {
	r.mu.Lock()
	stop := r.stopDriver
	done := r.driverDone
	r.stopDriver = nil
	r.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}
