// music_interfaces.go - Common interfaces for music files, players and sinks.

package main

// MusicFile is implemented by all parsed music file types.
type MusicFile interface {
	// GetMetadata returns common metadata fields.
	GetMetadata() MusicMetadata
}

// ReplayerState is the observable playback state of a driver.
type ReplayerState int

const (
	REPLAYER_STOPPED ReplayerState = iota
	REPLAYER_PLAYING
	REPLAYER_PAUSED
)

func (s ReplayerState) String() string {
	switch s {
	case REPLAYER_STOPPED:
		return "stopped"
	case REPLAYER_PLAYING:
		return "playing"
	case REPLAYER_PAUSED:
		return "paused"
	}
	return "unknown"
}

// FramePlayer is the per-format engine driven by the Replayer: it applies
// one frame worth of register writes to its chips each frame tick.
type FramePlayer interface {
	// PlayFrame applies the current frame and advances the cursor.
	PlayFrame()
	// SeekFrame positions the cursor; state is rebuilt deterministically.
	SeekFrame(frame int)
	// CurrentFrame and FrameCount report cursor position in frames.
	CurrentFrame() int
	FrameCount() int
	// FrameRate is the tick rate in Hz (50-60).
	FrameRate() int
	// Reset returns the engine and its chips to the initial state.
	Reset()
	// SetLoop controls wraparound at the end of the song.
	SetLoop(loop bool)
	// Finished reports that the song ended and looping is disabled.
	Finished() bool
	// Chips returns the PSG chips the engine drives (two for TurboSound).
	Chips() []*PSGChip
	// Metadata returns the loaded file's metadata.
	Metadata() MusicMetadata
}

// ReplayerObserver receives playback notifications from the driver
// goroutine. Implementations must not block.
type ReplayerObserver interface {
	OnStateChange(state ReplayerState)
	OnFrameChange(current, total int)
	OnError(description string)
}

// SampleSource produces stereo sample frames for an audio backend. Both
// slices have the same length; the source fills them completely.
type SampleSource interface {
	Produce(left, right []float32)
}

// AudioBackend is a real-time audio sink pulling or pushing stereo float32.
type AudioBackend interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}
