// main.go - ChipStream command line player.

package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

func boilerPlate() {
	fmt.Println("\nChipStream - YM2149 / AY-3-8910 music player")
	fmt.Println("Plays Atari ST YM register dumps and ZX Spectrum ProTracker 3 modules.")
	fmt.Println("https://github.com/IntuitionAmiga/ChipStream")
	fmt.Println("License: GPLv3 or later")
}

type consoleObserver struct{}

func (consoleObserver) OnStateChange(state ReplayerState) {}
func (consoleObserver) OnFrameChange(current, total int)  {}
func (consoleObserver) OnError(description string) {
	fmt.Fprintf(os.Stderr, "\nerror: %s\n", description)
}

func main() {
	var (
		rate    = flag.Int("rate", 48000, "output sample rate in Hz")
		wavPath = flag.String("wav", "", "render to WAV file instead of playing")
		seconds = flag.Float64("seconds", 0, "limit WAV render length (0 = full song)")
		mono    = flag.Bool("mono", false, "render WAV as mono")
		useALSA = flag.Bool("alsa", false, "play through ALSA instead of oto")
		noLoop  = flag.Bool("once", false, "stop at the end of the song instead of looping")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.ym|file.pt3>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *wavPath != "" {
		if err := renderToWAV(path, *wavPath, *rate, *seconds, *mono); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	boilerPlate()

	replayer := NewReplayer(*rate)
	replayer.SetObserver(consoleObserver{})

	var backend AudioBackend
	if *useALSA {
		alsa, err := NewALSAPlayer(*rate, replayer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		backend = alsa
	} else {
		oto, err := NewOtoPlayer(*rate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		oto.SetupPlayer(replayer)
		backend = oto
	}
	replayer.AttachBackend(backend)
	defer replayer.Close()

	if err := replayer.Load(path); err != nil {
		os.Exit(1)
	}
	replayer.SetLoop(!*noLoop)

	meta := replayer.Metadata()
	fmt.Printf("\nTitle:  %s\nAuthor: %s\nSystem: %s\n", meta.Title, meta.Author, meta.System)
	if meta.Duration > 0 {
		fmt.Printf("Length: %s\n", formatDuration(meta.Duration))
	}
	fmt.Println("\n[space] pause/resume  [s] stop  [left/right] seek 5s  [q] quit")

	if err := replayer.Play(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runKeyLoop(replayer)
	fmt.Println()
}

// runKeyLoop drives the transport from raw-mode stdin until quit. The
// progress line refreshes between key polls.
func runKeyLoop(replayer *Replayer) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// No terminal (piped stdin): just play until interrupted.
		for {
			time.Sleep(time.Second)
		}
	}
	defer term.Restore(fd, oldState)

	if err := syscall.SetNonblock(fd, true); err == nil {
		defer syscall.SetNonblock(fd, false)
	}

	buf := make([]byte, 3)
	for {
		n, err := syscall.Read(fd, buf)
		if n > 0 {
			switch {
			case buf[0] == 'q' || buf[0] == 3: // q or ctrl-c
				return
			case buf[0] == ' ':
				if replayer.State() == REPLAYER_PLAYING {
					replayer.Pause()
				} else {
					replayer.Play()
				}
			case buf[0] == 's':
				replayer.Stop()
			case n == 3 && buf[0] == 0x1B && buf[1] == '[':
				if rate := replayer.FrameRate(); rate > 0 {
					seconds := float64(replayer.CurrentFrame()) / float64(rate)
					switch buf[2] {
					case 'C':
						replayer.SeekTime(seconds + 5)
					case 'D':
						replayer.SeekTime(seconds - 5)
					}
				}
			}
		}
		if err != nil && err != syscall.EAGAIN && err != syscall.EWOULDBLOCK {
			return
		}

		printProgress(replayer)
		time.Sleep(50 * time.Millisecond)
	}
}

func printProgress(replayer *Replayer) {
	current := replayer.CurrentFrame()
	total := replayer.FrameCount()
	rate := replayer.FrameRate()
	if total == 0 || rate == 0 {
		return
	}
	levels := replayer.ChannelLevels()
	fmt.Printf("\r%s %s / %s  A:%s B:%s C:%s  ",
		replayer.State(),
		formatDuration(float64(current)/float64(rate)),
		formatDuration(float64(total)/float64(rate)),
		levelBar(levels[0]), levelBar(levels[1]), levelBar(levels[2]))
}

// levelBar renders a four-step meter for one channel.
func levelBar(level float32) string {
	bars := [...]string{"    ", "=   ", "==  ", "=== ", "===="}
	idx := int(level * 4 * 3) // channel output peaks around 1/3 pre-pan
	if idx < 0 {
		idx = 0
	}
	if idx >= len(bars) {
		idx = len(bars) - 1
	}
	return bars[idx]
}

// renderToWAV parses the file by extension and renders it offline.
func renderToWAV(inPath, outPath string, rate int, seconds float64, mono bool) error {
	var engine FramePlayer
	switch {
	case isYMExtension(inPath):
		file, err := ParseYMFile(inPath)
		if err != nil {
			return err
		}
		engine = NewYMEngine(file, rate)
	case isPT3Extension(inPath):
		file, err := ParsePT3File(inPath)
		if err != nil {
			return err
		}
		engine = NewPT3Engine(file, rate)
	default:
		return fmt.Errorf("unsupported file type: %s", inPath)
	}

	meta := engine.Metadata()
	fmt.Printf("Rendering %q by %q to %s\n", meta.Title, meta.Author, outPath)
	return RenderWAV(engine, outPath, rate, seconds, mono)
}
