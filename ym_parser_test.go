// ym_parser_test.go - Tests for the YM register stream parser.

package main

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// buildYM5 assembles a minimal extended-format file by hand. Each entry of
// frameBlobs lands verbatim in the frame data area.
func buildYM5(tag string, frameCount int, attrs uint32, drums [][]uint8, frameBlobs [][]uint8) []byte {
	out := []byte(tag)
	out = append(out, ymSignature...)
	out = binary.BigEndian.AppendUint32(out, uint32(frameCount))
	out = binary.BigEndian.AppendUint32(out, attrs)
	out = binary.BigEndian.AppendUint16(out, uint16(len(drums)))
	out = binary.BigEndian.AppendUint32(out, PSG_CLOCK_ATARI_ST)
	out = binary.BigEndian.AppendUint16(out, 50)
	out = binary.BigEndian.AppendUint32(out, 0) // loop frame
	out = binary.BigEndian.AppendUint16(out, 0) // extra data
	for _, drum := range drums {
		out = binary.BigEndian.AppendUint32(out, uint32(len(drum)))
		out = append(out, drum...)
	}
	out = append(out, "title\x00author\x00comment\x00"...)
	for _, blob := range frameBlobs {
		out = append(out, blob...)
	}
	out = append(out, ymEndMarker...)
	return out
}

func zeroFrames(n int) [][]uint8 {
	frames := make([][]uint8, n)
	for i := range frames {
		frames[i] = make([]uint8, PSG_REG_COUNT)
	}
	return frames
}

func TestParseMinimalYM3(t *testing.T) {
	payload := make([]byte, 14*ymLegacyRegs)
	file, err := ParseYMData(append([]byte("YM3!"), payload...))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.Format != YM_FORMAT_3 {
		t.Fatalf("format %v, want YM3", file.Format)
	}
	if file.FrameCount != 14 {
		t.Fatalf("frame count %d, want 14", file.FrameCount)
	}
	if file.FrameRate != 50 || file.MasterClock != PSG_CLOCK_ATARI_ST {
		t.Fatalf("legacy defaults wrong: rate=%d clock=%d", file.FrameRate, file.MasterClock)
	}
	for i, frame := range file.Frames {
		for reg, v := range frame {
			if v != 0 {
				t.Fatalf("frame %d reg %d = %d, want 0", i, reg, v)
			}
		}
	}
}

func TestParseYM3bLoopFrame(t *testing.T) {
	payload := make([]byte, 10*ymLegacyRegs)
	payload = binary.BigEndian.AppendUint32(payload, 3)
	file, err := ParseYMData(append([]byte("YM3b"), payload...))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.FrameCount != 10 || file.LoopFrame != 3 {
		t.Fatalf("frames=%d loop=%d, want 10/3", file.FrameCount, file.LoopFrame)
	}
}

func TestParseYM2Deinterleave(t *testing.T) {
	// Register-major layout: all R0 bytes first.
	payload := make([]byte, 3*ymLegacyRegs)
	for frame := 0; frame < 3; frame++ {
		payload[frame] = uint8(frame + 1) // R0 column
	}
	file, err := ParseYMData(append([]byte("YM2!"), payload...))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for frame := 0; frame < 3; frame++ {
		if file.Frames[frame][0] != uint8(frame+1) {
			t.Fatalf("frame %d R0 = %d", frame, file.Frames[frame][0])
		}
	}
}

func TestParseYM5Metadata(t *testing.T) {
	data := buildYM5("YM5!", 2, 0, nil, zeroFrames(2))
	file, err := ParseYMData(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.SongName != "title" || file.Author != "author" || file.Comment != "comment" {
		t.Fatalf("metadata wrong: %q %q %q", file.SongName, file.Author, file.Comment)
	}
	meta := file.GetMetadata()
	if meta.Title != "title" || meta.System != "Atari ST" {
		t.Fatalf("GetMetadata wrong: %+v", meta)
	}
}

func TestParseYM6InterleavedFrames(t *testing.T) {
	frames := zeroFrames(4)
	for i := range frames {
		frames[i][8] = uint8(0x10 + i)
	}
	// Interleave by hand into one register-major blob.
	payload := make([]uint8, 4*PSG_REG_COUNT)
	for reg := 0; reg < PSG_REG_COUNT; reg++ {
		for frame := 0; frame < 4; frame++ {
			payload[reg*4+frame] = frames[frame][reg]
		}
	}
	data := buildYM5("YM6!", 4, YM_ATTR_INTERLEAVED, nil, [][]uint8{payload})
	file, err := ParseYMData(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for i := range frames {
		if file.Frames[i][8] != uint8(0x10+i) {
			t.Fatalf("frame %d R8 = 0x%X, want 0x%X", i, file.Frames[i][8], 0x10+i)
		}
	}
}

func TestParseYM5DrumExpansion(t *testing.T) {
	drum := []uint8{0x00, 0x07, 0x0F}
	data := buildYM5("YM5!", 1, YM_ATTR_DRUM_4BIT, [][]uint8{drum}, zeroFrames(1))
	file, err := ParseYMData(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []uint8{0, 12, 255}
	for i, v := range file.DigiDrums[0] {
		if v != want[i] {
			t.Fatalf("drum byte %d = %d, want %d", i, v, want[i])
		}
	}
}

func TestParseYMErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("YM"), ErrInvalidMagic},
		{"badMagic", []byte("XXXX1234"), ErrInvalidMagic},
		{"badSignature", []byte("YM5!NotLeonard_______________________"), ErrMalformedFile},
		{"emptyYM3", []byte("YM3!"), ErrMalformedFile},
	}
	for _, tc := range cases {
		if _, err := ParseYMData(tc.data); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestParseYMTooManyFrames(t *testing.T) {
	out := []byte("YM5!")
	out = append(out, ymSignature...)
	out = binary.BigEndian.AppendUint32(out, ymMaxFrames+1)
	out = append(out, make([]byte, 18)...)
	if _, err := ParseYMData(out); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("got %v, want ErrTooLarge", err)
	}
}

func TestParseYMTruncatedDrum(t *testing.T) {
	data := buildYM5("YM5!", 1, 0, [][]uint8{make([]uint8, 100)}, zeroFrames(1))
	if _, err := ParseYMData(data[:40]); !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("got %v, want ErrMalformedFile", err)
	}
}

func TestYMSerialiseRoundTrip(t *testing.T) {
	frames := zeroFrames(3)
	frames[0][0] = 0x34
	frames[1][7] = 0x38
	frames[2][13] = 0x0A

	first, err := ParseYMData(buildYM5("YM6!", 3, 0, [][]uint8{{1, 2, 3}}, frames))
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	second, err := ParseYMData(SerialiseYM(first))
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}

	if second.FrameCount != first.FrameCount || second.LoopFrame != first.LoopFrame {
		t.Fatalf("header drifted: %d/%d vs %d/%d",
			second.FrameCount, second.LoopFrame, first.FrameCount, first.LoopFrame)
	}
	for i := range first.Frames {
		for reg := range first.Frames[i] {
			if first.Frames[i][reg] != second.Frames[i][reg] {
				t.Fatalf("frame %d reg %d drifted", i, reg)
			}
		}
	}
	if second.SongName != first.SongName || second.Author != first.Author {
		t.Fatalf("metadata drifted")
	}
}

func TestParseYMUnsupportedFormats(t *testing.T) {
	for _, magic := range []string{"YM4!", "YMT1", "YMT2", "MIX1"} {
		_, err := ParseYMData([]byte(magic + "LeOnArD!"))
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Fatalf("%s: got %v, want ErrUnsupportedVersion", magic, err)
		}
	}
}

func TestIsLHAData(t *testing.T) {
	archive := []byte{0x22, 0x6E, '-', 'l', 'h', '5', '-', 0x00}
	if !isLHAData(archive) {
		t.Fatalf("lh5 archive header not recognised")
	}
	if isLHAData(ymTestData(1)) {
		t.Fatalf("raw YM data mistaken for an archive")
	}
	if isLHAData(simplePT3()) {
		t.Fatalf("PT3 data mistaken for an archive")
	}
	if isLHAData([]byte{'-', 'l'}) {
		t.Fatalf("short data mistaken for an archive")
	}
}

func TestParseYMFileBadArchiveKeepsParseError(t *testing.T) {
	// Looks like an LHA archive but is not extractable: the loader must
	// surface the original parse error, not the extraction failure.
	path := filepath.Join(t.TempDir(), "junk.ym")
	data := append([]byte{0x22, 0x6E}, "-lh5-not an archive"...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := ParseYMFile(path); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("got %v, want ErrInvalidMagic", err)
	}
}
