// pt3_parser_test.go - Tests for the ProTracker 3 module parser.

package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// pt3Builder assembles a synthetic module: fixed header and position list
// first, then sample/ornament/pattern blobs with the header pointers patched
// as they land.
type pt3Builder struct {
	data []byte
}

func newPT3Builder(signature string, positions []uint8, loopPos, delay, tableID uint8) *pt3Builder {
	b := &pt3Builder{data: make([]byte, pt3HeaderSize)}
	copy(b.data, signature)
	copy(b.data[pt3TitleOffset:], "Test Song")
	copy(b.data[pt3AuthorOffset:], "Test Author")
	b.data[99] = tableID
	b.data[100] = delay
	b.data[101] = uint8(len(positions))
	b.data[102] = loopPos
	b.data = append(b.data, positions...)
	b.data = append(b.data, 0xFF)
	return b
}

func (b *pt3Builder) addSample(slot int, loop uint8, lines ...[4]uint8) {
	binary.LittleEndian.PutUint16(b.data[105+slot*2:], uint16(len(b.data)))
	b.data = append(b.data, loop, uint8(len(lines)))
	for _, line := range lines {
		b.data = append(b.data, line[:]...)
	}
}

func (b *pt3Builder) addOrnament(slot int, loop uint8, offsets ...int8) {
	binary.LittleEndian.PutUint16(b.data[169+slot*2:], uint16(len(b.data)))
	b.data = append(b.data, loop, uint8(len(offsets)))
	for _, off := range offsets {
		b.data = append(b.data, uint8(off))
	}
}

func (b *pt3Builder) addPatterns(patterns ...[3][]uint8) {
	ptrs := make([][3]int, len(patterns))
	for i, pattern := range patterns {
		for ch, stream := range pattern {
			ptrs[i][ch] = len(b.data)
			b.data = append(b.data, stream...)
		}
	}
	binary.LittleEndian.PutUint16(b.data[103:], uint16(len(b.data)))
	for _, entry := range ptrs {
		for _, ptr := range entry {
			b.data = binary.LittleEndian.AppendUint16(b.data, uint16(ptr))
		}
	}
}

// endStream is the smallest legal channel stream: end-of-track only.
var endStream = []uint8{0x00}

func simplePT3() []byte {
	b := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 3, 2)
	b.addSample(1, 0, [4]uint8{0x00, 0x0F, 0x00, 0x00})
	b.addPatterns([3][]uint8{endStream, endStream, endStream})
	return b.data
}

func TestParsePT3Header(t *testing.T) {
	file, err := ParsePT3Data(simplePT3())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.Version != 6 {
		t.Fatalf("version %d, want 6", file.Version)
	}
	if file.ToneTableID != 2 || file.Delay != 3 || file.LoopPos != 0 {
		t.Fatalf("header fields wrong: table=%d delay=%d loop=%d",
			file.ToneTableID, file.Delay, file.LoopPos)
	}
	if file.Title != "Test Song" || file.Author != "Test Author" {
		t.Fatalf("names wrong: %q / %q", file.Title, file.Author)
	}
	if len(file.Positions) != 1 || file.Positions[0] != 0 {
		t.Fatalf("positions wrong: %v", file.Positions)
	}
	if len(file.Patterns) != 1 {
		t.Fatalf("pattern count %d, want 1", len(file.Patterns))
	}
	if file.IsTurboSound {
		t.Fatalf("plain module flagged as TurboSound")
	}
	meta := file.GetMetadata()
	if meta.System != "ZX Spectrum" || meta.Title != "Test Song" {
		t.Fatalf("metadata wrong: %+v", meta)
	}
}

func TestParsePT3ZeroDelayDefaults(t *testing.T) {
	b := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 0, 0)
	b.addPatterns([3][]uint8{endStream, endStream, endStream})
	file, err := ParsePT3Data(b.data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.Delay != 1 {
		t.Fatalf("zero delay parsed as %d, want 1", file.Delay)
	}
}

func TestParsePT3VortexVersionScan(t *testing.T) {
	b := newPT3Builder("Vortex Tracker II module ProTracker 3.5 compatible", []uint8{0}, 0, 3, 0)
	b.addPatterns([3][]uint8{endStream, endStream, endStream})
	file, err := ParsePT3Data(b.data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.Version != 5 {
		t.Fatalf("version %d, want 5 from scanned \"3.5\"", file.Version)
	}
}

func TestParsePT3SampleDecoding(t *testing.T) {
	// Line 1: envelope mask, N field 0x1C (-4 signed), slide up, slide
	// enabled; amplitude 12, tone mask, noise accumulation; tone offset -100.
	line1 := [4]uint8{0x01 | 0x1C<<1 | 0x40 | 0x80, 0x0C | 0x10 | 0x80, 0x9C, 0xFF}
	// Line 2: N field 5, slide down enabled; noise mask, tone accumulation;
	// tone offset +48.
	line2 := [4]uint8{0x05<<1 | 0x80, 0x03 | 0x20 | 0x40, 0x30, 0x00}

	b := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 3, 0)
	b.addSample(1, 1, line1, line2)
	b.addPatterns([3][]uint8{endStream, endStream, endStream})
	file, err := ParsePT3Data(b.data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	sample := file.Samples[1]
	if sample == nil || sample.Loop != 1 || len(sample.Frames) != 2 {
		t.Fatalf("sample shape wrong: %+v", sample)
	}

	f := sample.Frames[0]
	if f.toneOffset != -100 || f.amplitude != 12 {
		t.Fatalf("line 1 tone/amplitude wrong: %d / %d", f.toneOffset, f.amplitude)
	}
	if f.noiseOffset != -4 || f.envelopeOffset != 0x1C {
		t.Fatalf("line 1 N field wrong: noise=%d env=%d", f.noiseOffset, f.envelopeOffset)
	}
	if !f.envelopeMask || !f.toneMask || f.noiseMask {
		t.Fatalf("line 1 masks wrong: %+v", f)
	}
	if f.accumulateTone || !f.accumulateNoise {
		t.Fatalf("line 1 accumulation wrong: %+v", f)
	}
	if !f.amplitudeSlideEnabled || f.amplitudeSlide != 1 {
		t.Fatalf("line 1 slide wrong: %+v", f)
	}

	f = sample.Frames[1]
	if f.toneOffset != 48 || f.amplitude != 3 {
		t.Fatalf("line 2 tone/amplitude wrong: %d / %d", f.toneOffset, f.amplitude)
	}
	if f.noiseOffset != 5 || f.envelopeMask || f.toneMask || !f.noiseMask {
		t.Fatalf("line 2 wrong: %+v", f)
	}
	if !f.accumulateTone || f.accumulateNoise {
		t.Fatalf("line 2 accumulation wrong: %+v", f)
	}
	if !f.amplitudeSlideEnabled || f.amplitudeSlide != -1 {
		t.Fatalf("line 2 slide wrong: %+v", f)
	}

	// Untouched slots stay nil.
	if file.Samples[0] != nil || file.Samples[31] != nil {
		t.Fatalf("unused sample slots not nil")
	}
}

func TestParsePT3Ornament(t *testing.T) {
	b := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 3, 0)
	b.addOrnament(2, 1, 0, 4, 7, -12)
	b.addPatterns([3][]uint8{endStream, endStream, endStream})
	file, err := ParsePT3Data(b.data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	orn := file.Ornaments[2]
	if orn == nil || orn.Loop != 1 {
		t.Fatalf("ornament shape wrong: %+v", orn)
	}
	want := []int8{0, 4, 7, -12}
	for i, v := range orn.Data {
		if v != want[i] {
			t.Fatalf("ornament step %d = %d, want %d", i, v, want[i])
		}
	}
	if file.Ornaments[0] != nil {
		t.Fatalf("unused ornament slot not nil")
	}
}

func TestParsePT3PatternCountFromPositions(t *testing.T) {
	// Position values are pattern index * 3; referencing pattern 2 forces
	// three table entries.
	b := newPT3Builder("ProTracker 3.6 compilation", []uint8{0, 6, 3}, 1, 3, 0)
	b.addPatterns(
		[3][]uint8{endStream, endStream, endStream},
		[3][]uint8{{0x0D, 0x00}, endStream, endStream},
		[3][]uint8{endStream, endStream, endStream},
	)
	file, err := ParsePT3Data(b.data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(file.Patterns) != 3 {
		t.Fatalf("pattern count %d, want 3", len(file.Patterns))
	}
	if !bytes.Equal(file.Patterns[1].Streams[0], []uint8{0x0D, 0x00}) {
		t.Fatalf("pattern 1 stream A wrong: %v", file.Patterns[1].Streams[0])
	}
	if file.LoopPos != 1 {
		t.Fatalf("loop position %d, want 1", file.LoopPos)
	}
}

func TestParsePT3StreamTerminator(t *testing.T) {
	// All three channels point at an unterminated stream that runs to EOF;
	// the parser appends the terminator itself.
	b := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 3, 0)
	table := len(b.data)
	binary.LittleEndian.PutUint16(b.data[103:], uint16(table))
	stream := table + 6
	for ch := 0; ch < 3; ch++ {
		b.data = binary.LittleEndian.AppendUint16(b.data, uint16(stream))
	}
	b.data = append(b.data, 0x50, 0x51, 0x52)

	file, err := ParsePT3Data(b.data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := file.Patterns[0].Streams[2]
	if !bytes.Equal(got, []uint8{0x50, 0x51, 0x52, 0x00}) {
		t.Fatalf("stream missing appended terminator: %v", got)
	}
}

func TestParsePT3Errors(t *testing.T) {
	good := simplePT3()

	short := good[:100]

	noSig := append([]byte(nil), good...)
	for i := range noSig[:pt3TitleOffset] {
		noSig[i] = ' '
	}

	badLoop := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 3, 0)
	badLoop.addSample(1, 5, [4]uint8{0, 0x0F, 0, 0})
	badLoop.addPatterns([3][]uint8{endStream, endStream, endStream})

	countMismatch := append([]byte(nil), good...)
	countMismatch[101] = 9

	noPositions := newPT3Builder("ProTracker 3.6 compilation", nil, 0, 3, 0)
	noPositions.addPatterns([3][]uint8{endStream, endStream, endStream})

	longStream := newPT3Builder("ProTracker 3.6 compilation", []uint8{0}, 0, 3, 0)
	runaway := make([]uint8, pt3MaxStreamBytes+100)
	for i := range runaway {
		runaway[i] = 0x0D
	}
	longStream.addPatterns([3][]uint8{runaway, endStream, endStream})

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"shortHeader", short, ErrMalformedFile},
		{"noSignature", noSig, ErrInvalidMagic},
		{"sampleLoopOutsideLength", badLoop.data, ErrMalformedFile},
		{"positionCountMismatch", countMismatch, ErrMalformedFile},
		{"emptyPositionList", noPositions.data, ErrMalformedFile},
		{"runawayStream", longStream.data, ErrTooLarge},
	}
	for _, tc := range cases {
		if _, err := ParsePT3Data(tc.data); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestParsePT3TurboSound(t *testing.T) {
	first := simplePT3()
	if len(first) < pt3SecondModuleAt {
		first = append(first, make([]byte, pt3SecondModuleAt-len(first))...)
	}
	data := append(append([]byte(nil), first...), simplePT3()...)

	file, err := ParsePT3Data(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !file.IsTurboSound || file.SecondModule == nil {
		t.Fatalf("TurboSound pair not detected")
	}
	if file.SecondModule.Title != "Test Song" || file.SecondModule.IsTurboSound {
		t.Fatalf("second module wrong: %+v", file.SecondModule)
	}
}

func TestIsPT3Extension(t *testing.T) {
	if !isPT3Extension("tune.PT3") || isPT3Extension("tune.ym") {
		t.Fatalf("extension detection wrong")
	}
}
