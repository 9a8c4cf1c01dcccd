// ym_parser.go - YM2/YM3/YM3b/YM5/YM6 register stream parser.

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// YMFormat identifies the on-disk flavour of a YM file.
type YMFormat int

const (
	YM_FORMAT_2 YMFormat = iota
	YM_FORMAT_3
	YM_FORMAT_3B
	YM_FORMAT_5
	YM_FORMAT_6
)

func (f YMFormat) String() string {
	switch f {
	case YM_FORMAT_2:
		return "YM2"
	case YM_FORMAT_3:
		return "YM3"
	case YM_FORMAT_3B:
		return "YM3b"
	case YM_FORMAT_5:
		return "YM5"
	case YM_FORMAT_6:
		return "YM6"
	}
	return "YM?"
}

// YM5/YM6 attribute bits.
const (
	YM_ATTR_INTERLEAVED = 1 << 0
	YM_ATTR_DRUM_4BIT   = 1 << 2
)

const (
	ymSignature   = "LeOnArD!"
	ymEndMarker   = "End!"
	ymLegacyRegs  = 14
	ymMaxFrames   = 100000
	ymLegacyClock = PSG_CLOCK_ATARI_ST
	ymLegacyRate  = 50
)

// YMFile is a fully decoded YM module: one 16-byte register image per frame.
type YMFile struct {
	Format      YMFormat
	FrameCount  int
	FrameRate   int
	MasterClock uint32
	LoopFrame   int
	Attributes  uint32
	SongName    string
	Author      string
	Comment     string
	DigiDrums   [][]uint8
	Frames      [][]uint8
}

// GetMetadata implements MusicFile.
func (f *YMFile) GetMetadata() MusicMetadata {
	return MusicMetadata{
		Title:  f.SongName,
		Author: f.Author,
		System: "Atari ST",
	}
}

// ymDebugEnabled caches the CHIPSTREAM_DEBUG environment variable at init time.
var ymDebugEnabled = func() bool {
	value := strings.ToLower(os.Getenv("CHIPSTREAM_DEBUG"))
	return value == "1" || value == "true" || value == "yes"
}()

// ParseYMFile reads and parses a YM file from disk. Distributed .ym files
// are usually LHA archives around the raw stream, so an archive is
// extracted and parsed transparently.
func ParseYMFile(path string) (*YMFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file, parseErr := ParseYMData(data)
	if parseErr == nil {
		return file, nil
	}
	if !isLHAData(data) {
		return nil, parseErr
	}
	decompressed, decErr := DecompressLHAFile(path)
	if decErr != nil {
		return nil, parseErr
	}
	return ParseYMData(decompressed)
}

// ParseYMData dispatches on the four-byte magic.
func ParseYMData(data []byte) (*YMFile, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("ym: %w: file shorter than magic", ErrInvalidMagic)
	}
	switch string(data[:4]) {
	case "YM2!":
		return parseLegacyYM(data[4:], YM_FORMAT_2)
	case "YM3!":
		return parseLegacyYM(data[4:], YM_FORMAT_3)
	case "YM3b":
		return parseLegacyYM(data[4:], YM_FORMAT_3B)
	case "YM5!":
		return parseExtendedYM(data, YM_FORMAT_5)
	case "YM6!":
		return parseExtendedYM(data, YM_FORMAT_6)
	case "YM4!", "YMT1", "YMT2", "MIX1":
		// Recognised ST-Sound formats this player does not cover.
		return nil, fmt.Errorf("ym: %w: %q", ErrUnsupportedVersion, data[:4])
	default:
		return nil, fmt.Errorf("ym: %w: %q", ErrInvalidMagic, data[:4])
	}
}

// parseLegacyYM decodes the headerless YM2/YM3/YM3b payload: interleaved
// 14-register frames at 2 MHz / 50 Hz, with an optional trailing loop frame
// for YM3b.
func parseLegacyYM(payload []byte, format YMFormat) (*YMFile, error) {
	loopFrame := 0
	if format == YM_FORMAT_3B {
		if len(payload) < 4 {
			return nil, fmt.Errorf("ym: %w: YM3b payload shorter than loop frame", ErrMalformedFile)
		}
		loopFrame = int(binary.BigEndian.Uint32(payload[len(payload)-4:]))
		payload = payload[:len(payload)-4]
	}

	frameCount := len(payload) / ymLegacyRegs
	if frameCount == 0 {
		return nil, fmt.Errorf("ym: %w: no register frames", ErrMalformedFile)
	}
	if frameCount > ymMaxFrames {
		return nil, fmt.Errorf("ym: %w: %d frames", ErrTooLarge, frameCount)
	}
	if loopFrame >= frameCount {
		loopFrame = 0
	}

	frames := allocFrames(frameCount)
	deinterleaveFrames(frames, payload, ymLegacyRegs)
	for _, frame := range frames {
		frame[PSG_REG_EFFECT_1] = 0
		frame[PSG_REG_EFFECT_2] = 0
	}

	return &YMFile{
		Format:      format,
		FrameCount:  frameCount,
		FrameRate:   ymLegacyRate,
		MasterClock: ymLegacyClock,
		LoopFrame:   loopFrame,
		Frames:      frames,
	}, nil
}

// parseExtendedYM decodes the full YM5/YM6 layout: 34-byte big-endian
// header, extra data, digidrum table, three metadata strings, frame data
// and the optional "End!" trailer.
func parseExtendedYM(data []byte, format YMFormat) (*YMFile, error) {
	if len(data) < 34 {
		return nil, fmt.Errorf("ym: %w: header truncated", ErrMalformedFile)
	}
	if string(data[4:12]) != ymSignature {
		return nil, fmt.Errorf("ym: %w: missing %q signature", ErrMalformedFile, ymSignature)
	}

	frameCount := int(binary.BigEndian.Uint32(data[12:16]))
	attrs := binary.BigEndian.Uint32(data[16:20])
	drumCount := int(binary.BigEndian.Uint16(data[20:22]))
	clock := binary.BigEndian.Uint32(data[22:26])
	frameRate := int(binary.BigEndian.Uint16(data[26:28]))
	loopFrame := int(binary.BigEndian.Uint32(data[28:32]))
	extraSize := int(binary.BigEndian.Uint16(data[32:34]))

	if frameCount <= 0 {
		return nil, fmt.Errorf("ym: %w: frame count %d", ErrMalformedFile, frameCount)
	}
	if frameCount > ymMaxFrames {
		return nil, fmt.Errorf("ym: %w: %d frames", ErrTooLarge, frameCount)
	}
	if frameRate == 0 {
		frameRate = ymLegacyRate
	}
	if clock == 0 {
		clock = ymLegacyClock
	}

	off := 34 + extraSize
	if off > len(data) {
		return nil, fmt.Errorf("ym: %w: extra data reaches past EOF", ErrMalformedFile)
	}

	drums := make([][]uint8, 0, drumCount)
	for i := 0; i < drumCount; i++ {
		if off+4 > len(data) {
			return nil, fmt.Errorf("ym: %w: digidrum %d size truncated", ErrMalformedFile, i)
		}
		size := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+size > len(data) {
			return nil, fmt.Errorf("ym: %w: digidrum %d data truncated", ErrMalformedFile, i)
		}
		sample := make([]uint8, size)
		copy(sample, data[off:off+size])
		off += size
		if attrs&YM_ATTR_DRUM_4BIT != 0 {
			for j, b := range sample {
				sample[j] = psgDrum4BitTable[b&0x0F]
			}
		}
		drums = append(drums, sample)
	}

	songName, off := parseNullTerminatedString(data, off)
	author, off := parseNullTerminatedString(data, off)
	comment, off := parseNullTerminatedString(data, off)

	frameBytes := frameCount * PSG_REG_COUNT
	if off+frameBytes > len(data) {
		return nil, fmt.Errorf("ym: %w: register data truncated", ErrMalformedFile)
	}
	payload := data[off : off+frameBytes]
	off += frameBytes

	frames := allocFrames(frameCount)
	if attrs&YM_ATTR_INTERLEAVED != 0 {
		deinterleaveFrames(frames, payload, PSG_REG_COUNT)
	} else {
		for i := range frames {
			copy(frames[i], payload[i*PSG_REG_COUNT:(i+1)*PSG_REG_COUNT])
		}
	}

	if off+4 <= len(data) && string(data[off:off+4]) != ymEndMarker && ymDebugEnabled {
		fmt.Printf("ym: warning: trailer is %q, expected %q\n", data[off:off+4], ymEndMarker)
	}

	if loopFrame >= frameCount {
		loopFrame = 0
	}

	if ymDebugEnabled {
		fmt.Printf("ym: %s frames=%d attrs=0x%X drums=%d clock=%d rate=%d loop=%d title=%q author=%q\n",
			format, frameCount, attrs, drumCount, clock, frameRate, loopFrame, songName, author)
	}

	return &YMFile{
		Format:      format,
		FrameCount:  frameCount,
		FrameRate:   frameRate,
		MasterClock: clock,
		LoopFrame:   loopFrame,
		Attributes:  attrs,
		SongName:    songName,
		Author:      author,
		Comment:     comment,
		DigiDrums:   drums,
		Frames:      frames,
	}, nil
}

// allocFrames carves frameCount 16-byte frames out of one contiguous buffer.
func allocFrames(frameCount int) [][]uint8 {
	buffer := make([]uint8, frameCount*PSG_REG_COUNT)
	frames := make([][]uint8, frameCount)
	for i := range frames {
		start := i * PSG_REG_COUNT
		frames[i] = buffer[start : start+PSG_REG_COUNT : start+PSG_REG_COUNT]
	}
	return frames
}

// deinterleaveFrames rebuilds per-frame register images from the
// register-major layout (all R0 bytes, then all R1 bytes, ...).
func deinterleaveFrames(frames [][]uint8, payload []byte, regCount int) {
	frameCount := len(frames)
	for reg := 0; reg < regCount; reg++ {
		base := reg * frameCount
		for frame := 0; frame < frameCount; frame++ {
			frames[frame][reg] = payload[base+frame]
		}
	}
}

// SerialiseYM writes a YMFile back out in its own format tag with the
// frames stored sequentially and drums stored expanded. Parsing the result
// yields frame-for-frame identical register content.
func SerialiseYM(file *YMFile) []byte {
	tag := "YM5!"
	if file.Format == YM_FORMAT_6 {
		tag = "YM6!"
	}

	attrs := file.Attributes &^ uint32(YM_ATTR_INTERLEAVED|YM_ATTR_DRUM_4BIT)

	out := make([]byte, 0, 34+len(file.Frames)*PSG_REG_COUNT)
	out = append(out, tag...)
	out = append(out, ymSignature...)
	out = binary.BigEndian.AppendUint32(out, uint32(file.FrameCount))
	out = binary.BigEndian.AppendUint32(out, attrs)
	out = binary.BigEndian.AppendUint16(out, uint16(len(file.DigiDrums)))
	out = binary.BigEndian.AppendUint32(out, file.MasterClock)
	out = binary.BigEndian.AppendUint16(out, uint16(file.FrameRate))
	out = binary.BigEndian.AppendUint32(out, uint32(file.LoopFrame))
	out = binary.BigEndian.AppendUint16(out, 0) // no extra data

	for _, drum := range file.DigiDrums {
		out = binary.BigEndian.AppendUint32(out, uint32(len(drum)))
		out = append(out, drum...)
	}

	out = append(out, file.SongName...)
	out = append(out, 0)
	out = append(out, file.Author...)
	out = append(out, 0)
	out = append(out, file.Comment...)
	out = append(out, 0)

	for _, frame := range file.Frames {
		out = append(out, frame...)
	}
	out = append(out, ymEndMarker...)
	return out
}

func isYMExtension(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".ym"
}
