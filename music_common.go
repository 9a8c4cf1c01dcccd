// music_common.go - Shared utilities for music parsers and players.

package main

import (
	"fmt"
	"math"
	"strings"
)

// parseNullTerminatedString extracts a string up to the first null byte.
// Returns the string and the new offset (after the null terminator).
func parseNullTerminatedString(data []byte, offset int) (string, int) {
	start := offset
	for offset < len(data) && data[offset] != 0 {
		offset++
	}
	end := offset
	if offset < len(data) {
		offset++ // Skip null terminator
	}
	if end <= start {
		return "", offset
	}
	return string(data[start:end]), offset
}

// parsePaddedString extracts a string from a fixed-size field, trimming
// trailing null bytes and spaces. PT3 title/author fields use this layout.
func parsePaddedString(data []byte) string {
	end := len(data)
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	return strings.TrimRight(string(data[:end]), " ")
}

// isLHAData checks for the "-lh?-" compression method id an LHA archive
// carries at offset 2.
func isLHAData(data []byte) bool {
	return len(data) >= 7 && data[2] == '-' && data[3] == 'l' && data[6] == '-'
}

// MusicMetadata contains common metadata fields across both formats.
type MusicMetadata struct {
	Title    string
	Author   string
	System   string // "Atari ST", "ZX Spectrum"
	Comment  string
	Duration float64
}

// formatDuration renders seconds as "m:ss" for display.
func formatDuration(secs float64) string {
	if secs <= 0 {
		return ""
	}
	total := int(math.Round(secs))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
