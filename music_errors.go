// music_errors.go - Typed errors shared by the format parsers and drivers.

package main

import "errors"

var (
	// ErrInvalidMagic is returned when a file fails format detection.
	ErrInvalidMagic = errors.New("invalid magic")

	// ErrMalformedFile is returned on unexpected field values or truncation.
	ErrMalformedFile = errors.New("malformed file")

	// ErrTooLarge is returned when a file exceeds the sanity caps
	// (100 000 register frames, 2 KiB per pattern stream).
	ErrTooLarge = errors.New("file exceeds size limits")

	// ErrUnsupportedVersion is returned for recognised but unplayable versions.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrAudioUnavailable is returned when no audio backend can be opened.
	ErrAudioUnavailable = errors.New("audio unavailable")

	// ErrNoFileLoaded is returned by Play without a prior successful Load.
	ErrNoFileLoaded = errors.New("no file loaded")
)
