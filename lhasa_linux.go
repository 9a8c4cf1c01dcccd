//go:build linux && !headless

// lhasa_linux.go - LHA extraction through system liblhasa (Linux only).

package main

/*
#cgo pkg-config: liblhasa
#include <stdlib.h>
#include <lhasa.h>

static unsigned char* lha_extract_first(const char* path, size_t* out_len) {
	unsigned char* buffer = NULL;
	size_t total = 0;

	LHAInputStream* stream = lha_input_stream_from((char*)path);
	if (stream == NULL) {
		return NULL;
	}
	LHAReader* reader = lha_reader_new(stream);
	if (reader == NULL) {
		lha_input_stream_free(stream);
		return NULL;
	}

	LHAFileHeader* header = lha_reader_next_file(reader);
	if (header != NULL && header->length > 0) {
		size_t length = (size_t) header->length;
		buffer = (unsigned char*) malloc(length);
		if (buffer != NULL) {
			while (total < length) {
				size_t n = lha_reader_read(reader, buffer + total, length - total);
				if (n == 0) {
					break;
				}
				total += n;
			}
			if (total == 0) {
				free(buffer);
				buffer = NULL;
			}
		}
	}

	lha_reader_free(reader);
	lha_input_stream_free(stream);

	*out_len = total;
	return buffer;
}
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

// DecompressLHAFile extracts the first archive member. YM files in the wild
// are almost always LHA archives wrapped around the raw register stream.
func DecompressLHAFile(path string) ([]byte, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var outLen C.size_t
	buffer := C.lha_extract_first(cPath, &outLen)
	if buffer == nil || outLen == 0 {
		return nil, fmt.Errorf("lha: no extractable member in %s", path)
	}
	defer C.free(unsafe.Pointer(buffer))

	return C.GoBytes(unsafe.Pointer(buffer), C.int(outLen)), nil
}

// DecompressLHAData routes in-memory bytes through a temp file; liblhasa
// only reads from paths.
func DecompressLHAData(data []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "chipstream-*.lha")
	if err != nil {
		return nil, fmt.Errorf("lha: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("lha: temp write: %w", err)
	}
	tmp.Close()

	return DecompressLHAFile(tmpPath)
}
