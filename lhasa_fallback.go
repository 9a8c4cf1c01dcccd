//go:build !linux && !headless

// lhasa_fallback.go - Stubs for platforms without liblhasa.

package main

import "fmt"

func DecompressLHAFile(path string) ([]byte, error) {
	return nil, fmt.Errorf("lha: extraction needs Linux with liblhasa installed")
}

func DecompressLHAData(data []byte) ([]byte, error) {
	return nil, fmt.Errorf("lha: extraction needs Linux with liblhasa installed")
}
