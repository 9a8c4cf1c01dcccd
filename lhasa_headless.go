//go:build headless

// lhasa_headless.go - LHA stubs for headless builds.

package main

import "fmt"

func DecompressLHAFile(path string) ([]byte, error) {
	return nil, fmt.Errorf("lha: extraction unavailable in headless builds")
}

func DecompressLHAData(data []byte) ([]byte, error) {
	return nil, fmt.Errorf("lha: extraction unavailable in headless builds")
}
