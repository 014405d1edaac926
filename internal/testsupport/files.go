package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteWAV writes a silent mono 16 kHz 16-bit PCM WAV of the given duration
// to path and fails the test on error.
func WriteWAV(t testing.TB, path string, durationMS int64) {
	t.Helper()
	const (
		sampleRate    = 16000
		channels      = 1
		bitsPerSample = 16
	)
	samples := int(durationMS) * sampleRate / 1000
	dataSize := uint32(samples * channels * bitsPerSample / 8)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("encode wav fixture: %v", err)
		}
	}
	write(uint32(36 + dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(channels))
	write(uint32(sampleRate))
	write(uint32(sampleRate * channels * bitsPerSample / 8))
	write(uint16(channels * bitsPerSample / 8))
	write(uint16(bitsPerSample))
	buf.WriteString("data")
	write(dataSize)
	buf.Write(make([]byte, dataSize))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}
}

// WriteFile writes arbitrary content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
