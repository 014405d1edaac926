package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavInfo describes the format chunk of a PCM WAV file.
type wavInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataBytes     int64
}

// DurationMS computes the audio duration from the data chunk size.
func (w wavInfo) DurationMS() int64 {
	bytesPerSecond := int64(w.SampleRate) * int64(w.Channels) * int64(w.BitsPerSample) / 8
	if bytesPerSecond <= 0 {
		return 0
	}
	return w.DataBytes * 1000 / bytesPerSecond
}

// readWAVInfo parses the RIFF/WAVE header of the file at path, walking chunks
// until both the fmt and data chunks are seen.
func readWAVInfo(path string) (wavInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return wavInfo{}, err
	}
	defer file.Close()

	var riff [12]byte
	if _, err := io.ReadFull(file, riff[:]); err != nil {
		return wavInfo{}, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavInfo{}, fmt.Errorf("not a wav file")
	}

	var info wavInfo
	haveFmt := false
	haveData := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(file, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return wavInfo{}, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(file, fmtChunk[:]); err != nil {
				return wavInfo{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.Channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			haveFmt = true
			if size > 16 {
				if _, err := file.Seek(int64(size)-16, io.SeekCurrent); err != nil {
					return wavInfo{}, err
				}
			}
		case "data":
			info.DataBytes = int64(size)
			haveData = true
			if haveFmt {
				return info, nil
			}
			if _, err := file.Seek(int64(size), io.SeekCurrent); err != nil {
				return wavInfo{}, err
			}
		default:
			if _, err := file.Seek(int64(size), io.SeekCurrent); err != nil {
				return wavInfo{}, err
			}
		}
		// Chunks are word aligned.
		if size%2 == 1 {
			if _, err := file.Seek(1, io.SeekCurrent); err != nil {
				return wavInfo{}, err
			}
		}
	}
	// An empty data chunk is a valid zero-duration file, not a malformed one.
	if !haveFmt || !haveData {
		return wavInfo{}, fmt.Errorf("wav file missing fmt or data chunk")
	}
	return info, nil
}
