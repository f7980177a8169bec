package notify

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
)

// The synthesized fallback cue: a short mono 16-bit PCM sine tone, written
// as a WAV file so the regular player path can handle it. No mixing, no
// envelopes; just enough to be audible when every file-based cue failed.

const (
	synthSampleRate = 22050
	synthFreqHz     = 880.0
	synthSeconds    = 0.4
)

func synthToneWAV() []byte {
	n := int(synthSampleRate * synthSeconds)
	data := make([]byte, 0, 44+2*n)

	dataLen := 2 * n
	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)                  // PCM chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)                   // PCM format
	binary.LittleEndian.PutUint16(hdr[22:24], 1)                   // mono
	binary.LittleEndian.PutUint32(hdr[24:28], synthSampleRate)     // sample rate
	binary.LittleEndian.PutUint32(hdr[28:32], synthSampleRate*2)   // byte rate
	binary.LittleEndian.PutUint16(hdr[32:34], 2)                   // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16)                  // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))
	data = append(data, hdr...)

	for i := 0; i < n; i++ {
		v := math.Sin(2 * math.Pi * synthFreqHz * float64(i) / synthSampleRate)
		sample := int16(v * 0.6 * math.MaxInt16)
		data = binary.LittleEndian.AppendUint16(data, uint16(sample))
	}
	return data
}

// writeSynthTone materializes the synthesized tone into dir and returns
// its path. Rewritten each time; the file is tiny.
func writeSynthTone(dir string) (string, error) {
	path := filepath.Join(dir, "enfoque-tone.wav")
	if err := os.WriteFile(path, synthToneWAV(), 0644); err != nil {
		return "", err
	}
	return path, nil
}
