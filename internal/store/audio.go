// internal/store/audio.go
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WAV parameters for the capture device: 16 kHz, mono, 16-bit PCM.
const (
	sampleRate    = 16000
	numChannels   = 1
	bitsPerSample = 16
)

// AudioStore persists raw PCM uploads as timestamped WAV files. Filenames
// encode the capture instant (audio_YYYYMMDD_HHMMSS.wav) so the analysis
// service can recover it later.
type AudioStore struct {
	dir string
}

// NewAudioStore creates an AudioStore rooted at the given directory.
func NewAudioStore(dir string) *AudioStore {
	return &AudioStore{dir: dir}
}

// Save wraps the raw PCM data in a WAV header and writes it atomically.
// Returns the generated filename.
func (s *AudioStore) Save(pcm []byte, now time.Time) (string, error) {
	if len(pcm) == 0 {
		return "", fmt.Errorf("no audio data")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	filename := "audio_" + now.Format("20060102_150405") + ".wav"
	target := filepath.Join(s.dir, filename)

	content := make([]byte, 0, 44+len(pcm))
	content = append(content, wavHeader(len(pcm))...)
	content = append(content, pcm...)

	// Atomic write via temp file + rename
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename temp audio: %w", err)
	}

	return filename, nil
}

// wavHeader builds the canonical 44-byte RIFF/WAVE header for a PCM data
// chunk of the given length.
func wavHeader(dataLen int) []byte {
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(h[22:24], numChannels)
	binary.LittleEndian.PutUint32(h[24:28], sampleRate)
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}
