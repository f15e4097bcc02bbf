package voice

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Silent is the terminal state: a WAV of silence whose length estimates how
// long the text would take to read aloud.
type Silent struct {
	secondsPerChar float64
	sampleRate     int
}

// NewSilent builds the silent fallback.
func NewSilent(secondsPerChar float64, sampleRate int) *Silent {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Silent{secondsPerChar: secondsPerChar, sampleRate: sampleRate}
}

// Duration returns the silence length for text: characters × seconds per
// character, never less than one sample.
func (s *Silent) Duration(text string) time.Duration {
	samples := s.samples(text)
	return time.Duration(float64(samples) / float64(s.sampleRate) * float64(time.Second))
}

func (s *Silent) samples(text string) int {
	seconds := float64(len([]rune(text))) * s.secondsPerChar
	return max(1, int(math.Round(seconds*float64(s.sampleRate))))
}

// Write produces the silence at path, with a .wav extension, and returns the
// path written. Nothing is written anywhere else when path is unusable.
func (s *Silent) Write(text, path string) (string, error) {
	path = wavPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create narration dir: %w", err)
	}
	if err := WriteSilence(path, s.samples(text), s.sampleRate); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
