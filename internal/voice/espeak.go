package voice

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mangarecap/internal/deps"
)

// Espeak drives espeak-ng or its predecessor espeak.
type Espeak struct {
	binaries []string
	voice    string
	rateWPM  int
	prober   *deps.Prober
	run      commandRunner
}

// NewEspeak builds the espeak engine; binaries are tried in order.
func NewEspeak(binaries []string, voice string, rateWPM int, prober *deps.Prober) *Espeak {
	return &Espeak{binaries: binaries, voice: voice, rateWPM: rateWPM, prober: prober, run: defaultCommandRunner}
}

func (e *Espeak) State() State { return StateEspeak }

func (e *Espeak) Available() error {
	_, err := e.prober.First(e.binaries...)
	return err
}

// Synthesize writes a WAV; a path with another extension is rewritten.
func (e *Espeak) Synthesize(ctx context.Context, text, path string) (string, error) {
	bin, err := e.prober.First(e.binaries...)
	if err != nil {
		return "", err
	}
	path = wavPath(path)
	if _, err := e.run(ctx, text, bin, "-v", e.voice, "-s", strconv.Itoa(e.rateWPM), "-w", path, "--stdin"); err != nil {
		return "", fmt.Errorf("espeak: %w", err)
	}
	return path, nil
}

func wavPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
}
