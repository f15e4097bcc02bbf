package voice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mangarecap/internal/config"
	"mangarecap/internal/deps"
)

// Piper drives the piper neural TTS binary with an ONNX voice model.
type Piper struct {
	binary string
	models []string
	prober *deps.Prober
	run    commandRunner
}

// NewPiper builds the piper engine. models is searched in order.
func NewPiper(binary string, models []string, prober *deps.Prober) *Piper {
	return &Piper{binary: binary, models: models, prober: prober, run: defaultCommandRunner}
}

func (p *Piper) State() State { return StatePiper }

func (p *Piper) Available() error {
	if _, err := p.prober.LookPath(p.binary); err != nil {
		return err
	}
	_, err := p.model()
	return err
}

// model returns the first voice model file that exists.
func (p *Piper) model() (string, error) {
	for _, candidate := range p.models {
		path, err := config.ExpandPath(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.New("no piper voice model found")
}

func (p *Piper) Synthesize(ctx context.Context, text, path string) (string, error) {
	bin, err := p.prober.LookPath(p.binary)
	if err != nil {
		return "", err
	}
	model, err := p.model()
	if err != nil {
		return "", err
	}
	if _, err := p.run(ctx, text, bin, "--model", model, "--output_file", path); err != nil {
		return "", fmt.Errorf("piper: %w", err)
	}
	return path, nil
}
