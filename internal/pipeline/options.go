package pipeline

import (
	"strings"
	"time"

	"mangarecap/internal/config"
	"mangarecap/internal/voice"
)

// Options describes one run. Zero values fall back to the [render] and
// [voice] configuration.
type Options struct {
	Input         string
	Output        string
	Title         string
	MaxPages      int
	SceneDuration time.Duration
	Engine        voice.State
	// ShowProgress renders a progress bar while clips are encoded.
	ShowProgress bool
}

func (o Options) withDefaults(cfg *config.Config) Options {
	if strings.TrimSpace(o.Title) == "" {
		o.Title = cfg.Render.Title
	}
	if o.MaxPages <= 0 {
		o.MaxPages = cfg.Render.MaxPages
	}
	if o.SceneDuration <= 0 {
		o.SceneDuration = seconds(cfg.Render.SceneDuration)
	}
	if o.Engine == "" {
		if state, ok := voice.ParseState(cfg.Voice.Engine); ok {
			o.Engine = state
		} else {
			o.Engine = voice.StateSystem
		}
	}
	return o
}

// Summary reports what a finished run produced.
type Summary struct {
	RunID  string
	Output string

	Pages         int
	PagesDegraded int
	Panels        int
	PanelsRead    int

	ScriptChars int
	Engine      voice.State
	Narration   time.Duration

	Scenes        int
	ScenesSkipped int
	Video         time.Duration
	Silent        bool
	OutputBytes   int64

	Elapsed time.Duration
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
