package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mangarecap/internal/config"
	"mangarecap/internal/deps"
	"mangarecap/internal/language"
	"mangarecap/internal/logging"
	"mangarecap/internal/media/ffprobe"
)

// Asset is a synthesized narration file tagged with the state that made it.
type Asset struct {
	// Path is empty when not even the silent file could be written.
	Path     string
	Engine   State
	Duration time.Duration
}

// Synthesizer runs the engine cascade.
type Synthesizer struct {
	engines map[State]Engine
	silent  *Silent
	timeout time.Duration
	logger  *slog.Logger
	measure func(ctx context.Context, path string) (time.Duration, error)
}

// New builds the cascade from the [voice] section. lang is the OCR language
// selection and steers voice choice for the system and espeak engines.
func New(cfg *config.Config, lang string, logger *slog.Logger) *Synthesizer {
	prober := deps.Default()
	primary := language.Primary(lang)
	v := cfg.Voice
	probeBinary := cfg.Encoding.FFprobeBinary
	probeTimeout := config.Timeout(cfg.Timeouts.Probe)

	s := newSynthesizer(
		[]Engine{
			NewPiper(v.PiperBinary, v.PiperModels, prober),
			NewSystem(v.SystemBinary, primary, v.RateWPM, v.SampleRate, prober),
			NewEspeak(v.EspeakBinaries, language.EspeakVoice(primary), v.RateWPM, prober),
		},
		NewSilent(v.SecondsPerChar, v.SampleRate),
		config.Timeout(cfg.Timeouts.Voice),
		logger,
	)
	s.measure = func(ctx context.Context, path string) (time.Duration, error) {
		return measureDuration(ctx, probeBinary, probeTimeout, path)
	}
	return s
}

func newSynthesizer(engines []Engine, silent *Silent, timeout time.Duration, logger *slog.Logger) *Synthesizer {
	byState := make(map[State]Engine, len(engines))
	for _, e := range engines {
		byState[e.State()] = e
	}
	return &Synthesizer{
		engines: byState,
		silent:  silent,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "voice"),
		measure: func(_ context.Context, path string) (time.Duration, error) { return WAVDuration(path) },
	}
}

// Synthesize speaks text into path, starting the cascade at preferred. It
// never fails: every engine error is logged and the next state is tried,
// ending at silence. A cancelled ctx skips straight to silence.
func (s *Synthesizer) Synthesize(ctx context.Context, text, path string, preferred State) Asset {
	state := preferred
	if _, ok := ParseState(string(state)); !ok {
		state = StateSystem
	}

	for state != StateSilent {
		if ctx.Err() != nil {
			break
		}
		engine, ok := s.engines[state]
		if !ok {
			state = state.Next()
			continue
		}
		logger := s.logger.With(logging.String(logging.FieldEngine, state.String()))
		if err := engine.Available(); err != nil {
			logger.Info("speech engine unavailable",
				logging.String("next", state.Next().String()),
				logging.String("reason", err.Error()),
			)
			state = state.Next()
			continue
		}

		asset, err := s.attempt(ctx, engine, text, path)
		if err == nil {
			logger.Info("narration synthesized",
				logging.String("path", asset.Path),
				logging.Duration("duration", asset.Duration),
			)
			return asset
		}
		logging.WarnDegraded(logger, "speech engine failed", "falling back to "+state.Next().String(), err)
		state = state.Next()
	}

	return s.writeSilence(text, path)
}

func (s *Synthesizer) attempt(ctx context.Context, engine Engine, text, path string) (Asset, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	written, err := engine.Synthesize(callCtx, text, path)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Asset{}, fmt.Errorf("timed out after %s: %w", s.timeout, err)
		}
		return Asset{}, err
	}
	info, err := os.Stat(written)
	if err != nil {
		return Asset{}, fmt.Errorf("engine reported success but wrote nothing: %w", err)
	}
	if info.Size() == 0 {
		return Asset{}, errors.New("engine wrote an empty file")
	}
	duration, err := s.measure(ctx, written)
	if err != nil || duration <= 0 {
		return Asset{}, fmt.Errorf("unreadable audio from %s: %v", engine.State(), err)
	}
	s.logger.Debug("engine finished", logging.Duration("elapsed", time.Since(started)))
	return Asset{Path: written, Engine: engine.State(), Duration: duration}, nil
}

func (s *Synthesizer) writeSilence(text, path string) Asset {
	asset := Asset{Engine: StateSilent, Duration: s.silent.Duration(text)}
	written, err := s.silent.Write(text, path)
	if err != nil {
		s.logger.Error("silent narration could not be written",
			logging.String(logging.FieldEngine, StateSilent.String()),
			logging.Error(err),
		)
		return asset
	}
	asset.Path = written
	s.logger.Info("narration synthesized",
		logging.String(logging.FieldEngine, StateSilent.String()),
		logging.String("path", asset.Path),
		logging.Duration("duration", asset.Duration),
	)
	return asset
}

// measureDuration prefers the WAV header and asks ffprobe only for files it
// cannot parse.
func measureDuration(ctx context.Context, ffprobeBinary string, timeout time.Duration, path string) (time.Duration, error) {
	if d, err := WAVDuration(path); err == nil && d > 0 {
		return d, nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return 0, err
	}
	seconds := result.DurationSeconds()
	if seconds <= 0 {
		return 0, errors.New("ffprobe reported no duration")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
