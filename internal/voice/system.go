package voice

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"mangarecap/internal/deps"
	"mangarecap/internal/language"
)

// System drives the host speech command (macOS `say`).
type System struct {
	binary     string
	lang       string
	rateWPM    int
	sampleRate int
	prober     *deps.Prober
	run        commandRunner

	voiceOnce sync.Once
	voice     string
}

// NewSystem builds the host speech engine. lang is the OCR language used to
// pick a matching installed voice.
func NewSystem(binary, lang string, rateWPM, sampleRate int, prober *deps.Prober) *System {
	return &System{
		binary:     binary,
		lang:       lang,
		rateWPM:    rateWPM,
		sampleRate: sampleRate,
		prober:     prober,
		run:        defaultCommandRunner,
	}
}

func (s *System) State() State { return StateSystem }

func (s *System) Available() error {
	_, err := s.prober.LookPath(s.binary)
	return err
}

func (s *System) Synthesize(ctx context.Context, text, path string) (string, error) {
	bin, err := s.prober.LookPath(s.binary)
	if err != nil {
		return "", err
	}
	s.voiceOnce.Do(func() {
		listing, err := s.run(ctx, "", bin, "-v", "?")
		if err == nil {
			s.voice = PickVoice(string(listing), s.lang)
		}
	})

	args := []string{"-o", path, "--file-format=WAVE", "--data-format=LEI16@" + strconv.Itoa(s.sampleRate), "-f", "-"}
	if s.rateWPM > 0 {
		args = append([]string{"-r", strconv.Itoa(s.rateWPM)}, args...)
	}
	if s.voice != "" {
		args = append([]string{"-v", s.voice}, args...)
	}
	if _, err := s.run(ctx, text, bin, args...); err != nil {
		return "", fmt.Errorf("system speech: %w", err)
	}
	return path, nil
}

// voiceLine matches one `say -v ?` entry: name, locale, then a # sample.
var voiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9_-]+)\s+#`)

// PickVoice returns the first listed voice whose locale or name hints at
// lang, or "" to keep the engine default.
func PickVoice(listing, lang string) string {
	hints := language.VoiceHints(lang)
	if len(hints) == 0 {
		return ""
	}
	for _, line := range strings.Split(listing, "\n") {
		m := voiceLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name, locale := strings.TrimSpace(m[1]), strings.ToLower(m[2])
		for _, hint := range hints {
			if strings.HasPrefix(locale, hint) || strings.Contains(strings.ToLower(name), hint) {
				return name
			}
		}
	}
	return ""
}
