package voice

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"mangarecap/internal/config"
	"mangarecap/internal/logging"
	"mangarecap/internal/testsupport"
)

type fakeEngine struct {
	state       State
	unavailable error
	fail        error
	calls       *[]State
}

func (f fakeEngine) State() State { return f.state }

func (f fakeEngine) Available() error { return f.unavailable }

func (f fakeEngine) Synthesize(_ context.Context, text, path string) (string, error) {
	*f.calls = append(*f.calls, f.state)
	if f.fail != nil {
		return "", f.fail
	}
	return path, WriteSilence(path, 22050, 22050)
}

func TestStateCascade(t *testing.T) {
	order := []State{StatePiper}
	for s := StatePiper; s != StateSilent; s = s.Next() {
		order = append(order, s.Next())
	}
	want := []State{StatePiper, StateSystem, StateEspeak, StateSilent}
	if len(order) != len(want) {
		t.Fatalf("cascade = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("cascade = %v, want %v", order, want)
		}
	}
	if StateSilent.Next() != StateSilent {
		t.Fatal("silent must be terminal")
	}
}

func TestParseState(t *testing.T) {
	tests := map[string]State{"piper": StatePiper, "System": StateSystem, "pyttsx3": StateSystem, "espeak-ng": StateEspeak}
	for input, want := range tests {
		if got, ok := ParseState(input); !ok || got != want {
			t.Errorf("ParseState(%q) = %q,%v want %q", input, got, ok, want)
		}
	}
	if _, ok := ParseState("silent"); ok {
		t.Fatal("silent must not be selectable")
	}
}

func TestSynthesizeFallsToSilenceWhenNothingInstalled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := New(cfg, "eng", logging.NewNop())
	text := strings.Repeat("a", 200)
	path := filepath.Join(t.TempDir(), "narration.wav")

	asset := s.Synthesize(context.Background(), text, path, StatePiper)
	if asset.Engine != StateSilent {
		t.Fatalf("expected silent engine, got %s", asset.Engine)
	}
	if asset.Duration != 10*time.Second {
		t.Fatalf("duration = %s, want 10s", asset.Duration)
	}
	got, err := WAVDuration(asset.Path)
	if err != nil {
		t.Fatalf("WAVDuration: %v", err)
	}
	if math.Abs(got.Seconds()-10) > 0.001 {
		t.Fatalf("file duration = %s, want ~10s", got)
	}
}

func TestSynthesizeEmptyTextStillWritesFile(t *testing.T) {
	s := New(testsupport.NewConfig(t), "eng", nil)
	asset := s.Synthesize(context.Background(), "", filepath.Join(t.TempDir(), "n.wav"), StateSystem)
	if _, err := os.Stat(asset.Path); err != nil {
		t.Fatalf("expected a file: %v", err)
	}
	got, err := WAVDuration(asset.Path)
	if err != nil {
		t.Fatalf("WAVDuration: %v", err)
	}
	if want := time.Second / 44100; got != want {
		t.Fatalf("file duration = %s, want one sample (%s)", got, want)
	}
}

func TestWriteSilenceDecodesToZeroSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet.wav")
	if err := WriteSilence(path, 40000, 22050); err != nil {
		t.Fatalf("WriteSilence: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if dec.SampleRate != 22050 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Fatalf("unexpected format rate=%d chans=%d depth=%d", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != 40000 {
		t.Fatalf("samples = %d, want 40000", len(buf.Data))
	}
	for i, v := range buf.Data {
		if v != 0 {
			t.Fatalf("sample %d = %d, want silence", i, v)
		}
	}
}

func TestSynthesizeStartsAtPreferredState(t *testing.T) {
	var calls []State
	s := newSynthesizer([]Engine{
		fakeEngine{state: StatePiper, calls: &calls},
		fakeEngine{state: StateSystem, calls: &calls},
		fakeEngine{state: StateEspeak, calls: &calls},
	}, NewSilent(0.05, 22050), 0, nil)

	asset := s.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "n.wav"), StateEspeak)
	if asset.Engine != StateEspeak || len(calls) != 1 || calls[0] != StateEspeak {
		t.Fatalf("expected only espeak, got engine %s calls %v", asset.Engine, calls)
	}
	if asset.Duration != time.Second {
		t.Fatalf("duration = %s, want 1s", asset.Duration)
	}
}

func TestSynthesizeWalksCascadeOnFailure(t *testing.T) {
	var calls []State
	s := newSynthesizer([]Engine{
		fakeEngine{state: StatePiper, fail: errors.New("model crashed"), calls: &calls},
		fakeEngine{state: StateSystem, unavailable: errors.New("not installed"), calls: &calls},
		fakeEngine{state: StateEspeak, calls: &calls},
	}, NewSilent(0.05, 22050), 0, nil)

	asset := s.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "n.wav"), StatePiper)
	if asset.Engine != StateEspeak {
		t.Fatalf("expected espeak, got %s", asset.Engine)
	}
	if len(calls) != 2 || calls[0] != StatePiper || calls[1] != StateEspeak {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestSynthesizeCancelledContextGoesSilent(t *testing.T) {
	var calls []State
	s := newSynthesizer([]Engine{fakeEngine{state: StatePiper, calls: &calls}}, NewSilent(0.05, 22050), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	asset := s.Synthesize(ctx, "hi", filepath.Join(t.TempDir(), "n.wav"), StatePiper)
	if asset.Engine != StateSilent || len(calls) != 0 {
		t.Fatalf("expected silence without engine calls, got %s %v", asset.Engine, calls)
	}
}

func TestEspeakStubRewritesExtension(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "fixture.wav")
	if err := WriteSilence(fixture, 44100, 22050); err != nil {
		t.Fatal(err)
	}
	script := `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-w" ]; then out="$2"; fi
  shift
done
cat > /dev/null
cp "` + fixture + `" "$out"`
	cfg := testsupport.NewConfig(t, testsupport.WithStubBinary("espeak-ng", script, func(cfg *config.Config, path string) {
		cfg.Voice.EspeakBinaries = []string{path}
	}))

	s := New(cfg, "eng", nil)
	asset := s.Synthesize(context.Background(), "hello there", filepath.Join(t.TempDir(), "narration.mp3"), StateEspeak)
	if asset.Engine != StateEspeak {
		t.Fatalf("expected espeak, got %s", asset.Engine)
	}
	if filepath.Ext(asset.Path) != ".wav" {
		t.Fatalf("expected .wav output, got %s", asset.Path)
	}
	if asset.Duration != 2*time.Second {
		t.Fatalf("duration = %s, want 2s", asset.Duration)
	}
}

func TestPiperStubFailureFallsThrough(t *testing.T) {
	model := filepath.Join(t.TempDir(), "voice.onnx")
	testsupport.WriteFile(t, model, []byte("onnx"))
	cfg := testsupport.NewConfig(t, testsupport.WithStubBinary("piper", "cat > /dev/null\nexit 3", func(cfg *config.Config, path string) {
		cfg.Voice.PiperBinary = path
		cfg.Voice.PiperModels = []string{filepath.Join(filepath.Dir(path), "missing.onnx"), model}
	}))
	asset := New(cfg, "eng", nil).Synthesize(context.Background(), "hi", filepath.Join(t.TempDir(), "n.wav"), StatePiper)
	if asset.Engine != StateSilent {
		t.Fatalf("expected silent after piper failure, got %s", asset.Engine)
	}
}

func TestEngineTimeoutFallsThrough(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubBinary("espeak-ng", "exec sleep 10", func(cfg *config.Config, path string) {
		cfg.Voice.EspeakBinaries = []string{path}
	}))
	cfg.Timeouts.Voice = 1
	started := time.Now()
	asset := New(cfg, "eng", nil).Synthesize(context.Background(), "hi", filepath.Join(t.TempDir(), "n.wav"), StateEspeak)
	if asset.Engine != StateSilent {
		t.Fatalf("expected silent after timeout, got %s", asset.Engine)
	}
	if elapsed := time.Since(started); elapsed > 8*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestPickVoice(t *testing.T) {
	listing := `Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Kyoko               ja_JP    # こんにちは、私の名前はKyokoです。
Thomas              fr_FR    # Bonjour, je m’appelle Thomas.`
	tests := map[string]string{
		"eng": "Alex",
		"jpn": "Kyoko",
		"fra": "Thomas",
		"deu": "",
		"xyz": "",
	}
	for lang, want := range tests {
		if got := PickVoice(listing, lang); got != want {
			t.Errorf("PickVoice(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestSilentWriteFailsWithoutFallback(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	blocker := filepath.Join(tmp, "blocker")
	testsupport.WriteFile(t, blocker, []byte("file, not dir"))

	written, err := NewSilent(0.05, 22050).Write("hello", filepath.Join(blocker, "run", "n.wav"))
	if err == nil || written != "" {
		t.Fatalf("expected an error and no path, got %q, %v", written, err)
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("nothing but the blocker should exist, found %d entries", len(entries))
	}

	s := newSynthesizer(nil, NewSilent(0.05, 22050), 0, nil)
	asset := s.Synthesize(context.Background(), "abcd", filepath.Join(blocker, "n.wav"), StateSilent)
	if asset.Path != "" || asset.Engine != StateSilent || asset.Duration != 200*time.Millisecond {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestWAVDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	testsupport.WriteFile(t, path, []byte("definitely not audio"))
	if _, err := WAVDuration(path); err == nil {
		t.Fatal("expected error for non-WAV file")
	}
}
