package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mangarecap/internal/config"
	"mangarecap/internal/encoding"
	"mangarecap/internal/logging"
	"mangarecap/internal/panels"
	"mangarecap/internal/services"
	"mangarecap/internal/testsupport"
	"mangarecap/internal/voice"
	"mangarecap/internal/workspace"
)

type fakeRasterizer struct {
	pages   int
	garbage map[int]bool
}

func (f *fakeRasterizer) Name() string     { return "fake" }
func (f *fakeRasterizer) Available() error { return nil }

func (f *fakeRasterizer) Rasterize(_ context.Context, _, outDir string, maxPages int) ([]string, error) {
	n := f.pages
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	var paths []string
	for i := 0; i < n; i++ {
		path := filepath.Join(outDir, fmt.Sprintf("page-%04d.png", i+1))
		if f.garbage[i] {
			if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
				return nil, err
			}
		} else {
			if err := writePage(path); err != nil {
				return nil, err
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePage(path string) error {
	page := testsupport.PanelPage(600, 800, image.Rect(100, 100, 500, 400))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, page)
}

type fakeRecognizer struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool
}

func (f *fakeRecognizer) Name() string     { return "fake" }
func (f *fakeRecognizer) Available() error { return nil }

func (f *fakeRecognizer) Recognize(context.Context, image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	if f.fail[call] {
		return "", services.Wrap(services.ErrTimeout, "ocr", "recognize", "tesseract", nil)
	}
	return fmt.Sprintf("line  %d", call), nil
}

type fakeSynthesizer struct {
	duration time.Duration
	text     string
	engine   voice.State
	noFile   bool
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text, path string, preferred voice.State) voice.Asset {
	f.text = text
	f.engine = preferred
	if f.noFile {
		return voice.Asset{Engine: voice.StateSilent, Duration: f.duration}
	}
	_ = os.WriteFile(path, []byte("RIFF"), 0o644)
	return voice.Asset{Path: path, Engine: preferred, Duration: f.duration}
}

type fakeCompositor struct {
	durations []time.Duration
	failAt    map[int]bool
	audio     string
	encoded   int
	info      *encoding.VideoInfo
}

func (f *fakeCompositor) Available() error { return nil }

func (f *fakeCompositor) EncodeClip(_ context.Context, clip encoding.FrameSource, path string) error {
	call := f.encoded
	f.encoded++
	if f.failAt[call] {
		return services.Wrap(services.ErrExternalTool, "encode", "clip", "ffmpeg failed", nil)
	}
	frame := clip.NewFrame()
	clip.Frame(0, frame)
	clip.Frame(clip.Duration()-time.Millisecond, frame)
	f.durations = append(f.durations, clip.Duration())
	return os.WriteFile(path, []byte("segment"), 0o644)
}

func (f *fakeCompositor) Assemble(_ context.Context, req encoding.AssembleRequest) (encoding.AssembleResult, error) {
	f.audio = req.Audio
	if len(req.Segments) != len(f.durations) {
		return encoding.AssembleResult{}, fmt.Errorf("got %d segments, encoded %d", len(req.Segments), len(f.durations))
	}
	if err := os.WriteFile(req.Output, []byte("video"), 0o644); err != nil {
		return encoding.AssembleResult{}, err
	}
	return encoding.AssembleResult{Output: req.Output}, nil
}

func (f *fakeCompositor) AudioDuration(context.Context, string) (time.Duration, error) {
	return 0, errors.New("no ffprobe")
}

func (f *fakeCompositor) Inspect(context.Context, string) (encoding.VideoInfo, error) {
	if f.info == nil {
		return encoding.VideoInfo{}, errors.New("no ffprobe")
	}
	return *f.info, nil
}

func (f *fakeCompositor) total() time.Duration {
	var sum time.Duration
	for _, d := range f.durations {
		sum += d
	}
	return sum
}

type harness struct {
	cfg    *config.Config
	raster *fakeRasterizer
	ocr    *fakeRecognizer
	synth  *fakeSynthesizer
	comp   *fakeCompositor
	input  string
	output string
}

func newHarness(t *testing.T, pages int) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithResolution("720p"))
	base := testsupport.BaseDir(cfg)
	input := filepath.Join(base, "chapter.pdf")
	testsupport.WriteFile(t, input, []byte("%PDF-1.4"))
	return &harness{
		cfg:    cfg,
		raster: &fakeRasterizer{pages: pages},
		ocr:    &fakeRecognizer{},
		synth:  &fakeSynthesizer{duration: 4 * time.Second},
		comp:   &fakeCompositor{},
		input:  input,
		output: filepath.Join(base, "out", "recap.mp4"),
	}
}

func (h *harness) orchestrator(opts ...Option) *Orchestrator {
	all := append([]Option{
		WithRasterizer(h.raster),
		WithRecognizer(h.ocr),
		WithSynthesizer(h.synth),
		WithCompositor(h.comp),
	}, opts...)
	return New(h.cfg, logging.NewNop(), all...)
}

func (h *harness) run(t *testing.T, opts ...Option) (Summary, error) {
	t.Helper()
	return h.orchestrator(opts...).Run(context.Background(), Options{
		Input:  h.input,
		Output: h.output,
		Title:  "one piece",
	})
}

func assertNoWorkspaces(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), workspace.DirPrefix) {
			t.Fatalf("work directory %s was not removed", e.Name())
		}
	}
}

func TestRunThreePages(t *testing.T) {
	h := newHarness(t, 3)
	summary, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Pages != 3 || summary.Panels != 3 || summary.PanelsRead != 3 || summary.Scenes != 3 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if len(h.comp.durations) != 5 {
		t.Fatalf("expected title + 3 scenes + outro, got %d segments", len(h.comp.durations))
	}
	if want := 3*5*time.Second + 6*time.Second; h.comp.total() < want {
		t.Fatalf("video length %s shorter than %s", h.comp.total(), want)
	}
	if summary.Video != h.comp.total() {
		t.Fatalf("summary video %s, encoded %s", summary.Video, h.comp.total())
	}
	if summary.Engine != voice.StateSystem || h.synth.engine != voice.StateSystem {
		t.Fatalf("default engine should be system, got %s", summary.Engine)
	}
	if !strings.Contains(h.synth.text, "one piece") || !strings.Contains(h.synth.text, "line 2") {
		t.Fatalf("narration missing title or panel text: %q", h.synth.text)
	}
	if strings.Count(h.synth.text, "Moving on to the next page") != 2 {
		t.Fatalf("expected two page transitions: %q", h.synth.text)
	}
	if !strings.HasSuffix(h.comp.audio, "narration.wav") {
		t.Fatalf("narration not passed to assemble: %q", h.comp.audio)
	}
	if _, err := os.Stat(h.output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if summary.OutputBytes != int64(len("video")) {
		t.Fatalf("output size %d", summary.OutputBytes)
	}
	assertNoWorkspaces(t, h.cfg)
}

func TestRunExtendsOutroForLongNarration(t *testing.T) {
	h := newHarness(t, 2)
	h.synth.duration = time.Minute

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.comp.total(); got != time.Minute {
		t.Fatalf("video length %s, want narration length 1m", got)
	}
	outro := h.comp.durations[len(h.comp.durations)-1]
	if want := time.Minute - 3*time.Second - 2*5*time.Second; outro != want {
		t.Fatalf("outro lasts %s, want %s", outro, want)
	}
}

func TestRunWithoutPanelsStillCompletes(t *testing.T) {
	h := newHarness(t, 2)
	h.cfg.Detection.MinPanelArea = 10_000_000

	summary, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Panels != 0 || summary.Scenes != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if h.ocr.calls != 0 {
		t.Fatalf("OCR should not run without panels, ran %d times", h.ocr.calls)
	}
	if strings.Contains(h.synth.text, "Moving on") {
		t.Fatalf("no transitions expected without panels: %q", h.synth.text)
	}
}

func TestRunDegradesBadPages(t *testing.T) {
	h := newHarness(t, 3)
	h.raster.garbage = map[int]bool{1: true}
	h.ocr.fail = map[int]bool{1: true}

	summary, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PagesDegraded != 2 {
		t.Fatalf("expected 2 degraded pages, got %d", summary.PagesDegraded)
	}
	if summary.Panels != 1 {
		t.Fatalf("expected only the first page's panel, got %d", summary.Panels)
	}
	if summary.Scenes != 2 || summary.ScenesSkipped != 1 {
		t.Fatalf("undecodable page should skip its scene: %+v", summary)
	}
}

func TestRunSkipsFailedClips(t *testing.T) {
	h := newHarness(t, 3)
	h.comp.failAt = map[int]bool{2: true}

	summary, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scenes != 2 || summary.ScenesSkipped != 1 || len(h.comp.durations) != 4 {
		t.Fatalf("expected one skipped scene: %+v", summary)
	}
}

func TestRunFailsWhenNothingEncodes(t *testing.T) {
	h := newHarness(t, 1)
	h.comp.failAt = map[int]bool{0: true, 1: true, 2: true}

	_, err := h.run(t)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, statErr := os.Stat(h.output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("no output expected, stat err=%v", statErr)
	}
	assertNoWorkspaces(t, h.cfg)
}

func TestRunFatalConditions(t *testing.T) {
	t.Run("zero pages", func(t *testing.T) {
		h := newHarness(t, 0)
		_, err := h.run(t)
		if !services.IsFatal(err) {
			t.Fatalf("expected fatal error, got %v", err)
		}
		assertNoWorkspaces(t, h.cfg)
	})
	t.Run("missing input", func(t *testing.T) {
		h := newHarness(t, 1)
		h.input = filepath.Join(t.TempDir(), "absent.pdf")
		if _, err := h.run(t); !services.IsFatal(err) {
			t.Fatalf("expected fatal error, got %v", err)
		}
	})
	t.Run("output is a directory", func(t *testing.T) {
		h := newHarness(t, 1)
		h.output = t.TempDir()
		if _, err := h.run(t); !services.IsFatal(err) {
			t.Fatalf("expected fatal error, got %v", err)
		}
	})
}

func TestRunHonoursCancellation(t *testing.T) {
	h := newHarness(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orchestrator().Run(ctx, Options{Input: h.input, Output: h.output})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertNoWorkspaces(t, h.cfg)
}

func TestOptionsDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Voice.Engine = "espeak"
	opts := Options{}.withDefaults(&cfg)
	if opts.Title != "Manga Recap" || opts.MaxPages != 50 || opts.SceneDuration != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	if opts.Engine != voice.StateEspeak {
		t.Fatalf("engine = %s, want espeak", opts.Engine)
	}
}

func TestPageTexts(t *testing.T) {
	found := []panels.Panel{
		{PageIndex: 0, Text: "first"},
		{PageIndex: 2, Text: "  "},
		{PageIndex: 0, Text: "second\n|t"},
		{PageIndex: 7, Text: "out of range"},
	}
	got := pageTexts(found, 3)
	want := []string{"first second It", "", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("page %d text %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunSummaryUsesInspectedOutput(t *testing.T) {
	h := newHarness(t, 2)
	h.comp.info = &encoding.VideoInfo{Duration: 42 * time.Second, SizeBytes: 1234, VideoTracks: 1}
	summary, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Video != 42*time.Second || summary.OutputBytes != 1234 {
		t.Fatalf("summary should come from the probed file: %+v", summary)
	}
	if !summary.Silent {
		t.Fatal("a file without audio streams must be reported silent")
	}

	h = newHarness(t, 2)
	h.comp.info = &encoding.VideoInfo{Duration: 30 * time.Second, AudioTracks: 1, VideoTracks: 1}
	summary, err = h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Silent || summary.Video != 30*time.Second {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.OutputBytes != int64(len("video")) {
		t.Fatalf("zero probed size should keep the stat size, got %d", summary.OutputBytes)
	}
}

func TestRunWithoutNarrationFileAssemblesSilently(t *testing.T) {
	h := newHarness(t, 1)
	h.synth.noFile = true
	summary, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.comp.audio != "" {
		t.Fatalf("no audio should be attached, got %q", h.comp.audio)
	}
	if summary.Engine != voice.StateSilent {
		t.Fatalf("engine = %s", summary.Engine)
	}
}
