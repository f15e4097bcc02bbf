package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mangarecap/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MANGARECAP_PIPER_MODEL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "mangarecap", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.WorkDir != "" {
		t.Fatalf("expected empty work dir by default, got %q", cfg.Paths.WorkDir)
	}
	if cfg.Detection.MinPanelArea != 10000 {
		t.Fatalf("unexpected min panel area: %d", cfg.Detection.MinPanelArea)
	}
	if cfg.Detection.BandHeight != 100 {
		t.Fatalf("unexpected band height: %d", cfg.Detection.BandHeight)
	}
	if cfg.Render.Overscan != 1.3 || cfg.Render.ZoomRange != 0.1 {
		t.Fatalf("unexpected ken burns defaults: overscan=%v zoom=%v", cfg.Render.Overscan, cfg.Render.ZoomRange)
	}
	if cfg.Voice.Engine != "system" {
		t.Fatalf("unexpected default engine %q", cfg.Voice.Engine)
	}
	if cfg.Voice.SecondsPerChar != 0.05 {
		t.Fatalf("unexpected seconds per char %v", cfg.Voice.SecondsPerChar)
	}
	if len(cfg.Voice.PiperModels) != 3 {
		t.Fatalf("expected three piper model candidates, got %v", cfg.Voice.PiperModels)
	}
	w, h := cfg.FrameSize()
	if w != 1920 || h != 1080 {
		t.Fatalf("unexpected frame size %dx%d", w, h)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MANGARECAP_PIPER_MODEL", "")

	configPath := filepath.Join(tempHome, "config.toml")
	payload := struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
		} `toml:"paths"`
		Render struct {
			Resolution string  `toml:"resolution"`
			Overscan   float64 `toml:"overscan"`
			ZoomRange  float64 `toml:"zoom_range"`
		} `toml:"render"`
		Voice struct {
			Engine string `toml:"engine"`
		} `toml:"voice"`
	}{}
	payload.Paths.WorkDir = "~/scratch"
	payload.Render.Resolution = "4K"
	payload.Render.Overscan = 1.5
	payload.Render.ZoomRange = 0.2
	payload.Voice.Engine = "pyttsx3"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected work dir %q", cfg.Paths.WorkDir)
	}
	if w, h := cfg.FrameSize(); w != 3840 || h != 2160 {
		t.Fatalf("unexpected frame size %dx%d", w, h)
	}
	if cfg.Voice.Engine != "system" {
		t.Fatalf("expected pyttsx3 alias to map to system, got %q", cfg.Voice.Engine)
	}
}

func TestPiperModelEnvTakesPriority(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MANGARECAP_PIPER_MODEL", "/models/custom.onnx")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Voice.PiperModels[0] != "/models/custom.onnx" {
		t.Fatalf("expected env model first, got %v", cfg.Voice.PiperModels)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"resolution", func(c *config.Config) { c.Render.Resolution = "8k" }, "render.resolution"},
		{"overscan", func(c *config.Config) { c.Render.Overscan = 1.05 }, "render.overscan"},
		{"scene duration", func(c *config.Config) { c.Render.SceneDuration = 0 }, "render.scene_duration"},
		{"threshold", func(c *config.Config) { c.Detection.Threshold = 300 }, "detection.threshold"},
		{"band", func(c *config.Config) { c.Detection.BandHeight = 0 }, "detection.band_height"},
		{"engine", func(c *config.Config) { c.Voice.Engine = "festival" }, "voice.engine"},
		{"per char", func(c *config.Config) { c.Voice.SecondsPerChar = 0 }, "voice.seconds_per_char"},
		{"timeout", func(c *config.Config) { c.Timeouts.OCR = -1 }, "timeouts.ocr"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestFinalizeAppliesOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Render.Resolution = " 720P "
	cfg.Voice.Engine = "espeak-ng"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Render.Resolution != "720p" {
		t.Fatalf("unexpected resolution %q", cfg.Render.Resolution)
	}
	if cfg.Voice.Engine != "espeak" {
		t.Fatalf("unexpected engine %q", cfg.Voice.Engine)
	}
}

func TestTimeout(t *testing.T) {
	if got := config.Timeout(0); got != 0 {
		t.Fatalf("expected zero for disabled timeout, got %v", got)
	}
	if got := config.Timeout(5); got != 5*time.Second {
		t.Fatalf("unexpected timeout %v", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MANGARECAP_PIPER_MODEL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Render.Title != "Manga Recap" {
		t.Fatalf("unexpected sample title %q", cfg.Render.Title)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, "min_panel_area") {
		t.Fatalf("expected encoded config to include detection keys:\n%s", encoded)
	}
}
