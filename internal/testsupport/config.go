package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mangarecap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every external binary points at a name that does not resolve, so tests opt
// into tools explicitly with WithStubBinary.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Raster.Binary = filepath.Join(base, "missing", "pdftoppm")
	cfgVal.Voice.PiperBinary = filepath.Join(base, "missing", "piper")
	cfgVal.Voice.SystemBinary = filepath.Join(base, "missing", "say")
	cfgVal.Voice.EspeakBinaries = []string{filepath.Join(base, "missing", "espeak-ng")}
	cfgVal.Voice.PiperModels = []string{filepath.Join(base, "missing", "voice.onnx")}
	cfgVal.Encoding.FFmpegBinary = filepath.Join(base, "missing", "ffmpeg")
	cfgVal.Encoding.FFprobeBinary = filepath.Join(base, "missing", "ffprobe")
	cfgVal.OCR.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithResolution overrides the render preset.
func WithResolution(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Resolution = name
	}
}

// WithStubBinary writes an executable shell script under the config's bin
// directory and lets set point the relevant config field at it.
func WithStubBinary(name, body string, set func(cfg *config.Config, path string)) ConfigOption {
	return func(b *configBuilder) {
		path := WriteScript(b.t, filepath.Join(b.baseDir, "bin"), name, body)
		set(b.cfg, path)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WriteScript writes an executable /bin/sh script and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}
