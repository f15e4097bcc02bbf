package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mangarecap/internal/config"
	"mangarecap/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// ffmpegStub drains piped frames and writes its arguments to the output file.
const ffmpegStub = `for last; do :; done
case "$*" in *rawvideo*) cat > /dev/null ;; esac
echo "$*" > "$last"`

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{
		testsupport.WithResolution("720p"),
		testsupport.WithStubBinary("ffmpeg", ffmpegStub, func(cfg *config.Config, path string) {
			cfg.Encoding.FFmpegBinary = path
		}),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Render.FPS = 2
	cfg.Render.CardDuration = 1
	cfg.Logging.Level = "error"

	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteFile(t, path, []byte(encoded))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
