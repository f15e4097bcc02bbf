package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working and log directory configuration.
type Paths struct {
	// WorkDir is the parent of the per-run temporary directory. Empty means
	// the system temp dir.
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Detection contains panel segmentation parameters.
type Detection struct {
	Threshold    int `toml:"threshold"`
	KernelSize   int `toml:"kernel_size"`
	MinPanelArea int `toml:"min_panel_area"`
	BandHeight   int `toml:"band_height"`
}

// Render contains scene and card rendering parameters.
type Render struct {
	Title         string  `toml:"title"`
	Resolution    string  `toml:"resolution"`
	FPS           int     `toml:"fps"`
	MaxPages      int     `toml:"max_pages"`
	SceneDuration float64 `toml:"scene_duration"`
	CardDuration  float64 `toml:"card_duration"`
	Overscan      float64 `toml:"overscan"`
	ZoomRange     float64 `toml:"zoom_range"`
}

// Raster contains page rasterization settings.
type Raster struct {
	Binary string `toml:"binary"`
	DPI    int    `toml:"dpi"`
}

// OCR contains text recognition settings.
type OCR struct {
	Enabled     bool   `toml:"enabled"`
	Languages   string `toml:"languages"`
	PageSegMode int    `toml:"page_seg_mode"`
}

// Voice contains speech synthesis settings for every engine in the cascade.
type Voice struct {
	// Engine selects where the cascade starts: piper, system, or espeak.
	Engine         string   `toml:"engine"`
	PiperBinary    string   `toml:"piper_binary"`
	PiperModels    []string `toml:"piper_models"`
	SystemBinary   string   `toml:"system_binary"`
	EspeakBinaries []string `toml:"espeak_binaries"`
	RateWPM        int      `toml:"rate_wpm"`
	// SecondsPerChar drives the silent fallback duration estimate.
	SecondsPerChar float64 `toml:"seconds_per_char"`
	SampleRate     int     `toml:"sample_rate"`
}

// Encoding contains compositor settings.
type Encoding struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	Preset        string `toml:"preset"`
	Threads       int    `toml:"threads"`
}

// Timeouts bounds every external process call, in seconds.
type Timeouts struct {
	Raster int `toml:"raster"`
	OCR    int `toml:"ocr"`
	Voice  int `toml:"voice"`
	Encode int `toml:"encode"`
	Probe  int `toml:"probe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File enables a copy of the log under Paths.LogDir.
	File bool `toml:"file"`
}

// Config encapsulates all configuration values for mangarecap.
//
// Configuration sections by subsystem:
//   - Paths: work directory parent and log directory
//   - Detection: panel segmentation thresholds
//   - Render: resolution preset, timing, Ken Burns parameters
//   - Raster: PDF rasterizer binary and density
//   - OCR: tesseract languages and page segmentation mode
//   - Voice: speech engine cascade
//   - Encoding: ffmpeg/ffprobe and codec parameters
//   - Timeouts: per-collaborator process timeouts
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Detection Detection `toml:"detection"`
	Render    Render    `toml:"render"`
	Raster    Raster    `toml:"raster"`
	OCR       OCR       `toml:"ocr"`
	Voice     Voice     `toml:"voice"`
	Encoding  Encoding  `toml:"encoding"`
	Timeouts  Timeouts  `toml:"timeouts"`
	Logging   Logging   `toml:"logging"`
}

// Resolution presets accepted by Render.Resolution.
var resolutions = map[string][2]int{
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"4k":    {3840, 2160},
}

// ResolutionNames lists the accepted presets in ascending size.
func ResolutionNames() []string {
	return []string{"720p", "1080p", "4k"}
}

// LookupResolution maps a preset name to pixel dimensions.
func LookupResolution(name string) (int, int, bool) {
	dims, ok := resolutions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, 0, false
	}
	return dims[0], dims[1], true
}

// FrameSize returns the output frame dimensions for the configured preset.
func (c *Config) FrameSize() (int, int) {
	w, h, ok := LookupResolution(c.Render.Resolution)
	if !ok {
		w, h, _ = LookupResolution(defaultResolution)
	}
	return w, h
}

// Timeout converts a configured second count to a duration. Zero or negative
// disables the bound.
func Timeout(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mangarecap/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates a config that was modified after Load,
// for example by command-line overrides.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mangarecap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
