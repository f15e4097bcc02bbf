package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeRaster()
	c.normalizeOCR()
	c.normalizeVoice()
	c.normalizeEncoding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) != "" {
		if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
			return fmt.Errorf("paths.work_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Title = strings.TrimSpace(c.Render.Title)
	if c.Render.Title == "" {
		c.Render.Title = defaultTitle
	}
	c.Render.Resolution = strings.ToLower(strings.TrimSpace(c.Render.Resolution))
	if c.Render.Resolution == "" {
		c.Render.Resolution = defaultResolution
	}
	if c.Render.FPS == 0 {
		c.Render.FPS = defaultFPS
	}
}

func (c *Config) normalizeRaster() {
	c.Raster.Binary = strings.TrimSpace(c.Raster.Binary)
	if c.Raster.Binary == "" {
		c.Raster.Binary = defaultRasterBinary
	}
}

func (c *Config) normalizeOCR() {
	c.OCR.Languages = strings.TrimSpace(c.OCR.Languages)
	if c.OCR.Languages == "" {
		c.OCR.Languages = defaultOCRLanguages
	}
}

func (c *Config) normalizeVoice() {
	engine := strings.ToLower(strings.TrimSpace(c.Voice.Engine))
	switch engine {
	case "", "pyttsx3":
		engine = defaultVoiceEngine
	case "espeak-ng":
		engine = "espeak"
	}
	c.Voice.Engine = engine

	c.Voice.PiperBinary = strings.TrimSpace(c.Voice.PiperBinary)
	if c.Voice.PiperBinary == "" {
		c.Voice.PiperBinary = defaultPiperBinary
	}
	c.Voice.SystemBinary = strings.TrimSpace(c.Voice.SystemBinary)
	if c.Voice.SystemBinary == "" {
		c.Voice.SystemBinary = defaultSystemBinary
	}

	models := make([]string, 0, len(c.Voice.PiperModels)+1)
	if env := strings.TrimSpace(os.Getenv("MANGARECAP_PIPER_MODEL")); env != "" {
		models = append(models, env)
	}
	models = append(models, trimAll(c.Voice.PiperModels)...)
	if len(models) == 0 {
		models = DefaultPiperModels()
	}
	c.Voice.PiperModels = models

	c.Voice.EspeakBinaries = trimAll(c.Voice.EspeakBinaries)
	if len(c.Voice.EspeakBinaries) == 0 {
		c.Voice.EspeakBinaries = []string{"espeak-ng", "espeak"}
	}
	if c.Voice.RateWPM <= 0 {
		c.Voice.RateWPM = defaultRateWPM
	}
	if c.Voice.SampleRate <= 0 {
		c.Voice.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeEncoding() {
	c.Encoding.FFmpegBinary = strings.TrimSpace(c.Encoding.FFmpegBinary)
	if c.Encoding.FFmpegBinary == "" {
		c.Encoding.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoding.FFprobeBinary = strings.TrimSpace(c.Encoding.FFprobeBinary)
	if c.Encoding.FFprobeBinary == "" {
		c.Encoding.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.Encoding.VideoCodec) == "" {
		c.Encoding.VideoCodec = defaultVideoCodec
	}
	if strings.TrimSpace(c.Encoding.AudioCodec) == "" {
		c.Encoding.AudioCodec = defaultAudioCodec
	}
	if strings.TrimSpace(c.Encoding.Preset) == "" {
		c.Encoding.Preset = defaultEncodingPreset
	}
	if c.Encoding.Threads < 0 {
		c.Encoding.Threads = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
