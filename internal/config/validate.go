package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateRaster(); err != nil {
		return err
	}
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.Threshold < 0 || c.Detection.Threshold > 255 {
		return errors.New("detection.threshold must be between 0 and 255")
	}
	if c.Detection.KernelSize < 1 {
		return errors.New("detection.kernel_size must be at least 1")
	}
	if c.Detection.MinPanelArea < 0 {
		return errors.New("detection.min_panel_area must be non-negative")
	}
	if c.Detection.BandHeight <= 0 {
		return errors.New("detection.band_height must be positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	if _, _, ok := LookupResolution(c.Render.Resolution); !ok {
		return fmt.Errorf("render.resolution must be one of %s, got %q", strings.Join(ResolutionNames(), ", "), c.Render.Resolution)
	}
	if c.Render.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	if c.Render.MaxPages <= 0 {
		return errors.New("render.max_pages must be positive")
	}
	if c.Render.SceneDuration <= 0 {
		return errors.New("render.scene_duration must be positive")
	}
	if c.Render.CardDuration <= 0 {
		return errors.New("render.card_duration must be positive")
	}
	if c.Render.ZoomRange < 0 {
		return errors.New("render.zoom_range must be non-negative")
	}
	// The overscanned source must stay larger than the tightest crop window.
	if c.Render.Overscan <= 1+c.Render.ZoomRange {
		return fmt.Errorf("render.overscan (%.2f) must exceed 1 + render.zoom_range (%.2f)", c.Render.Overscan, 1+c.Render.ZoomRange)
	}
	return nil
}

func (c *Config) validateRaster() error {
	if c.Raster.DPI <= 0 {
		return errors.New("raster.dpi must be positive")
	}
	return nil
}

func (c *Config) validateVoice() error {
	switch c.Voice.Engine {
	case "piper", "system", "espeak":
	default:
		return fmt.Errorf("voice.engine must be one of piper, system, espeak, got %q", c.Voice.Engine)
	}
	if c.Voice.SecondsPerChar <= 0 {
		return errors.New("voice.seconds_per_char must be positive")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	for name, v := range map[string]int{
		"raster": c.Timeouts.Raster,
		"ocr":    c.Timeouts.OCR,
		"voice":  c.Timeouts.Voice,
		"encode": c.Timeouts.Encode,
		"probe":  c.Timeouts.Probe,
	} {
		if v < 0 {
			return fmt.Errorf("timeouts.%s must be non-negative", name)
		}
	}
	return nil
}
