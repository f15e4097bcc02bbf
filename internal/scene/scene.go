package scene

import (
	"time"

	"mangarecap/internal/config"
)

// Effect selects how a scene animates. Ken Burns is the only variant.
type Effect int

const (
	EffectKenBurns Effect = iota
)

func (e Effect) String() string {
	switch e {
	case EffectKenBurns:
		return "ken_burns"
	default:
		return "unknown"
	}
}

// Pan is the horizontal travel direction of a clip.
type Pan int

const (
	PanRight Pan = iota
	PanLeft
)

func (p Pan) String() string {
	if p == PanLeft {
		return "left"
	}
	return "right"
}

// PanFor alternates direction by scene position: even right, odd left.
func PanFor(index int) Pan {
	if index%2 == 1 {
		return PanLeft
	}
	return PanRight
}

// Scene is one page's slot in the video.
type Scene struct {
	ImagePath string
	Duration  time.Duration
	Text      string
	Effect    Effect
	Pan       Pan
}

// Options fixes the output frame and motion parameters.
type Options struct {
	Width     int
	Height    int
	Overscan  float64
	ZoomRange float64
}

// OptionsFromConfig reads the [render] section.
func OptionsFromConfig(cfg *config.Config) Options {
	w, h := cfg.FrameSize()
	return Options{
		Width:     w,
		Height:    h,
		Overscan:  cfg.Render.Overscan,
		ZoomRange: cfg.Render.ZoomRange,
	}
}

// FrameCount is the number of frames a clip of duration d occupies at fps,
// rounded up so no part of the clip is dropped.
func FrameCount(d time.Duration, fps int) int {
	if d <= 0 || fps <= 0 {
		return 0
	}
	n := int(d * time.Duration(fps) / time.Second)
	if time.Duration(n)*time.Second < d*time.Duration(fps) {
		n++
	}
	return n
}
