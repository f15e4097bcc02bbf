package scene

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	// Page decoders.
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Window is the source rectangle shown in one frame, in source pixels.
type Window struct {
	X, Y, W, H float64
}

// Clip renders frames of one scene.
type Clip struct {
	src      *image.RGBA
	duration time.Duration
	pan      Pan
	opts     Options
	still    bool
}

// NewClip scales img to cover the frame times the overscan factor,
// preserving aspect ratio, and returns a Ken Burns clip over it.
func NewClip(img image.Image, duration time.Duration, pan Pan, opts Options) (*Clip, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("scene: empty source image")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("scene: duration must be positive, got %s", duration)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("scene: invalid frame %dx%d", opts.Width, opts.Height)
	}
	w, h := coverSize(img.Bounds().Dx(), img.Bounds().Dy(), opts)
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(src, src.Rect, img, img.Bounds(), xdraw.Src, nil)
	return &Clip{src: src, duration: duration, pan: pan, opts: opts}, nil
}

// NewStillClip shows frame unchanged for duration. frame must already match
// the output size.
func NewStillClip(frame *image.RGBA, duration time.Duration) *Clip {
	b := frame.Bounds()
	return &Clip{
		src:      frame,
		duration: duration,
		opts:     Options{Width: b.Dx(), Height: b.Dy(), Overscan: 1},
		still:    true,
	}
}

// LoadClip decodes the scene's page image and builds its clip.
func LoadClip(s Scene, opts Options) (*Clip, error) {
	f, err := os.Open(s.ImagePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.ImagePath, err)
	}
	return NewClip(img, s.Duration, s.Pan, opts)
}

// coverSize returns the smallest size with the source aspect ratio that
// covers frame × overscan on both axes.
func coverSize(srcW, srcH int, opts Options) (int, int) {
	overscan := opts.Overscan
	if overscan <= 0 {
		overscan = 1
	}
	imgRatio := float64(srcW) / float64(srcH)
	frameRatio := float64(opts.Width) / float64(opts.Height)
	var w, h int
	if imgRatio > frameRatio {
		h = int(float64(opts.Height) * overscan)
		w = int(float64(h) * imgRatio)
	} else {
		w = int(float64(opts.Width) * overscan)
		h = int(float64(w) / imgRatio)
	}
	return max(w, 1), max(h, 1)
}

// Duration returns the clip length.
func (c *Clip) Duration() time.Duration { return c.duration }

// Extend returns a copy of the clip lasting d.
func (c *Clip) Extend(d time.Duration) *Clip {
	out := *c
	out.duration = d
	return &out
}

// SourceSize reports the overscanned source dimensions.
func (c *Clip) SourceSize() (int, int) {
	return c.src.Rect.Dx(), c.src.Rect.Dy()
}

// Progress maps t onto [0, 1].
func (c *Clip) Progress(t time.Duration) float64 {
	p := float64(t) / float64(c.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Zoom returns the magnification at t: 1 at the start, 1+ZoomRange at the end.
func (c *Clip) Zoom(t time.Duration) float64 {
	if c.still {
		return 1
	}
	return 1 + c.opts.ZoomRange*c.Progress(t)
}

// Window returns the source rectangle shown at t. Non-positive slack on an
// axis pins that axis to 0.
func (c *Clip) Window(t time.Duration) Window {
	p := c.Progress(t)
	zoom := c.Zoom(t)
	srcW, srcH := c.SourceSize()
	win := Window{W: float64(c.opts.Width) / zoom, H: float64(c.opts.Height) / zoom}

	if slack := float64(srcW) - win.W; slack > 0 {
		if c.pan == PanLeft {
			win.X = slack * (1 - p)
		} else {
			win.X = slack * p
		}
	}
	if slack := float64(srcH) - win.H; slack > 0 {
		win.Y = slack / 2
	}
	return win
}

// NewFrame allocates a buffer sized for Frame.
func (c *Clip) NewFrame() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, c.opts.Width, c.opts.Height))
}

// Frame renders the frame at t into dst, which must be Width×Height.
func (c *Clip) Frame(t time.Duration, dst *image.RGBA) {
	if c.still {
		draw.Draw(dst, dst.Rect, c.src, c.src.Rect.Min, draw.Src)
		return
	}
	win := c.Window(t)
	sx := float64(c.opts.Width) / win.W
	sy := float64(c.opts.Height) / win.H
	// Source to destination: shift the window origin to 0, then scale.
	s2d := f64.Aff3{
		sx, 0, -win.X * sx,
		0, sy, -win.Y * sy,
	}
	xdraw.BiLinear.Transform(dst, s2d, c.src, c.src.Rect, xdraw.Src, nil)
}
