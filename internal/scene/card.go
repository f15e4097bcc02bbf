package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Card colours, tuned for 1080p and scaled with the frame height.
var (
	titleBackground = color.RGBA{R: 26, G: 26, B: 46, A: 0xff}
	outroBackground = color.RGBA{R: 30, G: 30, B: 50, A: 0xff}
	cardText        = color.RGBA{R: 255, G: 107, B: 107, A: 0xff}
)

const (
	cardFontSize   = 60.0
	cardLineHeight = 70.0
	cardReference  = 1080.0
)

// OutroText is shown on the closing card.
const OutroText = "Thanks for watching!\nSubscribe for more"

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

func loadBold() (*opentype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

// TitleCard returns the opening card clip for title, drawn exactly as given.
func TitleCard(title string, duration time.Duration, opts Options) (*Clip, error) {
	frame, err := RenderCard(title, titleBackground, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	return NewStillClip(frame, duration), nil
}

// OutroCard returns the closing card clip.
func OutroCard(duration time.Duration, opts Options) (*Clip, error) {
	frame, err := RenderCard(OutroText, outroBackground, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	return NewStillClip(frame, duration), nil
}

// RenderCard draws text centred line by line on a solid background.
func RenderCard(text string, bg color.RGBA, w, h int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(bg), image.Point{}, draw.Src)

	parsed, err := loadBold()
	if err != nil {
		return nil, fmt.Errorf("load card font: %w", err)
	}
	scale := float64(h) / cardReference
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    cardFontSize * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create card face: %w", err)
	}
	defer face.Close()

	lines := strings.Split(text, "\n")
	lineHeight := int(cardLineHeight * scale)
	ascent := face.Metrics().Ascent.Ceil()
	top := (h - len(lines)*lineHeight) / 2

	d := &font.Drawer{Dst: img, Src: image.NewUniform(cardText), Face: face}
	for i, line := range lines {
		width := d.MeasureString(line).Ceil()
		x := (w - width) / 2
		y := top + i*lineHeight + ascent
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
	return img, nil
}
