package panels

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop attaches the sub-image for each panel. Panels must lie within the
// page; a rectangle outside it is a caller bug and panics.
func Crop(page image.Image, panels []Panel) []Panel {
	bounds := page.Bounds()
	out := make([]Panel, len(panels))
	for i, p := range panels {
		r := p.Rect().Add(bounds.Min)
		if r.Empty() || !r.In(bounds) {
			panic(fmt.Sprintf("panels: crop %v outside page bounds %v", r, bounds))
		}
		p.Image = cropRect(page, r)
		out[i] = p
	}
	return out
}

func cropRect(page image.Image, r image.Rectangle) image.Image {
	if s, ok := page.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Rect, page, r.Min, draw.Src)
	return dst
}

// FileName is the on-disk name of a panel crop.
func FileName(p Panel) string {
	return fmt.Sprintf("panel_p%04d_n%02d.png", p.PageIndex, p.PanelIndex)
}

// SaveCrops writes each cropped panel as PNG into dir and records the path.
// Panels without an image are skipped.
func SaveCrops(dir string, panels []Panel) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create panel dir: %w", err)
	}
	for i := range panels {
		if panels[i].Image == nil {
			continue
		}
		path := filepath.Join(dir, FileName(panels[i]))
		if err := writePNG(path, panels[i].Image); err != nil {
			return err
		}
		panels[i].ImagePath = path
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
