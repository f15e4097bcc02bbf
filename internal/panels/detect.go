package panels

import (
	"image"
	// Decoders for page images produced by the rasterizer or supplied directly.
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"mangarecap/internal/config"
)

// Options tunes detection. Zero values fall back to DefaultOptions.
type Options struct {
	Threshold    uint8
	KernelSize   int
	MinPanelArea int
	BandHeight   int
}

// DefaultOptions returns the stock detection parameters.
func DefaultOptions() Options {
	cfg := config.Default()
	return OptionsFromConfig(&cfg)
}

// OptionsFromConfig maps the [detection] section onto detector options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	d := cfg.Detection
	return Options{
		Threshold:    uint8(d.Threshold),
		KernelSize:   d.KernelSize,
		MinPanelArea: d.MinPanelArea,
		BandHeight:   d.BandHeight,
	}
}

// Detector finds panels on page images.
type Detector struct {
	opts Options
}

// NewDetector builds a detector, filling unset options with defaults.
func NewDetector(opts Options) *Detector {
	def := DefaultOptions()
	if opts.KernelSize <= 0 {
		opts.KernelSize = def.KernelSize
	}
	if opts.BandHeight <= 0 {
		opts.BandHeight = def.BandHeight
	}
	if opts.MinPanelArea < 0 {
		opts.MinPanelArea = 0
	}
	return &Detector{opts: opts}
}

// Options reports the effective detection parameters.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect returns the panels of img in reading order. A nil or empty image
// yields no panels.
func (d *Detector) Detect(img image.Image, pageIndex int) []Panel {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	m := binarize(img, d.opts.Threshold)
	if m.empty() {
		return nil
	}
	m.closeOpen(d.opts.KernelSize)

	var panels []Panel
	for i, b := range externalBlobs(m) {
		if b.area < d.opts.MinPanelArea {
			continue
		}
		panels = append(panels, Panel{
			X:          b.bounds.Min.X,
			Y:          b.bounds.Min.Y,
			Width:      b.bounds.Dx(),
			Height:     b.bounds.Dy(),
			PageIndex:  pageIndex,
			PanelIndex: i,
			Area:       b.area,
		})
	}
	SortReadingOrder(panels, d.opts.BandHeight)
	return panels
}

// DetectFile decodes the page image at path and detects its panels. The
// decoded image is returned alongside so callers can crop without decoding
// twice. An unreadable or undecodable file yields a nil image and no panels.
func (d *Detector) DetectFile(path string, pageIndex int) (image.Image, []Panel) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, nil
	}
	return img, d.Detect(img, pageIndex)
}

// DecodeFile opens and decodes an image in any registered format.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
