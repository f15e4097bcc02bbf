package panels

import (
	"fmt"
	"image"
	"sort"
)

// Panel is one detected reading region in page-pixel coordinates. Width and
// Height are always positive and the enclosed area is at least the detector's
// minimum; smaller candidates are dropped before a Panel is built.
type Panel struct {
	X      int
	Y      int
	Width  int
	Height int
	// PageIndex is the zero-based page the panel was found on.
	PageIndex int
	// PanelIndex is the raster discovery order of the region among every
	// external region on the page, counted before the area filter and before
	// sorting. Indices of dropped regions are skipped, so gaps are expected.
	PanelIndex int
	// Area is the polygon area through the centres of the outer boundary
	// pixels: a filled w x h region measures (w-1)*(h-1).
	Area int

	// Image and ImagePath are populated by Crop and SaveCrops.
	Image     image.Image
	ImagePath string
	// Text is filled by the OCR step; empty until then.
	Text string
}

// Rect returns the panel bounds relative to the page origin.
func (p Panel) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

func (p Panel) String() string {
	return fmt.Sprintf("page %d panel %d (%d,%d %dx%d)", p.PageIndex, p.PanelIndex, p.X, p.Y, p.Width, p.Height)
}

// SortReadingOrder orders panels top-to-bottom by band (Y / bandHeight), then
// right-to-left within a band. The sort is stable, so panels with equal keys
// keep their discovery order.
func SortReadingOrder(panels []Panel, bandHeight int) {
	if bandHeight <= 0 {
		bandHeight = 1
	}
	sort.SliceStable(panels, func(i, j int) bool {
		bi, bj := panels[i].Y/bandHeight, panels[j].Y/bandHeight
		if bi != bj {
			return bi < bj
		}
		return panels[i].X > panels[j].X
	})
}
