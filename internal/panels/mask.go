package panels

import (
	"image"

	"golang.org/x/image/draw"
)

// mask is a row-major foreground bitmap. 1 marks ink.
type mask struct {
	w, h int
	pix  []uint8
}

// binarize converts img to grayscale and marks every pixel at or below cutoff
// as foreground.
func binarize(img image.Image, cutoff uint8) *mask {
	b := img.Bounds()
	gray, ok := img.(*image.Gray)
	if !ok || gray.Rect.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Rect, img, b.Min, draw.Src)
	}
	m := &mask{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < m.h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+m.w]
		out := m.pix[y*m.w : (y+1)*m.w]
		for x, v := range row {
			if v <= cutoff {
				out[x] = 1
			}
		}
	}
	return m
}

func (m *mask) empty() bool {
	for _, v := range m.pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// closeOpen applies a morphological close followed by an open with a k×k
// square. Pixels outside the image never influence the result.
func (m *mask) closeOpen(k int) {
	if k <= 1 {
		return
	}
	m.dilate(k)
	m.erode(k)
	m.erode(k)
	m.dilate(k)
}

func (m *mask) dilate(k int) { m.morph(k, false) }

func (m *mask) erode(k int) { m.morph(k, true) }

// morph runs the square filter as a horizontal pass followed by a vertical
// pass, each a sliding-window count over the clipped neighbourhood.
func (m *mask) morph(k int, erode bool) {
	before, after := k/2, k-1-k/2
	n := m.w
	if m.h > n {
		n = m.h
	}
	line := make([]uint8, n)
	prefix := make([]int32, n+1)

	apply := func(length int, get func(i int) uint8, set func(i int, v uint8)) {
		for i := 0; i < length; i++ {
			line[i] = get(i)
			prefix[i+1] = prefix[i] + int32(line[i])
		}
		for i := 0; i < length; i++ {
			lo, hi := i-before, i+after
			if lo < 0 {
				lo = 0
			}
			if hi > length-1 {
				hi = length - 1
			}
			count := prefix[hi+1] - prefix[lo]
			var v uint8
			if erode {
				if int(count) == hi-lo+1 {
					v = 1
				}
			} else if count > 0 {
				v = 1
			}
			set(i, v)
		}
	}

	for y := 0; y < m.h; y++ {
		row := m.pix[y*m.w : (y+1)*m.w]
		apply(m.w, func(i int) uint8 { return row[i] }, func(i int, v uint8) { row[i] = v })
	}
	for x := 0; x < m.w; x++ {
		apply(m.h,
			func(i int) uint8 { return m.pix[i*m.w+x] },
			func(i int, v uint8) { m.pix[i*m.w+x] = v },
		)
	}
}
