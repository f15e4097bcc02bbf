package ocr

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

const (
	thresholdBlock  = 11
	thresholdOffset = 2
)

// Binarize applies a Gaussian-weighted adaptive threshold: a pixel turns
// white when it is brighter than its blurred neighbourhood minus offset, and
// black otherwise. Edges replicate the nearest pixel.
func Binarize(img image.Image) *image.Gray {
	return adaptiveThreshold(toGray(img), thresholdBlock, thresholdOffset)
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Rect, img, b.Min, draw.Src)
	return gray
}

func adaptiveThreshold(src *image.Gray, block int, offset float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	if w == 0 || h == 0 {
		return dst
	}
	kernel := gaussianKernel(block)
	r := block / 2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var sum float64
			for k, wgt := range kernel {
				sum += wgt * float64(row[clamp(x+k-r, w)])
			}
			tmp[y*w+x] = sum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k, wgt := range kernel {
				mean += wgt * tmp[clamp(y+k-r, h)*w+x]
			}
			if float64(src.Pix[y*src.Stride+x]) > mean-offset {
				dst.Pix[y*dst.Stride+x] = 0xff
			}
		}
	}
	return dst
}

// gaussianKernel returns normalized weights using the sigma rule for a
// kernel of the given size: 0.3*((size-1)*0.5-1)+0.8.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	r := size / 2
	kernel := make([]float64, size)
	var total float64
	for i := range kernel {
		d := float64(i - r)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		total += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= total
	}
	return kernel
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
