package panels

import "image"

const (
	cellBackground uint8 = iota
	cellInk
	cellOuter
	cellClaimed
)

// blob is one external region: an ink component together with every hole it
// encloses and anything nested inside those holes. area is the polygon area
// through the centres of its outer boundary pixels, so a filled w x h
// rectangle measures (w-1)*(h-1).
type blob struct {
	bounds image.Rectangle
	area   int
}

// externalBlobs returns the external regions of m in raster discovery order.
// Background reachable from the page margin (4-connected, as if the page were
// padded by one blank pixel) is the outside; each 8-connected component of
// everything else is one region. The mask is consumed.
func externalBlobs(m *mask) []blob {
	w, h := m.w, m.h
	cells := m.pix
	queue := make([]int32, 0, 1024)

	seed := func(i int) {
		if cells[i] == cellBackground {
			cells[i] = cellOuter
			queue = append(queue, int32(i))
		}
	}
	for x := 0; x < w; x++ {
		seed(x)
		seed((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		seed(y * w)
		seed(y*w + w - 1)
	}
	for len(queue) > 0 {
		i := int(queue[len(queue)-1])
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		if x > 0 {
			seed(i - 1)
		}
		if x < w-1 {
			seed(i + 1)
		}
		if y > 0 {
			seed(i - w)
		}
		if y < h-1 {
			seed(i + w)
		}
	}

	var blobs []blob
	for start, v := range cells {
		if v == cellOuter || v == cellClaimed {
			continue
		}
		b := blob{bounds: image.Rect(start%w, start/w, start%w+1, start/w+1)}
		cells[start] = cellClaimed
		queue = append(queue[:0], int32(start))
		for len(queue) > 0 {
			i := int(queue[len(queue)-1])
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			if x < b.bounds.Min.X {
				b.bounds.Min.X = x
			}
			if x >= b.bounds.Max.X {
				b.bounds.Max.X = x + 1
			}
			if y < b.bounds.Min.Y {
				b.bounds.Min.Y = y
			}
			if y >= b.bounds.Max.Y {
				b.bounds.Max.Y = y + 1
			}
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					j := ny*w + nx
					if c := cells[j]; c == cellInk || c == cellBackground {
						cells[j] = cellClaimed
						queue = append(queue, int32(j))
					}
				}
			}
		}
		b.area = boundaryArea(cells, w, h, start)
		blobs = append(blobs, b)
	}
	return blobs
}

// ring lists the eight neighbour offsets clockwise, starting east.
var ring = [8]image.Point{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

func ringIndex(dx, dy int) int {
	for i, p := range ring {
		if p.X == dx && p.Y == dy {
			return i
		}
	}
	return 0
}

// boundaryArea traces the outer boundary of the claimed region whose first
// raster pixel is start (Moore neighbour tracing) and returns the shoelace area
// of the traced polygon. No other claimed region touches this one, so every
// claimed neighbour belongs to it.
func boundaryArea(cells []uint8, w, h, start int) int {
	inside := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && cells[y*w+x] == cellClaimed
	}
	// step searches clockwise from the backtrack direction and returns the next
	// boundary pixel with its own backtrack direction.
	step := func(x, y, back int) (int, int, int, bool) {
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			cx, cy := x+ring[d].X, y+ring[d].Y
			if !inside(cx, cy) {
				continue
			}
			prev := ring[(d+7)%8]
			return cx, cy, ringIndex(x+prev.X-cx, y+prev.Y-cy), true
		}
		return 0, 0, 0, false
	}

	sx, sy := start%w, start/w
	fx, fy, _, ok := step(sx, sy, 4)
	if !ok {
		return 0
	}
	x, y, back := sx, sy, 4
	area2 := 0
	for n := 0; n <= 8*len(cells); n++ {
		nx, ny, nback, _ := step(x, y, back)
		if n > 0 && x == sx && y == sy && nx == fx && ny == fy {
			break
		}
		area2 += x*ny - nx*y
		x, y, back = nx, ny, nback
	}
	if area2 < 0 {
		area2 = -area2
	}
	return area2 / 2
}
