package imaging

import (
	"gonum.org/v1/gonum/stat"
)

// Plane is a single channel float64 grid, row-major.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// At returns the value at (x, y).
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Set writes the value at (x, y).
func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	c := *p
	c.Pix = append([]float64(nil), p.Pix...)
	return &c
}

// Mean is the mean over the whole plane.
func (p *Plane) Mean() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	return stat.Mean(p.Pix, nil)
}

// RegionMean is the mean over [x1,x2) x [y1,y2). The rectangle must be
// clipped and non-empty; ok is false otherwise.
func (p *Plane) RegionMean(x1, y1, x2, y2 int) (mean float64, ok bool) {
	if x2 <= x1 || y2 <= y1 {
		return 0, false
	}
	var sum float64
	for y := y1; y < y2; y++ {
		row := p.Pix[y*p.Width+x1 : y*p.Width+x2]
		for _, v := range row {
			sum += v
		}
	}
	return sum / float64((x2-x1)*(y2-y1)), true
}

// AddRegion adds delta to every value in [x1,x2) x [y1,y2) and clamps the
// result to [lo,hi].
func (p *Plane) AddRegion(x1, y1, x2, y2 int, delta, lo, hi float64) {
	for y := y1; y < y2; y++ {
		row := p.Pix[y*p.Width+x1 : y*p.Width+x2]
		for i, v := range row {
			v += delta
			if v < lo {
				v = lo
			} else if v > hi {
				v = hi
			}
			row[i] = v
		}
	}
}

// MaxAbsDiff returns the largest absolute per-sample difference between two
// planes of the same shape.
func MaxAbsDiff(a, b *Plane) float64 {
	var m float64
	for i := range a.Pix {
		d := a.Pix[i] - b.Pix[i]
		if d < 0 {
			d = -d
		}
		if d > m {
			m = d
		}
	}
	return m
}
