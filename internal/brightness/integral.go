package brightness

import (
	"fmt"
	"math"

	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
)

// Integral holds the summed-area tables of a 3-channel raster.
//
// Both tables are (Height+1) x (Width+1) x 3 with a zero first row and
// column, so S1 at (x, y) is the sum of all samples with col < x and row < y.
// Values are float64, which is exact for 8-bit sums of any practical size.
type Integral struct {
	Width  int
	Height int

	sum   []float64
	sumSq []float64
}

// NewIntegral builds the sum and sum-of-squares tables for r. Only 3-channel
// rasters are accepted.
func NewIntegral(r *imaging.Raster) (*Integral, error) {
	if err := r.RequireColor(); err != nil {
		return nil, fmt.Errorf("integral image: %w", err)
	}

	w, h := r.Width, r.Height
	ig := &Integral{
		Width:  w,
		Height: h,
		sum:    make([]float64, (w+1)*(h+1)*3),
		sumSq:  make([]float64, (w+1)*(h+1)*3),
	}

	for y := 0; y < h; y++ {
		var row, rowSq [3]float64
		for x := 0; x < w; x++ {
			src := (y*w + x) * 3
			above := ig.index(x+1, y)
			dst := ig.index(x+1, y+1)
			for c := 0; c < 3; c++ {
				v := float64(r.Pix[src+c])
				row[c] += v
				rowSq[c] += v * v
				ig.sum[dst+c] = ig.sum[above+c] + row[c]
				ig.sumSq[dst+c] = ig.sumSq[above+c] + rowSq[c]
			}
		}
	}
	return ig, nil
}

func (ig *Integral) index(x, y int) int {
	return (y*(ig.Width+1) + x) * 3
}

// Sums returns the per-channel sum and sum of squares over the rectangle
// [x1,x2) x [y1,y2). The rectangle must already be clipped.
func (ig *Integral) Sums(x1, y1, x2, y2 int) (s1, s2 [3]float64) {
	a, b := ig.index(x1, y1), ig.index(x2, y1)
	c, d := ig.index(x1, y2), ig.index(x2, y2)
	for ch := 0; ch < 3; ch++ {
		s1[ch] = ig.sum[d+ch] - ig.sum[b+ch] - ig.sum[c+ch] + ig.sum[a+ch]
		s2[ch] = ig.sumSq[d+ch] - ig.sumSq[b+ch] - ig.sumSq[c+ch] + ig.sumSq[a+ch]
	}
	return s1, s2
}

// ColorVector computes the colour vector of a patch in O(1).
//
// The patch is clipped to the image first. ok is false when the clipped patch
// has no area or the vector has zero norm; such patches must be skipped.
func (ig *Integral) ColorVector(p Patch) (v ColorVector, ok bool) {
	c := p.Clip(ig.Width, ig.Height)
	n := float64(c.Area())
	if n <= 0 {
		return ColorVector{}, false
	}

	s1, s2 := ig.Sums(c.X1, c.Y1, c.X2, c.Y2)
	var mu, std [3]float64
	for ch := 0; ch < 3; ch++ {
		mu[ch] = s1[ch] / n
		variance := (n*s2[ch] - s1[ch]*s1[ch]) / (n * n)
		if variance < 0 {
			variance = 0
		}
		std[ch] = math.Sqrt(variance)
	}
	return newColorVector(mu, std)
}
