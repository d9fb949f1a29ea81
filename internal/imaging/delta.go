package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/histogram"
)

// DeltaResult describes how far apart two images are in overall colour.
type DeltaResult struct {
	// MeanDiff is the Euclidean distance between the per-channel medians.
	MeanDiff float64 `json:"mean_diff"`

	// ColorSimilarity is -ln(1 - cos) of the two median colours, with the
	// cosine clipped below 1. Larger means more alike; the ceiling is ~13.8.
	ColorSimilarity float64 `json:"color_similarity"`

	// MedianA and MedianB are the per-channel (R, G, B) medians.
	MedianA [3]float64 `json:"median_a"`
	MedianB [3]float64 `json:"median_b"`
}

// maxCosine keeps -ln(1-cos) finite for identical colours.
const maxCosine = 0.999999

// Delta compares two colour rasters by their per-channel median colour.
//
// The rasters may have different sizes. Medians come from 256-bin channel
// histograms; an even pixel count averages the two middle samples.
func Delta(a, b *Raster) (*DeltaResult, error) {
	if err := a.RequireColor(); err != nil {
		return nil, err
	}
	if err := b.RequireColor(); err != nil {
		return nil, err
	}

	ma := Medians(a)
	mb := Medians(b)

	var diff, dot, na, nb float64
	for c := 0; c < 3; c++ {
		d := mb[c] - ma[c]
		diff += d * d
		dot += ma[c] * mb[c]
		na += ma[c] * ma[c]
		nb += mb[c] * mb[c]
	}

	cosine := 0.0
	if na > 0 && nb > 0 {
		cosine = dot / (math.Sqrt(na) * math.Sqrt(nb))
	}
	cosine = math.Min(cosine, maxCosine)

	return &DeltaResult{
		MeanDiff:        math.Sqrt(diff),
		ColorSimilarity: -math.Log(1.0 - cosine),
		MedianA:         ma,
		MedianB:         mb,
	}, nil
}

// Medians returns the per-channel median of a colour raster.
func Medians(r *Raster) [3]float64 {
	h := histogram.NewRGBAHistogram(r.Image())
	total := r.Width * r.Height
	return [3]float64{
		medianBin(h.R.Bins, total),
		medianBin(h.G.Bins, total),
		medianBin(h.B.Bins, total),
	}
}

// medianBin returns the median sample of a histogram with total samples.
// An even count averages the two middle samples.
func medianBin(bins []int, total int) float64 {
	if total <= 0 {
		return 0
	}
	lo, hi := rankBin(bins, (total-1)/2), rankBin(bins, total/2)
	return float64(lo+hi) / 2
}

// rankBin returns the bin holding the sample at zero-based rank k.
func rankBin(bins []int, k int) int {
	acc := 0
	for i, n := range bins {
		acc += n
		if acc > k {
			return i
		}
	}
	return len(bins) - 1
}
