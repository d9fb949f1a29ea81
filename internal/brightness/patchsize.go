package brightness

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// SearchStep describes one candidate size tried by FindPatchDimensions.
type SearchStep struct {
	Factor        float64 `json:"factor" yaml:"factor"`
	PatchWidth    int     `json:"patch_width" yaml:"patch_width"`
	PatchHeight   int     `json:"patch_height" yaml:"patch_height"`
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity"`
	Passed        bool    `json:"passed" yaml:"passed"`
}

// SampleSimilarity draws n patches of the given size that lie fully inside
// the image and returns each one's similarity to whole. Patches with no
// usable colour vector score zero.
func SampleSimilarity(ig *Integral, whole ColorVector, patchWidth, patchHeight, n int, rng *rand.Rand) []float64 {
	sims := make([]float64, n)
	for i := range sims {
		x1 := randRange(rng, 0, ig.Width-patchWidth)
		y1 := randRange(rng, 0, ig.Height-patchHeight)
		p := Patch{X1: x1, Y1: y1, X2: x1 + patchWidth, Y2: y1 + patchHeight}
		if v, ok := ig.ColorVector(p); ok {
			sims[i], _ = Compare(v, whole)
		}
	}
	return sims
}

// randRange draws from [lo,hi), or returns lo when the range is empty.
func randRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo)
}

// FindPatchDimensions returns the smallest patch size whose random samples
// all stay at least threshold-similar to the whole image.
//
// The patch is the image size divided by a factor that starts at
// StartFactor and grows by Growth up to MaxFactor. The search stops at the
// first factor whose minimum sample similarity falls below threshold and
// returns the previous size. When even the first candidate fails, that first
// (largest) candidate is returned. Sizes never drop below one pixel.
//
// onStep, when non-nil, sees every candidate that was evaluated.
func FindPatchDimensions(ig *Integral, whole ColorVector, threshold float64, search SearchConfig, rng *rand.Rand, onStep func(SearchStep)) (int, int) {
	dims := func(factor float64) (int, int) {
		return max(int(float64(ig.Width)/factor), 1), max(int(float64(ig.Height)/factor), 1)
	}

	bestW, bestH := dims(search.StartFactor)
	for factor := search.StartFactor; factor <= search.MaxFactor; factor *= search.Growth {
		pw, ph := dims(factor)
		sims := SampleSimilarity(ig, whole, pw, ph, search.Samples, rng)
		step := SearchStep{
			Factor:        factor,
			PatchWidth:    pw,
			PatchHeight:   ph,
			MinSimilarity: floats.Min(sims),
		}
		step.Passed = step.MinSimilarity >= threshold
		if onStep != nil {
			onStep(step)
		}
		if !step.Passed {
			break
		}
		bestW, bestH = pw, ph
	}
	return bestW, bestH
}
