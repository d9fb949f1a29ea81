package brightness

import (
	"iter"
	"math/rand/v2"

	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
)

// Patch is a rectangle [X1,X2) x [Y1,Y2) on the image plane. Generated
// patches may extend past the image; consumers clip.
type Patch struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

// Clip clamps the patch to [0,width) x [0,height).
func (p Patch) Clip(width, height int) Patch {
	x1, y1, x2, y2 := imaging.ClipRect(p.X1, p.Y1, p.X2, p.Y2, width, height)
	return Patch{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Area is the pixel count, zero for degenerate patches.
func (p Patch) Area() int {
	return imaging.Region{X1: p.X1, Y1: p.Y1, X2: p.X2, Y2: p.Y2}.Area()
}

// Overlaps reports whether the two patches share at least one pixel.
func (p Patch) Overlaps(q Patch) bool {
	return p.X1 < q.X2 && q.X1 < p.X2 && p.Y1 < q.Y2 && q.Y1 < p.Y2
}

// Coordinates returns the patch sequence for a single scan mode. BOTH is an
// orchestration mode and is rejected here like any other unsupported value.
func Coordinates(width, height, patchWidth, patchHeight int, mode Mode, samples int, rng *rand.Rand) (iter.Seq[Patch], error) {
	switch mode {
	case ModeRaster:
		return RasterPatches(width, height, patchWidth, patchHeight), nil
	case ModeRandom:
		return RandomPatches(width, height, patchWidth, patchHeight, samples, rng), nil
	}
	return nil, &ConfigError{
		Field:  "mode",
		Value:  string(mode),
		Reason: "unsupported traversal mode, allowed modes: RANDOM, RASTER",
	}
}

// RasterPatches yields a patch at every origin of the image in row-major
// order, width*height patches in total. The sequence is restartable.
func RasterPatches(width, height, patchWidth, patchHeight int) iter.Seq[Patch] {
	return func(yield func(Patch) bool) {
		for y1 := 0; y1 < height; y1++ {
			for x1 := 0; x1 < width; x1++ {
				if !yield(Patch{X1: x1, Y1: y1, X2: x1 + patchWidth, Y2: y1 + patchHeight}) {
					return
				}
			}
		}
	}
}

// RandomPatches yields exactly n patches. Origins are drawn uniformly from
// [-width,width) x [-height,height); the far corner is computed from the drawn
// origin before the origin is clamped to zero. Half of all draws therefore
// land on the top or left edge with a shortened patch.
func RandomPatches(width, height, patchWidth, patchHeight, n int, rng *rand.Rand) iter.Seq[Patch] {
	return func(yield func(Patch) bool) {
		for i := 0; i < n; i++ {
			x1 := rng.IntN(2*width) - width
			y1 := rng.IntN(2*height) - height
			p := Patch{X1: max(x1, 0), Y1: max(y1, 0), X2: x1 + patchWidth, Y2: y1 + patchHeight}
			if !yield(p) {
				return
			}
		}
	}
}
