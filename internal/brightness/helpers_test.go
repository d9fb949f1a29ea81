package brightness

import (
	"math/rand/v2"
	"testing"

	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"github.com/stretchr/testify/require"
)

// uniformRaster returns a raster filled with one colour.
func uniformRaster(width, height int, r, g, b uint8) *imaging.Raster {
	img := imaging.NewRaster(width, height, 3)
	img.Fill(0, 0, width, height, r, g, b)
	return img
}

// noiseRaster returns a raster of deterministic random colours.
func noiseRaster(width, height int, seed uint64) *imaging.Raster {
	rng := rand.New(rand.NewPCG(seed, seed))
	img := imaging.NewRaster(width, height, 3)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

// darkenedGrey returns a grey raster with a stepped row/column falloff.
func darkenedGrey(t *testing.T, size int) *imaging.Raster {
	t.Helper()
	out, err := imaging.DarkenGradient(uniformRaster(size, size, 150, 150, 150), 6, 40)
	require.NoError(t, err)
	return out
}

// lightness returns the 0..255 Lab lightness plane of r.
func lightness(t *testing.T, r *imaging.Raster) *imaging.Plane {
	t.Helper()
	lab, err := imaging.SplitLab(r)
	require.NoError(t, err)
	return lab.L
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}
