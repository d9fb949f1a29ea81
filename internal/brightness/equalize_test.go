package brightness

import (
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func fixedPatchConfig(mode Mode, size int) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.SimilarityThreshold = 3
	cfg.Search.PatchWidth = size
	cfg.Search.PatchHeight = size
	return cfg
}

func quadrantMean(p *imaging.Plane, x1, y1, x2, y2 int) float64 {
	m, _ := p.RegionMean(x1, y1, x2, y2)
	return m
}

func TestEqualize_LiftsDarkCorner(t *testing.T) {
	src := darkenedGrey(t, 48)
	before := lightness(t, src)

	e, err := New(fixedPatchConfig(ModeRaster, 6))
	require.NoError(t, err)
	res, err := e.Run(src)
	require.NoError(t, err)

	require.Len(t, res.Passes, 1)
	assert.Equal(t, 48*48, res.Passes[0].Visited)
	assert.Positive(t, res.Passes[0].Corrected)

	assert.Greater(t, quadrantMean(res.Lightness, 24, 24, 48, 48), quadrantMean(before, 24, 24, 48, 48))
	assert.Less(t, quadrantMean(res.Lightness, 0, 0, 24, 24), quadrantMean(before, 0, 0, 24, 24))
	assert.Less(t, stat.PopStdDev(res.Lightness.Pix, nil), stat.PopStdDev(before.Pix, nil))
}

func meanAbsDiff(a, b *imaging.Plane) float64 {
	sum := 0.0
	for i := range a.Pix {
		sum += math.Abs(a.Pix[i] - b.Pix[i])
	}
	return sum / float64(len(a.Pix))
}

func TestEqualize_RasterConverges(t *testing.T) {
	src := darkenedGrey(t, 48)
	cfg := fixedPatchConfig(ModeRaster, 6)

	once, err := Equalize(src, cfg)
	require.NoError(t, err)
	twice, err := Equalize(once, cfg)
	require.NoError(t, err)

	l0, l1, l2 := lightness(t, src), lightness(t, once), lightness(t, twice)
	first, second := meanAbsDiff(l0, l1), meanAbsDiff(l1, l2)
	assert.Positive(t, first)
	assert.Less(t, second, first/2)
	assert.LessOrEqual(t, first, imaging.MaxAbsDiff(l0, l1))

	s0 := stat.PopStdDev(l0.Pix, nil)
	s1 := stat.PopStdDev(l1.Pix, nil)
	assert.Less(t, s1, s0)
}

func TestEqualize_LeavesDissimilarRegionAlone(t *testing.T) {
	src := darkenedGrey(t, 48)
	src.Fill(0, 0, 8, 8, 220, 30, 30)

	ig, err := NewIntegral(src)
	require.NoError(t, err)
	whole, ok := ColorVectorOf(src)
	require.True(t, ok)

	// every raster patch touching the logo has its origin in [0,8)x[0,8)
	threshold := 0.0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v, ok := ig.ColorVector(Patch{X1: x, Y1: y, X2: x + 8, Y2: y + 8})
			require.True(t, ok)
			sim, _ := Compare(v, whole)
			threshold = max(threshold, sim)
		}
	}
	require.Less(t, threshold, MaxSimilarity)

	cfg := fixedPatchConfig(ModeRaster, 8)
	cfg.SimilarityThreshold = threshold

	logo := Patch{X1: 0, Y1: 0, X2: 8, Y2: 8}
	var touched []Patch
	e, err := New(cfg, WithHooks(Hooks{OnPatch: func(ev PatchEvent) {
		touched = append(touched, ev.Patch)
	}}))
	require.NoError(t, err)
	res, err := e.Run(src)
	require.NoError(t, err)

	for _, p := range touched {
		assert.False(t, p.Overlaps(logo), "patch %+v overlaps the logo", p)
	}
	before := lightness(t, src)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, before.At(x, y), res.Lightness.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestEqualize_OnlyCorrectedPatchesChange(t *testing.T) {
	src := noiseRaster(30, 20, 3)
	cfg := DefaultConfig()
	cfg.Mode = ModeBoth
	cfg.RandomSamples = 300
	cfg.SimilarityThreshold = 4
	cfg.Search.PatchWidth = 5
	cfg.Search.PatchHeight = 4

	covered := make([]bool, 30*20)
	e, err := New(cfg, WithHooks(Hooks{OnPatch: func(ev PatchEvent) {
		for y := ev.Patch.Y1; y < ev.Patch.Y2; y++ {
			for x := ev.Patch.X1; x < ev.Patch.X2; x++ {
				covered[y*30+x] = true
			}
		}
	}}))
	require.NoError(t, err)
	res, err := e.Run(src)
	require.NoError(t, err)

	before := lightness(t, src)
	for i, c := range covered {
		if !c {
			assert.Equal(t, before.Pix[i], res.Lightness.Pix[i], "pixel %d", i)
		}
	}
}

func TestEqualize_BrightenOnly(t *testing.T) {
	src := darkenedGrey(t, 48)
	cfg := fixedPatchConfig(ModeBoth, 6)
	cfg.RandomSamples = 2000
	cfg.BrightenOnly = true

	e, err := New(cfg)
	require.NoError(t, err)
	res, err := e.Run(src)
	require.NoError(t, err)

	before := lightness(t, src)
	raised := 0
	for i, v := range res.Lightness.Pix {
		require.GreaterOrEqual(t, v, before.Pix[i], "pixel %d", i)
		if v > before.Pix[i] {
			raised++
		}
	}
	assert.Positive(t, raised)
	assert.GreaterOrEqual(t, res.MeanLightnessAfter, res.MeanLightnessBefore)
}

func TestEqualize_PreservesShape(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {7, 3}, {20, 13}} {
		src := noiseRaster(size[0], size[1], 5)
		cfg := DefaultConfig()
		cfg.Mode = ModeBoth
		cfg.RandomSamples = 200
		cfg.Search.Samples = 20

		out, err := Equalize(src, cfg)
		require.NoError(t, err, "size %v", size)
		assert.Equal(t, src.Width, out.Width)
		assert.Equal(t, src.Height, out.Height)
		assert.Equal(t, 3, out.Channels)
		assert.Len(t, out.Pix, len(src.Pix))
	}
}

func TestEqualize_DoesNotModifyInput(t *testing.T) {
	src := darkenedGrey(t, 24)
	orig := src.Clone()

	_, err := Equalize(src, fixedPatchConfig(ModeBoth, 4))
	require.NoError(t, err)
	assert.Equal(t, orig.Pix, src.Pix)
}

func TestEqualize_Deterministic(t *testing.T) {
	src := noiseRaster(24, 16, 9)
	cfg := DefaultConfig()
	cfg.Mode = ModeBoth
	cfg.RandomSamples = 500
	cfg.Search.Samples = 50
	cfg.Seed = 42

	a, err := Equalize(src, cfg)
	require.NoError(t, err)
	b, err := Equalize(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestEqualizer_RepeatedRunsMatch(t *testing.T) {
	src := noiseRaster(24, 16, 9)
	cfg := DefaultConfig()
	cfg.Mode = ModeBoth
	cfg.RandomSamples = 500
	cfg.Search.Samples = 50
	cfg.Seed = 42

	e, err := New(cfg)
	require.NoError(t, err)
	a, err := e.Run(src)
	require.NoError(t, err)
	b, err := e.Run(src)
	require.NoError(t, err)

	assert.Equal(t, a.PatchWidth, b.PatchWidth)
	assert.Equal(t, a.PatchHeight, b.PatchHeight)
	assert.Equal(t, a.Passes, b.Passes)
	assert.Zero(t, imaging.MaxAbsDiff(a.Lightness, b.Lightness))
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestEqualizer_WithRandContinuesStream(t *testing.T) {
	src := noiseRaster(24, 16, 9)
	cfg := DefaultConfig()
	cfg.Mode = ModeRandom
	cfg.SimilarityThreshold = 0
	cfg.RandomSamples = 200
	cfg.Search.PatchWidth = 4
	cfg.Search.PatchHeight = 4

	var origins [][]Patch
	record := func(ev PatchEvent) {
		origins[len(origins)-1] = append(origins[len(origins)-1], ev.Patch)
	}
	e, err := New(cfg, WithRand(NewRand(cfg.Seed)), WithHooks(Hooks{OnPatch: record}))
	require.NoError(t, err)

	origins = append(origins, nil)
	_, err = e.Run(src)
	require.NoError(t, err)
	origins = append(origins, nil)
	_, err = e.Run(src)
	require.NoError(t, err)

	assert.NotEqual(t, origins[0], origins[1])
}

func TestEqualize_RejectsGray(t *testing.T) {
	src := imaging.NewRaster(8, 8, 1)
	_, err := Equalize(src, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, imaging.ErrNotColor))
}

func TestEqualize_InvalidConfigBeforeImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "SPIRAL"
	_, err := Equalize(nil, cfg)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "mode", cerr.Field)
}

func TestEqualize_Hooks(t *testing.T) {
	src := darkenedGrey(t, 32)
	cfg := DefaultConfig()
	cfg.Mode = ModeBoth
	cfg.SimilarityThreshold = 3
	cfg.RandomSamples = 800
	cfg.Search.Samples = 30

	var steps []SearchStep
	events := map[Mode][]PatchEvent{}
	e, err := New(cfg, WithHooks(Hooks{
		OnSearchStep: func(s SearchStep) { steps = append(steps, s) },
		OnPatch: func(ev PatchEvent) {
			require.NotNil(t, ev.Lab)
			events[ev.Pass] = append(events[ev.Pass], ev)
		},
	}))
	require.NoError(t, err)
	res, err := e.Run(src)
	require.NoError(t, err)

	require.NotEmpty(t, steps)
	require.Len(t, res.Passes, 2)
	assert.Equal(t, ModeRandom, res.Passes[0].Mode)
	assert.Equal(t, ModeRaster, res.Passes[1].Mode)
	assert.Equal(t, 800, res.Passes[0].Visited)
	assert.Equal(t, 32*32, res.Passes[1].Visited)

	for _, stats := range res.Passes {
		evs := events[stats.Mode]
		require.Len(t, evs, stats.Corrected)
		for i, ev := range evs {
			assert.Equal(t, i, ev.Index)
			assert.Greater(t, ev.Similarity, cfg.SimilarityThreshold)
			if i > 0 {
				assert.GreaterOrEqual(t, ev.Damping, evs[i-1].Damping)
			}
			assert.GreaterOrEqual(t, ev.Damping, cfg.Damping.Floor)
			assert.LessOrEqual(t, ev.Damping, cfg.Damping.Ceiling)
		}
	}
}

func TestEqualize_ModeCaseInsensitive(t *testing.T) {
	cfg := fixedPatchConfig("raster", 4)
	e, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, ModeRaster, e.Config().Mode)
}
