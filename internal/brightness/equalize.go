package brightness

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"github.com/rs/zerolog"
)

// PatchEvent is passed to Hooks.OnPatch after a correction has been applied.
type PatchEvent struct {
	Pass       Mode
	Index      int   // corrections applied before this one in the pass
	Patch      Patch // clipped to the image
	Similarity float64
	Difference float64
	Damping    float64
	Delta      float64 // lightness step before damping

	// Lab holds the working planes; Lab.L already includes this correction.
	// It is owned by the equalizer and must not be modified or retained.
	Lab *imaging.LabPlanes
}

// Hooks let callers observe a run without changing it. Nil hooks are
// skipped.
type Hooks struct {
	OnSearchStep func(SearchStep)
	OnPatch      func(PatchEvent)
}

// PassStats summarizes one traversal.
type PassStats struct {
	Mode       Mode    `json:"mode"`
	Visited    int     `json:"visited"`
	Degenerate int     `json:"degenerate"`
	Corrected  int     `json:"corrected"`
	TargetMean float64 `json:"target_mean"`
}

// Result is the output of Equalizer.Run.
type Result struct {
	Image       *imaging.Raster
	Lightness   *imaging.Plane // corrected lightness before quantization
	PatchWidth  int
	PatchHeight int
	Passes      []PassStats

	MeanLightnessBefore float64
	MeanLightnessAfter  float64
}

// Option configures an Equalizer.
type Option func(*Equalizer)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Equalizer) { e.log = l }
}

// WithHooks installs observation callbacks.
func WithHooks(h Hooks) Option {
	return func(e *Equalizer) { e.hooks = h }
}

// WithRand replaces the random source derived from Config.Seed. The source
// is shared by every Run, so repeated runs continue its stream.
func WithRand(rng *rand.Rand) Option {
	return func(e *Equalizer) { e.rng = rng }
}

// NewRand returns the generator a run with the given seed draws from.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Equalizer runs brightness equalization with a fixed configuration.
type Equalizer struct {
	cfg   Config
	rng   *rand.Rand // nil: fresh NewRand(cfg.Seed) per Run
	log   zerolog.Logger
	hooks Hooks
}

// New validates cfg and returns an Equalizer. Configuration problems are
// reported as *ConfigError.
func New(cfg Config, opts ...Option) (*Equalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Mode, _ = ParseMode(string(cfg.Mode))

	e := &Equalizer{
		cfg: cfg,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the validated configuration.
func (e *Equalizer) Config() Config {
	return e.cfg
}

// Equalize is a one-shot helper around New and Run.
func Equalize(src *imaging.Raster, cfg Config, opts ...Option) (*imaging.Raster, error) {
	e, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(src)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Run equalizes src and returns a new raster of the same shape. src is not
// modified.
func (e *Equalizer) Run(src *imaging.Raster) (*Result, error) {
	if err := src.RequireColor(); err != nil {
		return nil, fmt.Errorf("equalize: %w", err)
	}

	ig, err := NewIntegral(src)
	if err != nil {
		return nil, err
	}
	whole, ok := ColorVectorOf(src)
	if !ok {
		e.log.Debug().Msg("image colour vector has zero norm, no patch can qualify")
	}

	rng := e.rng
	if rng == nil {
		rng = NewRand(e.cfg.Seed)
	}

	pw, ph := e.patchSize(ig, whole, rng)
	e.log.Debug().
		Int("width", src.Width).
		Int("height", src.Height).
		Int("patch_width", pw).
		Int("patch_height", ph).
		Msg("patch size selected")

	lab, err := imaging.SplitLab(src)
	if err != nil {
		return nil, err
	}
	work := lab.WithLightness(lab.L.Clone())

	res := &Result{
		PatchWidth:          pw,
		PatchHeight:         ph,
		MeanLightnessBefore: lab.L.Mean(),
	}
	for _, mode := range e.passes() {
		stats, err := e.scan(ig, whole, work, pw, ph, mode, rng)
		if err != nil {
			return nil, err
		}
		e.log.Debug().
			Str("mode", string(mode)).
			Int("visited", stats.Visited).
			Int("corrected", stats.Corrected).
			Float64("target_mean", stats.TargetMean).
			Msg("pass complete")
		res.Passes = append(res.Passes, stats)
	}

	res.Lightness = work.L
	res.MeanLightnessAfter = work.L.Mean()
	res.Image = work.Merge()
	return res, nil
}

func (e *Equalizer) patchSize(ig *Integral, whole ColorVector, rng *rand.Rand) (int, int) {
	s := e.cfg.Search
	if s.PatchWidth > 0 && s.PatchHeight > 0 {
		return s.PatchWidth, s.PatchHeight
	}
	return FindPatchDimensions(ig, whole, e.cfg.SimilarityThreshold, s, rng, e.hooks.OnSearchStep)
}

func (e *Equalizer) passes() []Mode {
	if e.cfg.Mode == ModeBoth {
		return []Mode{ModeRandom, ModeRaster}
	}
	return []Mode{e.cfg.Mode}
}

// scan runs one traversal, correcting lab.L in place.
func (e *Equalizer) scan(ig *Integral, whole ColorVector, lab *imaging.LabPlanes, pw, ph int, mode Mode, rng *rand.Rand) (PassStats, error) {
	lum := lab.L
	stats := PassStats{Mode: mode, TargetMean: lum.Mean()}

	patches, err := Coordinates(lum.Width, lum.Height, pw, ph, mode, e.cfg.RandomSamples, rng)
	if err != nil {
		return stats, err
	}
	schedule := NewSchedule(e.cfg.Damping, e.cfg.RandomSamples)

	for p := range patches {
		stats.Visited++
		v, ok := ig.ColorVector(p)
		if !ok {
			stats.Degenerate++
			continue
		}
		sim, diff := Compare(v, whole)
		if sim <= e.cfg.SimilarityThreshold || diff <= e.cfg.DifferenceThreshold {
			continue
		}

		c := p.Clip(lum.Width, lum.Height)
		mean, _ := lum.RegionMean(c.X1, c.Y1, c.X2, c.Y2)
		delta := math.Trunc(stats.TargetMean - mean)
		if e.cfg.BrightenOnly && delta < 0 {
			delta = 0
		}
		damping := schedule.At(stats.Corrected)
		lum.AddRegion(c.X1, c.Y1, c.X2, c.Y2, damping*delta, 0, imaging.LightnessScale)

		if e.hooks.OnPatch != nil {
			e.hooks.OnPatch(PatchEvent{
				Pass:       mode,
				Index:      stats.Corrected,
				Patch:      c,
				Similarity: sim,
				Difference: diff,
				Damping:    damping,
				Delta:      delta,
				Lab:        lab,
			})
		}
		stats.Corrected++
	}
	return stats, nil
}
