package diagnostics

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/ironsheep/brightness-tools-mcp/internal/brightness"
	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file written by Close.
const ManifestName = "frames.yaml"

// DefaultRate is the fraction of corrected patches that produce a frame.
const DefaultRate = 0.001

// Options control what a FrameRecorder saves.
type Options struct {
	Rate      float64 // probability that a corrected patch is saved
	Seed      uint64  // seeds the sampling, independent of the equalizer
	Color     string  // outline colour, hex
	Thickness int     // outline width in pixels
	Logger    zerolog.Logger
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{
		Rate:      DefaultRate,
		Seed:      1,
		Color:     "#FF0000",
		Thickness: 1,
		Logger:    zerolog.Nop(),
	}
}

// Frame describes one saved correction frame.
type Frame struct {
	File       string           `yaml:"file"`
	Pass       brightness.Mode  `yaml:"pass"`
	PatchIndex int              `yaml:"patch_index"`
	Patch      brightness.Patch `yaml:"patch"`
	Similarity float64          `yaml:"similarity"`
	Damping    float64          `yaml:"damping"`
	Delta      float64          `yaml:"delta"`
}

// SearchFrame describes one saved patch-size candidate.
type SearchFrame struct {
	File string                `yaml:"file"`
	Step brightness.SearchStep `yaml:",inline"`
}

// Manifest is the content of frames.yaml.
type Manifest struct {
	Source string        `yaml:"source,omitempty"`
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
	Rate   float64       `yaml:"rate"`
	Search []SearchFrame `yaml:"search"`
	Frames []Frame       `yaml:"frames"`
}

// FrameRecorder saves sampled intermediate states of one equalization run.
// It is not safe for concurrent use; give every run its own recorder.
type FrameRecorder struct {
	dir      string
	src      *imaging.Raster
	opts     Options
	rng      *rand.Rand
	stroke   color.NRGBA
	log      zerolog.Logger
	manifest Manifest
	err      error
}

// NewFrameRecorder creates dir and returns a recorder for a run over src.
// source is only copied into the manifest.
func NewFrameRecorder(dir, source string, src *imaging.Raster, opts Options) (*FrameRecorder, error) {
	if err := src.RequireColor(); err != nil {
		return nil, err
	}
	if opts.Rate < 0 || opts.Rate > 1 {
		return nil, fmt.Errorf("frame rate must be within [0,1], got %g", opts.Rate)
	}
	c, err := parseHexColor(opts.Color)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	return &FrameRecorder{
		dir:    dir,
		src:    src,
		opts:   opts,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed+1)),
		stroke: c,
		log:    opts.Logger,
		manifest: Manifest{
			Source: source,
			Width:  src.Width,
			Height: src.Height,
			Rate:   opts.Rate,
		},
	}, nil
}

// Hooks returns the equalizer hooks feeding this recorder.
func (f *FrameRecorder) Hooks() brightness.Hooks {
	return brightness.Hooks{
		OnSearchStep: f.OnSearchStep,
		OnPatch:      f.OnPatch,
	}
}

// OnSearchStep renders the candidate size centred on the source image.
func (f *FrameRecorder) OnSearchStep(step brightness.SearchStep) {
	if f.err != nil {
		return
	}
	img := f.src.Image().(*image.NRGBA)
	rect := centred(img.Bounds(), step.PatchWidth, step.PatchHeight)
	img = outline(img, rect, f.stroke, f.opts.Thickness)

	name := fmt.Sprintf("search_%04d.png", len(f.manifest.Search))
	if !f.save(img, name) {
		return
	}
	f.manifest.Search = append(f.manifest.Search, SearchFrame{File: name, Step: step})
}

// OnPatch saves the current state with probability Rate.
func (f *FrameRecorder) OnPatch(ev brightness.PatchEvent) {
	if f.err != nil || f.opts.Rate == 0 || f.rng.Float64() >= f.opts.Rate {
		return
	}
	img := ev.Lab.Merge().Image().(*image.NRGBA)
	rect := image.Rect(ev.Patch.X1, ev.Patch.Y1, ev.Patch.X2, ev.Patch.Y2)
	img = outline(img, rect, f.stroke, f.opts.Thickness)

	name := fmt.Sprintf("frame_%04d.png", len(f.manifest.Frames))
	if !f.save(img, name) {
		return
	}
	f.manifest.Frames = append(f.manifest.Frames, Frame{
		File:       name,
		Pass:       ev.Pass,
		PatchIndex: ev.Index,
		Patch:      ev.Patch,
		Similarity: ev.Similarity,
		Damping:    ev.Damping,
		Delta:      ev.Delta,
	})
}

// Manifest returns what has been recorded so far.
func (f *FrameRecorder) Manifest() Manifest {
	return f.manifest
}

// Close writes the manifest. It returns the first error hit while saving
// frames, if any; recording stops at that point.
func (f *FrameRecorder) Close() error {
	data, err := yaml.Marshal(f.manifest)
	if err != nil {
		return errors.Join(f.err, fmt.Errorf("failed to encode manifest: %w", err))
	}
	path := filepath.Join(f.dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Join(f.err, fmt.Errorf("failed to write manifest: %w", err))
	}
	f.log.Debug().
		Str("dir", f.dir).
		Int("frames", len(f.manifest.Frames)).
		Int("search_frames", len(f.manifest.Search)).
		Msg("frames recorded")
	return f.err
}

func (f *FrameRecorder) save(img image.Image, name string) bool {
	if err := imaging.SaveImage(img, filepath.Join(f.dir, name)); err != nil {
		f.err = err
		f.log.Warn().Err(err).Str("file", name).Msg("frame recording stopped")
		return false
	}
	return true
}
