package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/brightness-tools-mcp/internal/brightness"
	"github.com/ironsheep/brightness-tools-mcp/internal/diagnostics"
	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"github.com/ironsheep/brightness-tools-mcp/internal/logging"
	"github.com/ironsheep/brightness-tools-mcp/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// app carries what every sub-command shares.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	logLevel   string
	configPath string
	log        zerolog.Logger

	mu sync.Mutex // guards stdout during batch runs
}

func (a *app) println(v ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.stdout, v...)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "brightness-mcp",
		Short: "Blockwise brightness equalization, as a CLI and an MCP server",
		Long: `brightness-mcp evens out uneven exposure in colour images.

Without a sub-command it runs the MCP server over stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop).

Environment variables:
  ` + logging.EnvLevel + `=debug    Enable debug logging`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags())
		},
		RunE: a.runServe,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf(
		"brightness-tools-mcp {{.Version}}\n  Build time: %s\n  Git commit: %s\n", BuildTime, GitCommit))

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides "+logging.EnvLevel)
	pf.StringVar(&a.configPath, "config", "", "YAML file with equalizer settings")

	root.AddCommand(
		a.serveCmd(),
		a.equalizeCmd(),
		a.darkenCmd(),
		a.deltaCmd(),
	)
	return root
}

// setup builds the logger. Logs go to stderr, stdout carries results or the
// MCP protocol.
func (a *app) setup(flags *pflag.FlagSet) error {
	level := logging.LevelFromEnv(zerolog.InfoLevel)
	if flags.Changed("log-level") {
		lvl, err := logging.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		level = lvl
	}
	a.log = logging.New(zerolog.SyncWriter(a.stderr), level, logging.FormatConsole)
	return nil
}

// baseConfig returns the defaults, overlaid by --config when given.
func (a *app) baseConfig() (brightness.Config, error) {
	if a.configPath == "" {
		return brightness.DefaultConfig(), nil
	}
	return brightness.LoadConfig(a.configPath)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unknown command %q", args[0])
	}
	cfg, err := a.baseConfig()
	if err != nil {
		return err
	}

	log := logging.Component(a.log, "server")
	log.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("starting")

	srv := server.New(
		server.WithLogger(log),
		server.WithConfig(cfg),
		server.WithVersion(Version),
	)
	return srv.Serve(cmd.Context(), a.stdin, a.stdout)
}

// equalizeFlags mirrors brightness.Config on the command line.
type equalizeFlags struct {
	mode          string
	simThreshold  float64
	diffThreshold float64
	samples       int
	brightenOnly  bool
	seed          uint64
	patchWidth    int
	patchHeight   int

	out       string
	framesDir string
	frameRate float64
	jobs      int
}

func (f *equalizeFlags) register(fs *pflag.FlagSet) {
	def := brightness.DefaultConfig()
	fs.StringVar(&f.mode, "mode", string(def.Mode), "traversal: RANDOM, RASTER or BOTH")
	fs.Float64Var(&f.simThreshold, "sim-threshold", def.SimilarityThreshold, "minimum colour similarity for a patch to be corrected")
	fs.Float64Var(&f.diffThreshold, "diff-threshold", def.DifferenceThreshold, "minimum colour-vector distance for a patch to be corrected")
	fs.IntVar(&f.samples, "samples", def.RandomSamples, "patches drawn in RANDOM mode; also sets the damping ramp")
	fs.BoolVar(&f.brightenOnly, "brighten-only", def.BrightenOnly, "never darken a patch")
	fs.Uint64Var(&f.seed, "seed", def.Seed, "random seed")
	fs.IntVar(&f.patchWidth, "patch-width", 0, "fixed patch width, skips the patch size search together with --patch-height")
	fs.IntVar(&f.patchHeight, "patch-height", 0, "fixed patch height")

	fs.StringVarP(&f.out, "out", "o", "", "output file (single input only); default <stem>_output<ext>")
	fs.StringVar(&f.framesDir, "frames-dir", "", "record sampled intermediate frames into this directory")
	fs.Float64Var(&f.frameRate, "frame-rate", diagnostics.DefaultRate, "fraction of corrections saved as frames")
	fs.IntVarP(&f.jobs, "jobs", "j", 2, "images processed concurrently")
}

// apply overlays the flags the user actually set onto cfg.
func (f *equalizeFlags) apply(fs *pflag.FlagSet, cfg *brightness.Config) {
	if fs.Changed("mode") {
		cfg.Mode = brightness.Mode(f.mode)
	}
	if fs.Changed("sim-threshold") {
		cfg.SimilarityThreshold = f.simThreshold
	}
	if fs.Changed("diff-threshold") {
		cfg.DifferenceThreshold = f.diffThreshold
	}
	if fs.Changed("samples") {
		cfg.RandomSamples = f.samples
	}
	if fs.Changed("brighten-only") {
		cfg.BrightenOnly = f.brightenOnly
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("patch-width") {
		cfg.Search.PatchWidth = f.patchWidth
	}
	if fs.Changed("patch-height") {
		cfg.Search.PatchHeight = f.patchHeight
	}
}

func (a *app) equalizeCmd() *cobra.Command {
	var f equalizeFlags
	cmd := &cobra.Command{
		Use:   "equalize [flags] IMAGE...",
		Short: "Equalize the brightness of one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.out != "" && len(args) > 1 {
				return fmt.Errorf("--out needs exactly one input, got %d", len(args))
			}
			if f.jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1, got %d", f.jobs)
			}
			if f.out != "" {
				if err := imaging.CheckWritable(f.out); err != nil {
					return err
				}
			}
			cfg, err := a.baseConfig()
			if err != nil {
				return err
			}
			f.apply(cmd.Flags(), &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(f.jobs)
			for _, in := range args {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					out := f.out
					if out == "" {
						out = imaging.OutputPath(in)
					}
					frames := f.framesDir
					if frames != "" && len(args) > 1 {
						frames = filepath.Join(frames, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)))
					}
					return a.equalizeFile(in, out, frames, f.frameRate, cfg)
				})
			}
			return g.Wait()
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) equalizeFile(in, out, framesDir string, frameRate float64, cfg brightness.Config) error {
	log := logging.Component(a.log, "equalize").With().Str("file", in).Logger()

	src, err := imaging.LoadRaster(in)
	if err != nil {
		return err
	}

	opts := []brightness.Option{brightness.WithLogger(log)}
	var rec *diagnostics.FrameRecorder
	if framesDir != "" {
		ro := diagnostics.DefaultOptions()
		ro.Rate = frameRate
		ro.Seed = cfg.Seed
		ro.Logger = log
		if rec, err = diagnostics.NewFrameRecorder(framesDir, in, src, ro); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		opts = append(opts, brightness.WithHooks(rec.Hooks()))
	}

	e, err := brightness.New(cfg, opts...)
	if err != nil {
		return err
	}
	res, err := e.Run(src)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if rec != nil {
		if err := rec.Close(); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
	}
	if err := imaging.Save(res.Image, out); err != nil {
		return err
	}

	corrected := 0
	for _, p := range res.Passes {
		corrected += p.Corrected
	}
	log.Info().
		Str("output", out).
		Int("patch_width", res.PatchWidth).
		Int("patch_height", res.PatchHeight).
		Int("corrected", corrected).
		Float64("mean_before", res.MeanLightnessBefore).
		Float64("mean_after", res.MeanLightnessAfter).
		Msg("equalized")
	a.println(out)
	return nil
}

func (a *app) darkenCmd() *cobra.Command {
	var (
		step         int
		maxIntensity float64
	)
	cmd := &cobra.Command{
		Use:   "darken [flags] INPUT OUTPUT",
		Short: "Write a copy darkened by a stepped falloff toward the bottom-right corner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := imaging.CheckWritable(args[1]); err != nil {
				return err
			}
			src, err := imaging.LoadRaster(args[0])
			if err != nil {
				return err
			}
			out, err := imaging.DarkenGradient(src, step, maxIntensity)
			if err != nil {
				return err
			}
			if err := imaging.Save(out, args[1]); err != nil {
				return err
			}
			a.println(args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&step, "step", 20, "band size in pixels")
	cmd.Flags().Float64Var(&maxIntensity, "max-intensity", 70, "darkening of the last row band and of the last column band")
	return cmd
}

func (a *app) deltaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delta IMAGE_A IMAGE_B",
		Short: "Compare two images by their per-channel medians",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imgA, err := imaging.LoadRaster(args[0])
			if err != nil {
				return err
			}
			imgB, err := imaging.LoadRaster(args[1])
			if err != nil {
				return err
			}
			d, err := imaging.Delta(imgA, imgB)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "mean_diff: %.4f\n", d.MeanDiff)
			fmt.Fprintf(a.stdout, "color_similarity: %.4f\n", d.ColorSimilarity)
			fmt.Fprintf(a.stdout, "median_a: %v\n", d.MedianA)
			fmt.Fprintf(a.stdout, "median_b: %v\n", d.MedianB)
			return nil
		},
	}
}
