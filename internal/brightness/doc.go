// Package brightness implements blockwise brightness equalization.
//
// The equalizer samples rectangular patches of an image and decides, from a
// normalized 6-D colour vector (per-channel mean and standard deviation), whether
// a patch belongs to the dominant colour family of the whole image. Patches
// that do have their CIE Lab lightness pulled toward the image mean, by a
// damping factor that ramps up over the course of a scan. Patches whose colour
// stands out (printed logos, contrasting objects) are left alone.
//
// Patch statistics come from integral images (summed-area tables), so scoring
// a patch costs O(1) regardless of its size. The patch size itself is picked
// by an adaptive search that shrinks the patch until random samples stop
// looking like the whole image.
//
// # Scan Modes
//
//   - RANDOM: a fixed number of patches with uniformly drawn origins
//   - RASTER: every patch origin in row-major order; corrections compound
//   - BOTH: a RANDOM pass followed by a RASTER pass over its result
//
// # Determinism
//
// All randomness comes from a PCG generator (NewRand) seeded from Config.Seed
// at the start of every Run, so a given image and configuration always produce
// the same output, including repeated runs of one Equalizer.
//
// # Thread Safety
//
// An Equalizer without WithRand keeps no state between runs and may be shared
// between goroutines. A source installed with WithRand is not safe for
// concurrent use.
package brightness
