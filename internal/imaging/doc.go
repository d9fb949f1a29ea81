// Package imaging provides the raster plumbing around the brightness equalizer.
//
// It converts between Go's image.Image values and a fixed-shape 8-bit Raster,
// splits a Raster into CIE Lab planes and merges them back, loads and saves
// files, and carries a couple of small analysis helpers (median based image
// delta, synthetic gradient darkening) that the tools and tests build on.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Promotion Rules
//
// A Raster always stores interleaved uint8 samples. Arithmetic happens on
// float64 Planes; values are clamped to [0,255] and rounded when written back
// into a Raster.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Rasters and Planes are plain
// buffers and must be synchronized by the caller if shared while mutated.
package imaging
