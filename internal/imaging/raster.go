package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ErrNotColor is returned when an operation needs a 3-channel raster.
var ErrNotColor = errors.New("image is not 3-channel")

// Raster is a fixed-shape, row-major, interleaved 8-bit image buffer.
//
// Pix holds Width*Height*Channels samples. For colour rasters the channel
// order is R, G, B.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height, channels int) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// FromImage copies img into a Raster.
//
// Grayscale images become 1-channel rasters, everything else becomes a
// 3-channel RGB raster. Alpha is dropped (colours are un-premultiplied first).
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray, *image.Gray16:
		r := NewRaster(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(src.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
				r.Pix[y*w+x] = g.Y
			}
		}
		return r
	}

	nrgba := imaging.Clone(img)
	r := NewRaster(w, h, 3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			r.Pix[i] = row[x*4]
			r.Pix[i+1] = row[x*4+1]
			r.Pix[i+2] = row[x*4+2]
		}
	}
	return r
}

// Image returns the raster as an opaque *image.NRGBA (or *image.Gray for
// single channel rasters).
func (r *Raster) Image() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		g := image.NewGray(rect)
		copy(g.Pix, r.Pix)
		return g
	}

	out := image.NewNRGBA(rect)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			i := (y*r.Width + x) * r.Channels
			o := y*out.Stride + x*4
			out.Pix[o] = r.Pix[i]
			out.Pix[o+1] = r.Pix[i+1]
			out.Pix[o+2] = r.Pix[i+2]
			out.Pix[o+3] = 0xff
		}
	}
	return out
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	c := *r
	c.Pix = append([]uint8(nil), r.Pix...)
	return &c
}

// Validate checks the buffer length against the declared shape.
func (r *Raster) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid raster dimensions %dx%d", r.Width, r.Height)
	}
	if r.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", r.Channels)
	}
	if want := r.Width * r.Height * r.Channels; len(r.Pix) != want {
		return fmt.Errorf("raster buffer holds %d samples, want %d (%dx%dx%d)",
			len(r.Pix), want, r.Width, r.Height, r.Channels)
	}
	return nil
}

// RequireColor validates the raster and rejects anything but 3 channels.
func (r *Raster) RequireColor() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Channels != 3 {
		return fmt.Errorf("%w: got %d channel(s)", ErrNotColor, r.Channels)
	}
	return nil
}

// RGB returns the colour at (x, y). It panics on single channel rasters.
func (r *Raster) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * r.Channels
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// SetRGB writes the colour at (x, y).
func (r *Raster) SetRGB(x, y int, red, green, blue uint8) {
	i := (y*r.Width + x) * r.Channels
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

// Fill paints the rectangle [x1,x2) x [y1,y2), clipped to the raster.
func (r *Raster) Fill(x1, y1, x2, y2 int, red, green, blue uint8) {
	x1, y1, x2, y2 = ClipRect(x1, y1, x2, y2, r.Width, r.Height)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			r.SetRGB(x, y, red, green, blue)
		}
	}
}

// Crop returns a copy of [x1,x2) x [y1,y2), clipped to the raster.
func (r *Raster) Crop(x1, y1, x2, y2 int) *Raster {
	x1, y1, x2, y2 = ClipRect(x1, y1, x2, y2, r.Width, r.Height)
	w, h := max(x2-x1, 0), max(y2-y1, 0)
	out := NewRaster(w, h, r.Channels)
	for y := 0; y < h; y++ {
		src := ((y+y1)*r.Width + x1) * r.Channels
		copy(out.Pix[y*w*r.Channels:(y+1)*w*r.Channels], r.Pix[src:src+w*r.Channels])
	}
	return out
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

// Empty reports whether the region has no area.
func (g Region) Empty() bool {
	return g.X2 <= g.X1 || g.Y2 <= g.Y1
}

// Area is the number of pixels covered by the region, zero when empty.
func (g Region) Area() int {
	if g.Empty() {
		return 0
	}
	return (g.X2 - g.X1) * (g.Y2 - g.Y1)
}

// ClipRect clamps a rectangle to [0,width) x [0,height).
func ClipRect(x1, y1, x2, y2, width, height int) (int, int, int, int) {
	return clampInt(x1, 0, width), clampInt(y1, 0, height),
		clampInt(x2, 0, width), clampInt(y2, 0, height)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// quantize rounds v to the nearest 8-bit value.
func quantize(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
