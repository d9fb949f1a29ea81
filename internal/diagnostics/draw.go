package diagnostics

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
)

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	switch len(hex) {
	case 6:
		return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid hex color length %d", len(hex))
}

// outline draws the border of [x1,x2) x [y1,y2) onto img, thickness pixels
// wide, blending with the colour's alpha. Parts outside img are dropped.
func outline(img *image.NRGBA, rect image.Rectangle, c color.NRGBA, thickness int) *image.NRGBA {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return img
	}
	t := max(min(thickness, rect.Dx(), rect.Dy()), 1)
	opacity := float64(c.A) / 255
	solid := color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}

	horizontal := imaging.New(rect.Dx(), t, solid)
	vertical := imaging.New(t, rect.Dy(), solid)

	img = imaging.Overlay(img, horizontal, rect.Min, opacity)
	img = imaging.Overlay(img, horizontal, image.Pt(rect.Min.X, rect.Max.Y-t), opacity)
	img = imaging.Overlay(img, vertical, rect.Min, opacity)
	img = imaging.Overlay(img, vertical, image.Pt(rect.Max.X-t, rect.Min.Y), opacity)
	return img
}

// centred returns a w x h rectangle centred on bounds.
func centred(bounds image.Rectangle, w, h int) image.Rectangle {
	x := bounds.Min.X + (bounds.Dx()-w)/2
	y := bounds.Min.Y + (bounds.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
