package imaging

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// LightnessScale maps CIE L* (0..1 in go-colorful) onto the 8-bit range, the
// same convention 8-bit Lab images use.
const LightnessScale = 255.0

// LabPlanes holds a raster split into lightness and the two chroma planes.
type LabPlanes struct {
	L *Plane // lightness, 0..255
	A *Plane
	B *Plane
}

// SplitLab converts a 3-channel raster from sRGB to CIE Lab (D65).
func SplitLab(r *Raster) (*LabPlanes, error) {
	if err := r.RequireColor(); err != nil {
		return nil, err
	}

	lab := &LabPlanes{
		L: NewPlane(r.Width, r.Height),
		A: NewPlane(r.Width, r.Height),
		B: NewPlane(r.Width, r.Height),
	}
	for i := 0; i < r.Width*r.Height; i++ {
		c := colorful.Color{
			R: float64(r.Pix[i*3]) / 255.0,
			G: float64(r.Pix[i*3+1]) / 255.0,
			B: float64(r.Pix[i*3+2]) / 255.0,
		}
		l, a, b := c.Lab()
		lab.L.Pix[i] = l * LightnessScale
		lab.A.Pix[i] = a
		lab.B.Pix[i] = b
	}
	return lab, nil
}

// Merge converts the planes back to an 8-bit sRGB raster. Out-of-gamut colours
// are clamped.
func (lab *LabPlanes) Merge() *Raster {
	w, h := lab.L.Width, lab.L.Height
	out := NewRaster(w, h, 3)
	for i := 0; i < w*h; i++ {
		c := colorful.Lab(lab.L.Pix[i]/LightnessScale, lab.A.Pix[i], lab.B.Pix[i]).Clamped()
		out.Pix[i*3] = quantize(c.R * 255.0)
		out.Pix[i*3+1] = quantize(c.G * 255.0)
		out.Pix[i*3+2] = quantize(c.B * 255.0)
	}
	return out
}

// WithLightness returns a shallow copy of lab using l as the lightness plane.
func (lab *LabPlanes) WithLightness(l *Plane) *LabPlanes {
	return &LabPlanes{L: l, A: lab.A, B: lab.B}
}

// Lightness returns the 0..255 lightness of a single colour.
func Lightness(red, green, blue uint8) float64 {
	c := colorful.Color{R: float64(red) / 255.0, G: float64(green) / 255.0, B: float64(blue) / 255.0}
	l, _, _ := c.Lab()
	return l * LightnessScale
}
