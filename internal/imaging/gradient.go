package imaging

import "fmt"

// DarkenGradient returns a copy of r darkened by a stepped falloff that grows
// down the rows and across the columns.
//
// The image is cut into bands of step rows and step columns. Row band i loses
// i*maxIntensity/(H/step) and column band j loses j*maxIntensity/(W/step), so
// the bottom-right corner ends up close to 2*maxIntensity darker than the
// top-left. Results are clipped to [0,255]. Pixels past the last full band are
// left as they are.
//
// This produces the kind of uneven exposure the equalizer is meant to repair,
// which makes it handy for demos and tests.
func DarkenGradient(r *Raster, step int, maxIntensity float64) (*Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, fmt.Errorf("gradient step must be positive, got %d", step)
	}
	if maxIntensity < 0 {
		return nil, fmt.Errorf("gradient intensity must not be negative, got %g", maxIntensity)
	}

	stepsX := r.Width / step
	stepsY := r.Height / step

	offset := make([]float64, r.Width*r.Height)
	if stepsY > 0 {
		di := maxIntensity / float64(stepsY)
		for i := 0; i < stepsY; i++ {
			for y := i * step; y < (i+1)*step; y++ {
				for x := 0; x < r.Width; x++ {
					offset[y*r.Width+x] += float64(i) * di
				}
			}
		}
	}
	if stepsX > 0 {
		di := maxIntensity / float64(stepsX)
		for j := 0; j < stepsX; j++ {
			for x := j * step; x < (j+1)*step; x++ {
				for y := 0; y < r.Height; y++ {
					offset[y*r.Width+x] += float64(j) * di
				}
			}
		}
	}

	out := r.Clone()
	for i, v := range out.Pix {
		p := i / r.Channels
		d := float64(v) - offset[p]
		switch {
		case d <= 0:
			out.Pix[i] = 0
		case d >= 255:
			out.Pix[i] = 255
		default:
			// truncate toward zero
			out.Pix[i] = uint8(d)
		}
	}
	return out, nil
}
