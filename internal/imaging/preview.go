package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PreviewResult contains a PNG rendering of a raster, optionally downscaled.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview encodes r (or the region of it, when non-nil) as base64 PNG.
//
// If maxDim is positive and the longer side exceeds it, the image is resized
// with Lanczos filtering so the longer side equals maxDim.
func Preview(r *Raster, region *Region, maxDim int) (*PreviewResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var img image.Image = r.Image()
	if region != nil {
		if region.X1 < 0 || region.Y1 < 0 || region.X2 > r.Width || region.Y2 > r.Height {
			return nil, fmt.Errorf("preview region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, r.Width, r.Height)
		}
		if region.Empty() {
			return nil, fmt.Errorf("invalid preview region: x1 must be < x2, y1 must be < y2")
		}
		img = imaging.Crop(img, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
	}

	b := img.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
