package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of decoded rasters to avoid
// redundant disk reads.
//
// The cache stores Rasters keyed by their file path. Once a file is loaded,
// subsequent Load() calls for the same path return the cached copy without
// disk I/O. Callers must treat cached rasters as read-only and Clone() them
// before mutating.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	r, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/image.png") // Optional: free memory
type ImageCache struct {
	mu      sync.RWMutex
	rasters map[string]*Raster
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		rasters: make(map[string]*Raster),
	}
}

// Load retrieves a raster from the cache or loads it from disk if not cached.
//
// Supported formats are those registered with the image package: PNG, JPEG,
// GIF, TIFF and BMP (via disintegration/imaging) plus WebP. EXIF orientation
// is applied on load.
func (c *ImageCache) Load(path string) (*Raster, error) {
	c.mu.RLock()
	if r, ok := c.rasters[path]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := LoadRaster(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[path] = r
	c.mu.Unlock()

	return r, nil
}

// Clear removes all rasters from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[string]*Raster)
	c.mu.Unlock()
}

// Evict removes a specific raster from the cache by its path. Unknown paths
// are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.rasters, path)
	c.mu.Unlock()
}

// LoadRaster opens and decodes an image file without caching.
func LoadRaster(path string) (*Raster, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %q: %w", path, err)
	}
	return FromImage(img), nil
}

// Save encodes r to path; the format is chosen from the file extension.
func Save(r *Raster, path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(r.Image(), path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image %q: %w", path, err)
	}
	return nil
}

// SaveImage encodes an arbitrary image to path.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %q: %w", path, err)
	}
	return nil
}

// CheckWritable reports an error when Save cannot encode to path's
// extension (webp is decoded but never written).
func CheckWritable(path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return nil
}

// OutputPath derives "<stem>_output<ext>" next to the input file. Inputs
// whose format Save cannot encode get a .png output.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	if CheckWritable(input) != nil {
		ext = ".png"
	}
	return stem + "_output" + ext
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is 3 for colour images and 1 for grayscale images.
	Channels int `json:"channels"`

	// Format is the detected image format from the file extension.
	Format string `json:"format"`

	// Equalizable is true when the brightness equalizer accepts the image.
	Equalizable bool `json:"equalizable"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns metadata about it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	r, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         r.Width,
		Height:        r.Height,
		Channels:      r.Channels,
		Format:        formatFromExt(path),
		Equalizable:   r.Channels == 3,
		FileSizeBytes: stat.Size(),
	}, nil
}

// formatFromExt maps a file extension to a format name.
func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	case ".webp":
		return "webp"
	}
	return "unknown"
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image, loading it into the cache
// if needed.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	r, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: r.Width, Height: r.Height}, nil
}
