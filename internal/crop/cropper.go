// Package crop computes crop geometry from a batch policy and applies it to
// image files on disk.
package crop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// OutputPrefix marks every cropped output file name.
const OutputPrefix = "cropped-"

// Cropper applies a Policy to image files. The random source backing
// KindRandomShrink is injectable so tests can seed it deterministically.
type Cropper struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Cropper seeded from the current time.
func New() *Cropper {
	return NewWithSource(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithSource returns a Cropper drawing randomness from rng.
func NewWithSource(rng *rand.Rand) *Cropper {
	return &Cropper{rng: rng}
}

// geometry serialises access to the shared random source; crops for one batch
// may run concurrently.
func (c *Cropper) geometry(p Policy, w, h int) (image.Rectangle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Geometry(p, w, h, c.rng)
}

// Crop loads the image at inputPath, applies the policy, and writes the
// cropped image into outDir under outName. The output is encoded in the
// format sniffed from the source content, not from its file extension, so a
// JPEG named "x.bmp" stays a JPEG. An empty outName defaults to
// "cropped-<basename>". It creates outDir if absent. Returns the output path.
func (c *Cropper) Crop(ctx context.Context, inputPath, outDir, outName string, p Policy) (string, error) {
	if outName == "" {
		outName = OutputPrefix + filepath.Base(inputPath)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(inputPath), err)
	}

	var format imaging.Format
	switch DetectFormat(data) {
	case "jpeg":
		format = imaging.JPEG
	case "png":
		format = imaging.PNG
	default:
		return "", fmt.Errorf("unsupported image content in %s", filepath.Base(inputPath))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", filepath.Base(inputPath), err)
	}

	bounds := img.Bounds()
	rect, err := c.geometry(p, bounds.Dx(), bounds.Dy())
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	cropped := imaging.Crop(img, rect)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	outPath := filepath.Join(outDir, outName)
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", outName, err)
	}
	if err := imaging.Encode(out, cropped, format, imaging.JPEGQuality(85)); err != nil {
		out.Close()
		os.Remove(outPath)
		return "", fmt.Errorf("encoding %s: %w", outName, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("writing %s: %w", outName, err)
	}

	return outPath, nil
}
