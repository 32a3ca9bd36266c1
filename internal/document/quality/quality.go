// Package quality scores image sharpness so unreadable documents are refused before OCR.
package quality

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultBlurThreshold is the Laplacian variance below which an image is blurry.
const DefaultBlurThreshold = 100.0

// Gate rejects images whose sharpness is below Threshold.
type Gate struct {
	Threshold float64
}

// NewGate creates a Gate with the given threshold.
func NewGate(threshold float64) *Gate {
	return &Gate{Threshold: threshold}
}

// IsBlurry reports whether data is too blurry to read. Undecodable data is always blurry.
// The result is monotonic: any sharpness at or above the threshold passes.
func (g *Gate) IsBlurry(data []byte) bool {
	score, err := Sharpness(data)
	if err != nil {
		return true
	}
	return score < g.Threshold
}

// Sharpness decodes data and returns the variance of its Laplacian response.
func Sharpness(data []byte) (float64, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	return LaplacianVariance(imaging.Grayscale(img)), nil
}

// LaplacianVariance applies the 4-neighbour Laplacian kernel with reflected
// borders to the luma of img and returns the population variance.
func LaplacianVariance(img image.Image) float64 {
	gray := luma(img)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return gray[reflectIndex(y, h)*w+reflectIndex(x, w)]
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	return max(sumSq/n-mean*mean, 0)
}

func luma(img image.Image) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Rec. 601 weights over 16-bit channels, scaled to 0..255.
			out[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257
		}
	}
	return out
}

// reflectIndex maps an out-of-range index back inside [0, n) without repeating the edge pixel.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
