package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess converts an image to black and white using an Otsu threshold and
// returns it PNG encoded.
func Preprocess(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	gray := imaging.Grayscale(src)
	binary := Binarize(gray, OtsuThreshold(gray))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, binary, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// OtsuThreshold returns the grey level that maximizes between-class variance
// of the image histogram. img is expected to be grayscale; the red channel is used.
func OtsuThreshold(img *image.NRGBA) uint8 {
	var hist [256]int
	total := 0
	for i := 0; i < len(img.Pix); i += 4 {
		hist[img.Pix[i]]++
		total++
	}
	if total == 0 {
		return 0
	}

	var sumAll float64
	for level, count := range hist {
		sumAll += float64(level * count)
	}

	var (
		sumBack    float64
		weightBack int
		best       float64
		threshold  int
	)
	for level := 0; level < 256; level++ {
		weightBack += hist[level]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(level * hist[level])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sumAll - sumBack) / float64(weightFore)
		between := float64(weightBack) * float64(weightFore) * (meanBack - meanFore) * (meanBack - meanFore)
		if between > best {
			best = between
			threshold = level
		}
	}
	return uint8(threshold)
}

// Binarize maps pixels brighter than threshold to white and the rest to black.
func Binarize(img *image.NRGBA, threshold uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4] > threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
