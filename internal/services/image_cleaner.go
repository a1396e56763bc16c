package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"

	// page images may arrive as JPEG when rendered by other tools
	_ "image/jpeg"
)

// CleanCheckImage converts an encoded page image to grayscale, removes scanner
// speckle with a 3x3 median filter and binarises it with Otsu's threshold.
// The result is PNG encoded.
func CleanCheckImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	raw := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			raw.SetGray(x, y, color.GrayModel.Convert(src.At(x, y)).(color.Gray))
		}
	}

	gray := medianFilter(raw)
	var histogram [256]int
	for _, v := range gray.Pix {
		histogram[v]++
	}

	threshold := otsuThreshold(histogram)
	for i, v := range gray.Pix {
		if v > threshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// medianFilter replaces each pixel with the median of its 3x3 neighbourhood.
// Neighbours outside the image are clamped to the nearest edge pixel.
func medianFilter(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	var window [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px := min(max(x+dx, b.Min.X), b.Max.X-1)
					py := min(max(y+dy, b.Min.Y), b.Max.Y-1)
					window[n] = src.GrayAt(px, py).Y
					n++
				}
			}
			slices.Sort(window[:])
			dst.SetGray(x, y, color.Gray{Y: window[4]})
		}
	}
	return dst
}

// otsuThreshold picks the level that maximises the between-class variance
func otsuThreshold(histogram [256]int) uint8 {
	total := 0
	sum := 0.0
	for level, count := range histogram {
		total += count
		sum += float64(level * count)
	}
	if total == 0 {
		return 0
	}

	var (
		weightBg  int
		sumBg     float64
		best      float64
		threshold uint8
	)
	for level, count := range histogram {
		weightBg += count
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(level * count)
		meanBg := sumBg / float64(weightBg)
		meanFg := (sum - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			threshold = uint8(level)
		}
	}
	return threshold
}
