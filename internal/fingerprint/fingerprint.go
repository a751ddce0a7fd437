// Package fingerprint computes perceptual fingerprints for photos and the
// similarity measures the grouping engine is built on.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"sort"
	"strconv"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// HashBits is the fingerprint width. Similarity is normalized against it.
const HashBits = 64

// Hashes contains the computed perceptual hashes for an image.
type Hashes struct {
	PHash     string `json:"phash"` // 64-bit perceptual hash as hex string
	DHash     string `json:"dhash"` // 64-bit difference hash as hex string
	PHashBits uint64 `json:"-"`
	DHashBits uint64 `json:"-"`
}

// Compute decodes an image and computes both pHash and dHash.
func Compute(imageData []byte) (*Hashes, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	pHash := computePHash(img)
	dHash := computeDHash(img)

	return &Hashes{
		PHash:     fmt.Sprintf("%016x", pHash),
		DHash:     fmt.Sprintf("%016x", dHash),
		PHashBits: pHash,
		DHashBits: dHash,
	}, nil
}

// ParseHex parses a hex-encoded 64-bit fingerprint. Empty strings are not
// valid fingerprints, so an absent hash naturally fails to parse.
func ParseHex(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty hash")
	}
	h, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

// HammingDistance computes the bit-wise Hamming distance between two hashes.
func HammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1 // Clear lowest set bit
	}
	return distance
}

// Similarity returns the inverse normalized Hamming distance in [0, 1].
// Identical hashes score 1, fully inverted hashes score 0.
func Similarity(hash1, hash2 uint64) float64 {
	return 1 - float64(HammingDistance(hash1, hash2))/float64(HashBits)
}

// computePHash computes a 64-bit perceptual hash using DCT low frequencies.
func computePHash(img image.Image) uint64 {
	resized := scaleTo(img, 32, 32)
	gray := toGrayscale(resized)
	dct := computeDCT(gray)

	// Top-left 8x8 block holds the low frequencies; skip the DC component.
	lowFreq := make([]float64, 0, HashBits)
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			if u == 0 && v == 0 {
				continue
			}
			lowFreq = append(lowFreq, dct[u][v])
		}
	}
	lowFreq = append(lowFreq, dct[7][7])

	median := computeMedian(lowFreq)

	var hash uint64
	for i := 0; i < HashBits; i++ {
		if lowFreq[i] > median {
			hash |= 1 << (63 - i)
		}
	}
	return hash
}

// computeDHash computes a 64-bit difference hash from horizontal gradients.
func computeDHash(img image.Image) uint64 {
	// 9 columns give 8 horizontal differences per row.
	resized := scaleTo(img, 9, 8)
	gray := toGrayscale(resized)

	var hash uint64
	bit := 63
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if gray[x][y] > gray[x+1][y] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// scaleTo scales an image to exactly width x height.
func scaleTo(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// ShrinkToFit scales an image down so neither dimension exceeds maxDim while
// keeping the aspect ratio. Images already within bounds are returned as-is.
func ShrinkToFit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxDim
		newHeight = int(float64(height) * float64(maxDim) / float64(width))
	} else {
		newHeight = maxDim
		newWidth = int(float64(width) * float64(maxDim) / float64(height))
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	return scaleTo(img, newWidth, newHeight)
}

// ResizeJPEG decodes image bytes, shrinks them to fit maxDim and re-encodes
// as JPEG. Used for review thumbnails.
func ResizeJPEG(data []byte, maxDim int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := toRGBA(ShrinkToFit(img, maxDim))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	return dst
}

// toGrayscale converts an image to a 2D array of grayscale values (0-255),
// indexed [x][y]. BT.601 weights match the hash references this was tuned
// against; the quality scorer uses BT.709 separately.
func toGrayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, width)
	for x := 0; x < width; x++ {
		gray[x] = make([]float64, height)
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			gray[x][y] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return gray
}

// computeDCT computes the DCT-II of a square grayscale grid.
func computeDCT(gray [][]float64) [][]float64 {
	size := len(gray)
	dct := make([][]float64, size)
	for i := range dct {
		dct[i] = make([]float64, size)
	}

	cosTable := make([][]float64, size)
	for i := range cosTable {
		cosTable[i] = make([]float64, size)
		for j := 0; j < size; j++ {
			cosTable[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(size)))
		}
	}

	for u := 0; u < size; u++ {
		for v := 0; v < size; v++ {
			var sum float64
			for x := 0; x < size; x++ {
				for y := 0; y < size; y++ {
					sum += gray[x][y] * cosTable[u][x] * cosTable[v][y]
				}
			}
			dct[u][v] = sum
		}
	}
	return dct
}

// computeMedian returns the median value from a slice.
func computeMedian(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
