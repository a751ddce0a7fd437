package scorer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/photo-culler/internal/fingerprint"
)

// sharpnessKnee maps Laplacian edge energy into [0,1] via
// energy / (energy + knee): rises quickly out of blur, saturates for very
// sharp images instead of growing without bound.
const sharpnessKnee = 0.01

// pixelScores are the three sub-scores derived from raw pixels.
type pixelScores struct {
	brightness float64
	contrast   float64
	sharpness  float64
}

// analyzePixels decodes imageData, shrinks it to the analysis resolution and
// computes brightness, contrast and sharpness. Degenerate inputs (zero
// pixels, zero variance, too small for the Laplacian) resolve to 0 for the
// affected sub-score, never to NaN.
func analyzePixels(imageData []byte, maxDim int) (pixelScores, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return pixelScores{}, fmt.Errorf("failed to decode image: %w", err)
	}

	luma := lumaGrid(fingerprint.ShrinkToFit(img, maxDim))
	return pixelScores{
		brightness: meanLuma(luma),
		contrast:   rmsContrast(luma),
		sharpness:  laplacianSharpness(luma),
	}, nil
}

// lumaGrid converts an image to [0,1] luma values indexed [x][y], using
// ITU-R BT.709 weights.
func lumaGrid(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	luma := make([][]float64, width)
	for x := 0; x < width; x++ {
		luma[x] = make([]float64, height)
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rf := float64(r>>8) / 255
			gf := float64(g>>8) / 255
			bf := float64(b>>8) / 255
			luma[x][y] = 0.2126*rf + 0.7152*gf + 0.0722*bf
		}
	}
	return luma
}

// meanLuma is the brightness sub-score: mean luma, clamped.
func meanLuma(luma [][]float64) float64 {
	var sum float64
	count := 0
	for x := range luma {
		for y := range luma[x] {
			sum += luma[x][y]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return clamp01(sum / float64(count))
}

// rmsContrast is the contrast sub-score: the standard deviation of the luma
// distribution, normalized against 0.5 as the full-contrast reference.
func rmsContrast(luma [][]float64) float64 {
	mean := 0.0
	count := 0
	for x := range luma {
		for y := range luma[x] {
			mean += luma[x][y]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean /= float64(count)

	var variance float64
	for x := range luma {
		for y := range luma[x] {
			d := luma[x][y] - mean
			variance += d * d
		}
	}
	variance /= float64(count)

	return clamp01(math.Sqrt(variance) / 0.5)
}

// laplacianSharpness is the sharpness sub-score: variance-of-Laplacian edge
// energy mapped through a saturating curve. The 4-neighbor kernel
// [[0,1,0],[1,-4,1],[0,1,0]] is applied at every interior pixel.
func laplacianSharpness(luma [][]float64) float64 {
	width := len(luma)
	if width < 3 {
		return 0
	}
	height := len(luma[0])
	if height < 3 {
		return 0
	}

	var energy float64
	count := 0
	for x := 1; x < width-1; x++ {
		for y := 1; y < height-1; y++ {
			response := luma[x-1][y] + luma[x+1][y] + luma[x][y-1] + luma[x][y+1] - 4*luma[x][y]
			energy += response * response
			count++
		}
	}
	if count == 0 {
		return 0
	}
	energy /= float64(count)

	return energy / (energy + sharpnessKnee)
}
