package fingerprint

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name     string
		hash1    uint64
		hash2    uint64
		expected int
	}{
		{"identical", 0x0, 0x0, 0},
		{"completely different", 0xFFFFFFFFFFFFFFFF, 0x0, 64},
		{"one bit different", 0x1, 0x0, 1},
		{"four bits different", 0xF, 0x0, 4},
		{"half different", 0xFFFFFFFF00000000, 0x0, 32},
		{"alternating", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := HammingDistance(tc.hash1, tc.hash2)
			if result != tc.expected {
				t.Errorf("HammingDistance(%x, %x) = %d; want %d",
					tc.hash1, tc.hash2, result, tc.expected)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		hash1    uint64
		hash2    uint64
		expected float64
	}{
		{"identical", 0x0, 0x0, 1.0},
		{"completely different", 0xFFFFFFFFFFFFFFFF, 0x0, 0.0},
		{"one bit different", 0x1, 0x0, 63.0 / 64.0},
		{"ten bits different", 0x3FF, 0x0, 54.0 / 64.0},
		{"half different", 0xFFFFFFFF00000000, 0x0, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Similarity(tc.hash1, tc.hash2)
			if result != tc.expected {
				t.Errorf("Similarity(%x, %x) = %f; want %f",
					tc.hash1, tc.hash2, result, tc.expected)
			}
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected uint64
		wantErr  bool
	}{
		{"zero", "0000000000000000", 0x0, false},
		{"all ones", "ffffffffffffffff", 0xFFFFFFFFFFFFFFFF, false},
		{"mixed", "deadbeefcafe0042", 0xDEADBEEFCAFE0042, false},
		{"short form", "ff", 0xFF, false},
		{"empty", "", 0, true},
		{"not hex", "zzzz", 0, true},
		{"too long", "1ffffffffffffffff", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseHex(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParseHex(%q) expected error, got %x", tc.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) failed: %v", tc.input, err)
			}
			if result != tc.expected {
				t.Errorf("ParseHex(%q) = %x; want %x", tc.input, result, tc.expected)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	img := createTestImage(100, 100, color.White)
	imgData := encodeJPEG(img)

	result, err := Compute(imgData)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if result.PHash == "" {
		t.Error("PHash should not be empty")
	}
	if result.DHash == "" {
		t.Error("DHash should not be empty")
	}

	// Check hex format (16 characters for 64-bit hash)
	if len(result.PHash) != 16 {
		t.Errorf("PHash should be 16 hex characters, got %d: %s", len(result.PHash), result.PHash)
	}
	if len(result.DHash) != 16 {
		t.Errorf("DHash should be 16 hex characters, got %d: %s", len(result.DHash), result.DHash)
	}

	// The hex strings must round-trip back to the bit values.
	parsed, err := ParseHex(result.PHash)
	if err != nil {
		t.Fatalf("ParseHex of fresh PHash failed: %v", err)
	}
	if parsed != result.PHashBits {
		t.Errorf("PHash hex %s does not round-trip: %x vs %x", result.PHash, parsed, result.PHashBits)
	}
}

func TestComputeConsistency(t *testing.T) {
	// Same image should produce same hashes
	img := createTestImage(100, 100, color.RGBA{128, 128, 128, 255})
	imgData := encodeJPEG(img)

	result1, err := Compute(imgData)
	if err != nil {
		t.Fatalf("First Compute failed: %v", err)
	}

	result2, err := Compute(imgData)
	if err != nil {
		t.Fatalf("Second Compute failed: %v", err)
	}

	if result1.PHash != result2.PHash {
		t.Errorf("PHash should be consistent: %s vs %s", result1.PHash, result2.PHash)
	}
	if result1.DHash != result2.DHash {
		t.Errorf("DHash should be consistent: %s vs %s", result1.DHash, result2.DHash)
	}
}

func TestComputeGradient(t *testing.T) {
	img := createGradientImage(100, 100)
	imgData := encodeJPEG(img)

	result, err := Compute(imgData)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// Gradient should produce non-trivial hashes
	if result.PHashBits == 0 && result.DHashBits == 0 {
		t.Error("Gradient image should produce non-zero hashes")
	}

	t.Logf("Gradient pHash: %s (bits: %064b)", result.PHash, result.PHashBits)
	t.Logf("Gradient dHash: %s (bits: %064b)", result.DHash, result.DHashBits)
}

func TestComputeResizedImageStaysSimilar(t *testing.T) {
	// A downscaled copy of the same scene should hash close to the original.
	img := createGradientImage(200, 200)
	small := ShrinkToFit(img, 100)

	origResult, err := Compute(encodeJPEG(img))
	if err != nil {
		t.Fatalf("Compute for original failed: %v", err)
	}
	smallResult, err := Compute(encodeJPEG(small))
	if err != nil {
		t.Fatalf("Compute for resized failed: %v", err)
	}

	sim := Similarity(origResult.PHashBits, smallResult.PHashBits)
	if sim < 0.8 {
		t.Errorf("Resized copy pHash similarity = %f; want >= 0.8", sim)
	}
}

func TestComputeInvalidImage(t *testing.T) {
	invalidData := []byte("not an image")

	_, err := Compute(invalidData)
	if err == nil {
		t.Error("Compute should fail for invalid image data")
	}
}

func TestScaleTo(t *testing.T) {
	img := createTestImage(100, 100, color.White)

	resized := scaleTo(img, 32, 32)

	bounds := resized.Bounds()
	if bounds.Dx() != 32 || bounds.Dy() != 32 {
		t.Errorf("Resized image should be 32x32, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestShrinkToFit(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		maxDim     int
		wantWidth  int
		wantHeight int
	}{
		{"landscape shrinks", 200, 100, 50, 50, 25},
		{"portrait shrinks", 100, 200, 50, 25, 50},
		{"square shrinks", 128, 128, 64, 64, 64},
		{"already fits", 40, 30, 50, 40, 30},
		{"exact fit", 50, 50, 50, 50, 50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := createTestImage(tc.width, tc.height, color.White)
			out := ShrinkToFit(img, tc.maxDim)
			bounds := out.Bounds()
			if bounds.Dx() != tc.wantWidth || bounds.Dy() != tc.wantHeight {
				t.Errorf("ShrinkToFit(%dx%d, %d) = %dx%d; want %dx%d",
					tc.width, tc.height, tc.maxDim,
					bounds.Dx(), bounds.Dy(), tc.wantWidth, tc.wantHeight)
			}
		})
	}
}

func TestResizeJPEG(t *testing.T) {
	img := createGradientImage(300, 200)
	data := encodeJPEG(img)

	thumb, err := ResizeJPEG(data, 100)
	if err != nil {
		t.Fatalf("ResizeJPEG failed: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("Thumbnail did not decode: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() > 100 {
		t.Errorf("Thumbnail should fit in 100x100, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResizeJPEGInvalid(t *testing.T) {
	if _, err := ResizeJPEG([]byte("garbage"), 100); err == nil {
		t.Error("ResizeJPEG should fail for invalid image data")
	}
}

func TestToGrayscale(t *testing.T) {
	// Create a simple colored image
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255}) // Red
		}
	}

	gray := toGrayscale(img)

	if len(gray) != 10 {
		t.Errorf("Grayscale width should be 10, got %d", len(gray))
	}
	if len(gray[0]) != 10 {
		t.Errorf("Grayscale height should be 10, got %d", len(gray[0]))
	}

	// Red should convert to approximately 0.299 * 255 = 76.245
	expectedLuma := 0.299 * 255
	tolerance := 1.0
	if gray[0][0] < expectedLuma-tolerance || gray[0][0] > expectedLuma+tolerance {
		t.Errorf("Red pixel luma should be ~%.2f, got %.2f", expectedLuma, gray[0][0])
	}
}

func TestComputeMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"odd count", []float64{1, 2, 3, 4, 5}, 3},
		{"even count", []float64{1, 2, 3, 4}, 2.5},
		{"single value", []float64{42}, 42},
		{"unsorted", []float64{5, 1, 3, 2, 4}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := computeMedian(tc.values)
			if result != tc.expected {
				t.Errorf("computeMedian(%v) = %f; want %f", tc.values, result, tc.expected)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
		delta    float64
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0, 0.001},
		{"opposite vectors", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0, 0.001},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0, 0.001},
		{"similar vectors", []float32{1, 1, 0}, []float32{1, 0, 0}, 0.707, 0.01},
		{"empty vectors", []float32{}, []float32{}, 0.0, 0.001},
		{"different lengths", []float32{1, 0}, []float32{1, 0, 0}, 0.0, 0.001},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0.0, 0.001},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CosineSimilarity(tc.a, tc.b)
			if result < tc.expected-tc.delta || result > tc.expected+tc.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f; want %f (±%f)",
					tc.a, tc.b, result, tc.expected, tc.delta)
			}
		})
	}
}

// Helper functions

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createGradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			gray := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}
