package scorer

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var weightsYAML []byte

// Weights holds the composite reduction weights, one per sub-score. Weights
// are configuration: callers may override the whole set, and they do not have
// to sum to 1 (the composite is clamped).
type Weights struct {
	Brightness   float64 `yaml:"brightness" json:"brightness"`
	Contrast     float64 `yaml:"contrast" json:"contrast"`
	Sharpness    float64 `yaml:"sharpness" json:"sharpness"`
	FacePresence float64 `yaml:"face_presence" json:"face_presence"`
	EyesOpen     float64 `yaml:"eyes_open" json:"eyes_open"`
	Smiling      float64 `yaml:"smiling" json:"smiling"`
}

// DefaultWeights returns the embedded default weight set.
func DefaultWeights() Weights {
	var w Weights
	if err := yaml.Unmarshal(weightsYAML, &w); err != nil {
		// Embedded file, cannot fail in practice.
		panic("failed to unmarshal embedded weights.yaml: " + err.Error())
	}
	return w
}

// LoadWeightsFile reads a weight set from a YAML file. Fields missing from
// the file stay at the embedded defaults.
func LoadWeightsFile(path string) (Weights, error) {
	w := DefaultWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("failed to parse weights file: %w", err)
	}
	return w, nil
}

// Composite reduces a breakdown to the single clamped [0,1] score.
func (w Weights) Composite(b Breakdown) float64 {
	sum := w.Brightness*b.Brightness +
		w.Contrast*b.Contrast +
		w.Sharpness*b.Sharpness +
		w.FacePresence*b.FacePresence +
		w.EyesOpen*b.EyesOpen +
		w.Smiling*b.Smiling
	return clamp01(sum)
}

// clamp01 clamps to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
