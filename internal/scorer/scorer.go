// Package scorer reduces each photo to a single rankable quality score.
// Six independent sub-scores (brightness, contrast, sharpness, face presence,
// eyes open, smiling) are computed per photo and combined through a weighted
// clamped sum. Every per-photo failure degrades to a zero sub-score; nothing
// here aborts a batch.
package scorer

import (
	"context"
	"os"
	"sync"

	"github.com/kozaktomas/photo-culler/internal/catalog"
	"github.com/kozaktomas/photo-culler/internal/detector"
	"github.com/kozaktomas/photo-culler/internal/grouper"
)

// DefaultMaxAnalysisDim bounds the pixel analysis resolution.
const DefaultMaxAnalysisDim = 256

// Breakdown holds the six sub-scores. Each is conceptually in [0,1] but only
// the composite is hard-clamped.
type Breakdown struct {
	Brightness   float64 `json:"brightness"`
	Contrast     float64 `json:"contrast"`
	Sharpness    float64 `json:"sharpness"`
	FacePresence float64 `json:"face_presence"`
	EyesOpen     float64 `json:"eyes_open"`
	Smiling      float64 `json:"smiling"`
}

// ImageScore is the scored result for one photo.
type ImageScore struct {
	Path      string    `json:"path"`
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// ScoreEntry pairs a score with the keep decision. Keep is seeded by the
// recommendation and may be overridden by review before files are moved.
type ScoreEntry struct {
	Path  string     `json:"path"`
	Score ImageScore `json:"score"`
	Keep  bool       `json:"keep"`
}

// FaceDetector supplies face detection output for an image. The detector
// sidecar client implements it.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) (*detector.FaceResult, error)
}

// Options configures a Scorer. The zero value gives embedded default weights,
// no face detection, the default analysis resolution and os.ReadFile loading.
type Options struct {
	Weights        *Weights     // nil = embedded defaults
	Faces          FaceDetector // nil disables the three face sub-scores
	MaxAnalysisDim int          // <= 0 = DefaultMaxAnalysisDim
	Concurrency    int          // workers per group, <= 0 = 4
	LoadFile       func(path string) ([]byte, error)
}

// Scorer computes composite quality scores. Safe for concurrent use.
type Scorer struct {
	weights     Weights
	faces       FaceDetector
	maxDim      int
	concurrency int
	loadFile    func(path string) ([]byte, error)
}

// New creates a Scorer.
func New(opts Options) *Scorer {
	weights := DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	maxDim := opts.MaxAnalysisDim
	if maxDim <= 0 {
		maxDim = DefaultMaxAnalysisDim
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	loadFile := opts.LoadFile
	if loadFile == nil {
		loadFile = os.ReadFile
	}
	return &Scorer{
		weights:     weights,
		faces:       opts.Faces,
		maxDim:      maxDim,
		concurrency: concurrency,
		loadFile:    loadFile,
	}
}

// Weights returns the active weight set.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// ScoreImage scores a single photo. Failures never propagate: an unreadable
// or undecodable file yields zero pixel sub-scores, a detector failure yields
// zero face sub-scores, and the photo still appears in output with a valid
// (likely low) composite score.
func (s *Scorer) ScoreImage(ctx context.Context, photo catalog.PhotoRecord) ImageScore {
	var b Breakdown

	data, err := s.loadFile(photo.Path)
	if err == nil {
		if px, err := analyzePixels(data, s.maxDim); err == nil {
			b.Brightness = px.brightness
			b.Contrast = px.contrast
			b.Sharpness = px.sharpness
		}
		if s.faces != nil {
			if res, err := s.faces.DetectFaces(ctx, data); err == nil {
				b.FacePresence, b.EyesOpen, b.Smiling = faceScores(res)
			}
			// Detector errors and timeouts read as "no face detected".
		}
	}

	return ImageScore{
		Path:      photo.Path,
		Score:     s.weights.Composite(b),
		Breakdown: b,
	}
}

// ScoreGroup scores every member of a group with a bounded worker pool and
// seeds the keep flag on the recommended entry. Results align with the
// group's member order; there is no cross-member normalization. One photo's
// failure never cancels sibling work.
func (s *Scorer) ScoreGroup(ctx context.Context, group grouper.Group) []ScoreEntry {
	entries := make([]ScoreEntry, len(group))

	semaphore := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i := range group {
		wg.Add(1)
		go func(idx int, photo catalog.PhotoRecord) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			score := s.ScoreImage(ctx, photo)
			entries[idx] = ScoreEntry{Path: photo.Path, Score: score}
		}(i, group[i])
	}
	wg.Wait()

	if idx := Recommend(entries); idx >= 0 {
		entries[idx].Keep = true
	}
	return entries
}

// Recommend returns the index of the entry with the maximum composite score;
// ties resolve to the first occurrence in group order. Returns -1 for an
// empty slice.
func Recommend(entries []ScoreEntry) int {
	best := -1
	for i := range entries {
		if best < 0 || entries[i].Score.Score > entries[best].Score.Score {
			best = i
		}
	}
	return best
}
