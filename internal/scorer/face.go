package scorer

import (
	"math"

	"github.com/kozaktomas/photo-culler/internal/detector"
)

// Eye-Aspect-Ratio taper bounds: below earClosed the eye counts as shut,
// at or above earOpen as fully open, linear in between.
const (
	earClosed = 0.20
	earOpen   = 0.28
)

// faceScores derives the three face sub-scores from a detection result,
// using the best face only. No faces means all three are 0.
func faceScores(res *detector.FaceResult) (presence, eyesOpen, smiling float64) {
	face := bestFace(res.Faces)
	if face == nil {
		return 0, 0, 0
	}

	presence = facePresence(face, res.Width, res.Height)
	eyesOpen = eyesOpenScore(averageEAR(face))
	smiling = clamp01(math.Pow(clamp01(face.HappyProb), 0.8))
	return presence, eyesOpen, smiling
}

// bestFace picks the face with the highest detection confidence; ties go to
// the larger bounding box.
func bestFace(faces []detector.Face) *detector.Face {
	var best *detector.Face
	for i := range faces {
		f := &faces[i]
		if best == nil || f.DetScore > best.DetScore ||
			(f.DetScore == best.DetScore && bboxArea(f.BBox) > bboxArea(best.BBox)) {
			best = f
		}
	}
	return best
}

// facePresence blends detector confidence with a light area prior, so tiny
// distant faces score lower even at high confidence.
func facePresence(face *detector.Face, width, height int) float64 {
	relArea := 0.0
	if width > 0 && height > 0 {
		relArea = clamp01(bboxArea(face.BBox) / (float64(width) * float64(height)))
	}
	return clamp01(0.8*face.DetScore + 0.2*math.Sqrt(relArea))
}

// bboxArea is the area of an [x1, y1, x2, y2] box; malformed boxes are 0.
func bboxArea(bbox []float64) float64 {
	if len(bbox) != 4 {
		return 0
	}
	w := bbox[2] - bbox[0]
	h := bbox[3] - bbox[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// averageEAR averages the Eye-Aspect-Ratio over the eyes that carry
// landmarks. No usable eye landmarks means 0 (reads as closed).
func averageEAR(face *detector.Face) float64 {
	var sum float64
	eyes := 0
	for _, points := range [][][]float64{face.LeftEye, face.RightEye} {
		if ear, ok := eyeAspectRatio(points); ok {
			sum += ear
			eyes++
		}
	}
	if eyes == 0 {
		return 0
	}
	return sum / float64(eyes)
}

// eyeAspectRatio computes EAR = (‖p2−p6‖ + ‖p3−p5‖) / (2·‖p1−p4‖) from the
// standard 6-point eye contour. Returns ok=false for missing or degenerate
// landmarks (fewer than 6 points, zero horizontal span).
func eyeAspectRatio(points [][]float64) (float64, bool) {
	if len(points) < 6 {
		return 0, false
	}
	for _, p := range points {
		if len(p) < 2 {
			return 0, false
		}
	}

	horizontal := pointDistance(points[0], points[3])
	if horizontal == 0 {
		return 0, false
	}
	vertical := pointDistance(points[1], points[5]) + pointDistance(points[2], points[4])
	return vertical / (2 * horizontal), true
}

// eyesOpenScore maps an EAR through the closed/open taper.
func eyesOpenScore(ear float64) float64 {
	if ear < earClosed {
		return 0
	}
	if ear >= earOpen {
		return 1
	}
	return (ear - earClosed) / (earOpen - earClosed)
}

func pointDistance(p, q []float64) float64 {
	dx := p[0] - q[0]
	dy := p[1] - q[1]
	return math.Sqrt(dx*dx + dy*dy)
}
