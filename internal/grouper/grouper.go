// Package grouper partitions a photo batch into near-duplicate/burst groups.
// Photos are linked when any of three weak signals fires (perceptual hash
// similarity, capture-time proximity, or time-bounded embedding similarity)
// and groups are the connected components of that relation. The OR combination
// deliberately over-groups: a human reviews each group afterwards, so missed
// duplicates cost more than a too-large group.
package grouper

import (
	"github.com/kozaktomas/photo-culler/internal/catalog"
	"github.com/kozaktomas/photo-culler/internal/fingerprint"
)

// Config carries the linking thresholds.
type Config struct {
	PHashThreshold   float64 // minimum normalized hash similarity, 0..1
	SecondsSeparated int     // burst window in seconds
	CosineThreshold  float64 // minimum embedding cosine similarity
	CosineMaxMinutes int     // time window within which embedding links count
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		PHashThreshold:   0.85,
		SecondsSeparated: 10,
		CosineThreshold:  0.8,
		CosineMaxMinutes: 1440,
	}
}

// Group is one connected component of linked photos, in discovery order.
type Group []catalog.PhotoRecord

// Paths returns the member paths in group order.
func (g Group) Paths() []string {
	paths := make([]string, len(g))
	for i := range g {
		paths[i] = g[i].Path
	}
	return paths
}

// Signals is the pairwise similarity bundle the linking predicate decides on.
// A nil field means the signal could not be computed for the pair (missing
// hash, missing timestamp, missing or degenerate embedding). Absent signals
// never link.
type Signals struct {
	HashSim     *float64 // normalized inverse Hamming distance, 0..1
	TimeDeltaMs *int64   // absolute capture-time difference
	CosineSim   *float64 // embedding cosine similarity
}

// CollectSignals computes the signal bundle for a photo pair. The result is
// symmetric in a and b.
func CollectSignals(a, b *catalog.PhotoRecord) Signals {
	var s Signals

	if ha, errA := fingerprint.ParseHex(a.Hash); errA == nil {
		if hb, errB := fingerprint.ParseHex(b.Hash); errB == nil {
			sim := fingerprint.Similarity(ha, hb)
			s.HashSim = &sim
		}
	}

	if a.HasCaptureTime() && b.HasCaptureTime() {
		delta := *a.CaptureTime - *b.CaptureTime
		if delta < 0 {
			delta = -delta
		}
		s.TimeDeltaMs = &delta
	}

	if a.HasEmbedding() && b.HasEmbedding() {
		sim := fingerprint.CosineSimilarity(a.Embedding, b.Embedding)
		s.CosineSim = &sim
	}

	return s
}

// Linked reports whether a photo pair with the given signals belongs in the
// same group. Any one signal suffices:
//  1. hash similarity at or above PHashThreshold,
//  2. capture times within SecondsSeparated of each other,
//  3. cosine similarity above CosineThreshold, provided the capture times are
//     within CosineMaxMinutes — or both unknown, which counts as in-window.
func (c Config) Linked(s Signals) bool {
	if s.HashSim != nil && *s.HashSim >= c.PHashThreshold {
		return true
	}
	if s.TimeDeltaMs != nil && *s.TimeDeltaMs <= int64(c.SecondsSeparated)*1000 {
		return true
	}
	if s.CosineSim != nil && *s.CosineSim > c.CosineThreshold {
		if s.TimeDeltaMs == nil || *s.TimeDeltaMs <= int64(c.CosineMaxMinutes)*60*1000 {
			return true
		}
	}
	return false
}

// LinkedRecords is Linked applied to two full records.
func (c Config) LinkedRecords(a, b *catalog.PhotoRecord) bool {
	return c.Linked(CollectSignals(a, b))
}

// Group partitions photos into connected components via flood fill over the
// linking predicate. Transitive links are honored: if A links B and B links C,
// all three land in one group even when A and C are not directly linked.
// Components of size one are emitted too, so the output is an exact partition
// of the input paths. The scan is O(n²) in the worst case, which is fine for
// the batch sizes a single run sees; callers needing better asymptotics can
// bucket by time or hash in front of this without changing the contract.
func GroupPhotos(photos []catalog.PhotoRecord, cfg Config) []Group {
	used := make(map[string]bool, len(photos))
	var groups []Group

	for seed := range photos {
		if used[photos[seed].Path] {
			continue
		}
		used[photos[seed].Path] = true

		group := Group{photos[seed]}
		frontier := []int{seed}

		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]

			for j := range photos {
				if used[photos[j].Path] {
					continue
				}
				if cfg.LinkedRecords(&photos[current], &photos[j]) {
					used[photos[j].Path] = true
					group = append(group, photos[j])
					frontier = append(frontier, j)
				}
			}
		}

		groups = append(groups, group)
	}

	return groups
}
