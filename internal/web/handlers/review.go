package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/photo-culler/internal/fingerprint"
	"github.com/kozaktomas/photo-culler/internal/scorer"
)

const thumbMaxDim = 512

// ScoredGroup is one group of scored photos as served to the review UI.
type ScoredGroup struct {
	ID      int                 `json:"id"`
	Entries []scorer.ScoreEntry `json:"entries"`
}

// DecisionLog is the persisted review state: a snapshot of all groups with
// their current keep flags, stamped per write.
type DecisionLog struct {
	ID        string                `json:"id"`
	DecidedAt time.Time             `json:"decided_at"`
	Groups    [][]scorer.ScoreEntry `json:"groups"`
}

// ReviewStore holds the scored groups under review and persists keep
// decisions to a JSON file. Safe for concurrent use.
type ReviewStore struct {
	mu            sync.RWMutex
	groups        [][]scorer.ScoreEntry
	decisionsPath string
	knownPaths    map[string]bool
}

// NewReviewStore creates a store over scored groups. decisionsPath may be
// empty to keep decisions in memory only.
func NewReviewStore(groups [][]scorer.ScoreEntry, decisionsPath string) *ReviewStore {
	known := make(map[string]bool)
	for _, g := range groups {
		for _, e := range g {
			known[e.Path] = true
		}
	}
	return &ReviewStore{
		groups:        groups,
		decisionsPath: decisionsPath,
		knownPaths:    known,
	}
}

// List returns all groups with their current keep flags.
func (s *ReviewStore) List() []ScoredGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ScoredGroup, len(s.groups))
	for i, g := range s.groups {
		entries := make([]scorer.ScoreEntry, len(g))
		copy(entries, g)
		out[i] = ScoredGroup{ID: i, Entries: entries}
	}
	return out
}

// Decide marks keepPath as the kept member of group groupID and clears the
// flag on its siblings, then persists the full decision state.
func (s *ReviewStore) Decide(groupID int, keepPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if groupID < 0 || groupID >= len(s.groups) {
		return fmt.Errorf("unknown group %d", groupID)
	}

	group := s.groups[groupID]
	found := false
	for i := range group {
		if group[i].Path == keepPath {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("photo %s is not a member of group %d", keepPath, groupID)
	}

	for i := range group {
		group[i].Keep = group[i].Path == keepPath
	}

	return s.persistLocked()
}

// Groups returns the current state of all groups.
func (s *ReviewStore) Groups() [][]scorer.ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]scorer.ScoreEntry, len(s.groups))
	for i, g := range s.groups {
		entries := make([]scorer.ScoreEntry, len(g))
		copy(entries, g)
		out[i] = entries
	}
	return out
}

// Knows reports whether path belongs to a reviewed photo. Thumbnails are
// served for known paths only.
func (s *ReviewStore) Knows(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.knownPaths[path]
}

func (s *ReviewStore) persistLocked() error {
	if s.decisionsPath == "" {
		return nil
	}
	log := DecisionLog{
		ID:        uuid.NewString(),
		DecidedAt: time.Now().UTC(),
		Groups:    s.groups,
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal decisions: %w", err)
	}
	if err := os.WriteFile(s.decisionsPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write decisions: %w", err)
	}
	return nil
}

// ReviewHandler exposes the review API.
type ReviewHandler struct {
	store *ReviewStore
}

// NewReviewHandler creates a review handler over a store.
func NewReviewHandler(store *ReviewStore) *ReviewHandler {
	return &ReviewHandler{store: store}
}

// List handles GET /groups.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List())
}

// decideRequest is the body for POST /groups/{id}/keep.
type decideRequest struct {
	Path string `json:"path"`
}

// Decide handles POST /groups/{id}/keep.
func (h *ReviewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.store.Decide(groupID, req.Path); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"kept": req.Path})
}

// Thumb handles GET /photos/thumb?path=... with a downscaled JPEG. Only
// photos that belong to a reviewed group are served.
func (h *ReviewHandler) Thumb(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "missing path parameter")
		return
	}
	if !h.store.Knows(path) {
		respondError(w, http.StatusNotFound, "unknown photo")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(w, http.StatusNotFound, "photo file missing")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to read photo")
		return
	}

	thumb, err := fingerprint.ResizeJPEG(data, thumbMaxDim)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render thumbnail")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(thumb)
}
