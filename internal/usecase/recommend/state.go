package recommend

import (
	"sync/atomic"
	"time"

	"cinebox-recs/internal/domain/entity"
)

// ModelState holds the process-wide view of the loaded collaborative model.
// The artifact pointer is swapped atomically, so request handlers read a
// consistent snapshot without locking while the trainer replaces it.
type ModelState struct {
	model          atomic.Pointer[entity.ModelArtifact]
	dirty          atomic.Bool
	lastRecomputed atomic.Pointer[time.Time]
}

// NewModelState returns an empty state: no model loaded, not dirty.
func NewModelState() *ModelState {
	return &ModelState{}
}

// Snapshot returns the currently loaded artifact, or nil when none is loaded.
// The returned artifact must be treated as read-only.
func (s *ModelState) Snapshot() *entity.ModelArtifact {
	return s.model.Load()
}

// Swap replaces the loaded artifact. Passing nil unloads the model.
func (s *ModelState) Swap(m *entity.ModelArtifact) {
	s.model.Store(m)
}

// MarkDirty flags every cached recommendation as produced by a superseded
// model. Lookups treat cached rows as stale until the batch recompute clears
// the flag.
func (s *ModelState) MarkDirty() {
	s.dirty.Store(true)
}

// Dirty reports whether cached recommendations predate the loaded model.
func (s *ModelState) Dirty() bool {
	return s.dirty.Load()
}

// ClearDirty records a completed recompute pass and lifts the dirty flag.
func (s *ModelState) ClearDirty(at time.Time) {
	s.lastRecomputed.Store(&at)
	s.dirty.Store(false)
}

// LastRecomputedAt returns when the last full recompute finished, or the zero
// time when none has run in this process.
func (s *ModelState) LastRecomputedAt() time.Time {
	if t := s.lastRecomputed.Load(); t != nil {
		return *t
	}
	return time.Time{}
}
