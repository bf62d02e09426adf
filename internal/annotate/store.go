package annotate

import (
	"image"
)

// HistoryLimit bounds the number of snapshots kept by a Store.
const HistoryLimit = 20

// Store holds the ordered annotation records for one editing session. Slice
// order is z-order. It is not safe for concurrent use.
type Store struct {
	base    image.Image
	records []Record
	history [][]Record
	final   *image.RGBA
}

// NewStore creates an empty store over the captured surface.
func NewStore(base image.Image) *Store {
	return &Store{base: base}
}

// Base returns the captured surface.
func (s *Store) Base() image.Image { return s.base }

// Append adds r on top and records a snapshot. Marquee and nil records are
// ignored.
func (s *Store) Append(r Record) {
	if r == nil || r.Kind() == KindMarquee {
		return
	}
	s.records = append(s.records, r)
	s.push()
	s.final = nil
}

func (s *Store) push() {
	snap := make([]Record, len(s.records))
	copy(snap, s.records)
	s.history = append(s.history, snap)
	if over := len(s.history) - HistoryLimit; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// Undo removes the most recent record. History is left alone.
func (s *Store) Undo() (Record, bool) {
	if len(s.records) == 0 {
		return nil, false
	}
	last := s.records[len(s.records)-1]
	s.records = s.records[:len(s.records)-1]
	s.final = nil
	return last, true
}

// ClearAll empties the records and the history once confirm agrees. It
// reports whether anything was cleared.
func (s *Store) ClearAll(confirm func() bool) bool {
	if confirm != nil && !confirm() {
		return false
	}
	s.records = nil
	s.history = nil
	s.final = nil
	return true
}

// Records returns a copy of the current records in z-order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len is the number of records.
func (s *Store) Len() int { return len(s.records) }

// History returns a copy of the retained snapshots, oldest first.
func (s *Store) History() [][]Record {
	out := make([][]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Render draws the current state.
func (s *Store) Render() *image.RGBA {
	return Render(s.base, s.records)
}

// Finalize flattens the records onto the base. The image is cached until the
// next Append, Undo or ClearAll.
func (s *Store) Finalize() *image.RGBA {
	if s.final == nil {
		s.final = s.Render()
	}
	return s.final
}

// Finalized reports whether a cached flattened image is current.
func (s *Store) Finalized() bool { return s.final != nil }
