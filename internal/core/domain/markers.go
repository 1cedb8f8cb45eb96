package domain

import "encoding/json"

// MarkerStore is the ordered collection of placed markers. Insertion order
// is display order and duplicates are allowed.
type MarkerStore struct {
	items []Coordinate
}

// NewMarkerStore returns a store holding a copy of coords.
func NewMarkerStore(coords ...Coordinate) *MarkerStore {
	s := &MarkerStore{}
	s.items = append(s.items, coords...)
	return s
}

// Add appends c to the end of the sequence.
func (s *MarkerStore) Add(c Coordinate) {
	s.items = append(s.items, c)
}

// RemoveAll drops every marker equal to c and returns how many were removed.
func (s *MarkerStore) RemoveAll(c Coordinate) int {
	kept := s.items[:0]
	for _, m := range s.items {
		if !m.Equal(c) {
			kept = append(kept, m)
		}
	}
	removed := len(s.items) - len(kept)
	s.items = kept
	return removed
}

// Clear empties the store.
func (s *MarkerStore) Clear() {
	s.items = nil
}

// List returns a snapshot of the markers in insertion order.
func (s *MarkerStore) List() []Coordinate {
	out := make([]Coordinate, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of markers.
func (s *MarkerStore) Len() int {
	return len(s.items)
}

func (s *MarkerStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *MarkerStore) UnmarshalJSON(data []byte) error {
	var coords []Coordinate
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}
	s.items = coords
	return nil
}
