// Package selector holds the multi-select state behind the genre and tag
// pickers of the creation form.
package selector

import (
	"errors"
	"strings"
)

var ErrUnknownKey = errors.New("no candidate with that key")

type Item interface {
	Key() string
	Label() string
}

type Chip struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type removal struct {
	key   string
	index int
	ok    bool
}

// Selector tracks a selected subset of a candidate list. Every change is
// reported to OnChange with the complete new subset.
type Selector[T Item] struct {
	OnChange func(selected []T)

	candidates []T
	selected   []T
	last       removal
}

func New[T Item](candidates []T, selected []T, onChange func([]T)) *Selector[T] {
	return &Selector[T]{
		OnChange:   onChange,
		candidates: append([]T{}, candidates...),
		selected:   append([]T{}, selected...),
	}
}

func (s *Selector[T]) Candidates() []T {
	return append([]T{}, s.candidates...)
}

func (s *Selector[T]) Selected() []T {
	return append([]T{}, s.selected...)
}

func (s *Selector[T]) Keys() []string {
	keys := make([]string, 0, len(s.selected))
	for _, item := range s.selected {
		keys = append(keys, item.Key())
	}
	return keys
}

func (s *Selector[T]) IsSelected(key string) bool {
	return s.indexOf(key) >= 0
}

func (s *Selector[T]) indexOf(key string) int {
	for i, item := range s.selected {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Selector[T]) candidate(key string) (T, bool) {
	for _, item := range s.candidates {
		if item.Key() == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Toggle adds item when it is not selected and removes it otherwise. An item
// re-added right after its removal goes back to the slot it was taken from.
func (s *Selector[T]) Toggle(item T) []T {
	key := item.Key()

	if i := s.indexOf(key); i >= 0 {
		s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
		s.last = removal{key: key, index: i, ok: true}
	} else {
		if s.last.ok && s.last.key == key && s.last.index <= len(s.selected) {
			i := s.last.index
			s.selected = append(s.selected[:i:i], append([]T{item}, s.selected[i:]...)...)
		} else {
			s.selected = append(s.selected, item)
		}
		s.last = removal{}
	}

	selected := s.Selected()

	if s.OnChange != nil {
		s.OnChange(selected)
	}

	return selected
}

// ToggleKey toggles the candidate identified by key.
func (s *Selector[T]) ToggleKey(key string) ([]T, error) {
	item, ok := s.candidate(key)
	if !ok {
		if i := s.indexOf(key); i >= 0 {
			item = s.selected[i]
		} else {
			return nil, ErrUnknownKey
		}
	}
	return s.Toggle(item), nil
}

// Search returns the candidates whose label contains query, ignoring case.
func (s *Selector[T]) Search(query string) []T {
	query = strings.ToLower(strings.TrimSpace(query))

	found := []T{}
	for _, item := range s.candidates {
		if strings.Contains(strings.ToLower(item.Label()), query) {
			found = append(found, item)
		}
	}
	return found
}

func (s *Selector[T]) Chips() []Chip {
	chips := make([]Chip, 0, len(s.selected))
	for _, item := range s.selected {
		chips = append(chips, Chip{Key: item.Key(), Label: item.Label()})
	}
	return chips
}

// RemoveChip deselects key through Toggle. Unselected keys are ignored.
func (s *Selector[T]) RemoveChip(key string) []T {
	i := s.indexOf(key)
	if i < 0 {
		return s.Selected()
	}
	return s.Toggle(s.selected[i])
}

func (s *Selector[T]) addCandidate(item T) {
	s.candidates = append(s.candidates, item)
}
