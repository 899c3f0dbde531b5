package review

import "sort"

// Selection is the set of application ids the reviewer has checked.
// It is not safe for concurrent use; Board guards its own instance.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// ToggleOne adds the id when absent and removes it when present.
func (s *Selection) ToggleOne(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// ToggleAll selects every id when at least one is unselected, otherwise deselects them all.
// Ids outside the given set are left untouched.
func (s *Selection) ToggleAll(ids []string) {
	if len(ids) == 0 {
		return
	}
	if s.ContainsAll(ids) {
		for _, id := range ids {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// ContainsAll reports whether every id is selected. An empty list is never fully selected.
func (s *Selection) ContainsAll(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Retain drops every id that is not in allowed.
func (s *Selection) Retain(allowed []string) {
	keep := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		keep[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids sorted for stable output.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
