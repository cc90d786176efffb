package savedq

import "strings"

// IDSet is an insertion-ordered set of saved question ids.
type IDSet struct {
	ids   []string
	index map[string]struct{}
}

// NewIDSet builds a set from ids, keeping the first occurrence of duplicates and skipping blanks.
func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{
		ids:   make([]string, 0, len(ids)),
		index: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add appends id if absent. Reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Remove drops id, preserving the order of the others. Reports whether the set changed.
func (s *IDSet) Remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

func (s *IDSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *IDSet) Len() int { return len(s.ids) }

// IDs returns a copy of the ids in insertion order.
func (s *IDSet) IDs() []string {
	return append(make([]string, 0, len(s.ids)), s.ids...)
}
