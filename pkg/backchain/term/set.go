package term

// Set is an insertion-ordered set of terms keyed by structural identity.
type Set struct {
	index map[string]int
	items []*Term
}

func NewSet(items ...*Term) *Set {
	s := &Set{index: make(map[string]int)}
	for _, t := range items {
		s.Add(t)
	}
	return s
}

// Add inserts t and reports whether it was new.
func (s *Set) Add(t *Term) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[t.key]; ok {
		return false
	}
	s.index[t.key] = len(s.items)
	s.items = append(s.items, t)
	return true
}

// Union adds every term of o.
func (s *Set) Union(o *Set) {
	if o == nil {
		return
	}
	for _, t := range o.items {
		s.Add(t)
	}
}

func (s *Set) Has(t *Term) bool {
	if s == nil || t == nil {
		return false
	}
	_, ok := s.index[t.key]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the terms in insertion order.
func (s *Set) Items() []*Term {
	if s == nil {
		return nil
	}
	return append([]*Term(nil), s.items...)
}

func (s *Set) Clone() *Set {
	out := NewSet()
	out.Union(s)
	return out
}
