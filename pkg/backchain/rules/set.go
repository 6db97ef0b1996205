package rules

import (
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Unifier is the part of unify.Unifier the rule set needs.
type Unifier interface {
	Unify(pattern, target *term.Term) (term.Substitution, bool)
}

// Set holds the inference rules of a session.
type Set struct {
	rules []*Rule
	owned map[string]struct{} // keys of every subterm of every rule term
}

// NewSet creates a rule set.
func NewSet(rs ...*Rule) *Set {
	s := &Set{owned: make(map[string]struct{})}
	for _, r := range rs {
		s.Add(r)
	}
	return s
}

// Add appends a rule.
func (s *Set) Add(r *Rule) {
	s.rules = append(s.rules, r)
	r.Term().Walk(func(t *term.Term) bool {
		s.owned[t.Key()] = struct{}{}
		return true
	})
}

func (s *Set) Len() int { return len(s.rules) }

// Rules returns the rules in insertion order.
func (s *Set) Rules() []*Rule { return append([]*Rule(nil), s.rules...) }

// Owns reports whether t is part of some rule definition.
func (s *Set) Owns(t *term.Term) bool {
	_, ok := s.owned[t.Key()]
	return ok
}

// FindUnifiable returns the rules with at least one conclusion that unifies
// with goal. Rules without conclusions never qualify.
func (s *Set) FindUnifiable(u Unifier, goal *term.Term) []*Rule {
	var out []*Rule
	for _, r := range s.rules {
		for _, c := range r.Conclusions {
			if _, ok := u.Unify(c, goal); ok {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
