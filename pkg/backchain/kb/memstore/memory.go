package memstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Store is an in-memory, scoped implementation of kb.Store.
type Store struct {
	mu     sync.RWMutex
	main   kb.Scope
	scopes map[kb.Scope]*space
}

type space struct {
	parent   kb.Scope
	children map[kb.Scope]struct{}
	index    map[string]*term.Term
	order    []*term.Term
}

func newSpace(parent kb.Scope) *space {
	return &space{
		parent:   parent,
		children: make(map[kb.Scope]struct{}),
		index:    make(map[string]*term.Term),
	}
}

// New creates a store with a single root scope, returned by Main.
func New() *Store {
	s := &Store{scopes: make(map[kb.Scope]*space)}
	s.main = s.NewScope(kb.NoParent)
	return s
}

// Main returns the root scope created by New.
func (s *Store) Main() kb.Scope { return s.main }

// NewScope implements kb.Store. An unknown parent yields an isolated root.
func (s *Store) NewScope(parent kb.Scope) kb.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := kb.Scope(uuid.NewString())
	if p, ok := s.scopes[parent]; ok {
		p.children[id] = struct{}{}
		s.scopes[id] = newSpace(parent)
		return id
	}
	s.scopes[id] = newSpace(kb.NoParent)
	return id
}

// Release implements kb.Store.
func (s *Store) Release(scope kb.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.scopes[scope]
	if !ok {
		return
	}
	if p, ok := s.scopes[sp.parent]; ok {
		delete(p.children, scope)
	}
	s.releaseLocked(scope)
}

func (s *Store) releaseLocked(scope kb.Scope) {
	sp, ok := s.scopes[scope]
	if !ok {
		return
	}
	for child := range sp.children {
		s.releaseLocked(child)
	}
	delete(s.scopes, scope)
}

// Add implements kb.Store.
func (s *Store) Add(t *term.Term, scope kb.Scope) *term.Term {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.scopes[scope]
	if !ok {
		return t
	}
	return s.addLocked(t, scope, sp)
}

func (s *Store) addLocked(t *term.Term, scope kb.Scope, sp *space) *term.Term {
	if existing, ok := s.getLocked(t.Key(), scope); ok {
		return existing
	}
	for i := 0; i < t.Arity(); i++ {
		s.addLocked(t.Arg(i), scope, sp)
	}
	sp.index[t.Key()] = t
	sp.order = append(sp.order, t)
	return t
}

// Get implements kb.Store.
func (s *Store) Get(t *term.Term, scope kb.Scope) (*term.Term, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(t.Key(), scope)
}

func (s *Store) getLocked(key string, scope kb.Scope) (*term.Term, bool) {
	for sp, ok := s.scopes[scope]; ok; sp, ok = s.scopes[sp.parent] {
		if t, found := sp.index[key]; found {
			return t, true
		}
		if sp.parent == kb.NoParent {
			break
		}
	}
	return nil, false
}

// Contains implements kb.Store.
func (s *Store) Contains(t *term.Term, scope kb.Scope) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.scopes[scope]
	if !ok {
		return false
	}
	_, found := sp.index[t.Key()]
	return found
}

// Len returns the number of terms stored in scope itself.
func (s *Store) Len(scope kb.Scope) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sp, ok := s.scopes[scope]; ok {
		return len(sp.order)
	}
	return 0
}

// Query implements kb.Store.
func (s *Store) Query(pattern *term.Term, free term.VarSet, scope kb.Scope) []kb.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := s.visibleLocked(scope)
	if visible == nil {
		return nil
	}
	return dedupe(query(pattern, free, visible))
}

// visibleLocked lists the terms visible from scope, ancestors first.
func (s *Store) visibleLocked(scope kb.Scope) []*term.Term {
	var chain []*space
	for sp, ok := s.scopes[scope]; ok; sp, ok = s.scopes[sp.parent] {
		chain = append(chain, sp)
		if sp.parent == kb.NoParent {
			break
		}
	}
	if len(chain) == 0 {
		return nil
	}

	var out []*term.Term
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].order...)
	}
	return out
}

func dedupe(ms []kb.Match) []kb.Match {
	seen := make(map[string]bool, len(ms))
	out := ms[:0]
	for _, m := range ms {
		k := m.Term.Key() + "|" + m.Subst.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}
