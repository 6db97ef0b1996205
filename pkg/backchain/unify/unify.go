// Package unify computes substitutions that make a pattern term match a
// ground or partially ground term, delegating the structural work to a
// knowledge store restricted to a throwaway scope.
package unify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Policy decides which grounding returned by the store counts as a
// successful unification.
type Policy int

const (
	// PolicyExact requires the matched term to be the target itself.
	PolicyExact Policy = iota
	// PolicyContains accepts any matched term that structurally contains
	// the target. Under this policy Knows(mary, Likes(john, cake)) unifies
	// with Likes(john, cake).
	PolicyContains
)

func (p Policy) String() string {
	switch p {
	case PolicyExact:
		return "exact"
	case PolicyContains:
		return "contains"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration value to a Policy. Empty means exact.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return PolicyExact, nil
	case "contains":
		return PolicyContains, nil
	default:
		return PolicyExact, fmt.Errorf("unify policy %q: %w", s, internalerr.ErrInvalidConfig)
	}
}

// Unifier unifies terms on behalf of a caller scope.
type Unifier struct {
	store  kb.Store
	scope  kb.Scope
	policy Policy
	logger *zap.Logger
}

// Option configures a Unifier.
type Option func(*Unifier)

func WithPolicy(p Policy) Option { return func(u *Unifier) { u.policy = p } }

func WithLogger(l *zap.Logger) Option {
	return func(u *Unifier) {
		if l != nil {
			u.logger = l
		}
	}
}

// New creates a Unifier whose results are translated into scope.
func New(store kb.Store, scope kb.Scope, opts ...Option) *Unifier {
	u := &Unifier{store: store, scope: scope, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Unifier) Policy() Policy { return u.policy }

// Unify returns the bindings of pattern's free variables that make it match
// target. Among several groundings the first acceptable one wins.
func (u *Unifier) Unify(pattern, target *term.Term) (term.Substitution, bool) {
	iso := u.store.NewScope(kb.NoParent)
	defer u.store.Release(iso)

	p := u.store.Add(pattern, iso)
	t := u.store.Add(target, iso)

	matches := u.store.Query(p, term.NewVarSet(p.FreeVars()...), iso)
	if len(matches) == 0 {
		return nil, false
	}

	var good term.Substitution
	found := false
	for _, m := range matches {
		if u.accept(m.Term, t) {
			good = m.Subst
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	out := make(term.Substitution, len(good))
	for name, val := range good {
		if existing, ok := u.store.Get(val, u.scope); ok {
			val = existing
		}
		out[name] = val
	}

	u.logger.Debug("unified",
		zap.Stringer("pattern", pattern),
		zap.Stringer("target", target),
		zap.Stringer("subst", out))
	return out, true
}

func (u *Unifier) accept(matched, target *term.Term) bool {
	if u.policy == PolicyContains {
		return matched.Contains(target)
	}
	return matched.Key() == target.Key()
}
