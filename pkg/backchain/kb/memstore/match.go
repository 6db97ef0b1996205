package memstore

import (
	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// query evaluates pattern over visible. A top-level And is a conjunctive
// join of its children and a top-level Or the union of its children; every
// other pattern is matched structurally against each visible term.
func query(pattern *term.Term, free term.VarSet, visible []*term.Term) []kb.Match {
	if pattern.IsCompound() {
		switch pattern.Name() {
		case term.TypeAnd:
			return join(pattern, free, visible)
		case term.TypeOr:
			var out []kb.Match
			for i := 0; i < pattern.Arity(); i++ {
				out = append(out, query(pattern.Arg(i), free, visible)...)
			}
			return out
		}
	}

	var out []kb.Match
	for _, t := range visible {
		for _, s := range matchAll(pattern, t, free, term.Substitution{}) {
			out = append(out, kb.Match{Term: t, Subst: s})
		}
	}
	return out
}

type partial struct {
	sub   term.Substitution
	terms []*term.Term
}

func join(pattern *term.Term, free term.VarSet, visible []*term.Term) []kb.Match {
	partials := []partial{{sub: term.Substitution{}}}
	for i := 0; i < pattern.Arity(); i++ {
		clause := pattern.Arg(i)

		var next []partial
		for _, p := range partials {
			for _, m := range query(p.sub.Apply(clause), free, visible) {
				merged := p.sub.Clone()
				ok := true
				for name, val := range m.Subst {
					if !merged.Bind(term.Var(name), val) {
						ok = false
						break
					}
				}
				if !ok {
					continue
				}
				terms := append(append([]*term.Term(nil), p.terms...), m.Term)
				next = append(next, partial{sub: merged, terms: terms})
			}
		}
		if len(next) == 0 {
			return nil
		}
		partials = next
	}

	out := make([]kb.Match, 0, len(partials))
	for _, p := range partials {
		out = append(out, kb.Match{Term: term.And(p.terms...), Subst: p.sub})
	}
	return out
}

// matchAll returns every extension of sub under which pattern matches
// target. Only variables in free may be bound.
func matchAll(pattern, target *term.Term, free term.VarSet, sub term.Substitution) []term.Substitution {
	if pattern.IsVariable() && free.Has(pattern) {
		if bound, ok := sub.Lookup(pattern); ok {
			if bound.Key() == target.Key() {
				return []term.Substitution{sub}
			}
			return nil
		}
		ext := sub.Clone()
		ext.Bind(pattern, target)
		return []term.Substitution{ext}
	}

	if pattern.IsQuote() {
		if target.Key() == pattern.Arg(0).Key() || target.Key() == pattern.Key() {
			return []term.Substitution{sub}
		}
		return nil
	}
	target = target.Unquote()

	if !pattern.IsCompound() {
		if pattern.Key() == target.Key() {
			return []term.Substitution{sub}
		}
		return nil
	}

	if !target.IsCompound() || target.Name() != pattern.Name() || target.Arity() != pattern.Arity() {
		return nil
	}
	if pattern.IsUnordered() {
		return matchUnordered(pattern, target, free, sub, 0, make([]bool, target.Arity()))
	}

	subs := []term.Substitution{sub}
	for i := 0; i < pattern.Arity(); i++ {
		var next []term.Substitution
		for _, s := range subs {
			next = append(next, matchAll(pattern.Arg(i), target.Arg(i), free, s)...)
		}
		if len(next) == 0 {
			return nil
		}
		subs = next
	}
	return subs
}

func matchUnordered(pattern, target *term.Term, free term.VarSet, sub term.Substitution, i int, used []bool) []term.Substitution {
	if i == pattern.Arity() {
		return []term.Substitution{sub}
	}
	var out []term.Substitution
	for j := 0; j < target.Arity(); j++ {
		if used[j] {
			continue
		}
		for _, s := range matchAll(pattern.Arg(i), target.Arg(j), free, sub) {
			used[j] = true
			out = append(out, matchUnordered(pattern, target, free, s, i+1, used)...)
			used[j] = false
		}
	}
	return out
}
