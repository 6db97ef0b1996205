package bc

import (
	"go.uber.org/zap"

	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// solve computes the binding increment for goal, pushing whatever sub-goals
// still need work.
func (c *Chainer) solve(goal *term.Term) Bindings {
	free := goal.FreeVars()
	if len(free) == 0 {
		c.logger.Debug("goal has no free variables, skipping", zap.Stringer("goal", goal))
		return Bindings{}
	}

	if matches := c.matchKnowledgeBase(goal); len(matches) > 0 {
		return c.fromDirectMatches(goal, matches)
	}

	if goal.IsLogicalConnective() {
		c.stats.Decomposed++
		for i := 0; i < goal.Arity(); i++ {
			c.push(goal.Arg(i))
		}
		return Bindings{}
	}

	return c.chain(goal, free)
}

func (c *Chainer) fromDirectMatches(goal *term.Term, matches []kb.Match) Bindings {
	inc := Bindings{}
	readded := false
	for _, m := range matches {
		c.stats.DirectMatches++

		// a grounding that still has variables needs more work, and so does
		// the goal it came from
		if !m.Term.IsGround() {
			if !readded {
				c.push(goal)
				readded = true
			}
			c.push(m.Term)
		}
		for name, val := range m.Subst {
			inc.Add(name, val)
		}
	}
	return inc
}

// chain applies one rule whose conclusion unifies with goal.
func (c *Chainer) chain(goal *term.Term, free []*term.Term) Bindings {
	candidates := c.rules.FindUnifiable(c.unifier, goal)
	if len(candidates) == 0 {
		c.stats.Dropped++
		c.logger.Debug("no applicable rule, dropping goal", zap.Stringer("goal", goal))
		return Bindings{}
	}

	rule := c.selector.Select(candidates).StandardizeApart(c.store, c.scratch)
	c.stats.RuleApplications++
	c.logger.Debug("applying rule",
		zap.String("rule", rule.Name),
		zap.Stringer("instance", rule.Term()),
		zap.Int("candidates", len(candidates)))

	// reverse ground the premise with what the conclusion unified to
	premise := c.store.Add(c.conclusionMapping(rule.Conclusions, goal).Apply(rule.Premise), c.scratch)

	inc := Bindings{}
	var pending []*term.Term

	premises := c.matchKnowledgeBase(premise)
	if len(premises) == 0 {
		pending = append(pending, openParts(premise)...)
	}

	for _, p := range premises {
		needChaining := false
		for _, g := range c.matchKnowledgeBase(p.Term) {
			if !g.Term.IsGround() {
				needChaining = true
				continue
			}
			c.recordProof(goal, free, p.Subst, g.Subst, inc)
		}
		if !needChaining {
			continue
		}
		if p.Term.IsLogicalConnective() {
			pending = append(pending, p.Term.Args()...)
		} else {
			pending = append(pending, p.Term)
		}
	}

	if len(pending) > 0 {
		c.push(goal)
		for i := len(pending) - 1; i >= 0; i-- {
			c.push(pending[i])
		}
	}
	return inc
}

// conclusionMapping unifies the first matching conclusion with goal. Ground
// bindings are quoted so the premise treats them as literal values; bindings
// that still hold goal variables are substituted as-is so those variables
// stay open for grounding.
func (c *Chainer) conclusionMapping(conclusions []*term.Term, goal *term.Term) term.Substitution {
	for _, concl := range conclusions {
		s, ok := c.unifier.Unify(concl, goal)
		if !ok {
			continue
		}
		out := make(term.Substitution, len(s))
		for name, val := range s {
			if val.IsGround() && !val.IsQuote() {
				val = c.store.Add(term.Quote(val), c.scratch)
			}
			out[name] = val
		}
		return out
	}
	return term.Substitution{}
}

// recordProof applies a premise grounding to goal and records the result.
func (c *Chainer) recordProof(goal *term.Term, free []*term.Term, premise, grounding term.Substitution, inc Bindings) {
	for _, v := range free {
		val := grounding.Apply(premise.Apply(v))
		if val.Key() == v.Key() {
			continue
		}
		inc.Add(v.Name(), val)
	}

	inst := grounding.Apply(premise.Apply(goal))
	if inst.IsGround() {
		c.store.Add(inst, c.derived)
		c.stats.Derived++
		c.logger.Debug("derived", zap.Stringer("goal", goal), zap.Stringer("instance", inst))
	}
}

// matchKnowledgeBase queries the derived scope (and through it the main
// scope), leaving out rule parts, scratch-only terms and former goals.
func (c *Chainer) matchKnowledgeBase(pattern *term.Term) []kb.Match {
	raw := c.store.Query(pattern, term.NewVarSet(pattern.FreeVars()...), c.derived)

	out := make([]kb.Match, 0, len(raw))
	for _, m := range raw {
		switch {
		case c.ownedByRule(m.Term):
		case c.store.Contains(m.Term, c.scratch):
		case c.history.Has(m.Term):
		default:
			out = append(out, m)
		}
	}

	c.logger.Debug("matched knowledge base",
		zap.Stringer("pattern", pattern),
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(out)))
	return out
}

func (c *Chainer) ownedByRule(t *term.Term) bool {
	if c.rules.Owns(t) {
		return true
	}
	if t.Name() == term.TypeAnd && t.IsCompound() {
		for i := 0; i < t.Arity(); i++ {
			if c.rules.Owns(t.Arg(i)) {
				return true
			}
		}
	}
	return false
}

// openParts splits an unmatched premise into the pieces that still carry
// free variables.
func openParts(premise *term.Term) []*term.Term {
	if !premise.IsLogicalConnective() {
		if premise.IsGround() {
			return nil
		}
		return []*term.Term{premise}
	}
	var out []*term.Term
	for i := 0; i < premise.Arity(); i++ {
		if a := premise.Arg(i); !a.IsGround() {
			out = append(out, a)
		}
	}
	return out
}
