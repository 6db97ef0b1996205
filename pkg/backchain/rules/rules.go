package rules

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Rule is an inference rule: when Premise holds, every conclusion holds.
// Example: Bakes($Y, cake) => Likes($Y, cake)
type Rule struct {
	Name        string
	Premise     *term.Term
	Conclusions []*term.Term
}

// New creates a rule.
func New(name string, premise *term.Term, conclusions ...*term.Term) *Rule {
	return &Rule{
		Name:        name,
		Premise:     premise,
		Conclusions: append([]*term.Term(nil), conclusions...),
	}
}

// FromTerm converts an Implication term back into a rule.
func FromTerm(name string, t *term.Term) (*Rule, bool) {
	if !t.IsImplication() {
		return nil, false
	}
	args := t.Args()
	return New(name, args[0], args[1:]...), true
}

// Term returns the knowledge-base representation of the rule.
func (r *Rule) Term() *term.Term {
	return term.Implication(r.Premise, r.Conclusions...)
}

func (r *Rule) String() string {
	s := r.Premise.String() + " =>"
	for i, c := range r.Conclusions {
		if i > 0 {
			s += ","
		}
		s += " " + c.String()
	}
	if r.Name != "" {
		return r.Name + ": " + s
	}
	return s
}

var (
	freshMu sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// freshSuffix returns a process-unique, monotonically increasing suffix.
func freshSuffix() string {
	freshMu.Lock()
	defer freshMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// StandardizeApart returns a copy of r with every variable renamed to a
// name no other copy shares, materialized in scope.
func (r *Rule) StandardizeApart(store kb.Store, scope kb.Scope) *Rule {
	suffix := freshSuffix()
	rename := func(name string) string { return name + "_" + suffix }

	renamed := r.Term().Rename(rename)
	stored := store.Add(renamed, scope)

	out, _ := FromTerm(r.Name, stored)
	return out
}
