// Package kb defines the knowledge-store capability the chainer consumes.
//
// A store holds terms in scopes. Visibility flows from parent to child: a
// query issued in a scope sees the scope's own terms and those of its
// ancestors, never those of its children.
package kb

import "github.com/cognicore/backchain/pkg/backchain/term"

// Scope is an opaque scope handle.
type Scope string

// NoParent passed to NewScope creates an isolated root scope.
const NoParent Scope = ""

// Match is one query result: the stored (or joined) term that matched and
// the bindings of the pattern's free variables.
type Match struct {
	Term  *term.Term
	Subst term.Substitution
}

// Store is the knowledge-store capability.
type Store interface {
	// Query returns every term visible from scope that structurally matches
	// pattern, binding only the variables in free. The list is produced
	// eagerly and may be empty.
	Query(pattern *term.Term, free term.VarSet, scope Scope) []Match

	// NewScope creates a child of parent, or an isolated root when parent is
	// NoParent.
	NewScope(parent Scope) Scope

	// Release drops a scope and its descendants.
	Release(scope Scope)

	// Add materializes t, and every subterm of t, in scope. When an
	// equivalent term is already visible from scope that term is returned.
	Add(t *term.Term, scope Scope) *term.Term

	// Get looks up the term structurally equal to t among the terms visible
	// from scope.
	Get(t *term.Term, scope Scope) (*term.Term, bool)

	// Contains is a membership test restricted to scope itself.
	Contains(t *term.Term, scope Scope) bool
}
