package unify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/kb/memstore"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

func newUnifier(opts ...Option) (*Unifier, *memstore.Store) {
	st := memstore.New()
	return New(st, st.Main(), opts...), st
}

func TestUnifyVariableWithAtom(t *testing.T) {
	u, _ := newUnifier()
	s, ok := u.Unify(term.Var("X"), term.Atom("a"))
	require.True(t, ok)
	require.Len(t, s, 1)
	assert.Equal(t, "a", s["X"].Name())
}

func TestUnifyCompound(t *testing.T) {
	u, _ := newUnifier()
	s, ok := u.Unify(term.MustParse("f($X)"), term.MustParse("f(a)"))
	require.True(t, ok)
	assert.Equal(t, "a", s["X"].Name())
}

func TestUnifyMismatchedRelation(t *testing.T) {
	u, _ := newUnifier()
	_, ok := u.Unify(term.MustParse("f(a)"), term.MustParse("g(a)"))
	assert.False(t, ok)
}

func TestUnifyAgainstPartiallyGroundTarget(t *testing.T) {
	u, _ := newUnifier()
	s, ok := u.Unify(term.MustParse("Likes($Y, cake)"), term.MustParse("Likes($X, cake)"))
	require.True(t, ok)
	assert.True(t, s["Y"].IsVariable())
	assert.Equal(t, "X", s["Y"].Name())
}

func TestUnifyGroundEqualTerms(t *testing.T) {
	u, _ := newUnifier()
	s, ok := u.Unify(term.MustParse("f(a)"), term.MustParse("f(a)"))
	require.True(t, ok)
	assert.Empty(t, s)
}

func TestUnifyDoesNotLeakIntoCallerScope(t *testing.T) {
	u, st := newUnifier()
	before := st.Len(st.Main())
	_, _ = u.Unify(term.MustParse("f($X, g(b))"), term.MustParse("f(a, g(b))"))
	assert.Equal(t, before, st.Len(st.Main()))
}

func TestPolicyOnNestedCompounds(t *testing.T) {
	outer := term.MustParse("Knows(mary, Likes(john, cake))")
	inner := term.MustParse("Likes(john, cake)")

	exact, _ := newUnifier(WithPolicy(PolicyExact))
	contains, _ := newUnifier(WithPolicy(PolicyContains))

	// pattern contains the target
	_, ok := exact.Unify(outer, inner)
	assert.False(t, ok, "exact policy requires equality")
	_, ok = contains.Unify(outer, inner)
	assert.True(t, ok, "contains policy accepts an enclosing match")

	// target contains the pattern
	_, ok = exact.Unify(inner, outer)
	assert.False(t, ok)
	_, ok = contains.Unify(inner, outer)
	assert.False(t, ok, "a sub-term match never contains its enclosing target")

	// both policies agree on plain matches
	s, ok := contains.Unify(term.MustParse("Likes($P, cake)"), inner)
	require.True(t, ok)
	assert.Equal(t, "john", s["P"].Name())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyExact, p)

	p, err = ParsePolicy("Contains")
	require.NoError(t, err)
	assert.Equal(t, PolicyContains, p)

	_, err = ParsePolicy("fuzzy")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}
