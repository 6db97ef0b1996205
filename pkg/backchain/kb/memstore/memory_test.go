package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

func mustQuery(s *Store, pattern string, scope kb.Scope) []kb.Match {
	p := term.MustParse(pattern)
	return s.Query(p, term.NewVarSet(p.FreeVars()...), scope)
}

func TestAddInternsSubterms(t *testing.T) {
	s := New()
	fact := s.Add(term.MustParse("Bakes(john, cake)"), s.Main())

	assert.Equal(t, 3, s.Len(s.Main()), "fact plus two atoms")
	again := s.Add(term.MustParse("Bakes(john, cake)"), s.Main())
	assert.Same(t, fact, again)

	got, ok := s.Get(term.Atom("john"), s.Main())
	require.True(t, ok)
	assert.Equal(t, "john", got.Name())
}

func TestQueryBindsFreeVariables(t *testing.T) {
	s := New()
	s.Add(term.MustParse("Bakes(john, cake)"), s.Main())
	s.Add(term.MustParse("Bakes(mary, pie)"), s.Main())

	ms := mustQuery(s, "Bakes($X, cake)", s.Main())
	require.Len(t, ms, 1)
	assert.Equal(t, "Bakes(john, cake)", ms[0].Term.String())
	assert.Equal(t, "john", ms[0].Subst["X"].Name())
}

func TestQueryRespectsRepeatedVariables(t *testing.T) {
	s := New()
	s.Add(term.MustParse("Same(a, a)"), s.Main())
	s.Add(term.MustParse("Same(a, b)"), s.Main())

	ms := mustQuery(s, "Same($X, $X)", s.Main())
	require.Len(t, ms, 1)
	assert.Equal(t, "Same(a, a)", ms[0].Term.String())
}

func TestQueryConjunctionJoins(t *testing.T) {
	s := New()
	for _, f := range []string{"Parent(tom, bob)", "Parent(bob, ann)", "Parent(ann, joe)"} {
		s.Add(term.MustParse(f), s.Main())
	}

	ms := mustQuery(s, "And(Parent($X, $Y), Parent($Y, joe))", s.Main())
	require.Len(t, ms, 1)
	assert.Equal(t, "bob", ms[0].Subst["X"].Name())
	assert.Equal(t, "ann", ms[0].Subst["Y"].Name())
	assert.True(t, ms[0].Term.IsGround())
}

func TestQueryDisjunctionUnions(t *testing.T) {
	s := New()
	s.Add(term.MustParse("Cat(tom)"), s.Main())
	s.Add(term.MustParse("Dog(rex)"), s.Main())

	ms := mustQuery(s, "Or(Cat($X), Dog($X))", s.Main())
	assert.Len(t, ms, 2)
}

func TestQueryQuoteIsLiteral(t *testing.T) {
	s := New()
	s.Add(term.MustParse("Holds(And(rains, cold))"), s.Main())
	s.Add(term.MustParse("Holds($P)"), s.Main())

	ms := mustQuery(s, "Holds(Quote($P))", s.Main())
	require.Len(t, ms, 1)
	assert.Equal(t, "Holds($P)", ms[0].Term.String())
}

func TestQueryUnorderedPermutations(t *testing.T) {
	s := New()
	s.Add(term.MustParse("Set(a, b)"), s.Main())

	ms := mustQuery(s, "Set(b, $X)", s.Main())
	require.Len(t, ms, 1)
	assert.Equal(t, "a", ms[0].Subst["X"].Name())
}

func TestScratchScopeIsolation(t *testing.T) {
	s := New()
	s.Add(term.MustParse("Bakes(john, cake)"), s.Main())
	scratch := s.NewScope(s.Main())
	s.Add(term.MustParse("Bakes(eve, cake)"), scratch)

	fromMain := mustQuery(s, "Bakes($X, cake)", s.Main())
	require.Len(t, fromMain, 1, "parent must not see child terms")
	assert.Equal(t, "john", fromMain[0].Subst["X"].Name())

	fromScratch := mustQuery(s, "Bakes($X, cake)", scratch)
	assert.Len(t, fromScratch, 2, "child sees its own terms and the parent's")

	assert.True(t, s.Contains(term.MustParse("Bakes(eve, cake)"), scratch))
	assert.False(t, s.Contains(term.MustParse("Bakes(john, cake)"), scratch), "Contains is restricted to the scope itself")
}

func TestReleaseDropsDescendants(t *testing.T) {
	s := New()
	child := s.NewScope(s.Main())
	grandchild := s.NewScope(child)
	s.Add(term.Atom("x"), grandchild)

	s.Release(child)
	assert.Equal(t, 0, s.Len(grandchild))
	assert.Empty(t, mustQuery(s, "$X", grandchild))
	assert.Equal(t, 0, s.Len(child))
}

func TestIsolatedRootSeesNothingElse(t *testing.T) {
	s := New()
	s.Add(term.Atom("outside"), s.Main())
	iso := s.NewScope(kb.NoParent)
	s.Add(term.Atom("inside"), iso)

	ms := mustQuery(s, "$X", iso)
	require.Len(t, ms, 1)
	assert.Equal(t, "inside", ms[0].Term.Name())
}
