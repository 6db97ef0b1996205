package term

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
)

func TestStructuralIdentity(t *testing.T) {
	a := Compound("Likes", Var("X"), Atom("cake"))
	b := Compound("Likes", Var("$X"), Atom("cake"))
	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))

	c := Compound("Likes", Atom("X"), Atom("cake"))
	assert.NotEqual(t, a.Key(), c.Key(), "atom X and variable $X must differ")
}

func TestUnorderedKey(t *testing.T) {
	x := And(Atom("a"), Atom("b"))
	y := And(Atom("b"), Atom("a"))
	assert.Equal(t, x.Key(), y.Key())

	ordered1 := Compound("Pair", Atom("a"), Atom("b"))
	ordered2 := Compound("Pair", Atom("b"), Atom("a"))
	assert.NotEqual(t, ordered1.Key(), ordered2.Key())
}

func TestFreeVarsSkipsQuote(t *testing.T) {
	g := MustParse("Knows($A, Quote(Likes($B, cake)), $A, $C)")
	names := []string{}
	for _, v := range g.FreeVars() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"A", "C"}, names)
	assert.Len(t, g.Vars(), 3)

	assert.True(t, Quote(Var("X")).IsGround())
	assert.False(t, Var("X").IsGround())
}

func TestLogicalConnective(t *testing.T) {
	assert.True(t, And(Atom("a")).IsLogicalConnective())
	assert.True(t, Or(Atom("a")).IsLogicalConnective())
	assert.True(t, Not(Atom("a")).IsLogicalConnective())
	assert.False(t, Compound("Likes", Atom("a")).IsLogicalConnective())
	assert.False(t, Atom("And").IsLogicalConnective())
}

func TestContains(t *testing.T) {
	outer := MustParse("Knows(mary, Likes(john, cake))")
	assert.True(t, outer.Contains(MustParse("Likes(john, cake)")))
	assert.True(t, outer.Contains(outer))
	assert.False(t, MustParse("Likes(john, cake)").Contains(outer))
}

func TestSubstitutionApply(t *testing.T) {
	s := Substitution{}
	require.True(t, s.Bind(Var("X"), Atom("john")))
	require.True(t, s.Bind(Var("X"), Atom("john")), "same binding twice is fine")
	assert.False(t, s.Bind(Var("X"), Atom("mary")), "conflicting binding must be rejected")

	got := s.Apply(MustParse("Likes($X, Quote($X), $Y)"))
	assert.Equal(t, "Likes(john, Quote($X), $Y)", got.String())
}

func TestRename(t *testing.T) {
	r := MustParse("Implication(Bakes($Y, cake), Likes($Y, cake))")
	renamed := r.Rename(func(n string) string { return n + "_1" })
	assert.Equal(t, "Implication(Bakes($Y_1, cake), Likes($Y_1, cake))", renamed.String())
}

func TestSetKeepsInsertionOrder(t *testing.T) {
	s := NewSet(Atom("b"), Atom("a"), Atom("b"))
	require.Equal(t, 2, s.Len())
	items := s.Items()
	assert.Equal(t, "b", items[0].Name())
	assert.Equal(t, "a", items[1].Name())

	o := NewSet(Atom("c"))
	s.Union(o)
	assert.True(t, s.Has(Atom("c")))
}

func TestParseRoundTrip(t *testing.T) {
	for _, src := range []string{
		"Likes($X, cake)",
		"And(Parent($A, $B), Parent($B, $C))",
		`Says(bob, "hello world")`,
		"Empty()",
		"x-ray_2",
	} {
		got, err := Parse(src)
		require.NoError(t, err, src)
		assert.Equal(t, src, got.String())
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"Likes($X, cake",
		"Likes(,)",
		"$",
		"Likes(a) trailing",
		`"unterminated`,
	} {
		_, err := Parse(src)
		require.Error(t, err, src)
		assert.True(t, errors.Is(err, internalerr.ErrInvalidInput), src)
	}
}

func TestParseList(t *testing.T) {
	ts, err := ParseList("Likes($Y, cake), Happy($Y)")
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "Happy($Y)", ts[1].String())
}
