package backchain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/cognicore/backchain/pkg/backchain/bc"
	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/kb/memstore"
	"github.com/cognicore/backchain/pkg/backchain/kbfile"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const bakery = `
Bakes(john, cake).
Bakes(mary, pie).
Friends(ann, bob).
bakers: Bakes($Y, cake) => Likes($Y, cake).
friends: Friends($A, $B) => Knows($A, $B), Likes($A, $B).
happy: Likes($P, cake) => Happy($P).
`

func newEngine(t *testing.T, kbText string) *Engine {
	t.Helper()
	e := New(Options{Selector: rules.FirstSelector{}, Logger: zaptest.NewLogger(t)})
	t.Cleanup(func() { _ = e.Close() })

	prog, err := kbfile.Load(strings.NewReader(kbText))
	require.NoError(t, err)
	require.NoError(t, e.Load(prog))
	return e
}

// TestEndToEnd runs the whole flow: parse text, load, prove.
func TestEndToEnd(t *testing.T) {
	e := newEngine(t, bakery)

	ans, err := e.Prove(context.Background(), term.MustParse("Likes($X, cake)"), 50)
	require.NoError(t, err)

	assert.True(t, ans.Proven())
	assert.Equal(t, bc.StatusCompleted, ans.Outcome.Status)
	assert.Equal(t, []string{"john"}, ans.Values("X"))
	assert.NotEmpty(t, ans.Session)

	ans, err = e.Prove(context.Background(), term.MustParse("Happy($Who)"), 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"john"}, ans.Values("Who"))
}

func TestProveNoSolution(t *testing.T) {
	e := newEngine(t, bakery)

	ans, err := e.Prove(context.Background(), term.MustParse("Owns($X, car)"), 50)
	require.NoError(t, err)
	assert.False(t, ans.Proven())
	assert.Equal(t, bc.StatusCompleted, ans.Outcome.Status)
	assert.NoError(t, ans.Outcome.Err())
}

func TestProveExhaustedAcrossChunks(t *testing.T) {
	e := newEngine(t, "loop: Likes($A, cake) => Likes($A, cake).")

	ans, err := e.Prove(context.Background(), term.MustParse("Likes($X, cake)"), 150)
	require.NoError(t, err)
	assert.Equal(t, bc.StatusExhausted, ans.Outcome.Status)
	assert.Equal(t, 150, ans.Outcome.Steps)
	assert.Equal(t, 150, ans.Stats.Steps)
	assert.True(t, errors.Is(ans.Outcome.Err(), internalerr.ErrSearchExhausted))
}

func TestProveValidation(t *testing.T) {
	e := newEngine(t, bakery)
	ctx := context.Background()

	_, err := e.Prove(ctx, nil, 10)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	_, err = e.Prove(ctx, term.MustParse("Likes($X, cake)"), 0)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestProveCanceled(t *testing.T) {
	e := newEngine(t, bakery)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Prove(ctx, term.MustParse("Likes($X, cake)"), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddRuleRejects(t *testing.T) {
	e := newEngine(t, bakery)

	err := e.AddRule(rules.New("bakers", term.MustParse("P($X)"), term.MustParse("Q($X)")))
	assert.True(t, errors.Is(err, internalerr.ErrDuplicate))

	err = e.AddRule(rules.New("empty", term.MustParse("P($X)")))
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	err = e.AddFact(rules.New("r", term.MustParse("P($X)"), term.MustParse("Q($X)")).Term())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput), "implications go through AddRule")

	unnamed := rules.New("", term.MustParse("P($X)"), term.MustParse("Q($X)"))
	require.NoError(t, e.AddRule(unnamed))
	assert.Equal(t, "rule-4", unnamed.Name)
}

func TestProgramReflectsLoads(t *testing.T) {
	e := newEngine(t, bakery)
	prog := e.Program()
	assert.Len(t, prog.Facts, 3)
	assert.Len(t, prog.Rules, 3)
	assert.Equal(t, "bakers", prog.Rules[0].Name)
}

func TestProveAll(t *testing.T) {
	e := newEngine(t, bakery)
	goals := []*term.Term{
		term.MustParse("Likes($X, cake)"),
		term.MustParse("Knows($X, bob)"),
		term.MustParse("Bakes($W, pie)"),
		term.MustParse("Owns($X, car)"),
	}

	answers, err := e.ProveAll(context.Background(), goals, 50, 2)
	require.NoError(t, err)
	require.Len(t, answers, len(goals))

	assert.Equal(t, []string{"john"}, answers[0].Values("X"))
	assert.Equal(t, []string{"ann"}, answers[1].Values("X"))
	assert.Equal(t, []string{"mary"}, answers[2].Values("W"))
	assert.False(t, answers[3].Proven())
	for i, a := range answers {
		assert.True(t, goals[i].Equal(a.Goal))
	}
}

func TestProveAllStopsOnError(t *testing.T) {
	e := newEngine(t, bakery)
	_, err := e.ProveAll(context.Background(), []*term.Term{term.MustParse("Likes($X, cake)"), nil}, 50, 0)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestExternalStoreIsLeftClean(t *testing.T) {
	st := memstore.New()
	e := New(Options{Store: st, Scope: st.Main(), Selector: rules.FirstSelector{}})

	prog, err := kbfile.Load(strings.NewReader(bakery))
	require.NoError(t, err)
	require.NoError(t, e.Load(prog))
	before := st.Len(st.Main())

	_, err = e.Prove(context.Background(), term.MustParse("Happy($X)"), 50)
	require.NoError(t, err)
	assert.Equal(t, before, st.Len(st.Main()), "sessions only write to their own scopes")

	require.NoError(t, e.Close())
	assert.Equal(t, before, st.Len(st.Main()), "closing does not release a scope the engine was given")

	_, err = e.Prove(context.Background(), term.MustParse("Happy($X)"), 50)
	assert.True(t, errors.Is(err, internalerr.ErrClosed))
	assert.True(t, errors.Is(e.AddFact(term.MustParse("P(a)")), internalerr.ErrClosed))
}
