// Package bc implements goal-directed backward chaining over a kb.Store.
//
// A Chainer owns a LIFO worklist of goals, an append-only inference history
// and two private child scopes of the knowledge base: a scratch scope for
// rule instances and a derived scope for goal instances it has proven. Each
// Step pops one goal and either matches it directly against the knowledge
// base, decomposes it when it is a logical connective, or applies one rule
// whose conclusion unifies with it. Run drives Step under a caller-supplied
// bound.
package bc

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/term"
	"github.com/cognicore/backchain/pkg/backchain/unify"
)

// Status tells how a Run ended.
type Status int

const (
	// StatusCompleted means the worklist drained. An empty result is then a
	// real "no solution found".
	StatusCompleted Status = iota + 1
	// StatusExhausted means the step bound was hit with goals still pending.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome summarizes a Run.
type Outcome struct {
	Status  Status
	Steps   int
	Pending int
}

func (o Outcome) Exhausted() bool { return o.Status == StatusExhausted }

// Err returns internalerr.ErrSearchExhausted, wrapped, when the bound ran out.
func (o Outcome) Err() error {
	if o.Status != StatusExhausted {
		return nil
	}
	return fmt.Errorf("%d steps, %d goals pending: %w", o.Steps, o.Pending, internalerr.ErrSearchExhausted)
}

// Stats are cumulative counters since the last SetTarget.
type Stats struct {
	Steps            int
	DirectMatches    int
	RuleApplications int
	Decomposed       int
	Dropped          int
	Derived          int
}

// Chainer is a single-threaded backward chaining session. It is not safe
// for concurrent use.
type Chainer struct {
	id       string
	store    kb.Store
	scratch  kb.Scope
	derived  kb.Scope
	rules    *rules.Set
	unifier  *unify.Unifier
	selector rules.Selector
	logger   *zap.Logger

	target   *term.Term
	worklist []*term.Term
	history  *History
	stats    Stats
	closed   bool
}

// New creates a session over store, reading from scope. Call Close to
// release the session's scopes.
func New(store kb.Store, scope kb.Scope, rs *rules.Set, opts ...Option) *Chainer {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.selector == nil {
		o.selector = rules.NewRandomSelector(0)
	}
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	if rs == nil {
		rs = rules.NewSet()
	}

	logger := o.logger.With(zap.String("session", o.sessionID))
	return &Chainer{
		id:       o.sessionID,
		store:    store,
		scratch:  store.NewScope(scope),
		derived:  store.NewScope(scope),
		rules:    rs,
		unifier:  unify.New(store, scope, unify.WithPolicy(o.policy), unify.WithLogger(logger)),
		selector: o.selector,
		logger:   logger,
		history:  NewHistory(),
	}
}

func (c *Chainer) ID() string { return c.id }

// SetTarget records the goal and resets the worklist and history. It does
// not start work.
func (c *Chainer) SetTarget(goal *term.Term) {
	c.target = c.store.Add(goal, c.scratch)
	c.worklist = []*term.Term{c.target}
	c.history = NewHistory()
	c.stats = Stats{}
}

func (c *Chainer) Target() *term.Term { return c.target }

// Pending returns the number of goals on the worklist.
func (c *Chainer) Pending() int { return len(c.worklist) }

func (c *Chainer) Stats() Stats { return c.stats }

// Run executes at most maxSteps steps, stopping early when the worklist
// drains. Calling Run again continues from where the previous call stopped.
func (c *Chainer) Run(maxSteps int) (Outcome, error) {
	if c.closed {
		return Outcome{}, internalerr.ErrClosed
	}
	if maxSteps <= 0 {
		return Outcome{}, fmt.Errorf("max steps must be positive, got %d: %w", maxSteps, internalerr.ErrInvalidInput)
	}
	if c.target == nil {
		return Outcome{}, fmt.Errorf("no target set: %w", internalerr.ErrInvalidInput)
	}

	steps := 0
	for steps < maxSteps && len(c.worklist) > 0 {
		c.Step()
		steps++
	}

	out := Outcome{Status: StatusCompleted, Steps: steps, Pending: len(c.worklist)}
	if out.Pending > 0 {
		out.Status = StatusExhausted
	}
	c.logger.Debug("run finished",
		zap.Stringer("status", out.Status),
		zap.Int("steps", out.Steps),
		zap.Int("pending", out.Pending))
	return out, nil
}

// Step pops the top goal, solves it and merges the increment into the
// history. It returns false when there was nothing to do.
func (c *Chainer) Step() bool {
	if c.closed || len(c.worklist) == 0 {
		return false
	}
	goal := c.pop()
	c.stats.Steps++

	c.logger.Debug("step",
		zap.Int("step", c.stats.Steps),
		zap.Stringer("goal", goal),
		zap.Int("pending", len(c.worklist)))

	c.history.Record(goal, c.solve(goal))
	return true
}

// ResultFor returns the bindings accumulated for goal.
func (c *Chainer) ResultFor(goal *term.Term) Bindings {
	return c.history.For(goal)
}

// Result returns the bindings accumulated for the target.
func (c *Chainer) Result() Bindings {
	if c.target == nil {
		return Bindings{}
	}
	return c.history.For(c.target)
}

// Close releases the scratch and derived scopes. It is safe to call more
// than once.
func (c *Chainer) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.Release(c.scratch)
	c.store.Release(c.derived)
	c.worklist = nil
	return nil
}

func (c *Chainer) push(t *term.Term) {
	c.worklist = append(c.worklist, t)
}

func (c *Chainer) pop() *term.Term {
	n := len(c.worklist) - 1
	t := c.worklist[n]
	c.worklist[n] = nil
	c.worklist = c.worklist[:n]
	return t
}
