// Package backchain is the entry point for embedding the inference engine:
// it owns a knowledge base and a rule set and answers goal queries by
// backward chaining.
package backchain

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/backchain/pkg/backchain/bc"
	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/kb"
	"github.com/cognicore/backchain/pkg/backchain/kb/memstore"
	"github.com/cognicore/backchain/pkg/backchain/kbfile"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/term"
	"github.com/cognicore/backchain/pkg/backchain/unify"
)

// stepChunk is how many steps Prove runs between context checks.
const stepChunk = 64

// Engine is the main inference facade. It is safe for concurrent use; each
// Prove call runs its own chaining session.
type Engine struct {
	mu       sync.RWMutex
	store    kb.Store
	scope    kb.Scope
	owned    bool
	rules    *rules.Set
	names    map[string]struct{}
	facts    []*term.Term
	selector rules.Selector
	policy   unify.Policy
	logger   *zap.Logger
	closed   bool
}

// Options configures an Engine. The zero value gives an in-memory store,
// random rule selection and exact unification.
type Options struct {
	// Store and Scope name an external knowledge base to read from. When
	// Store is nil the engine creates its own in-memory store.
	Store    kb.Store
	Scope    kb.Scope
	Selector rules.Selector
	Policy   unify.Policy
	Logger   *zap.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		scope:    opts.Scope,
		rules:    rules.NewSet(),
		names:    make(map[string]struct{}),
		selector: opts.Selector,
		policy:   opts.Policy,
		logger:   opts.Logger,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.selector == nil {
		e.selector = rules.NewRandomSelector(0)
	}
	if e.store == nil {
		mem := memstore.New()
		e.store, e.scope, e.owned = mem, mem.Main(), true
	} else if e.scope == kb.NoParent {
		e.scope, e.owned = e.store.NewScope(kb.NoParent), true
	}
	return e
}

// Close releases the engine's scope when the engine created it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.owned {
		e.store.Release(e.scope)
	}
	return nil
}

// AddFact stores a fact. Facts may contain variables, which then stand for
// "anything".
func (e *Engine) AddFact(f *term.Term) error {
	if f == nil {
		return fmt.Errorf("nil fact: %w", internalerr.ErrInvalidInput)
	}
	if f.IsImplication() {
		return fmt.Errorf("fact %s is an implication, use AddRule: %w", f, internalerr.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return internalerr.ErrClosed
	}
	e.facts = append(e.facts, e.store.Add(f, e.scope))
	return nil
}

// AddRule stores a rule in the knowledge base and the rule set. Rule names
// are unique.
func (e *Engine) AddRule(r *rules.Rule) error {
	if r == nil || r.Premise == nil {
		return fmt.Errorf("rule without premise: %w", internalerr.ErrInvalidInput)
	}
	if len(r.Conclusions) == 0 {
		return fmt.Errorf("rule %q has no conclusions: %w", r.Name, internalerr.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return internalerr.ErrClosed
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("rule-%d", e.rules.Len()+1)
	}
	if _, dup := e.names[r.Name]; dup {
		return fmt.Errorf("rule %q: %w", r.Name, internalerr.ErrDuplicate)
	}

	e.names[r.Name] = struct{}{}
	e.store.Add(r.Term(), e.scope)
	e.rules.Add(r)
	return nil
}

// Load adds every statement of prog, stopping at the first error.
func (e *Engine) Load(prog *kbfile.Program) error {
	for _, f := range prog.Facts {
		if err := e.AddFact(f); err != nil {
			return err
		}
	}
	for _, r := range prog.Rules {
		if err := e.AddRule(r); err != nil {
			return err
		}
	}
	e.logger.Info("knowledge base loaded",
		zap.Int("facts", len(prog.Facts)),
		zap.Int("rules", len(prog.Rules)))
	return nil
}

// Program returns the facts and rules added so far.
func (e *Engine) Program() *kbfile.Program {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &kbfile.Program{
		Facts: append([]*term.Term(nil), e.facts...),
		Rules: e.rules.Rules(),
	}
}

// Answer is the outcome of a Prove call.
type Answer struct {
	Goal     *term.Term
	Bindings bc.Bindings
	Outcome  bc.Outcome
	Stats    bc.Stats
	Session  string
}

// Proven reports whether any binding was found.
func (a *Answer) Proven() bool { return len(a.Bindings) > 0 }

// Values returns the printed values bound to name.
func (a *Answer) Values(name string) []string {
	var out []string
	for _, v := range a.Bindings.Values(name) {
		out = append(out, v.String())
	}
	return out
}

// Prove searches for bindings of goal's free variables within maxSteps
// steps. Running out of steps is not an error: check Answer.Outcome.
func (e *Engine) Prove(ctx context.Context, goal *term.Term, maxSteps int) (*Answer, error) {
	if goal == nil {
		return nil, fmt.Errorf("nil goal: %w", internalerr.ErrInvalidInput)
	}
	if maxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d: %w", maxSteps, internalerr.ErrInvalidInput)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, internalerr.ErrClosed
	}

	chainer := bc.New(e.store, e.scope, e.rules,
		bc.WithSelector(e.selector),
		bc.WithUnifyPolicy(e.policy),
		bc.WithLogger(e.logger))
	defer chainer.Close()

	chainer.SetTarget(goal)

	var out bc.Outcome
	for remaining := maxSteps; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(remaining, stepChunk)
		o, err := chainer.Run(n)
		if err != nil {
			return nil, err
		}
		out.Steps += o.Steps
		out.Pending = o.Pending
		out.Status = o.Status
		remaining -= o.Steps
		if o.Status == bc.StatusCompleted {
			break
		}
	}

	ans := &Answer{
		Goal:     goal,
		Bindings: chainer.Result(),
		Outcome:  out,
		Stats:    chainer.Stats(),
		Session:  chainer.ID(),
	}
	e.logger.Debug("prove finished",
		zap.String("session", ans.Session),
		zap.Stringer("goal", goal),
		zap.Stringer("status", out.Status),
		zap.Int("steps", out.Steps))
	return ans, nil
}

// ProveAll proves goals concurrently, at most parallel at a time; zero or
// less means no limit. Answers are returned in goal order.
func (e *Engine) ProveAll(ctx context.Context, goals []*term.Term, maxSteps, parallel int) ([]*Answer, error) {
	answers := make([]*Answer, len(goals))
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, goal := range goals {
		g.Go(func() error {
			ans, err := e.Prove(gctx, goal, maxSteps)
			if err != nil {
				return fmt.Errorf("goal %s: %w", goal, err)
			}
			answers[i] = ans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}
