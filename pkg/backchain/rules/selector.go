package rules

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
)

// Selector picks one rule among candidates. Candidates are never empty.
type Selector interface {
	Select(candidates []*Rule) *Rule
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func([]*Rule) *Rule

func (f SelectorFunc) Select(candidates []*Rule) *Rule { return f(candidates) }

// FirstSelector always picks the first candidate.
type FirstSelector struct{}

func (FirstSelector) Select(candidates []*Rule) *Rule { return candidates[0] }

// RandomSelector picks uniformly at random. It is a placeholder policy: it
// gives no completeness guarantee.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector seeds a RandomSelector. A zero seed uses the clock.
func NewRandomSelector(seed int64) *RandomSelector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSelector{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomSelector) Select(candidates []*Rule) *Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return candidates[r.rng.Intn(len(candidates))]
}

// NewSelector maps a configuration name to a Selector.
func NewSelector(name string, seed int64) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "random":
		return NewRandomSelector(seed), nil
	case "first":
		return FirstSelector{}, nil
	default:
		return nil, fmt.Errorf("rule selector %q: %w", name, internalerr.ErrInvalidConfig)
	}
}
