package bc

import (
	"sort"

	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Bindings maps a variable name to every term found for it.
type Bindings map[string]*term.Set

// Add records v ↦ t.
func (b Bindings) Add(name string, t *term.Term) {
	set, ok := b[name]
	if !ok {
		set = term.NewSet()
		b[name] = set
	}
	set.Add(t)
}

// Merge unions o into b. Nothing is ever removed or overwritten.
func (b Bindings) Merge(o Bindings) {
	for name, set := range o {
		cur, ok := b[name]
		if !ok {
			cur = term.NewSet()
			b[name] = cur
		}
		cur.Union(set)
	}
}

// Values returns the terms bound to name in discovery order.
func (b Bindings) Values(name string) []*term.Term {
	return b[name].Items()
}

// Names returns the bound variable names, sorted.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for name, set := range b {
		out[name] = set.Clone()
	}
	return out
}

// History is the append-only record of bindings per goal. Goals are keyed
// by structural identity.
type History struct {
	entries map[string]Bindings
}

func NewHistory() *History {
	return &History{entries: make(map[string]Bindings)}
}

// Record merges inc into the entry for goal, creating it if needed.
func (h *History) Record(goal *term.Term, inc Bindings) {
	cur, ok := h.entries[goal.Key()]
	if !ok {
		cur = make(Bindings)
		h.entries[goal.Key()] = cur
	}
	cur.Merge(inc)
}

// Has reports whether t was ever a goal.
func (h *History) Has(t *term.Term) bool {
	_, ok := h.entries[t.Key()]
	return ok
}

// For returns a copy of the bindings recorded for goal.
func (h *History) For(goal *term.Term) Bindings {
	cur, ok := h.entries[goal.Key()]
	if !ok {
		return Bindings{}
	}
	return cur.Clone()
}

func (h *History) Len() int { return len(h.entries) }
