package term

import (
	"sort"
	"strings"
)

// VarSet is a set of variable names eligible for binding.
type VarSet map[string]struct{}

// NewVarSet builds a VarSet from variable terms. Non-variables are ignored.
func NewVarSet(vars ...*Term) VarSet {
	vs := make(VarSet, len(vars))
	for _, v := range vars {
		if v != nil && v.kind == KindVariable {
			vs[v.name] = struct{}{}
		}
	}
	return vs
}

// Has reports whether the variable v is in the set.
func (vs VarSet) Has(v *Term) bool {
	if v == nil || v.kind != KindVariable {
		return false
	}
	_, ok := vs[v.name]
	return ok
}

// Substitution maps variable names to terms.
type Substitution map[string]*Term

// Bind records v ↦ val. It returns false, leaving s unchanged, when v is
// already bound to a structurally different term.
func (s Substitution) Bind(v, val *Term) bool {
	if cur, ok := s[v.name]; ok {
		return cur.key == val.key
	}
	s[v.name] = val
	return true
}

// Lookup returns the binding of variable v.
func (s Substitution) Lookup(v *Term) (*Term, bool) {
	val, ok := s[v.name]
	return val, ok
}

func (s Substitution) Clone() Substitution {
	out := make(Substitution, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns the bound variable names in sorted order.
func (s Substitution) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Apply instantiates t with s. Quoted subterms are left untouched.
func (s Substitution) Apply(t *Term) *Term {
	if len(s) == 0 || t.ground {
		return t
	}
	switch t.kind {
	case KindVariable:
		if val, ok := s[t.name]; ok {
			return val
		}
		return t
	case KindCompound:
		changed := false
		args := make([]*Term, len(t.args))
		for i, a := range t.args {
			args[i] = s.Apply(a)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return Compound(t.name, args...)
	default:
		return t
	}
}

// Key is a canonical form of s, used to deduplicate match results.
func (s Substitution) Key() string {
	var b strings.Builder
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s[name].key)
	}
	return b.String()
}

func (s Substitution) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(name)
		b.WriteString(" ↦ ")
		b.WriteString(s[name].String())
	}
	b.WriteByte('}')
	return b.String()
}
