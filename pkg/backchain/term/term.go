// Package term defines the immutable term model shared by the knowledge base,
// the unifier and the backward chainer.
//
// A term is one of three closed variants: an atom (leaf value), a variable
// (named placeholder) or a compound (a typed list of child terms). Identity is
// structural: two terms built with the same shape share the same Key.
package term

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Kind tags the variant of a Term.
type Kind uint8

const (
	KindAtom Kind = iota + 1
	KindVariable
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindVariable:
		return "variable"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Built-in compound types.
const (
	TypeAnd         = "And"
	TypeOr          = "Or"
	TypeNot         = "Not"
	TypeQuote       = "Quote"
	TypeImplication = "Implication"
	TypeSet         = "Set"
)

var (
	connectiveTypes = map[string]bool{TypeAnd: true, TypeOr: true, TypeNot: true}
	unorderedTypes  = map[string]bool{TypeAnd: true, TypeOr: true, TypeSet: true}
)

// Term is an immutable node. The zero value is not valid; use the
// constructors.
type Term struct {
	kind   Kind
	name   string // atom value, variable name (without '$') or compound type
	args   []*Term
	key    string
	ground bool // no free (unquoted) variables
}

// Atom returns a leaf term.
func Atom(name string) *Term {
	return &Term{kind: KindAtom, name: name, key: strconv.Quote(name), ground: true}
}

// Var returns a variable term. A leading '$' is accepted and stripped.
func Var(name string) *Term {
	name = strings.TrimPrefix(name, "$")
	return &Term{kind: KindVariable, name: name, key: "$" + name}
}

// Compound returns a term of type typ over args. Children of unordered types
// (And, Or, Set) are compared as a multiset.
func Compound(typ string, args ...*Term) *Term {
	cp := make([]*Term, len(args))
	copy(cp, args)

	keys := make([]string, len(cp))
	ground := true
	for i, a := range cp {
		keys[i] = a.key
		if !a.ground {
			ground = false
		}
	}
	if typ == TypeQuote {
		ground = true
	}
	if unorderedTypes[typ] {
		sort.Strings(keys)
	}

	return &Term{
		kind:   KindCompound,
		name:   typ,
		args:   cp,
		key:    typ + "(" + strings.Join(keys, ",") + ")",
		ground: ground,
	}
}

func And(args ...*Term) *Term { return Compound(TypeAnd, args...) }
func Or(args ...*Term) *Term { return Compound(TypeOr, args...) }
func Not(arg *Term) *Term { return Compound(TypeNot, arg) }

// Quote marks arg as a literal: pattern matching compares it structurally and
// substitution never descends into it.
func Quote(arg *Term) *Term { return Compound(TypeQuote, arg) }

// Implication is the knowledge-base representation of a rule.
func Implication(premise *Term, conclusions ...*Term) *Term {
	return Compound(TypeImplication, append([]*Term{premise}, conclusions...)...)
}

func (t *Term) Kind() Kind { return t.kind }

// Name returns the atom value, the variable name (without '$') or the
// compound type.
func (t *Term) Name() string { return t.name }

func (t *Term) Arity() int { return len(t.args) }
func (t *Term) Arg(i int) *Term { return t.args[i] }
func (t *Term) Args() []*Term { return append([]*Term(nil), t.args...) }
func (t *Term) Key() string { return t.key }
func (t *Term) Equal(o *Term) bool {
	return o != nil && t.key == o.key
}

func (t *Term) IsAtom() bool { return t.kind == KindAtom }
func (t *Term) IsVariable() bool { return t.kind == KindVariable }
func (t *Term) IsCompound() bool { return t.kind == KindCompound }

// IsGround reports whether t has no free variables. Variables under Quote do
// not count.
func (t *Term) IsGround() bool { return t.ground }

func (t *Term) IsLogicalConnective() bool {
	return t.kind == KindCompound && connectiveTypes[t.name]
}

func (t *Term) IsQuote() bool {
	return t.kind == KindCompound && t.name == TypeQuote && len(t.args) == 1
}

func (t *Term) IsImplication() bool {
	return t.kind == KindCompound && t.name == TypeImplication && len(t.args) > 0
}

func (t *Term) IsUnordered() bool {
	return t.kind == KindCompound && unorderedTypes[t.name]
}

// Unquote strips one Quote wrapper.
func (t *Term) Unquote() *Term {
	if t.IsQuote() {
		return t.args[0]
	}
	return t
}

// FreeVars returns the unquoted variables of t in first-occurrence order.
func (t *Term) FreeVars() []*Term {
	if t.ground {
		return nil
	}
	var out []*Term
	seen := make(map[string]bool)
	t.walkFree(func(v *Term) {
		if !seen[v.name] {
			seen[v.name] = true
			out = append(out, v)
		}
	})
	return out
}

func (t *Term) walkFree(fn func(*Term)) {
	switch t.kind {
	case KindVariable:
		fn(t)
	case KindCompound:
		if t.name == TypeQuote {
			return
		}
		for _, a := range t.args {
			a.walkFree(fn)
		}
	}
}

// Vars returns every variable of t, quoted or not, in first-occurrence order.
func (t *Term) Vars() []*Term {
	var out []*Term
	seen := make(map[string]bool)
	t.Walk(func(s *Term) bool {
		if s.kind == KindVariable && !seen[s.name] {
			seen[s.name] = true
			out = append(out, s)
		}
		return true
	})
	return out
}

// Walk visits t and its descendants in pre-order. Returning false from fn
// skips the children of the visited term.
func (t *Term) Walk(fn func(*Term) bool) {
	if !fn(t) {
		return
	}
	for _, a := range t.args {
		a.Walk(fn)
	}
}

// Contains reports whether sub occurs anywhere in t, t itself included.
func (t *Term) Contains(sub *Term) bool {
	if sub == nil {
		return false
	}
	if t.key == sub.key {
		return true
	}
	for _, a := range t.args {
		if a.Contains(sub) {
			return true
		}
	}
	return false
}

// Rename returns a copy of t with every variable renamed by fn.
func (t *Term) Rename(fn func(name string) string) *Term {
	switch t.kind {
	case KindVariable:
		return Var(fn(t.name))
	case KindCompound:
		args := make([]*Term, len(t.args))
		for i, a := range t.args {
			args[i] = a.Rename(fn)
		}
		return Compound(t.name, args...)
	default:
		return t
	}
}

func (t *Term) String() string {
	var b strings.Builder
	t.format(&b)
	return b.String()
}

func (t *Term) format(b *strings.Builder) {
	switch t.kind {
	case KindAtom:
		if isIdent(t.name) {
			b.WriteString(t.name)
		} else {
			b.WriteString(strconv.Quote(t.name))
		}
	case KindVariable:
		b.WriteByte('$')
		b.WriteString(t.name)
	case KindCompound:
		b.WriteString(t.name)
		b.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.format(b)
		}
		b.WriteByte(')')
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
