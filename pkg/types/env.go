package types

import (
	"strings"
)

// Env resolves type variables to the types they are bound to.
type Env interface {
	// Resolve never fails; false means the variable is unresolved.
	Resolve(TypeVariable) (Type, bool)
	String() string
}

// BindingEnv is an Env that new bindings can be written into.
type BindingEnv interface {
	Env
	Bind(TypeVariable, Type) error
	// Owns reports whether some environment in the chain can hold a binding
	// for the variable.
	Owns(TypeVariable) bool
}

// EmptyEnv resolves nothing and owns nothing.
type EmptyEnv struct{}

// Empty is the terminal environment of every chain.
var Empty BindingEnv = EmptyEnv{}

func (EmptyEnv) Resolve(TypeVariable) (Type, bool) {
	return nil, false
}

func (EmptyEnv) Bind(tv TypeVariable, _ Type) error {
	return &UnknownVariableError{Var: tv}
}

func (EmptyEnv) Owns(TypeVariable) bool {
	return false
}

func (EmptyEnv) String() string {
	return ""
}

// LinkedEnv resolves through First, falling back to Second.
type LinkedEnv struct {
	First  Env
	Second Env
}

func (env LinkedEnv) Resolve(tv TypeVariable) (Type, bool) {
	if t, ok := env.First.Resolve(tv); ok {
		return t, true
	}
	return env.Second.Resolve(tv)
}

// String renders both sides with the fallback marked by "|".
func (env LinkedEnv) String() string {
	return joinEnvs(" | ", env.First.String(), env.Second.String())
}

func joinEnvs(sep string, parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// Link chains two environments. Linking onto an empty environment returns
// the other side unchanged.
func Link(first, second Env) Env {
	if isEmpty(first) {
		return second
	}
	if isEmpty(second) {
		return first
	}
	return LinkedEnv{First: first, Second: second}
}

func isEmpty(env Env) bool {
	if env == nil {
		return true
	}
	_, ok := env.(EmptyEnv)
	return ok
}

// ScopedEnv owns a fixed set of type variables and a mutable mapping from
// them to types. Resolution goes through its own bindings, then the parent,
// then the linked environment. Binding a variable it does not own is
// delegated to the parent.
type ScopedEnv struct {
	owned    TypeVarSet
	bindings Subs
	parent   BindingEnv
	linked   Env
	trail    *Trail
}

var _ BindingEnv = (*ScopedEnv)(nil)

// NewScopedEnv creates a scope owning vars. A nil parent or linked env means
// Empty. The scope shares its parent's undo log, or starts a new one.
func NewScopedEnv(vars []TypeVariable, parent BindingEnv, linked Env) *ScopedEnv {
	if parent == nil {
		parent = Empty
	}
	if linked == nil {
		linked = Empty
	}
	trail := TrailOf(parent)
	if trail == nil {
		trail = &Trail{}
	}
	return &ScopedEnv{
		owned:    NewTypeVarSet(vars...),
		bindings: NewSubs(),
		parent:   parent,
		linked:   linked,
		trail:    trail,
	}
}

func (env *ScopedEnv) Resolve(tv TypeVariable) (Type, bool) {
	if t, ok := env.bindings.Get(tv); ok {
		return t, true
	}
	if t, ok := env.parent.Resolve(tv); ok {
		return t, true
	}
	return env.linked.Resolve(tv)
}

func (env *ScopedEnv) Bind(tv TypeVariable, t Type) error {
	if !env.owned.Contains(tv) {
		return env.parent.Bind(tv, t)
	}
	env.trail.record(env, tv)
	env.bindings.Set(tv, t)
	return nil
}

func (env *ScopedEnv) Owns(tv TypeVariable) bool {
	return env.owned.Contains(tv) || env.parent.Owns(tv)
}

// Vars returns the owned variables in declaration order.
func (env *ScopedEnv) Vars() []TypeVariable {
	return env.owned.Slice()
}

// Bindings returns the scope's own bindings in declaration order.
func (env *ScopedEnv) Bindings() []Substitution {
	return env.bindings.Iter(env.owned.Slice())
}

// Trail returns the undo log shared by this scope's chain.
func (env *ScopedEnv) Trail() *Trail {
	return env.trail
}

// String renders the scope's own bindings, then its parent after "<" and
// its linked environment after "|".
func (env *ScopedEnv) String() string {
	s := env.own()
	if parent := env.parent.String(); parent != "" {
		s += " < " + parent
	}
	if linked := env.linked.String(); linked != "" {
		s += " | " + linked
	}
	return s
}

func (env *ScopedEnv) own() string {
	subs := env.Bindings()
	parts := make([]string, len(subs))
	for i, s := range subs {
		parts[i] = s.Tv.String() + "=" + s.T.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Dump renders an environment chain as an indented tree, one scope per
// line.
func Dump(env Env) string {
	var sb strings.Builder
	dumpEnv(&sb, env, 0)
	return sb.String()
}

func dumpEnv(sb *strings.Builder, env Env, depth int) {
	indent := strings.Repeat("\t", depth)
	switch e := env.(type) {
	case nil, EmptyEnv:
		sb.WriteString(indent + "empty\n")
	case LinkedEnv:
		sb.WriteString(indent + "linked\n")
		dumpEnv(sb, e.First, depth+1)
		dumpEnv(sb, e.Second, depth+1)
	case *ScopedEnv:
		sb.WriteString(indent + "scope " + e.own() + "\n")
		if !isEmpty(e.parent) {
			sb.WriteString(indent + "\tparent:\n")
			dumpEnv(sb, e.parent, depth+2)
		}
		if !isEmpty(e.linked) {
			sb.WriteString(indent + "\tlinked:\n")
			dumpEnv(sb, e.linked, depth+2)
		}
	default:
		sb.WriteString(indent + env.String() + "\n")
	}
}
