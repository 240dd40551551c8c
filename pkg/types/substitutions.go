package types

// Subs maps type variables to the types they are bound to.
type Subs map[TypeVariable]Type

func NewSubs() Subs {
	return make(Subs)
}

func (s Subs) Set(tv TypeVariable, t Type) {
	s[tv] = t
}

func (s Subs) Get(tv TypeVariable) (Type, bool) {
	t, ok := s[tv]
	return t, ok
}

// Substitution represents a single type variable to type mapping
type Substitution struct {
	Tv TypeVariable
	T  Type
}

// Iter lists the bindings of the variables in order, skipping unbound ones.
func (s Subs) Iter(order []TypeVariable) []Substitution {
	var result []Substitution
	for _, tv := range order {
		if t, ok := s[tv]; ok {
			result = append(result, Substitution{Tv: tv, T: t})
		}
	}
	return result
}

// Trail is an undo log shared by a chain of scoped environments. Every
// binding written into the chain is recorded so that a failed unification
// can restore the chain exactly as it found it.
type Trail struct {
	entries []trailEntry
}

type trailEntry struct {
	env  *ScopedEnv
	tv   TypeVariable
	prev Type
	had  bool
}

// Mark returns a position that Undo can roll back to.
func (tr *Trail) Mark() int {
	if tr == nil {
		return 0
	}
	return len(tr.entries)
}

// Undo restores every binding written since mark.
func (tr *Trail) Undo(mark int) {
	if tr == nil {
		return
	}
	for i := len(tr.entries) - 1; i >= mark; i-- {
		e := tr.entries[i]
		if e.had {
			e.env.bindings[e.tv] = e.prev
		} else {
			delete(e.env.bindings, e.tv)
		}
	}
	tr.entries = tr.entries[:mark]
}

// Len returns the number of recorded bindings.
func (tr *Trail) Len() int {
	return tr.Mark()
}

func (tr *Trail) record(env *ScopedEnv, tv TypeVariable) {
	prev, had := env.bindings[tv]
	tr.entries = append(tr.entries, trailEntry{env: env, tv: tv, prev: prev, had: had})
}

// TrailOf returns the undo log of a binding environment, or nil if the
// environment cannot hold bindings.
func TrailOf(env BindingEnv) *Trail {
	if scoped, ok := env.(*ScopedEnv); ok {
		return scoped.trail
	}
	return nil
}
