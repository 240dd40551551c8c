package types

// Apply resolves every type variable reachable in t through env, as deeply
// as the bindings allow. Classes come back carrying a flat environment that
// binds their own parameters to the applied values; functions come back
// with applied parameters and return type. Unresolved variables are left in
// place.
func Apply(t Type, env Env) Type {
	if env == nil {
		env = Empty
	}
	a := &applier{}
	return a.apply(t, env)
}

type applier struct {
	depth int
}

func (a *applier) apply(t Type, env Env) Type {
	a.depth++
	defer func() { a.depth-- }()
	if a.depth > MaxDepth {
		return t
	}

	switch t := t.(type) {
	case TypeVariable:
		resolved, ok := env.Resolve(t)
		if !ok || resolved.Eq(t) {
			return t
		}
		return a.apply(resolved, env)

	case *ClassType:
		params := t.TypeParams()
		if len(params) == 0 {
			return t
		}
		own := Link(t.Env(), env)
		flat := NewScopedEnv(params, nil, nil)
		for _, tv := range params {
			resolved, ok := own.Resolve(tv)
			if !ok || resolved.Eq(tv) {
				continue
			}
			// Values are written in the enclosing context, which may bind
			// this class's own variables for another instance.
			applied := a.apply(resolved, env)
			if applied.Eq(tv) {
				continue
			}
			// flat owns every param, so this cannot fail
			_ = flat.Bind(tv, applied)
		}
		return t.WithEnv(flat)

	case *FunctionType:
		inner := Link(t.Env(), env)
		params := make([]Type, len(t.Params()))
		for i, p := range t.Params() {
			params[i] = a.apply(p, inner)
		}
		ret := a.apply(t.Return(), inner)

		var generic []TypeVariable
		for _, tv := range t.TypeParams() {
			if _, bound := inner.Resolve(tv); !bound {
				generic = append(generic, tv)
			}
		}
		return t.derive(params, ret, t.Env(), generic)

	default:
		return t
	}
}
