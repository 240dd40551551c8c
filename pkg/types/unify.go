package types

// MaxDepth bounds the recursion of a single unification or application.
const MaxDepth = 256

// Unify matches the type produced by an expression (source) against the
// contextually expected type (target).
//
// sourceEnv and targetEnv resolve variables free in source and target.
// Newly discovered bindings are written into bindingEnv, which is shared
// across one whole unification so that bindings made while unifying one
// component are visible to later ones. If unification fails, every binding
// it wrote into the chain is undone.
//
// A mismatch is reported as a *UnificationError or *ArityError (see
// IsMismatch); binding a variable no environment owns is reported as an
// *UnknownVariableError.
func Unify(source, target Type, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	if sourceEnv == nil {
		sourceEnv = Empty
	}
	if targetEnv == nil {
		targetEnv = Empty
	}
	if bindingEnv == nil {
		bindingEnv = Empty
	}

	trail := TrailOf(bindingEnv)
	mark := trail.Mark()

	u := &unifier{}
	t, err := u.unify(source, target, sourceEnv, targetEnv, bindingEnv)
	if err != nil {
		trail.Undo(mark)
		return nil, err
	}
	return t, nil
}

type unifier struct {
	depth int
}

func (u *unifier) unify(source, target Type, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	u.depth++
	defer func() { u.depth-- }()
	if u.depth > MaxDepth {
		return nil, mismatch(source, target, "recursion limit of %d exceeded", MaxDepth)
	}

	switch s := source.(type) {
	case *ClassType:
		return u.classTo(s, target, sourceEnv, targetEnv, bindingEnv)
	case TypeVariable:
		return u.typeVarTo(s, target, sourceEnv, targetEnv, bindingEnv)
	case *FunctionType:
		return u.funcTo(s, target, sourceEnv, targetEnv, bindingEnv)
	case Wildcard:
		// The wildcard imposes no constraint in either position.
		return target, nil
	default:
		return nil, mismatch(source, target, "unsupported type %T", source)
	}
}

func (u *unifier) classTo(source *ClassType, target Type, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	switch t := target.(type) {
	case *ClassType:
		return u.classToClass(source, t, sourceEnv, targetEnv, bindingEnv)
	case TypeVariable:
		return u.typeVarTo(t, source, targetEnv, sourceEnv, bindingEnv)
	case Wildcard:
		return source, nil
	default:
		return nil, mismatch(source, target, "a class is not a function")
	}
}

func (u *unifier) classToClass(source, target *ClassType, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	if source.Name() != target.Name() {
		return nil, mismatch(source, target, "different classes")
	}

	sourceParams := source.TypeParams()
	targetParams := target.TypeParams()
	if len(sourceParams) != len(targetParams) {
		return nil, mismatch(source, target, "%d type parameters vs %d", len(sourceParams), len(targetParams))
	}

	classBindingEnv := NewScopedEnv(targetParams, bindingEnv, nil)
	// The class's own bindings shadow the enclosing ones: with nested
	// instances of one class, the outer env binds the same variables.
	sourceClassEnv := Link(source.Env(), sourceEnv)
	targetClassEnv := Link(target.Env(), targetEnv)

	unifiedClassEnv := NewScopedEnv(targetParams, nil, nil)
	for i, targetParam := range targetParams {
		unified, err := u.unify(sourceParams[i], targetParam, sourceClassEnv, targetClassEnv, classBindingEnv)
		if err != nil {
			return nil, err
		}
		if unified.Eq(targetParam) {
			// still generic
			continue
		}
		if err := unifiedClassEnv.Bind(targetParam, unified); err != nil {
			return nil, err
		}
	}
	return target.WithEnv(unifiedClassEnv), nil
}

func (u *unifier) typeVarTo(source TypeVariable, target Type, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	if resolved, ok := resolveVar(source, sourceEnv, bindingEnv); ok {
		if bindingEnv.Owns(source) {
			if err := bindingEnv.Bind(source, resolved); err != nil {
				return nil, err
			}
		}
		return u.unify(resolved, target, sourceEnv, targetEnv, bindingEnv)
	}

	if targetVar, ok := target.(TypeVariable); ok {
		if resolved, ok := resolveVar(targetVar, targetEnv, bindingEnv); ok {
			if bindingEnv.Owns(targetVar) {
				if err := bindingEnv.Bind(targetVar, resolved); err != nil {
					return nil, err
				}
			}
			return u.unify(source, resolved, sourceEnv, targetEnv, bindingEnv)
		}
	}

	if source.Eq(target) {
		return target, nil
	}

	if _, ok := target.(Wildcard); ok {
		return source, nil
	}

	// NB: no occurs check; the binding is directed and greedy.
	if err := bindingEnv.Bind(source, target); err != nil {
		return nil, err
	}
	return target, nil
}

// resolveVar resolves tv through env, then through the binding chain. A
// variable bound to itself counts as unresolved.
func resolveVar(tv TypeVariable, env Env, bindingEnv BindingEnv) (Type, bool) {
	if t, ok := env.Resolve(tv); ok && !t.Eq(tv) {
		return t, true
	}
	if t, ok := bindingEnv.Resolve(tv); ok && !t.Eq(tv) {
		return t, true
	}
	return nil, false
}

func (u *unifier) funcTo(source *FunctionType, target Type, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	switch t := target.(type) {
	case *FunctionType:
		return u.funcToFunc(source, t, sourceEnv, targetEnv, bindingEnv)
	case TypeVariable:
		return u.typeVarTo(t, source, targetEnv, sourceEnv, bindingEnv)
	case Wildcard:
		return source, nil
	default:
		return nil, mismatch(source, target, "a function is not a class")
	}
}

func (u *unifier) funcToFunc(source, target *FunctionType, sourceEnv, targetEnv Env, bindingEnv BindingEnv) (Type, error) {
	sourceParams := source.Params()
	targetParams := target.Params()
	if len(sourceParams) != len(targetParams) {
		return nil, mismatch(source, target, "%d parameters vs %d", len(sourceParams), len(targetParams))
	}

	// One scope for both functions' generics, chained to the outer bindings.
	vars := make([]TypeVariable, 0, len(source.TypeParams())+len(target.TypeParams()))
	vars = append(vars, source.TypeParams()...)
	vars = append(vars, target.TypeParams()...)
	funBindingEnv := NewScopedEnv(vars, bindingEnv, nil)

	sourceFunEnv := Link(source.Env(), sourceEnv)
	targetFunEnv := Link(target.Env(), targetEnv)

	unifiedParams := make([]Type, len(targetParams))
	for i, targetParam := range targetParams {
		unified, err := u.unify(sourceParams[i], targetParam, sourceFunEnv, targetFunEnv, funBindingEnv)
		if err != nil {
			return nil, err
		}
		unifiedParams[i] = unified
	}

	unifiedReturn, err := u.unify(source.Return(), target.Return(), sourceFunEnv, targetFunEnv, funBindingEnv)
	if err != nil {
		return nil, err
	}

	var free []TypeVariable
	for _, tv := range target.TypeParams() {
		if _, bound := resolveVar(tv, Empty, funBindingEnv); !bound {
			free = append(free, tv)
		}
	}

	return target.derive(unifiedParams, unifiedReturn, funBindingEnv, free), nil
}
