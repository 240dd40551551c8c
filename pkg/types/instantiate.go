package types

import (
	"github.com/google/uuid"
)

// Bind instantiates the class: it returns a copy whose environment is a new
// scope owning the class's type parameters, bound positionally to values.
// The scope's parent is parent and it is linked to the class's current
// environment. The declaration itself is never modified.
func (t *ClassType) Bind(parent BindingEnv, values ...Type) (*ClassType, error) {
	env, err := bindParams(t, parent, values)
	if err != nil {
		return nil, err
	}
	return &ClassType{decl: t.decl, env: env}, nil
}

// Bind instantiates the function the same way ClassType.Bind does.
func (t *FunctionType) Bind(parent BindingEnv, values ...Type) (*FunctionType, error) {
	env, err := bindParams(t, parent, values)
	if err != nil {
		return nil, err
	}
	return &FunctionType{decl: t.decl, env: env}, nil
}

func bindParams(g Generic, parent BindingEnv, values []Type) (*ScopedEnv, error) {
	params := g.TypeParams()
	if len(values) > len(params) {
		return nil, &ArityError{
			What: "type arguments for " + g.Name(),
			Want: len(params),
			Got:  len(values),
		}
	}
	env := NewScopedEnv(params, parent, g.Env())
	for i, v := range values {
		if err := env.Bind(params[i], v); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Instantiate creates a fresh instance of a generic function: every owned
// type variable that its environment does not already bind is replaced by a
// new variable of the same name, so that separate uses of one declaration
// (nested calls of the same function, say) never share bindings.
func Instantiate(fn *FunctionType) *FunctionType {
	if len(fn.TypeParams()) == 0 {
		return fn
	}

	fresh := &funcDecl{
		id:       uuid.New(),
		name:     fn.decl.name,
		receiver: fn.decl.receiver,
	}
	rename := NewScopedEnv(fn.TypeParams(), nil, nil)
	for _, tv := range fn.TypeParams() {
		if bound, ok := fn.Env().Resolve(tv); ok {
			_ = rename.Bind(tv, bound)
			continue
		}
		renamed := TypeVariable{
			owner:     fresh.id,
			ownerName: tv.ownerName,
			name:      tv.name,
		}
		fresh.typeVars = append(fresh.typeVars, renamed)
		_ = rename.Bind(tv, renamed)
	}

	for _, p := range fn.Params() {
		fresh.params = append(fresh.params, Apply(p, rename))
	}
	fresh.ret = Apply(fn.Return(), rename)

	return &FunctionType{decl: fresh, env: fn.Env()}
}
