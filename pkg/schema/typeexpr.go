package schema

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/vito/unifier/pkg/syntax"
	"github.com/vito/unifier/pkg/types"
)

// Scope resolves the names a type expression may refer to.
type Scope interface {
	LookupClass(name string) (*types.ClassType, bool)
	LookupTypeVar(name string) (types.TypeVariable, bool)
}

// ParseTypeExpr parses a type expression such as Int, List<x> or
// Map<String, List<x>>. Names resolve to type variables in scope first,
// then to classes. ? is the wildcard.
func ParseTypeExpr(src string, scope Scope) (types.Type, error) {
	ref, err := syntax.ParseType(src)
	if err != nil {
		var serr *syntax.Error
		if errors.As(err, &serr) {
			return nil, &TypeExprError{Expr: src, Msg: serr.Msg}
		}
		return nil, err
	}
	t, msg := resolveTypeRef(ref, scope)
	if msg != "" {
		return nil, &TypeExprError{Expr: src, Msg: msg}
	}
	return t, nil
}

func resolveTypeRef(ref *syntax.TypeRef, scope Scope) (types.Type, string) {
	if ref.Wildcard {
		return types.Wildcard{}, ""
	}

	if tv, ok := scope.LookupTypeVar(ref.Name); ok {
		if len(ref.Args) > 0 {
			return nil, fmt.Sprintf("type variable %s takes no arguments", ref.Name)
		}
		return tv, ""
	}

	class, ok := scope.LookupClass(ref.Name)
	if !ok {
		return nil, fmt.Sprintf("unknown type %s", ref.Name)
	}
	if len(ref.Args) == 0 {
		return class, ""
	}

	args := make([]types.Type, len(ref.Args))
	for i, arg := range ref.Args {
		t, msg := resolveTypeRef(arg, scope)
		if msg != "" {
			return nil, msg
		}
		args[i] = t
	}

	bound, err := class.Bind(types.Empty, args...)
	if err != nil {
		return nil, err.Error()
	}
	return bound, ""
}
