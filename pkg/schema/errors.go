package schema

import "fmt"

// UnknownNameError reports a lookup of a name nothing was declared under.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("cannot resolve name %q", e.Name)
}

// TypeExprError reports a malformed or unresolvable type expression.
type TypeExprError struct {
	Expr string
	Msg  string
}

func (e *TypeExprError) Error() string {
	return fmt.Sprintf("type %q: %s", e.Expr, e.Msg)
}
