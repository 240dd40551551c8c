package elab

import (
	"strings"

	"github.com/vito/unifier/pkg/types"
)

// Expr is a raw, untyped expression as written by the user.
type Expr interface {
	String() string

	rawExpr()
}

// Const is a literal of a known type.
type Const struct {
	Type  types.Type
	Value string
}

// Ref refers to a name declared in the schema.
type Ref struct {
	Name string
}

// Access selects a member of its receiver.
type Access struct {
	Receiver Expr
	Member   string
}

// Call applies its receiver to arguments.
type Call struct {
	Receiver Expr
	Args     []Expr
}

var _ Expr = (*Const)(nil)
var _ Expr = (*Ref)(nil)
var _ Expr = (*Access)(nil)
var _ Expr = (*Call)(nil)

func Constant(t types.Type, value string) *Const {
	return &Const{Type: t, Value: value}
}

func Reference(name string) *Ref {
	return &Ref{Name: name}
}

func Member(receiver Expr, name string) *Access {
	return &Access{Receiver: receiver, Member: name}
}

func Apply(receiver Expr, args ...Expr) *Call {
	return &Call{Receiver: receiver, Args: args}
}

func (*Const) rawExpr()  {}
func (*Ref) rawExpr()    {}
func (*Access) rawExpr() {}
func (*Call) rawExpr()   {}

func (e *Const) String() string { return e.Value }

func (e *Ref) String() string { return e.Name }

func (e *Access) String() string {
	return e.Receiver.String() + "." + e.Member
}

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return e.Receiver.String() + "(" + strings.Join(args, ", ") + ")"
}
