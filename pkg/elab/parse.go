package elab

import (
	"github.com/pkg/errors"

	"github.com/vito/unifier/pkg/syntax"
	"github.com/vito/unifier/pkg/types"
)

// LiteralTypes are the types given to literals by Parse. A nil type
// rejects literals of that kind.
type LiteralTypes struct {
	Int    types.Type
	String types.Type
}

func (lt LiteralTypes) of(kind syntax.LitKind) types.Type {
	switch kind {
	case syntax.IntLit:
		return lt.Int
	case syntax.StringLit:
		return lt.String
	default:
		return nil
	}
}

// Parse reads an expression: names, integer and string literals, member
// access (a.b) and application (f(x, y)), in any nesting. The grammar lives
// in pkg/syntax.
func Parse(src string, literals LiteralTypes) (Expr, error) {
	node, err := syntax.ParseExpr(src)
	if err != nil {
		var serr *syntax.Error
		if errors.As(err, &serr) {
			return nil, &ParseError{Source: src, Column: serr.Col, Msg: serr.Msg}
		}
		return nil, err
	}
	return fromSyntax(src, node, literals)
}

func fromSyntax(src string, node syntax.Node, literals LiteralTypes) (Expr, error) {
	switch n := node.(type) {
	case *syntax.Ident:
		return Reference(n.Name), nil
	case *syntax.Literal:
		t := literals.of(n.Kind)
		if t == nil {
			return nil, &ParseError{
				Source: src,
				Column: n.Col,
				Msg:    n.Kind.String() + " literals are not supported",
			}
		}
		return Constant(t, n.Text), nil
	case *syntax.Select:
		recv, err := fromSyntax(src, n.Receiver, literals)
		if err != nil {
			return nil, err
		}
		return Member(recv, n.Member), nil
	case *syntax.Call:
		fn, err := fromSyntax(src, n.Fun, literals)
		if err != nil {
			return nil, err
		}
		args := make([]Expr, len(n.Args))
		for i, arg := range n.Args {
			args[i], err = fromSyntax(src, arg, literals)
			if err != nil {
				return nil, err
			}
		}
		return Apply(fn, args...), nil
	default:
		return nil, errors.Errorf("unexpected syntax node %T", node)
	}
}
