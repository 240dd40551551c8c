// Package syntax parses expressions such as listOf(0).get(1) and type
// expressions such as Map<String, List<x>>.
package syntax

import (
	"fmt"

	"github.com/pkg/errors"
)

//go:generate go tool pigeon -alternate-entrypoints Type -o syntax.peg.go syntax.peg

// Error is a syntax error. Col counts runes from 1.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseExpr parses an expression.
func ParseExpr(src string) (Node, error) {
	v, err := Parse("expr", []byte(src))
	if err != nil {
		return nil, syntaxError(err)
	}
	return v.(Node), nil
}

// ParseType parses a type expression.
func ParseType(src string) (*TypeRef, error) {
	v, err := Parse("type", []byte(src), Entrypoint("Type"))
	if err != nil {
		return nil, syntaxError(err)
	}
	return v.(*TypeRef), nil
}

// syntaxError reports the first parse failure.
func syntaxError(err error) error {
	var perr *parserError
	if errors.As(err, &perr) {
		return perr.syntaxError()
	}
	return err
}
