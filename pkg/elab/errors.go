package elab

import (
	"fmt"
	"strings"

	"github.com/vito/unifier/pkg/types"
)

// NoCandidatesError reports an expression with no typed interpretation.
type NoCandidatesError struct {
	Expr Expr
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no viable interpretation of %s", e.Expr)
}

// AmbiguousError reports an expression with more than one surviving
// interpretation. There is no tie-break.
type AmbiguousError struct {
	Expr  Expr
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous expression %s: %d candidates", e.Expr, e.Count)
}

type NotAClassError struct {
	Expr Expr
	Type types.Type
}

func (e *NotAClassError) Error() string {
	return fmt.Sprintf("receiver %s is not a class: %s", e.Expr, e.Type)
}

type NoSuchMemberError struct {
	Class  string
	Member string
}

func (e *NoSuchMemberError) Error() string {
	return fmt.Sprintf("no such member named %q in type %q", e.Member, e.Class)
}

type NotAFunctionError struct {
	Expr Expr
	Type types.Type
}

func (e *NotAFunctionError) Error() string {
	return fmt.Sprintf("%s is not a function: %s", e.Expr, e.Type)
}

// NoViableOverloadError reports a call that none of the receiver's
// signatures accept. Errs holds one rejection per signature.
type NoViableOverloadError struct {
	Expr *Call
	Errs []error
}

func (e *NoViableOverloadError) Error() string {
	return fmt.Sprintf("no overload of %s accepts %s%s", e.Expr.Receiver, e.Expr, joinErrs(e.Errs))
}

func (e *NoViableOverloadError) Unwrap() []error {
	return e.Errs
}

// NoViableError reports that every candidate of an expression failed to
// resolve.
type NoViableError struct {
	Expr Expr
	Errs []error
}

func (e *NoViableError) Error() string {
	return fmt.Sprintf("no candidate of %s resolves%s", e.Expr, joinErrs(e.Errs))
}

func (e *NoViableError) Unwrap() []error {
	return e.Errs
}

// FixpointError reports a tree still changing after the pass limit.
type FixpointError struct {
	Expr   Expr
	Passes int
}

func (e *FixpointError) Error() string {
	return fmt.Sprintf("%s did not settle after %d passes", e.Expr, e.Passes)
}

type ParseError struct {
	Source string
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: column %d: %s", e.Source, e.Column, e.Msg)
}

func joinErrs(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, err := range errs {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}
