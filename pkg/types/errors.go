package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// UnificationError reports that two types do not match under the given
// environments. It is recoverable: callers may try another interpretation.
type UnificationError struct {
	Source Type
	Target Type
	Reason string
}

func (e *UnificationError) Error() string {
	msg := fmt.Sprintf("cannot unify %s with %s", e.Source, e.Target)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func mismatch(source, target Type, format string, args ...any) error {
	return &UnificationError{
		Source: source,
		Target: target,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ArityError reports a positional list of the wrong length: too many type
// arguments for a generic, or a call with the wrong number of arguments.
type ArityError struct {
	What string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.What, e.Want, e.Got)
}

// UnknownVariableError reports a binding for a type variable that no
// environment in the chain owns.
type UnknownVariableError struct {
	Var TypeVariable
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown type variable %s", e.Var)
}

// IsMismatch reports whether err is a recoverable type mismatch.
func IsMismatch(err error) bool {
	var ue *UnificationError
	if errors.As(err, &ue) {
		return true
	}
	var ae *ArityError
	return errors.As(err, &ae)
}
