package syntax

import "fmt"

// Node is a parsed expression.
type Node interface {
	node()
}

// Ident refers to a name in scope.
type Ident struct {
	Name string
	Col  int
}

type LitKind int

const (
	IntLit LitKind = iota
	StringLit
)

func (k LitKind) String() string {
	switch k {
	case IntLit:
		return "integer"
	case StringLit:
		return "string"
	default:
		return fmt.Sprintf("LitKind(%d)", int(k))
	}
}

// Literal is an integer or string literal. Text is the source text, quotes
// included.
type Literal struct {
	Kind LitKind
	Text string
	Col  int
}

// Select reads a member of Receiver.
type Select struct {
	Receiver Node
	Member   string
}

// Call applies Fun to Args.
type Call struct {
	Fun  Node
	Args []Node
}

func (*Ident) node()   {}
func (*Literal) node() {}
func (*Select) node()  {}
func (*Call) node()    {}

// TypeRef is a parsed type expression: a name with optional arguments, or
// the wildcard ?.
type TypeRef struct {
	Name     string
	Args     []*TypeRef
	Wildcard bool
	Col      int
}
