package elab

import (
	"strings"
)

// Writer accumulates an indented, line-oriented rendering of typed
// expression trees.
type Writer struct {
	prefix string
	sb     strings.Builder
}

func (w *Writer) Indent() {
	w.prefix += "\t"
}

func (w *Writer) Undent() {
	if w.prefix != "" {
		w.prefix = w.prefix[:len(w.prefix)-1]
	}
}

// Print writes one line at the current indentation.
func (w *Writer) Print(line string) *Writer {
	w.sb.WriteString(w.prefix)
	w.sb.WriteString(line)
	w.sb.WriteByte('\n')
	return w
}

// Node renders a nested expression one level deeper.
func (w *Writer) Node(e TypedExpr) *Writer {
	w.Indent()
	e.Render(w)
	w.Undent()
	return w
}

func (w *Writer) String() string {
	return w.sb.String()
}

// Render renders a typed expression tree on its own.
func Render(e TypedExpr) string {
	w := &Writer{}
	e.Render(w)
	return w.String()
}
