package syntax

func (e errList) Unwrap() []error {
	return e
}

func (p *parserError) syntaxError() *Error {
	return &Error{
		Line: p.pos.line,
		Col:  p.pos.col,
		Msg:  p.Inner.Error(),
	}
}

// foldPostfix applies each ( _ Postfix ) group to the node built so far.
func foldPostfix(head Node, tail []any) Node {
	node := head
	for _, group := range tail {
		switch suffix := group.([]any)[1].(type) {
		case *Select:
			suffix.Receiver = node
			node = suffix
		case *Call:
			suffix.Fun = node
			node = suffix
		}
	}
	return node
}

// listOf collects head followed by element at of each repeated group.
func listOf[T any](head, tail any, at int) []T {
	list := []T{head.(T)}
	for _, group := range tail.([]any) {
		list = append(list, group.([]any)[at].(T))
	}
	return list
}
