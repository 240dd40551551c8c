package elab

import (
	"github.com/vito/unifier/pkg/types"
)

// TypedExpr is one typed interpretation of a raw expression.
//
// Nodes are immutable: Unify returns a new node. Unresolved nodes carry the
// wildcard type and become resolved exactly once, by Unify.
type TypedExpr interface {
	// Source returns the raw expression the node was built from.
	Source() Expr

	// Type returns the node's current type; types.Wildcard{} until resolved.
	Type() types.Type

	// CallSignatures returns the signatures the node offers when used as the
	// receiver of a call.
	CallSignatures() []CallSignature

	// Unify continues resolving the node toward target.
	Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error)

	// Resolved reports whether the whole subtree has been resolved.
	Resolved() bool

	Render(*Writer)

	typedExpr()
}

// CallSignature is a function type a receiver can be called with, along
// with how to build the call node for it.
type CallSignature struct {
	Signature *types.FunctionType
	Apply     func(call *Call, args []TypedExpr) *UnresolvedCall
}

var _ TypedExpr = (*ConstantValue)(nil)
var _ TypedExpr = (*NameReference)(nil)
var _ TypedExpr = (*UnresolvedMemberAccess)(nil)
var _ TypedExpr = (*ResolvedMemberAccess)(nil)
var _ TypedExpr = (*UnresolvedCall)(nil)
var _ TypedExpr = (*ResolvedCall)(nil)

func (*ConstantValue) typedExpr()          {}
func (*NameReference) typedExpr()          {}
func (*UnresolvedMemberAccess) typedExpr() {}
func (*ResolvedMemberAccess) typedExpr()   {}
func (*UnresolvedCall) typedExpr()         {}
func (*ResolvedCall) typedExpr()           {}

// selfSignature offers a function-typed node as its own call receiver.
func selfSignature(self TypedExpr) []CallSignature {
	fn, ok := self.Type().(*types.FunctionType)
	if !ok {
		return nil
	}
	return []CallSignature{{
		Signature: fn,
		Apply: func(call *Call, args []TypedExpr) *UnresolvedCall {
			return &UnresolvedCall{expr: call, Receiver: self, Args: args}
		},
	}}
}

// ConstantValue is a literal.
type ConstantValue struct {
	expr *Const
	typ  types.Type
}

func NewConstantValue(expr *Const) *ConstantValue {
	return &ConstantValue{expr: expr, typ: expr.Type}
}

func (c *ConstantValue) Source() Expr     { return c.expr }
func (c *ConstantValue) Type() types.Type { return c.typ }
func (c *ConstantValue) Resolved() bool   { return true }

func (c *ConstantValue) CallSignatures() []CallSignature {
	return selfSignature(c)
}

func (c *ConstantValue) Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error) {
	t, err := types.Unify(c.typ, target, sourceEnv, targetEnv, bindingEnv)
	if err != nil {
		return nil, err
	}
	return &ConstantValue{expr: c.expr, typ: t}, nil
}

func (c *ConstantValue) Render(w *Writer) {
	w.Print(c.expr.Value + " (" + c.typ.String() + ")")
}

// NameReference is one schema declaration a name refers to.
type NameReference struct {
	expr *Ref
	typ  types.Type
}

func NewNameReference(expr *Ref, t types.Type) *NameReference {
	return &NameReference{expr: expr, typ: t}
}

func (r *NameReference) Source() Expr     { return r.expr }
func (r *NameReference) Type() types.Type { return r.typ }
func (r *NameReference) Resolved() bool   { return true }

func (r *NameReference) CallSignatures() []CallSignature {
	return selfSignature(r)
}

func (r *NameReference) Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error) {
	t, err := types.Unify(r.typ, target, sourceEnv, targetEnv, bindingEnv)
	if err != nil {
		return nil, err
	}
	return &NameReference{expr: r.expr, typ: t}, nil
}

func (r *NameReference) Render(w *Writer) {
	w.Print(r.expr.Name + " (" + r.typ.String() + ")")
}

// UnresolvedMemberAccess is a member selection whose receiver has not been
// resolved yet.
type UnresolvedMemberAccess struct {
	expr     *Access
	Receiver TypedExpr
}

func NewUnresolvedMemberAccess(expr *Access, receiver TypedExpr) *UnresolvedMemberAccess {
	return &UnresolvedMemberAccess{expr: expr, Receiver: receiver}
}

func (a *UnresolvedMemberAccess) Source() Expr                    { return a.expr }
func (a *UnresolvedMemberAccess) Type() types.Type                { return types.Wildcard{} }
func (a *UnresolvedMemberAccess) Resolved() bool                  { return false }
func (a *UnresolvedMemberAccess) CallSignatures() []CallSignature { return nil }

func (a *UnresolvedMemberAccess) Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error) {
	receiver, err := a.Receiver.Unify(types.Wildcard{}, sourceEnv, types.Empty, bindingEnv)
	if err != nil {
		return nil, err
	}

	class, ok := receiver.Type().(*types.ClassType)
	if !ok {
		return nil, &NotAClassError{Expr: a.expr.Receiver, Type: receiver.Type()}
	}

	found := class.FindMembers(a.expr.Member)
	if len(found) == 0 {
		return nil, &NoSuchMemberError{Class: class.Name(), Member: a.expr.Member}
	}

	// Member types see the receiver's bindings, so List<Int>.get returns Int
	// rather than List.x.
	members := make([]types.Member, len(found))
	for i, m := range found {
		members[i] = types.Member{
			Name: m.Name,
			Type: types.Apply(m.Type, class.Env()),
		}
	}

	access := &ResolvedMemberAccess{
		expr:     a.expr,
		Receiver: receiver,
		Members:  members,
	}
	if _, ok := target.(types.Wildcard); ok {
		return access, nil
	}
	return access.Unify(target, sourceEnv, targetEnv, bindingEnv)
}

func (a *UnresolvedMemberAccess) Render(w *Writer) {
	w.Print("unresolved access")
	w.Indent()
	w.Print("Receiver:")
	w.Node(a.Receiver)
	w.Print("Member: " + a.expr.Member)
	w.Undent()
}

// ResolvedMemberAccess holds every member of the receiver's class matching
// the requested name. Choosing among overloaded members is deferred to the
// enclosing call or to a later Unify.
type ResolvedMemberAccess struct {
	expr     *Access
	Receiver TypedExpr
	Members  []types.Member
}

func (a *ResolvedMemberAccess) Source() Expr { return a.expr }

func (a *ResolvedMemberAccess) Type() types.Type {
	if len(a.Members) != 1 {
		return types.Wildcard{}
	}
	return a.Members[0].Type
}

func (a *ResolvedMemberAccess) Resolved() bool {
	return a.Receiver.Resolved()
}

func (a *ResolvedMemberAccess) CallSignatures() []CallSignature {
	var sigs []CallSignature
	for i, m := range a.Members {
		fn, ok := m.Type.(*types.FunctionType)
		if !ok {
			continue
		}
		narrowed := a.narrow(i, fn)
		sigs = append(sigs, CallSignature{
			Signature: fn,
			Apply: func(call *Call, args []TypedExpr) *UnresolvedCall {
				return &UnresolvedCall{expr: call, Receiver: narrowed, Args: args}
			},
		})
	}
	return sigs
}

func (a *ResolvedMemberAccess) narrow(i int, t types.Type) *ResolvedMemberAccess {
	return &ResolvedMemberAccess{
		expr:     a.expr,
		Receiver: a.Receiver,
		Members:  []types.Member{{Name: a.Members[i].Name, Type: t}},
	}
}

// Unify keeps the members whose type unifies with target. Each member is
// tried on its own and its bindings rolled back; only a single surviving
// member is unified for real.
func (a *ResolvedMemberAccess) Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error) {
	if len(a.Members) == 1 {
		t, err := types.Unify(a.Members[0].Type, target, sourceEnv, targetEnv, bindingEnv)
		if err != nil {
			return nil, err
		}
		return a.narrow(0, t), nil
	}

	trail := types.TrailOf(bindingEnv)

	var matching []int
	var firstErr error
	for i, m := range a.Members {
		mark := trail.Mark()
		_, err := types.Unify(m.Type, target, sourceEnv, targetEnv, bindingEnv)
		trail.Undo(mark)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		matching = append(matching, i)
	}

	switch len(matching) {
	case 0:
		reason := "no member " + a.expr.Member + " matches"
		if firstErr != nil {
			reason += ": " + firstErr.Error()
		}
		return nil, &types.UnificationError{
			Source: a.Type(),
			Target: target,
			Reason: reason,
		}
	case 1:
		i := matching[0]
		t, err := types.Unify(a.Members[i].Type, target, sourceEnv, targetEnv, bindingEnv)
		if err != nil {
			return nil, err
		}
		return a.narrow(i, t), nil
	default:
		kept := make([]types.Member, len(matching))
		for j, i := range matching {
			kept[j] = a.Members[i]
		}
		return &ResolvedMemberAccess{
			expr:     a.expr,
			Receiver: a.Receiver,
			Members:  kept,
		}, nil
	}
}

func (a *ResolvedMemberAccess) Render(w *Writer) {
	w.Print("resolved access")
	w.Indent()
	w.Print("Type: " + a.Type().String())
	w.Print("Receiver:")
	w.Node(a.Receiver)
	w.Print("Member: " + a.expr.Member)
	w.Undent()
}

// UnresolvedCall is a call whose receiver and arguments have candidates but
// no signature has been chosen.
type UnresolvedCall struct {
	expr     *Call
	Receiver TypedExpr
	Args     []TypedExpr
}

func NewUnresolvedCall(expr *Call, receiver TypedExpr, args []TypedExpr) *UnresolvedCall {
	return &UnresolvedCall{expr: expr, Receiver: receiver, Args: args}
}

func (c *UnresolvedCall) Source() Expr                    { return c.expr }
func (c *UnresolvedCall) Type() types.Type                { return types.Wildcard{} }
func (c *UnresolvedCall) Resolved() bool                  { return false }
func (c *UnresolvedCall) CallSignatures() []CallSignature { return nil }

func (c *UnresolvedCall) Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error) {
	receiver, err := c.Receiver.Unify(types.Wildcard{}, sourceEnv, types.Empty, bindingEnv)
	if err != nil {
		return nil, err
	}

	sigs := receiver.CallSignatures()
	switch len(sigs) {
	case 0:
		return nil, &NotAFunctionError{Expr: c.expr.Receiver, Type: receiver.Type()}
	case 1:
		return sigs[0].Apply(c.expr, c.Args).against(sigs[0].Signature, target, sourceEnv, targetEnv, bindingEnv)
	}

	// Overloaded: try every signature, keeping none of their bindings.
	trail := types.TrailOf(bindingEnv)
	var viable []CallSignature
	var errs []error
	for _, sig := range sigs {
		mark := trail.Mark()
		_, err := sig.Apply(c.expr, c.Args).against(sig.Signature, target, sourceEnv, targetEnv, bindingEnv)
		trail.Undo(mark)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		viable = append(viable, sig)
	}

	switch len(viable) {
	case 0:
		return nil, &NoViableOverloadError{Expr: c.expr, Errs: errs}
	case 1:
		return viable[0].Apply(c.expr, c.Args).against(viable[0].Signature, target, sourceEnv, targetEnv, bindingEnv)
	default:
		return nil, &AmbiguousError{Expr: c.expr, Count: len(viable)}
	}
}

// against resolves the call with the receiver's signature sig: arguments
// are unified left to right against the declared parameters, then the
// return type against target, all in one scope owning a fresh instance of
// the signature's type variables.
func (c *UnresolvedCall) against(sig *types.FunctionType, target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (*ResolvedCall, error) {
	sig = types.Instantiate(sig)

	params := sig.Params()
	if len(c.Args) != len(params) {
		return nil, &types.ArityError{
			What: "arguments to " + c.expr.Receiver.String(),
			Want: len(params),
			Got:  len(c.Args),
		}
	}

	callEnv := types.NewScopedEnv(sig.TypeParams(), bindingEnv, nil)
	trail := callEnv.Trail()
	mark := trail.Mark()

	paramEnv := types.Link(sig.Env(), targetEnv)

	args := make([]TypedExpr, len(c.Args))
	for i, arg := range c.Args {
		unified, err := arg.Unify(params[i], sourceEnv, paramEnv, callEnv)
		if err != nil {
			trail.Undo(mark)
			return nil, err
		}
		args[i] = unified
	}

	// The return type is applied through the call scope first: the scope
	// goes away with this call, its bindings must not.
	ret := types.Apply(sig.Return(), types.Link(callEnv, sig.Env()))
	unified, err := types.Unify(ret, target, sig.Env(), targetEnv, callEnv)
	if err != nil {
		trail.Undo(mark)
		return nil, err
	}

	return &ResolvedCall{
		expr:      c.expr,
		Receiver:  c.Receiver,
		Args:      args,
		Signature: types.Apply(sig, callEnv).(*types.FunctionType),
		typ:       types.Apply(unified, types.Link(callEnv, targetEnv)),
	}, nil
}

func (c *UnresolvedCall) Render(w *Writer) {
	w.Print("unresolved call")
	w.Indent()
	w.Print("Type: " + c.Type().String())
	w.Print("Receiver:")
	w.Node(c.Receiver)
	w.Print("Args:")
	w.Indent()
	for _, arg := range c.Args {
		arg.Render(w)
	}
	w.Undent()
	w.Undent()
}

// ResolvedCall is a call with a chosen signature and a unified return type.
type ResolvedCall struct {
	expr     *Call
	Receiver TypedExpr
	Args     []TypedExpr

	// Signature is the chosen signature with the call's bindings applied.
	Signature *types.FunctionType

	typ types.Type
}

func (c *ResolvedCall) Source() Expr     { return c.expr }
func (c *ResolvedCall) Type() types.Type { return c.typ }

func (c *ResolvedCall) Resolved() bool {
	if !c.Receiver.Resolved() {
		return false
	}
	for _, arg := range c.Args {
		if !arg.Resolved() {
			return false
		}
	}
	return true
}

func (c *ResolvedCall) CallSignatures() []CallSignature {
	return selfSignature(c)
}

func (c *ResolvedCall) Unify(target types.Type, sourceEnv, targetEnv types.Env, bindingEnv types.BindingEnv) (TypedExpr, error) {
	t, err := types.Unify(c.typ, target, sourceEnv, targetEnv, bindingEnv)
	if err != nil {
		return nil, err
	}
	cp := *c
	cp.typ = t
	return &cp, nil
}

func (c *ResolvedCall) Render(w *Writer) {
	w.Print("resolved call")
	w.Indent()
	w.Print("Type: " + c.typ.String())
	w.Print("Receiver:")
	w.Node(c.Receiver)
	w.Print("Args:")
	w.Indent()
	for _, arg := range c.Args {
		arg.Render(w)
	}
	w.Undent()
	w.Undent()
}
