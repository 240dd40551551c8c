package schema

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/vito/unifier/pkg/types"
)

// Builder collects declarations during setup. It is not safe for
// concurrent use; Freeze it into a Registry before resolving anything.
//
// The first declaration error is remembered and reported by Freeze, so
// declarations can be chained without checking every step.
type Builder struct {
	classes    map[string]*types.ClassType
	classOrder []string
	values     map[string][]types.Type
	valueOrder []string
	err        error
	frozen     bool
}

func NewBuilder() *Builder {
	return &Builder{
		classes: map[string]*types.ClassType{},
		values:  map[string][]types.Type{},
	}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// declaring reports whether declarations are still accepted, failing the
// builder when it has been frozen.
func (b *Builder) declaring(what string) bool {
	if b.frozen {
		b.fail(errors.Errorf("declare %s: builder is frozen", what))
		return false
	}
	return true
}

// Err returns the first declaration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Class declares a class, or returns the existing declaration of the same
// name. Redeclaring with different type parameters is an error.
func (b *Builder) Class(name string, params ...string) *ClassBuilder {
	if existing, ok := b.classes[name]; ok {
		if len(params) > 0 && !sameParams(existing, params) {
			b.fail(errors.Errorf("class %s redeclared with type parameters %v", name, params))
		}
		return &ClassBuilder{b: b, class: existing}
	}
	class := types.NewClass(name, params...)
	b.DeclareClass(class)
	return &ClassBuilder{b: b, class: class}
}

// DeclareClass registers an existing class declaration under its name.
func (b *Builder) DeclareClass(class *types.ClassType) {
	if !b.declaring("class " + class.Name()) {
		return
	}
	if _, ok := b.classes[class.Name()]; ok {
		b.fail(errors.Errorf("class %s declared twice", class.Name()))
		return
	}
	b.classes[class.Name()] = class
	b.classOrder = append(b.classOrder, class.Name())
}

// LookupClass finds a declared class by name.
func (b *Builder) LookupClass(name string) (*types.ClassType, bool) {
	class, ok := b.classes[name]
	return class, ok
}

// Function declares a function value. Declaring several functions under one
// name overloads it.
func (b *Builder) Function(name string, build func(*FuncBuilder)) *types.FunctionType {
	fb := &FuncBuilder{b: b, fn: types.NewFunction(name)}
	build(fb)
	fb.defaultReturn()
	if fb.err != nil {
		b.fail(errors.Wrapf(fb.err, "function %s", name))
	}
	b.Value(name, fb.fn)
	return fb.fn
}

// Value declares a name of any type.
func (b *Builder) Value(name string, t types.Type) {
	if !b.declaring("value " + name) {
		return
	}
	if _, ok := b.values[name]; !ok {
		b.valueOrder = append(b.valueOrder, name)
	}
	b.values[name] = append(b.values[name], t)
}

// Freeze snapshots the declarations into an immutable Registry. Classes
// are shared with the builder, so any later declaration is an error.
func (b *Builder) Freeze() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.frozen = true
	r := &Registry{
		classes:    make(map[string]*types.ClassType, len(b.classes)),
		classOrder: slices.Clone(b.classOrder),
		values:     make(map[string][]types.Type, len(b.values)),
		valueOrder: slices.Clone(b.valueOrder),
	}
	for name, class := range b.classes {
		r.classes[name] = class
	}
	for name, decls := range b.values {
		r.values[name] = slices.Clone(decls)
	}
	return r, nil
}

func sameParams(class *types.ClassType, params []string) bool {
	if len(class.TypeParams()) != len(params) {
		return false
	}
	for i, tv := range class.TypeParams() {
		if tv.Name() != params[i] {
			return false
		}
	}
	return true
}

// ClassBuilder adds members to a declared class.
type ClassBuilder struct {
	b     *Builder
	class *types.ClassType
}

func (cb *ClassBuilder) Type() *types.ClassType {
	return cb.class
}

// TypeVar returns one of the class's own type variables.
func (cb *ClassBuilder) TypeVar(name string) types.Type {
	tv, ok := cb.class.TypeParam(name)
	if !ok {
		cb.b.fail(errors.Errorf("class %s has no type parameter %s", cb.class.Name(), name))
		return types.Wildcard{}
	}
	return tv
}

// Method declares a method. Declaring several methods under one name
// overloads it.
func (cb *ClassBuilder) Method(name string, build func(*FuncBuilder)) *ClassBuilder {
	fn := types.NewFunction(name).SetReceiver(cb.class)
	fb := &FuncBuilder{b: cb.b, fn: fn, receiver: cb.class}
	build(fb)
	fb.defaultReturn()
	if fb.err != nil {
		cb.b.fail(errors.Wrapf(fb.err, "method %s.%s", cb.class.Name(), name))
	}
	if cb.b.declaring("method " + cb.class.Name() + "." + name) {
		cb.class.AddMember(name, fn)
	}
	return cb
}

// Field declares a member that is not callable.
func (cb *ClassBuilder) Field(name string, t types.Type) *ClassBuilder {
	if cb.b.declaring("field " + cb.class.Name() + "." + name) {
		cb.class.AddMember(name, t)
	}
	return cb
}

// Expr parses a type expression in the class's scope.
func (cb *ClassBuilder) Expr(src string) types.Type {
	t, err := ParseTypeExpr(src, classScope{cb.b, cb.class})
	if err != nil {
		cb.b.fail(errors.Wrapf(err, "class %s", cb.class.Name()))
		return types.Wildcard{}
	}
	return t
}

// FuncBuilder fills in a function or method signature.
type FuncBuilder struct {
	b        *Builder
	fn       *types.FunctionType
	receiver *types.ClassType
	returns  bool
	err      error
}

// defaultReturn makes a signature without a declared return type return
// the builder's own Unit class, when one is declared.
func (fb *FuncBuilder) defaultReturn() {
	if fb.returns {
		return
	}
	if unit, ok := fb.b.LookupClass("Unit"); ok {
		fb.fn.SetReturn(unit)
	}
}

func (fb *FuncBuilder) fail(err error) {
	if fb.err == nil {
		fb.err = err
	}
}

// TypeVar declares a new type variable owned by the function.
func (fb *FuncBuilder) TypeVar(name string) types.TypeVariable {
	return fb.fn.AddTypeParam(name)
}

// FindTypeVar finds a type variable visible to the function: its own first,
// then its receiver's.
func (fb *FuncBuilder) FindTypeVar(name string) types.Type {
	if tv, ok := fb.lookupVar(name); ok {
		return tv
	}
	fb.fail(errors.Errorf("unknown type variable %s", name))
	return types.Wildcard{}
}

func (fb *FuncBuilder) lookupVar(name string) (types.TypeVariable, bool) {
	if tv, ok := fb.fn.TypeParam(name); ok {
		return tv, true
	}
	if fb.receiver != nil {
		return fb.receiver.TypeParam(name)
	}
	return types.TypeVariable{}, false
}

func (fb *FuncBuilder) Param(t types.Type) *FuncBuilder {
	fb.fn.AddParam(t)
	return fb
}

func (fb *FuncBuilder) Params(ts ...types.Type) *FuncBuilder {
	for _, t := range ts {
		fb.fn.AddParam(t)
	}
	return fb
}

func (fb *FuncBuilder) Returns(t types.Type) *FuncBuilder {
	fb.returns = true
	fb.fn.SetReturn(t)
	return fb
}

// Receiver returns the class the method is declared on, or nil.
func (fb *FuncBuilder) Receiver() *types.ClassType {
	return fb.receiver
}

// Class finds a declared class by name.
func (fb *FuncBuilder) Class(name string) types.Type {
	class, ok := fb.b.LookupClass(name)
	if !ok {
		fb.fail(errors.Errorf("unknown class %s", name))
		return types.Wildcard{}
	}
	return class
}

// Instance binds a generic class's type parameters positionally.
func (fb *FuncBuilder) Instance(class types.Type, args ...types.Type) types.Type {
	ct, ok := class.(*types.ClassType)
	if !ok {
		fb.fail(errors.Errorf("%s is not a class", class))
		return types.Wildcard{}
	}
	bound, err := ct.Bind(types.Empty, args...)
	if err != nil {
		fb.fail(err)
		return types.Wildcard{}
	}
	return bound
}

// Expr parses a type expression in the function's scope.
func (fb *FuncBuilder) Expr(src string) types.Type {
	t, err := ParseTypeExpr(src, funcScope{fb})
	if err != nil {
		fb.fail(err)
		return types.Wildcard{}
	}
	return t
}

type classScope struct {
	b     *Builder
	class *types.ClassType
}

func (s classScope) LookupClass(name string) (*types.ClassType, bool) {
	return s.b.LookupClass(name)
}

func (s classScope) LookupTypeVar(name string) (types.TypeVariable, bool) {
	return s.class.TypeParam(name)
}

type funcScope struct {
	fb *FuncBuilder
}

func (s funcScope) LookupClass(name string) (*types.ClassType, bool) {
	return s.fb.b.LookupClass(name)
}

func (s funcScope) LookupTypeVar(name string) (types.TypeVariable, bool) {
	return s.fb.lookupVar(name)
}
