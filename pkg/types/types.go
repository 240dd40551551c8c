package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type represents all possible type constructors.
//
// The set of variants is closed: *ClassType, *FunctionType, TypeVariable and
// Wildcard.
type Type interface {
	Name() string
	Eq(Type) bool
	fmt.Stringer

	sealed()
}

// Generic is a type that owns type variables and carries an environment
// binding them.
type Generic interface {
	Type
	TypeParams() []TypeVariable
	Env() Env
	WithEnv(Env) Generic
}

// TypeVariable represents a type variable owned by exactly one class or
// function declaration.
//
// Variables are comparable values keyed by the owner's declaration identity
// and the name, so two variables with the same name but different owners
// are distinct.
type TypeVariable struct {
	owner     uuid.UUID
	ownerName string
	name      string
}

func (tv TypeVariable) sealed() {}

func (tv TypeVariable) Name() string {
	return tv.name
}

// Owner returns the name of the declaring type.
func (tv TypeVariable) Owner() string {
	return tv.ownerName
}

func (tv TypeVariable) Eq(other Type) bool {
	if ot, ok := other.(TypeVariable); ok {
		return tv == ot
	}
	return false
}

func (tv TypeVariable) String() string {
	return tv.ownerName + "." + tv.name
}

// Wildcard is the unknown type. It unifies with anything.
type Wildcard struct{}

func (Wildcard) sealed() {}

func (Wildcard) Name() string {
	return "?"
}

func (Wildcard) Eq(other Type) bool {
	_, ok := other.(Wildcard)
	return ok
}

func (Wildcard) String() string {
	return "?"
}

// Member is a named member of a class, typically a method.
type Member struct {
	Name string
	Type Type
}

type classDecl struct {
	id      uuid.UUID
	name    string
	params  []TypeVariable
	members []Member
}

// ClassType is a nominal, possibly generic, class.
//
// Copies produced by WithEnv and Bind share the declaration, so they share
// type variables and members.
type ClassType struct {
	decl *classDecl
	env  Env
}

var _ Generic = (*ClassType)(nil)

// NewClass declares a class owning the given type parameters, in order.
func NewClass(name string, params ...string) *ClassType {
	decl := &classDecl{
		id:   uuid.New(),
		name: name,
	}
	for _, p := range params {
		decl.params = append(decl.params, TypeVariable{
			owner:     decl.id,
			ownerName: name,
			name:      p,
		})
	}
	return &ClassType{decl: decl, env: Empty}
}

func (t *ClassType) sealed() {}

func (t *ClassType) Name() string {
	return t.decl.name
}

func (t *ClassType) TypeParams() []TypeVariable {
	return t.decl.params
}

// TypeParam finds an owned type variable by name.
func (t *ClassType) TypeParam(name string) (TypeVariable, bool) {
	for _, tv := range t.decl.params {
		if tv.name == name {
			return tv, true
		}
	}
	return TypeVariable{}, false
}

func (t *ClassType) Env() Env {
	return t.env
}

func (t *ClassType) WithEnv(env Env) Generic {
	if env == nil {
		env = Empty
	}
	return &ClassType{decl: t.decl, env: env}
}

// AddMember declares a member. Members must be added before the class is
// handed to any resolution.
func (t *ClassType) AddMember(name string, memberType Type) *ClassType {
	t.decl.members = append(t.decl.members, Member{Name: name, Type: memberType})
	return t
}

// Members returns every declared member in declaration order.
func (t *ClassType) Members() []Member {
	return t.decl.members
}

// FindMembers returns the members with the given name.
func (t *ClassType) FindMembers(name string) []Member {
	var found []Member
	for _, m := range t.decl.members {
		if m.Name == name {
			found = append(found, m)
		}
	}
	return found
}

// Eq compares classes by name only.
func (t *ClassType) Eq(other Type) bool {
	if ot, ok := other.(*ClassType); ok {
		return ot.decl.name == t.decl.name
	}
	return false
}

func (t *ClassType) String() string {
	if len(t.decl.params) == 0 {
		return t.decl.name
	}
	args := make([]string, len(t.decl.params))
	for i, tv := range t.decl.params {
		if bound, ok := t.env.Resolve(tv); ok {
			args[i] = bound.String()
		} else {
			args[i] = tv.name
		}
	}
	return fmt.Sprintf("%s<%s>", t.decl.name, strings.Join(args, ", "))
}

type funcDecl struct {
	id       uuid.UUID
	name     string
	typeVars []TypeVariable
	params   []Type
	ret      Type
	receiver *ClassType
}

// FunctionType is a possibly generic function or method signature.
type FunctionType struct {
	decl *funcDecl
	env  Env
}

var _ Generic = (*FunctionType)(nil)

// NewFunction declares a function owning the given type parameters, in
// order. The return type defaults to Unit.
func NewFunction(name string, typeParams ...string) *FunctionType {
	decl := &funcDecl{
		id:   uuid.New(),
		name: name,
		ret:  NewUnit(),
	}
	fn := &FunctionType{decl: decl, env: Empty}
	for _, p := range typeParams {
		fn.AddTypeParam(p)
	}
	return fn
}

func (t *FunctionType) sealed() {}

func (t *FunctionType) Name() string {
	return t.decl.name
}

// AddTypeParam declares a new owned type variable.
func (t *FunctionType) AddTypeParam(name string) TypeVariable {
	tv := TypeVariable{
		owner:     t.decl.id,
		ownerName: t.decl.name,
		name:      name,
	}
	t.decl.typeVars = append(t.decl.typeVars, tv)
	return tv
}

func (t *FunctionType) TypeParams() []TypeVariable {
	return t.decl.typeVars
}

// TypeParam finds an owned type variable by name.
func (t *FunctionType) TypeParam(name string) (TypeVariable, bool) {
	for _, tv := range t.decl.typeVars {
		if tv.name == name {
			return tv, true
		}
	}
	return TypeVariable{}, false
}

func (t *FunctionType) AddParam(paramType Type) *FunctionType {
	t.decl.params = append(t.decl.params, paramType)
	return t
}

func (t *FunctionType) SetReturn(ret Type) *FunctionType {
	t.decl.ret = ret
	return t
}

func (t *FunctionType) SetReceiver(receiver *ClassType) *FunctionType {
	t.decl.receiver = receiver
	return t
}

func (t *FunctionType) Params() []Type {
	return t.decl.params
}

func (t *FunctionType) Return() Type {
	return t.decl.ret
}

// Receiver returns the class the function is a method of, or nil.
func (t *FunctionType) Receiver() *ClassType {
	return t.decl.receiver
}

func (t *FunctionType) Env() Env {
	return t.env
}

func (t *FunctionType) WithEnv(env Env) Generic {
	if env == nil {
		env = Empty
	}
	return &FunctionType{decl: t.decl, env: env}
}

// Eq compares functions structurally: parameters and return type.
func (t *FunctionType) Eq(other Type) bool {
	ot, ok := other.(*FunctionType)
	if !ok {
		return false
	}
	if len(ot.decl.params) != len(t.decl.params) {
		return false
	}
	for i, p := range t.decl.params {
		if !p.Eq(ot.decl.params[i]) {
			return false
		}
	}
	return t.decl.ret.Eq(ot.decl.ret)
}

func (t *FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString(t.decl.name)
	if len(t.decl.typeVars) > 0 {
		names := make([]string, len(t.decl.typeVars))
		for i, tv := range t.decl.typeVars {
			names[i] = tv.name
		}
		fmt.Fprintf(&sb, "<%s>", strings.Join(names, ", "))
	}
	params := make([]string, len(t.decl.params))
	for i, p := range t.decl.params {
		params[i] = p.String()
	}
	fmt.Fprintf(&sb, "(%s) -> %s", strings.Join(params, ", "), t.decl.ret)
	return sb.String()
}

// derive builds a new function that keeps the name and receiver of t but has
// its own parameters, return type and still-generic variables.
func (t *FunctionType) derive(params []Type, ret Type, env Env, typeVars []TypeVariable) *FunctionType {
	if env == nil {
		env = Empty
	}
	return &FunctionType{
		decl: &funcDecl{
			id:       t.decl.id,
			name:     t.decl.name,
			typeVars: typeVars,
			params:   params,
			ret:      ret,
			receiver: t.decl.receiver,
		},
		env: env,
	}
}

// NewUnit declares a fresh Unit class. Every function without a declared
// return type gets its own; classes compare by name, so any two units unify.
func NewUnit() *ClassType {
	return NewClass("Unit")
}
