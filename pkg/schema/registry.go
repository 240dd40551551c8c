package schema

import (
	"slices"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/types"
)

// Registry is a frozen set of declarations. It is never modified after
// Freeze, so any number of resolutions may read it concurrently.
type Registry struct {
	classes    map[string]*types.ClassType
	classOrder []string
	values     map[string][]types.Type
	valueOrder []string
}

var _ elab.Lookup = (*Registry)(nil)

// Lookup returns every value declared under name, in declaration order.
func (r *Registry) Lookup(name string) ([]types.Type, error) {
	decls, ok := r.values[name]
	if !ok {
		return nil, &UnknownNameError{Name: name}
	}
	return slices.Clone(decls), nil
}

// Class finds a class by name.
func (r *Registry) Class(name string) (*types.ClassType, bool) {
	class, ok := r.classes[name]
	return class, ok
}

// Names returns the declared value names in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.valueOrder)
}

// Classes returns the declared classes in declaration order.
func (r *Registry) Classes() []*types.ClassType {
	classes := make([]*types.ClassType, len(r.classOrder))
	for i, name := range r.classOrder {
		classes[i] = r.classes[name]
	}
	return classes
}

// Literals returns the types of integer and string literals: the classes
// named Int and String, when declared.
func (r *Registry) Literals() elab.LiteralTypes {
	var lits elab.LiteralTypes
	if class, ok := r.classes["Int"]; ok {
		lits.Int = class
	}
	if class, ok := r.classes["String"]; ok {
		lits.String = class
	}
	return lits
}
