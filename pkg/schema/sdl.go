package schema

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/vito/unifier/pkg/types"
)

// LoadSDL reads declarations from GraphQL SDL.
//
// Object, interface and scalar types become classes; the fields of type
// Query become functions. Two directives carry what GraphQL cannot say:
//
//	@generic(params: ["x"])  on a type: its type parameters
//	                         on a Query field: the function's type parameters
//	@type(expr: "List<x>")   on a field or argument: overrides its type
//
// A list type [T] is List<T>. Fields without arguments become plain
// members; fields with arguments become methods.
func LoadSDL(b *Builder, name, sdl string) error {
	doc, err := parser.ParseSchema(&ast.Source{
		Name:  name,
		Input: sdl,
	})
	if err != nil {
		return errors.Wrap(err, "parsing GraphQL schema")
	}

	defs := append(ast.DefinitionList{}, doc.Definitions...)
	defs = append(defs, doc.Extensions...)

	for _, def := range defs {
		if !isClassKind(def) || def.Name == "Query" {
			continue
		}
		params, err := stringList(def.Directives, "generic", "params")
		if err != nil {
			return errors.Wrapf(err, "type %s", def.Name)
		}
		b.Class(def.Name, params...)
	}

	for _, def := range defs {
		if !isClassKind(def) {
			continue
		}
		if def.Name == "Query" {
			for _, field := range def.Fields {
				if strings.HasPrefix(field.Name, "__") {
					continue
				}
				b.Function(field.Name, sdlField{b, field}.build)
			}
			continue
		}

		cb := b.Class(def.Name)
		for _, field := range def.Fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			if len(field.Arguments) == 0 && field.Directives.ForName("generic") == nil {
				t, err := sdlType(field.Type, field.Directives, classScope{b, cb.Type()})
				if err != nil {
					return errors.Wrapf(err, "%s.%s", def.Name, field.Name)
				}
				cb.Field(field.Name, t)
				continue
			}
			cb.Method(field.Name, sdlField{b, field}.build)
		}
	}

	return b.Err()
}

func isClassKind(def *ast.Definition) bool {
	switch def.Kind {
	case ast.Object, ast.Interface, ast.Scalar:
		return true
	default:
		return false
	}
}

type sdlField struct {
	b     *Builder
	field *ast.FieldDefinition
}

func (f sdlField) build(fb *FuncBuilder) {
	params, err := stringList(f.field.Directives, "generic", "params")
	if err != nil {
		fb.fail(err)
		return
	}
	for _, p := range params {
		fb.TypeVar(p)
	}

	scope := funcScope{fb}
	for _, arg := range f.field.Arguments {
		t, err := sdlType(arg.Type, arg.Directives, scope)
		if err != nil {
			fb.fail(errors.Wrapf(err, "argument %s", arg.Name))
			return
		}
		fb.Param(t)
	}

	ret, err := sdlType(f.field.Type, f.field.Directives, scope)
	if err != nil {
		fb.fail(err)
		return
	}
	fb.Returns(ret)
}

// sdlType converts a GraphQL type reference. Non-null markers are dropped.
func sdlType(t *ast.Type, directives ast.DirectiveList, scope Scope) (types.Type, error) {
	if d := directives.ForName("type"); d != nil {
		arg := d.Arguments.ForName("expr")
		if arg == nil || arg.Value == nil {
			return nil, errors.New("@type requires expr")
		}
		return ParseTypeExpr(arg.Value.Raw, scope)
	}
	return sdlTypeRef(t, scope)
}

func sdlTypeRef(t *ast.Type, scope Scope) (types.Type, error) {
	if t.Elem == nil {
		return ParseTypeExpr(t.NamedType, scope)
	}
	elem, err := sdlTypeRef(t.Elem, scope)
	if err != nil {
		return nil, err
	}
	list, ok := scope.LookupClass("List")
	if !ok {
		return nil, errors.Errorf("list type %s needs a List class", t)
	}
	return list.Bind(types.Empty, elem)
}

func stringList(directives ast.DirectiveList, directive, argument string) ([]string, error) {
	d := directives.ForName(directive)
	if d == nil {
		return nil, nil
	}
	arg := d.Arguments.ForName(argument)
	if arg == nil || arg.Value == nil {
		return nil, errors.Errorf("@%s requires %s", directive, argument)
	}
	if arg.Value.Kind == ast.StringValue {
		return []string{arg.Value.Raw}, nil
	}
	if arg.Value.Kind != ast.ListValue {
		return nil, errors.Errorf("@%s(%s:) must be a list of strings", directive, argument)
	}
	var out []string
	for _, child := range arg.Value.Children {
		if child.Value == nil || child.Value.Kind != ast.StringValue {
			return nil, errors.Errorf("@%s(%s:) must be a list of strings", directive, argument)
		}
		out = append(out, child.Value.Raw)
	}
	return out, nil
}
