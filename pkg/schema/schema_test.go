package schema

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/types"
)

func prelude(t *testing.T) *Registry {
	t.Helper()
	b := NewBuilder()
	Prelude(b)
	reg, err := b.Freeze()
	require.NoError(t, err)
	return reg
}

func resolve(t *testing.T, reg *Registry, src string) (string, error) {
	t.Helper()
	expr, err := elab.Parse(src, reg.Literals())
	require.NoError(t, err)
	trace, err := elab.New(reg).Resolve(context.Background(), expr)
	if err != nil {
		return "", err
	}
	return trace.Type().String(), nil
}

func TestPrelude(t *testing.T) {
	reg := prelude(t)

	var classes []string
	for _, c := range reg.Classes() {
		classes = append(classes, c.String())
	}
	if diff := cmp.Diff([]string{"Unit", "String", "Int", "Bool", "List<x>", "Map<key, val>"}, classes); diff != "" {
		t.Errorf("classes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"true", "false", "echo", "listOf"}, reg.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	list, ok := reg.Class("List")
	require.True(t, ok)
	get := list.FindMembers("get")
	require.Len(t, get, 1)
	assert.Equal(t, "get(Int) -> List.x", get[0].Type.String())

	listOf, err := reg.Lookup("listOf")
	require.NoError(t, err)
	require.Len(t, listOf, 1)
	assert.Equal(t, "listOf<x>(listOf.x) -> List<listOf.x>", listOf[0].String())

	for src, want := range map[string]string{
		"listOf(0).get(1)":  "Int",
		`echo("hi")`:        "String",
		"listOf(listOf(0))": "List<List<Int>>",
		"listOf(true)":      "List<Bool>",
	} {
		got, err := resolve(t, reg, src)
		require.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := NewBuilder()
	Prelude(first)
	require.NoError(t, LoadTOML(first, []byte(`
[[classes]]
name = "Unit"

[[classes.methods]]
name = "extra"
returns = "Int"
`)))
	firstReg, err := first.Freeze()
	require.NoError(t, err)

	unit, ok := firstReg.Class("Unit")
	require.True(t, ok)
	require.Len(t, unit.FindMembers("extra"), 1)

	second := prelude(t)
	unit, ok = second.Class("Unit")
	require.True(t, ok)
	require.Empty(t, unit.Members())

	// functions without a return type return the builder's own Unit
	b := NewBuilder()
	Prelude(b)
	noop := b.Function("noop", func(f *FuncBuilder) {})
	own, _ := b.LookupClass("Unit")
	require.Same(t, own, noop.Return())
}

func TestFrozenBuilder(t *testing.T) {
	b := NewBuilder()
	Prelude(b)
	reg, err := b.Freeze()
	require.NoError(t, err)

	b.Class("List").Method("size", func(f *FuncBuilder) {
		f.Returns(f.Class("Int"))
	})
	require.ErrorContains(t, b.Err(), "declare method List.size: builder is frozen")

	list, ok := reg.Class("List")
	require.True(t, ok)
	require.Empty(t, list.FindMembers("size"))

	_, err = b.Freeze()
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	b := NewBuilder()
	Prelude(b)
	intType, _ := b.LookupClass("Int")
	strType, _ := b.LookupClass("String")
	b.Function("show", func(f *FuncBuilder) {
		f.Param(intType).Returns(strType)
	})
	b.Function("show", func(f *FuncBuilder) {
		f.Param(strType).Returns(strType)
	})
	reg, err := b.Freeze()
	require.NoError(t, err)

	decls, err := reg.Lookup("show")
	require.NoError(t, err)
	require.Len(t, decls, 2)

	_, err = reg.Lookup("nope")
	var unknown *UnknownNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)

	// the registry is a snapshot, and the builder refuses further declarations
	b.Function("late", func(f *FuncBuilder) {})
	_, err = reg.Lookup("late")
	require.Error(t, err)
	require.ErrorContains(t, b.Err(), "declare value late: builder is frozen")

	_, err = resolve(t, reg, "show(0)")
	var ambiguous *elab.AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
}

func TestBuilderErrors(t *testing.T) {
	t.Run("redeclared with other parameters", func(t *testing.T) {
		b := NewBuilder()
		b.Class("Box", "x")
		b.Class("Box", "y")
		_, err := b.Freeze()
		require.ErrorContains(t, err, "redeclared")
	})

	t.Run("same parameters is the same class", func(t *testing.T) {
		b := NewBuilder()
		first := b.Class("Box", "x").Type()
		second := b.Class("Box", "x").Type()
		assert.Same(t, first, second)
		_, err := b.Freeze()
		require.NoError(t, err)
	})

	t.Run("unknown type variable", func(t *testing.T) {
		b := NewBuilder()
		b.Function("f", func(f *FuncBuilder) {
			f.Returns(f.FindTypeVar("nope"))
		})
		_, err := b.Freeze()
		require.ErrorContains(t, err, "function f: unknown type variable nope")
	})

	t.Run("too many type arguments", func(t *testing.T) {
		b := NewBuilder()
		Prelude(b)
		b.Function("f", func(f *FuncBuilder) {
			f.Returns(f.Expr("List<Int, Int>"))
		})
		_, err := b.Freeze()
		var typeErr *TypeExprError
		require.ErrorAs(t, err, &typeErr)
	})
}

type testScope struct {
	classes map[string]*types.ClassType
	vars    map[string]types.TypeVariable
}

func (s testScope) LookupClass(name string) (*types.ClassType, bool) {
	c, ok := s.classes[name]
	return c, ok
}

func (s testScope) LookupTypeVar(name string) (types.TypeVariable, bool) {
	tv, ok := s.vars[name]
	return tv, ok
}

func TestParseTypeExpr(t *testing.T) {
	fn := types.NewFunction("f", "x")
	scope := testScope{
		classes: map[string]*types.ClassType{
			"Int":    types.NewClass("Int"),
			"String": types.NewClass("String"),
			"List":   types.NewClass("List", "x"),
			"Map":    types.NewClass("Map", "key", "val"),
		},
		vars: map[string]types.TypeVariable{
			"x": fn.TypeParams()[0],
		},
	}

	for src, want := range map[string]string{
		"Int":                   "Int",
		"x":                     "f.x",
		"?":                     "?",
		"List":                  "List<x>",
		"List<x>":               "List<f.x>",
		"List<List<Int>>":       "List<List<Int>>",
		"Map<String, List<x>>":  "Map<String, List<f.x>>",
		"  Map < String , ? > ": "Map<String, ?>",
	} {
		got, err := ParseTypeExpr(src, scope)
		require.NoError(t, err, src)
		assert.Equal(t, want, got.String(), src)
	}

	for _, src := range []string{
		"",
		"Nope",
		"List<",
		"List<Int",
		"List<Int,>",
		"x<Int>",
		"Int Int",
		"List<Int, Int>",
	} {
		_, err := ParseTypeExpr(src, scope)
		var typeErr *TypeExprError
		require.ErrorAs(t, err, &typeErr, "%q", src)
		assert.Equal(t, src, typeErr.Expr)
	}
}

func TestLoadFile(t *testing.T) {
	for _, file := range []string{"pair.toml", "pair.yaml", "pair.graphqls"} {
		t.Run(file, func(t *testing.T) {
			b := NewBuilder()
			Prelude(b)
			require.NoError(t, LoadFile(b, filepath.Join("testdata", file)))
			reg, err := b.Freeze()
			require.NoError(t, err)

			pair, ok := reg.Class("Pair")
			require.True(t, ok)
			assert.Equal(t, "Pair<a, b>", pair.String())

			swap := pair.FindMembers("swap")
			require.Len(t, swap, 1)
			assert.Equal(t, "swap(Bool) -> Pair<Pair.b, Pair.a>", swap[0].Type.String())

			for src, want := range map[string]string{
				`pairOf(0, "a")`:        "Pair<Int, String>",
				`pairOf(0, "a").first`:  "Int",
				`pairOf(0, "a").second`: "String",
				`pairOf(0, "a").swap`:   "swap(Bool) -> Pair<String, Int>",
				"numbers().get(0)":      "Int",
				`listOf(pairOf(0, "a")).get(0).second`: "String",
			} {
				got, err := resolve(t, reg, src)
				require.NoError(t, err, src)
				assert.Equal(t, want, got, src)
			}

			answer, err := reg.Lookup("answer")
			require.NoError(t, err)
			require.Len(t, answer, 1)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	b := NewBuilder()
	Prelude(b)

	err := LoadFile(b, filepath.Join("testdata", "bad-keys.toml"))
	require.ErrorContains(t, err, "unknown keys")

	err = LoadYAML(NewBuilder(), []byte("classes:\n  - name: Pair\n    parameters: [a]\n"))
	require.Error(t, err)

	err = LoadFile(NewBuilder(), filepath.Join("testdata", "pair.toml"))
	require.Error(t, err, "List and Int are not declared without the prelude")

	err = LoadFile(b, filepath.Join("testdata", "missing.toml"))
	require.Error(t, err)

	err = LoadSDL(NewBuilder(), "broken.graphqls", "type {")
	require.ErrorContains(t, err, "parsing GraphQL schema")

	err = LoadSDL(NewBuilder(), "params.graphqls", `
directive @generic(params: [String!]) on OBJECT | FIELD_DEFINITION
type Box @generic(params: [1, "x"]) { value: String }
`)
	require.ErrorContains(t, err, "@generic(params:) must be a list of strings")
}
