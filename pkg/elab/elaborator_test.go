package elab

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/vito/unifier/pkg/types"
)

func TestMain(m *testing.M) {
	os.Exit(oteltest.Main(m))
}

type testingT interface {
	require.TestingT
	Helper()
}

type testSchema struct {
	names    map[string][]types.Type
	literals LiteralTypes
}

func (s *testSchema) Lookup(name string) ([]types.Type, error) {
	decls, ok := s.names[name]
	if !ok {
		return nil, fmt.Errorf("cannot resolve name %q", name)
	}
	return decls, nil
}

func (s *testSchema) add(name string, t types.Type) {
	s.names[name] = append(s.names[name], t)
}

func newTestSchema(t testingT) *testSchema {
	t.Helper()

	intType := types.NewClass("Int")
	stringType := types.NewClass("String")

	list := types.NewClass("List", "x")
	x, _ := list.TypeParam("x")
	list.AddMember("get", types.NewFunction("get").
		AddParam(intType).
		SetReturn(x).
		SetReceiver(list))

	box := types.NewClass("Box")
	box.AddMember("put", types.NewFunction("put").AddParam(intType).SetReturn(intType).SetReceiver(box))
	box.AddMember("put", types.NewFunction("put").AddParam(stringType).SetReturn(stringType).SetReceiver(box))

	s := &testSchema{
		names: map[string][]types.Type{},
		literals: LiteralTypes{
			Int:    intType,
			String: stringType,
		},
	}

	echo := types.NewFunction("echo", "x")
	ex := echo.TypeParams()[0]
	echo.AddParam(ex).SetReturn(ex)
	s.add("echo", echo)

	listOf := types.NewFunction("listOf", "x")
	lx := listOf.TypeParams()[0]
	listOfX, err := list.Bind(types.Empty, lx)
	require.NoError(t, err)
	listOf.AddParam(lx).SetReturn(listOfX)
	s.add("listOf", listOf)

	s.add("box", types.NewFunction("box").SetReturn(box))

	s.add("pick", types.NewFunction("pick").AddParam(intType).SetReturn(intType))
	s.add("pick", types.NewFunction("pick").AddParam(stringType).SetReturn(stringType))

	s.add("answer", intType)

	return s
}

func (s *testSchema) parse(t testingT, src string) Expr {
	t.Helper()
	expr, err := Parse(src, s.literals)
	require.NoError(t, err)
	return expr
}

type ElaboratorSuite struct{}

func TestElaborator(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(ElaboratorSuite{})
}

func (ElaboratorSuite) TestResolvedTypes(ctx context.Context, t *testctx.T) {
	schema := newTestSchema(t)
	e := New(schema)

	tests := []struct {
		expr     string
		expected string
	}{
		{"0", "Int"},
		{`"hello"`, "String"},
		{"echo(0)", "Int"},
		{`echo("hello")`, "String"},
		{"echo(echo(0))", "Int"},
		{"listOf(0)", "List<Int>"},
		{"listOf(0).get(1)", "Int"},
		{"listOf(0).get", "get(Int) -> Int"},
		{"listOf(listOf(0))", "List<List<Int>>"},
		{"listOf(listOf(0)).get(0)", "List<Int>"},
		{"listOf(listOf(0)).get(0).get(1)", "Int"},
		{`listOf(echo("a")).get(0)`, "String"},
		{"box().put(0)", "Int"},
		{`box().put("a")`, "String"},
		{"box().put", "?"},
		{"echo", "echo<x>(echo.x) -> echo.x"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(ctx context.Context, t *testctx.T) {
			trace, err := e.Resolve(ctx, schema.parse(t, tt.expr))
			require.NoError(t, err)
			require.Equal(t, tt.expected, trace.Type().String())
			require.True(t, trace.After.Resolved())
		})
	}
}

func (ElaboratorSuite) TestPasses(ctx context.Context, t *testctx.T) {
	schema := newTestSchema(t)

	trace, err := New(schema).Resolve(ctx, schema.parse(t, "listOf(0).get(1)"))
	require.NoError(t, err)
	require.Equal(t, 2, trace.Passes)
	require.False(t, trace.Before.Resolved())

	_, err = New(schema, WithMaxPasses(1)).Resolve(ctx, schema.parse(t, "listOf(0).get(1)"))
	var fixpoint *FixpointError
	require.ErrorAs(t, err, &fixpoint)
	require.Equal(t, 1, fixpoint.Passes)

	trace, err = New(schema, WithMaxPasses(1)).Resolve(ctx, schema.parse(t, "answer"))
	require.NoError(t, err)
	require.Equal(t, 1, trace.Passes)
}

func (ElaboratorSuite) TestAmbiguity(ctx context.Context, t *testctx.T) {
	schema := newTestSchema(t)

	t.Run("strict", func(ctx context.Context, t *testctx.T) {
		e := New(schema)

		for _, src := range []string{"pick", "pick(0)", `pick("a")`, "echo(pick)"} {
			_, err := e.Resolve(ctx, schema.parse(t, src))
			var ambiguous *AmbiguousError
			require.ErrorAs(t, err, &ambiguous, src)
			assert.Equal(t, 2, ambiguous.Count)
		}
	})

	t.Run("pruning", func(ctx context.Context, t *testctx.T) {
		e := New(schema, WithPruneCandidates(true))

		trace, err := e.Resolve(ctx, schema.parse(t, "pick(0)"))
		require.NoError(t, err)
		require.Equal(t, "Int", trace.Type().String())

		trace, err = e.Resolve(ctx, schema.parse(t, `pick("a")`))
		require.NoError(t, err)
		require.Equal(t, "String", trace.Type().String())

		_, err = e.Resolve(ctx, schema.parse(t, "pick"))
		var ambiguous *AmbiguousError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, 2, ambiguous.Count)

		_, err = e.Resolve(ctx, schema.parse(t, "pick(listOf(0))"))
		var noViable *NoViableError
		require.ErrorAs(t, err, &noViable)
		assert.Len(t, noViable.Errs, 2)
		for _, err := range noViable.Errs {
			assert.True(t, types.IsMismatch(err), "%s", err)
		}

		// arguments never branch, even when pruning
		_, err = e.Resolve(ctx, schema.parse(t, "echo(pick)"))
		require.ErrorAs(t, err, &ambiguous)
	})
}

func (ElaboratorSuite) TestOverloadedMembers(ctx context.Context, t *testctx.T) {
	schema := newTestSchema(t)
	e := New(schema)

	trace, err := e.Resolve(ctx, schema.parse(t, "box().put"))
	require.NoError(t, err)
	access, ok := trace.After.(*ResolvedMemberAccess)
	require.True(t, ok)
	require.Len(t, access.Members, 2)

	narrowed, err := access.Unify(types.NewFunction("put").AddParam(schema.literals.String).SetReturn(schema.literals.String),
		types.Empty, types.Empty, types.Empty)
	require.NoError(t, err)
	require.Equal(t, "put(String) -> String", narrowed.Type().String())

	_, err = access.Unify(schema.literals.Int, types.Empty, types.Empty, types.Empty)
	require.Error(t, err)
	require.True(t, types.IsMismatch(err))

	_, err = e.Resolve(ctx, schema.parse(t, "box().put(listOf(0))"))
	var noOverload *NoViableOverloadError
	require.ErrorAs(t, err, &noOverload)
	require.Len(t, noOverload.Errs, 2)
}

func (ElaboratorSuite) TestErrors(ctx context.Context, t *testctx.T) {
	schema := newTestSchema(t)
	e := New(schema)

	t.Run("not a function", func(ctx context.Context, t *testctx.T) {
		_, err := e.Resolve(ctx, schema.parse(t, "answer(1)"))
		var notFn *NotAFunctionError
		require.ErrorAs(t, err, &notFn)
		require.Equal(t, "answer", notFn.Expr.String())
	})

	t.Run("not a class", func(ctx context.Context, t *testctx.T) {
		_, err := e.Resolve(ctx, schema.parse(t, "echo.get"))
		var notClass *NotAClassError
		require.ErrorAs(t, err, &notClass)
	})

	t.Run("no such member", func(ctx context.Context, t *testctx.T) {
		_, err := e.Resolve(ctx, schema.parse(t, "listOf(0).size"))
		var noMember *NoSuchMemberError
		require.ErrorAs(t, err, &noMember)
		require.Equal(t, "List", noMember.Class)
		require.Equal(t, "size", noMember.Member)
	})

	t.Run("wrong number of arguments", func(ctx context.Context, t *testctx.T) {
		_, err := e.Resolve(ctx, schema.parse(t, "listOf(0, 1)"))
		var arity *types.ArityError
		require.ErrorAs(t, err, &arity)
		require.Equal(t, 1, arity.Want)
		require.Equal(t, 2, arity.Got)
	})

	t.Run("argument mismatch", func(ctx context.Context, t *testctx.T) {
		_, err := e.Resolve(ctx, schema.parse(t, `listOf(0).get("a")`))
		require.Error(t, err)
		require.True(t, types.IsMismatch(err))
	})

	t.Run("unknown name", func(ctx context.Context, t *testctx.T) {
		_, err := e.Resolve(ctx, schema.parse(t, "nope"))
		require.ErrorContains(t, err, `cannot resolve name "nope"`)
	})

	t.Run("cancelled", func(ctx context.Context, t *testctx.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Resolve(ctx, schema.parse(t, "echo(0)"))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTraceRender(t *testing.T) {
	schema := newTestSchema(t)

	trace, err := New(schema).Resolve(context.Background(), schema.parse(t, "listOf(0).get(1)"))
	require.NoError(t, err)
	golden.Assert(t, trace.Render(), "listof-get.golden")
}

func TestConcurrentResolution(t *testing.T) {
	schema := newTestSchema(t)
	e := New(schema)

	exprs := []string{"listOf(0).get(1)", "listOf(listOf(0))", "echo(0)", `echo("a")`}
	results := make([]string, len(exprs))
	done := make(chan struct{})
	for i, src := range exprs {
		expr := schema.parse(t, src)
		go func() {
			defer func() { done <- struct{}{} }()
			trace, err := e.Resolve(context.Background(), expr)
			if err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = trace.Type().String()
		}()
	}
	for range exprs {
		<-done
	}

	require.Equal(t, []string{"Int", "List<List<Int>>", "Int", "String"}, results)
}
