package elab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vito/unifier/pkg/types"
)

func TestParse(t *testing.T) {
	literals := LiteralTypes{
		Int:    types.NewClass("Int"),
		String: types.NewClass("String"),
	}

	srcs := []string{
		"listOf(0).get(1)",
		"f()",
		`echo("hello, world")`,
		"a.b.c",
		"f(g(1), h.i)(2)",
		"  listOf ( 0 ) . get ( 1 ) ",
		"(echo)(0)",
	}
	var got []string
	for _, src := range srcs {
		expr, err := Parse(src, literals)
		require.NoError(t, err, src)
		got = append(got, expr.String())
	}

	want := []string{
		"listOf(0).get(1)",
		"f()",
		`echo("hello, world")`,
		"a.b.c",
		"f(g(1), h.i)(2)",
		"listOf(0).get(1)",
		"echo(0)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rendered expressions (-want +got):\n%s", diff)
	}
}

func TestParseStructure(t *testing.T) {
	intType := types.NewClass("Int")

	expr, err := Parse("listOf(0).get(1)", LiteralTypes{Int: intType})
	require.NoError(t, err)

	call, ok := expr.(*Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)

	arg, ok := call.Args[0].(*Const)
	require.True(t, ok)
	require.Same(t, intType, arg.Type)
	require.Equal(t, "1", arg.Value)

	access, ok := call.Receiver.(*Access)
	require.True(t, ok)
	require.Equal(t, "get", access.Member)

	inner, ok := access.Receiver.(*Call)
	require.True(t, ok)
	require.Equal(t, &Ref{Name: "listOf"}, inner.Receiver)
}

func TestParseErrors(t *testing.T) {
	literals := LiteralTypes{Int: types.NewClass("Int")}

	for _, src := range []string{
		"",
		"listOf(",
		"listOf(0",
		".get",
		"a.",
		"a.1",
		"1 2",
		"f(1,)",
		`"strings are not typed"`,
		`"unterminated`,
	} {
		_, err := Parse(src, literals)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr, "%q", src)
		require.Equal(t, src, parseErr.Source)
	}
}

func TestParseErrorColumns(t *testing.T) {
	literals := LiteralTypes{Int: types.NewClass("Int")}

	for src, col := range map[string]int{
		"listOf(0).get(": 15,
		`echo(1, "two")`: 9,
		"a..b":           3,
	} {
		_, err := Parse(src, literals)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr, "%q", src)
		require.Equal(t, col, parseErr.Column, "%q", src)
	}

	_, err := Parse(`echo(1, "two")`, literals)
	require.ErrorContains(t, err, "string literals are not supported")
}
