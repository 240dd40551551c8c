package syntax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr(t *testing.T) {
	for src, want := range map[string]Node{
		"listOf(0).get(1)": &Call{
			Fun: &Select{
				Receiver: &Call{
					Fun:  &Ident{Name: "listOf", Col: 1},
					Args: []Node{&Literal{Kind: IntLit, Text: "0", Col: 8}},
				},
				Member: "get",
			},
			Args: []Node{&Literal{Kind: IntLit, Text: "1", Col: 15}},
		},
		"f()": &Call{
			Fun: &Ident{Name: "f", Col: 1},
		},
		`echo("a \"b\"")`: &Call{
			Fun:  &Ident{Name: "echo", Col: 1},
			Args: []Node{&Literal{Kind: StringLit, Text: `"a \"b\""`, Col: 6}},
		},
		" a . b ( c , 2 ) ": &Call{
			Fun: &Select{
				Receiver: &Ident{Name: "a", Col: 2},
				Member:   "b",
			},
			Args: []Node{
				&Ident{Name: "c", Col: 10},
				&Literal{Kind: IntLit, Text: "2", Col: 14},
			},
		},
		"(f)(x)(y)": &Call{
			Fun: &Call{
				Fun:  &Ident{Name: "f", Col: 2},
				Args: []Node{&Ident{Name: "x", Col: 5}},
			},
			Args: []Node{&Ident{Name: "y", Col: 8}},
		},
	} {
		got, err := ParseExpr(src)
		require.NoError(t, err, src)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%q (-want +got):\n%s", src, diff)
		}
	}
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" Map < String, List<?> > ")
	require.NoError(t, err)

	want := &TypeRef{
		Name: "Map",
		Col:  2,
		Args: []*TypeRef{
			{Name: "String", Col: 8},
			{Name: "List", Col: 16, Args: []*TypeRef{
				{Wildcard: true, Col: 21},
			}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("type (-want +got):\n%s", diff)
	}
}

func TestEntrypoints(t *testing.T) {
	_, err := ParseExpr("List<Int>")
	require.Error(t, err)

	_, err = ParseType("listOf(0)")
	require.Error(t, err)
}

func TestSyntaxErrors(t *testing.T) {
	for src, col := range map[string]int{
		"":            1,
		"listOf(":     8,
		"a.1":         3,
		"1 2":         3,
		"f(1,)":       5,
		`"open`:       6,
		"a b":         3,
		"echo(0)) ":   8,
		"\tlistOf(0,": 11,
	} {
		_, err := ParseExpr(src)
		var serr *Error
		require.ErrorAs(t, err, &serr, "%q", src)
		assert.Equal(t, 1, serr.Line, "%q", src)
		assert.Equal(t, col, serr.Col, "%q", src)
	}

	_, err := ParseExpr("a.")
	require.EqualError(t, err, `1:3: no match found, expected: [ \t\r\n] or [a-zA-Z_]`)

	_, err = ParseType("List<Int,>")
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 10, serr.Col)
}
