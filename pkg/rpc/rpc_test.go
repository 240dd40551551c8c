package rpc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/schema"
)

func newService(t *testing.T) *Service {
	t.Helper()
	b := schema.NewBuilder()
	schema.Prelude(b)
	registry, err := b.Freeze()
	require.NoError(t, err)
	return NewService(registry, elab.New(registry))
}

func TestResolve(t *testing.T) {
	loc := server.NewLocal(newService(t).Methods(), nil)
	defer loc.Close()

	ctx := context.Background()

	var res ResolveResult
	require.NoError(t, loc.Client.CallResult(ctx, "Resolve", ResolveParams{
		Expr: "listOf(0).get(1)",
	}, &res))
	assert.Equal(t, "Int", res.Type)
	assert.True(t, res.Resolved)
	assert.Equal(t, 2, res.Passes)
	assert.Empty(t, res.Trace)

	require.NoError(t, loc.Client.CallResult(ctx, "Resolve", ResolveParams{
		Expr:  `echo("a")`,
		Trace: true,
	}, &res))
	assert.Equal(t, "String", res.Type)
	assert.Contains(t, res.Trace, "Unified typed expressions:")
}

func TestResolveErrors(t *testing.T) {
	loc := server.NewLocal(newService(t).Methods(), nil)
	defer loc.Close()

	ctx := context.Background()

	for _, tt := range []struct {
		expr string
		code jrpc2.Code
	}{
		{"", jrpc2.InvalidParams},
		{"listOf(", jrpc2.InvalidParams},
		{`listOf(0).get("a")`, ResolveFailed},
		{"nope", ResolveFailed},
	} {
		_, err := loc.Client.Call(ctx, "Resolve", ResolveParams{Expr: tt.expr})
		var rpcErr *jrpc2.Error
		require.True(t, errors.As(err, &rpcErr), "%q: %v", tt.expr, err)
		assert.Equal(t, tt.code, rpcErr.Code, tt.expr)
	}
}

func TestSchema(t *testing.T) {
	loc := server.NewLocal(newService(t).Methods(), nil)
	defer loc.Close()

	var res SchemaResult
	require.NoError(t, loc.Client.CallResult(context.Background(), "Schema", nil, &res))

	var list *ClassInfo
	for i, c := range res.Classes {
		if c.Name == "List" {
			list = &res.Classes[i]
		}
	}
	require.NotNil(t, list)
	assert.Equal(t, []string{"x"}, list.Params)
	require.Len(t, list.Members, 1)
	assert.Equal(t, "get", list.Members[0].Name)

	var names []string
	for _, v := range res.Values {
		names = append(names, v.Name)
	}
	assert.Contains(t, names, "listOf")
	assert.Contains(t, names, "echo")
}

func TestServe(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newService(t)
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx, inR, outW)
	}()

	_, err := io.WriteString(inW,
		`{"jsonrpc":"2.0","id":1,"method":"Resolve","params":{"expr":"listOf(listOf(0))"}}`+"\n")
	require.NoError(t, err)

	line, err := bufio.NewReader(outR).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"type":"List<List<Int>>"`)

	cancel()
	require.NoError(t, inW.Close())
	require.NoError(t, <-done)
}
