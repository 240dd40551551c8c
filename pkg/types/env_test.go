package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedEnv(t *testing.T) {
	owner := NewFunction("f", "a", "b", "c")
	a, b, c := owner.TypeParams()[0], owner.TypeParams()[1], owner.TypeParams()[2]
	intType := NewClass("Int")
	strType := NewClass("String")

	parent := NewScopedEnv([]TypeVariable{a, b}, nil, nil)
	linked := NewScopedEnv([]TypeVariable{c}, nil, nil)
	require.NoError(t, linked.Bind(c, strType))

	child := NewScopedEnv([]TypeVariable{a}, parent, linked)

	t.Run("binding an owned variable stays local", func(t *testing.T) {
		require.NoError(t, child.Bind(a, intType))
		got, ok := child.Resolve(a)
		require.True(t, ok)
		assert.Same(t, intType, got)

		_, ok = parent.Resolve(a)
		assert.False(t, ok)
	})

	t.Run("binding an unowned variable delegates to the parent", func(t *testing.T) {
		require.NoError(t, child.Bind(b, strType))
		got, ok := parent.Resolve(b)
		require.True(t, ok)
		assert.Same(t, strType, got)
	})

	t.Run("linked environment is consulted last", func(t *testing.T) {
		got, ok := child.Resolve(c)
		require.True(t, ok)
		assert.Same(t, strType, got)
		assert.False(t, child.Owns(c))
	})

	t.Run("rebinding overwrites", func(t *testing.T) {
		require.NoError(t, child.Bind(a, strType))
		got, _ := child.Resolve(a)
		assert.Same(t, strType, got)
	})

	t.Run("nobody owns it", func(t *testing.T) {
		other := NewFunction("g", "z").TypeParams()[0]
		err := child.Bind(other, intType)
		var unknown *UnknownVariableError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("rendering follows declaration order", func(t *testing.T) {
		assert.Equal(t, "{f.b=String}", parent.String())
		assert.Equal(t, "{f.a=String} < {f.b=String} | {f.c=String}", child.String())
	})

	t.Run("links between scopes are marked", func(t *testing.T) {
		assert.Equal(t, "{f.b=String} | {f.c=String}", Link(parent, linked).String())
		assert.Equal(t, "{f.c=String}", Link(Empty, linked).String())

		assert.Equal(t, "scope {f.a=String}\n"+
			"\tparent:\n"+
			"\t\tscope {f.b=String}\n"+
			"\tlinked:\n"+
			"\t\tscope {f.c=String}\n", Dump(child))

		assert.Equal(t, "linked\n"+
			"\tscope {f.b=String}\n"+
			"\tscope {f.c=String}\n", Dump(Link(parent, linked)))

		assert.Equal(t, "empty\n", Dump(Empty))
	})
}
