package navgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapse(t *testing.T) {
	tests := []struct {
		path  string
		links int
		parts []string
	}{
		{"a", 1, []string{"a"}},
		{"a/b/c", 3, []string{"a", "b", "c"}},
		{"a/(b+c)", 1, []string{"a"}},
		{"a(x=1)/b", 1, []string{"a"}},
		{"a/b@side/c", 2, []string{"a", "b"}},
		{"a/../b", 1, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			chain := collapse(parse(t, tt.path).Children[0])
			assert.Len(t, chain, tt.links)
			assert.Equal(t, tt.parts, chain.parts())
		})
	}
}

func TestPathChain_Split(t *testing.T) {
	t.Run("whole links", func(t *testing.T) {
		chain := collapse(parse(t, "users/42/posts").Children[0])

		leaf, residue := chain.split(2)

		assert.Equal(t, "42", leaf.Component.Name())
		require.Len(t, residue, 1)
		assert.Equal(t, "posts", residue[0].Component.Name())
	})

	t.Run("partial link", func(t *testing.T) {
		vi := &ViewportInstruction{Component: ByName("users/42/posts"), Viewport: "main", Params: Params{"x": "1"}}
		chain := collapse(vi)

		leaf, residue := chain.split(2)

		assert.Empty(t, leaf.Viewport)
		assert.Empty(t, leaf.Params)
		require.Len(t, residue, 1)
		assert.Equal(t, "posts", residue[0].Component.Name())
		assert.Equal(t, "main", residue[0].Viewport, "the remainder keeps the link's viewport")
		assert.Equal(t, Params{"x": "1"}, residue[0].Params)
	})

	t.Run("empty path", func(t *testing.T) {
		vi := &ViewportInstruction{Component: ByName("")}
		leaf, residue := collapse(vi).split(0)
		assert.Same(t, vi, leaf)
		assert.Empty(t, residue)
	})
}

func TestMigrateRedirect(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		target  string
		params  Params
		want    string
	}{
		{"static", "old", "new", nil, "new"},
		{"same name", "u/:id", "users/:id", Params{"id": "7"}, "users/7"},
		{"by position", "p/:a/:b", "q/:x/:y", Params{"a": "1", "b": "2"}, "q/1/2"},
		{"missing dropped", "p", "q/:x", nil, "q"},
		{"catch-all", "docs/*rest", "help/*path", Params{"rest": "a/b"}, "help/a/b"},
		{"empty target", "", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateRedirect(tt.pattern, tt.target, tt.params))
		})
	}
}

func TestFillPath(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		params  Params
		want    string
		used    []string
		ok      bool
	}{
		{"static", "home", nil, "home", nil, true},
		{"named", "users/:id", Params{"id": "42"}, "users/42", []string{"id"}, true},
		{"positional", "users/:id", Params{"0": "42"}, "users/42", []string{"0"}, true},
		{"named wins", "users/:id", Params{"id": "1", "0": "2"}, "users/1", []string{"id"}, true},
		{"missing", "users/:id", nil, "", nil, false},
		{"optional", "search/:term?", nil, "search", nil, true},
		{"empty pattern", "", Params{"x": "1"}, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, used, ok := fillPath(tt.pattern, tt.params)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Len(t, used, len(tt.used))
			for _, k := range tt.used {
				assert.True(t, used[k], k)
			}
		})
	}
}

func TestRouteContext_GenerateViewportInstruction(t *testing.T) {
	app := newTestApp(t)
	ctx := app.router.RootContext()

	vi := ctx.generateViewportInstruction(testCtx(), &ViewportInstruction{
		Component: ByName("user"),
		Params:    Params{"id": "9", "tab": "posts"},
	})

	require.NotNil(t, vi)
	assert.Equal(t, "users/9", vi.Component.Name())
	assert.Equal(t, Params{"tab": "posts"}, vi.Params, "unused params stay on the instruction")
	require.NotNil(t, vi.RecognizedRoute)
	assert.Equal(t, Params{"id": "9"}, vi.RecognizedRoute.Params)

	assert.Nil(t, ctx.generateViewportInstruction(testCtx(), &ViewportInstruction{Component: ByName("user")}),
		"required params are missing")
}
