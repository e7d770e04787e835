package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleSegment(t *testing.T) {
	r, err := Parse("home", false)
	require.NoError(t, err)

	assert.False(t, r.IsAbsolute)
	seg, ok := r.Root.(*Segment)
	require.True(t, ok, "expected *Segment, got %T", r.Root)
	assert.Equal(t, "home", seg.Component.Name)
	assert.False(t, seg.Viewport.Set)
	assert.True(t, seg.Scoped)
	assert.Equal(t, "home", r.Raw())
}

func TestParse_ScopedWithParamsAndViewport(t *testing.T) {
	r, err := Parse("a/b(id=1)@vp", false)
	require.NoError(t, err)

	scoped, ok := r.Root.(*ScopedSegment)
	require.True(t, ok)
	left := scoped.Left.(*Segment)
	right := scoped.Right.(*Segment)

	assert.Equal(t, "a", left.Component.Name)
	assert.Equal(t, "b", right.Component.Name)
	assert.Equal(t, map[string]string{"id": "1"}, right.Component.Params.Map())
	assert.Equal(t, "vp", right.Viewport.Name)
	assert.True(t, right.Viewport.Set)
	assert.Equal(t, "b(id=1)@vp", right.Raw())
}

func TestParse_PositionalParams(t *testing.T) {
	r, err := Parse("detail(7,mode=edit,x)", false)
	require.NoError(t, err)

	seg := r.Root.(*Segment)
	assert.Equal(t, map[string]string{"0": "7", "mode": "edit", "2": "x"}, seg.Component.Params.Map())
}

func TestParse_SiblingsAndGroups(t *testing.T) {
	r, err := Parse("(a/b)+c", false)
	require.NoError(t, err)

	comp, ok := r.Root.(*CompositeSegment)
	require.True(t, ok)
	require.Len(t, comp.Siblings, 2)
	assert.Equal(t, KindGroup, comp.Siblings[0].Kind())
	assert.Equal(t, KindSegment, comp.Siblings[1].Kind())

	group := comp.Siblings[0].(*SegmentGroup)
	assert.Equal(t, KindScoped, group.Expression.Kind())
}

func TestParse_AppendPrefixKeepsComposite(t *testing.T) {
	r, err := Parse("+a", false)
	require.NoError(t, err)

	comp, ok := r.Root.(*CompositeSegment)
	require.True(t, ok)
	assert.Len(t, comp.Siblings, 1)
}

func TestParse_AbsoluteQueryFragment(t *testing.T) {
	r, err := Parse("/search?q=go&page=2#results", false)
	require.NoError(t, err)

	assert.True(t, r.IsAbsolute)
	assert.Equal(t, "go", r.QueryParams.Get("q"))
	assert.Equal(t, "2", r.QueryParams.Get("page"))
	assert.True(t, r.HasFragment)
	assert.Equal(t, "results", r.Fragment)
	assert.Equal(t, "/search", r.Raw())
}

func TestParse_FragmentIsRoute(t *testing.T) {
	r, err := Parse("/#/a/b", true)
	require.NoError(t, err)

	assert.True(t, r.IsAbsolute)
	assert.False(t, r.HasFragment)
	assert.Equal(t, KindScoped, r.Root.Kind())
}

func TestParse_ActionAndUnscoped(t *testing.T) {
	r, err := Parse("editor.open(3)@main!", false)
	require.NoError(t, err)

	seg := r.Root.(*Segment)
	assert.Equal(t, "editor", seg.Component.Name)
	assert.Equal(t, "open", seg.Action.Name)
	assert.Equal(t, map[string]string{"0": "3"}, seg.Action.Params.Map())
	assert.Equal(t, "main", seg.Viewport.Name)
	assert.False(t, seg.Scoped)
}

func TestParse_RelativeMarkers(t *testing.T) {
	r, err := Parse("../sibling", false)
	require.NoError(t, err)
	scoped := r.Root.(*ScopedSegment)
	assert.Equal(t, "..", scoped.Left.(*Segment).Component.Name)

	r, err = Parse("./child", false)
	require.NoError(t, err)
	scoped = r.Root.(*ScopedSegment)
	assert.Equal(t, ".", scoped.Left.(*Segment).Component.Name)
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "/", "?x=1"} {
		r, err := Parse(in, false)
		require.NoError(t, err, in)
		seg, ok := r.Root.(*Segment)
		require.True(t, ok, in)
		assert.True(t, seg.Empty(), in)
	}
}

func TestParse_PercentDecoding(t *testing.T) {
	r, err := Parse("files(name=a%2Fb)", false)
	require.NoError(t, err)
	seg := r.Root.(*Segment)
	assert.Equal(t, "a/b", seg.Component.Params.Map()["name"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		pos   int
	}{
		{"a/", 2},
		{"a(", 2},
		{"a(x=)", 4},
		{"a@", 2},
		{"(a", 2},
		{"a)", 1},
		{"a+", 2},
		{"a.(1)", 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input, false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.pos, pe.Pos)
		})
	}
}

func TestComponent_Dynamic(t *testing.T) {
	c := Component{Name: ":id?"}
	assert.True(t, c.IsDynamic())
	assert.Equal(t, "id", c.ParameterName())

	c = Component{Name: "*rest"}
	assert.True(t, c.IsDynamic())
	assert.Equal(t, "rest", c.ParameterName())

	c = Component{Name: "users"}
	assert.False(t, c.IsDynamic())
	assert.Equal(t, "users", c.ParameterName())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a(") })
	assert.NotPanics(t, func() { MustParse("a/b") })
}
