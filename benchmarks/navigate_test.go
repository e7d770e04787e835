package benchmarks

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/randalmurphal/navgraph/pkg/navgraph"
)

// page is a view-model with no hooks, so only router overhead is measured.
type page struct{}

// BenchmarkLoad_Flat alternates between two top-level routes.
func BenchmarkLoad_Flat(b *testing.B) {
	r := startRouter(b, flatRoutes()...)
	ctx := context.Background()
	urls := []string{"a/1", "b/2"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, urls[i%2])
	}
}

// BenchmarkLoad_Nested_5 alternates the leaf of a 5-level route chain.
func BenchmarkLoad_Nested_5(b *testing.B) {
	benchmarkNested(b, 5)
}

// BenchmarkLoad_Nested_10 alternates the leaf of a 10-level route chain.
func BenchmarkLoad_Nested_10(b *testing.B) {
	benchmarkNested(b, 10)
}

// BenchmarkLoad_Siblings loads two viewports side by side.
func BenchmarkLoad_Siblings(b *testing.B) {
	r := startRouter(b, flatRoutes()...)
	ctx := context.Background()
	urls := []string{"a/1+b/2", "b/3+a/4"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, urls[i%2])
	}
}

// BenchmarkLoad_Redirect follows a route redirect on every load.
func BenchmarkLoad_Redirect(b *testing.B) {
	routes := append(flatRoutes(), navgraph.RouteConfig{Path: []string{"old/:id"}, RedirectTo: "a/:id"})
	r := startRouter(b, routes...)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, "old/"+strconv.Itoa(i))
	}
}

// BenchmarkLoad_Same measures the skip path for an unchanged URL.
func BenchmarkLoad_Same(b *testing.B) {
	r := startRouter(b, flatRoutes()...)
	ctx := context.Background()
	if _, err := r.Load(ctx, "a/1"); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, "a/1")
	}
}

func benchmarkNested(b *testing.B, depth int) {
	r := startRouter(b, nestedRoutes(depth))
	ctx := context.Background()
	prefix := ""
	for i := 0; i < depth; i++ {
		prefix += "l" + strconv.Itoa(i) + "/"
	}
	urls := []string{prefix + "1", prefix + "2"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, urls[i%2])
	}
}

// Helper functions

func newPage() any { return &page{} }

func flatRoutes() []navgraph.RouteConfig {
	return []navgraph.RouteConfig{
		{Path: []string{"a/:id"}, Component: navgraph.ByDefinition(&navgraph.ComponentDefinition{Name: "a", Factory: newPage})},
		{Path: []string{"b/:id"}, Component: navgraph.ByDefinition(&navgraph.ComponentDefinition{Name: "b", Factory: newPage})},
	}
}

// nestedRoutes builds l0/l1/.../l{depth-1}/:id, one component per level.
func nestedRoutes(depth int) navgraph.RouteConfig {
	leaf := navgraph.RouteConfig{
		Path:      []string{":id"},
		Component: navgraph.ByDefinition(&navgraph.ComponentDefinition{Name: "leaf", Factory: newPage}),
	}
	route := leaf
	for i := depth - 1; i >= 0; i-- {
		name := "l" + strconv.Itoa(i)
		route = navgraph.RouteConfig{
			Path: []string{name},
			Component: navgraph.ByDefinition(&navgraph.ComponentDefinition{
				Name:      name,
				Factory:   newPage,
				Viewports: []navgraph.ViewportConfig{{}},
			}),
			Routes: []navgraph.RouteConfig{route},
		}
	}
	return route
}

func startRouter(b *testing.B, routes ...navgraph.RouteConfig) *navgraph.Router {
	b.Helper()
	root := &navgraph.ComponentDefinition{
		Name:      "app",
		Viewports: []navgraph.ViewportConfig{{Name: "left"}, {Name: "right"}},
	}
	r, err := navgraph.New(root,
		navgraph.WithRoutes(routes...),
		navgraph.WithLogger(discardLogger()),
	)
	if err != nil {
		b.Fatal(err)
	}
	if err := r.Start(context.Background(), false); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(r.Stop)
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
