package benchmarks

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/randalmurphal/navgraph/pkg/navgraph"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

// BenchmarkMemoryJournal_Append measures in-memory journal appends.
func BenchmarkMemoryJournal_Append(b *testing.B) {
	j := history.NewMemoryJournal()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = j.Append(ctx, createEntry(i))
	}
}

// BenchmarkMemoryJournal_Last measures reading the latest entry.
func BenchmarkMemoryJournal_Last(b *testing.B) {
	j := history.NewMemoryJournal()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_ = j.Append(ctx, createEntry(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = j.Last(ctx, "bench")
	}
}

// BenchmarkSQLiteJournal_Append measures SQLite journal appends.
func BenchmarkSQLiteJournal_Append(b *testing.B) {
	j, cleanup := createSQLiteJournal(b)
	defer cleanup()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = j.Append(ctx, createEntry(i))
	}
}

// BenchmarkSQLiteJournal_Last measures reading the latest SQLite entry.
func BenchmarkSQLiteJournal_Last(b *testing.B) {
	j, cleanup := createSQLiteJournal(b)
	defer cleanup()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_ = j.Append(ctx, createEntry(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = j.Last(ctx, "bench")
	}
}

// BenchmarkLoad_WithJournal measures navigation with a memory journal.
func BenchmarkLoad_WithJournal(b *testing.B) {
	r := startJournaledRouter(b, history.NewMemoryJournal())
	ctx := context.Background()
	urls := []string{"a/1", "b/2"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, urls[i%2])
	}
}

// BenchmarkLoad_WithoutJournal is the baseline without a journal.
func BenchmarkLoad_WithoutJournal(b *testing.B) {
	r := startRouter(b, flatRoutes()...)
	ctx := context.Background()
	urls := []string{"a/1", "b/2"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Load(ctx, urls[i%2])
	}
}

// BenchmarkEntryJSONMarshal measures entry serialization overhead.
func BenchmarkEntryJSONMarshal(b *testing.B) {
	entry := createEntry(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(entry)
	}
}

// Helper functions

func createEntry(i int) *history.Entry {
	return &history.Entry{
		Session:      "bench",
		TransitionID: uint64(i),
		URL:          "/users/" + strconv.Itoa(i) + "?tab=posts",
		Title:        "User | App",
		Trigger:      "api",
		Strategy:     "push",
		State: map[string]any{
			"scroll": 120,
			"filter": "recent",
		},
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
}

func createSQLiteJournal(b *testing.B) (*history.SQLiteJournal, func()) {
	b.Helper()
	tmpFile, err := os.CreateTemp("", "bench-*.db")
	if err != nil {
		b.Fatal(err)
	}
	tmpFile.Close()

	j, err := history.NewSQLiteJournal(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		b.Fatal(err)
	}

	return j, func() {
		j.Close()
		os.Remove(tmpFile.Name())
	}
}

func startJournaledRouter(b *testing.B, j history.Journal) *navgraph.Router {
	b.Helper()
	root := &navgraph.ComponentDefinition{Name: "app", Viewports: []navgraph.ViewportConfig{{}}}
	r, err := navgraph.New(root,
		navgraph.WithRoutes(flatRoutes()...),
		navgraph.WithJournal(j, "bench"),
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
