package benchmarks

import (
	"strconv"
	"testing"

	"github.com/randalmurphal/navgraph/pkg/navgraph"
	"github.com/randalmurphal/navgraph/pkg/navgraph/recognizer"
)

// BenchmarkParse_Simple parses a two-segment path.
func BenchmarkParse_Simple(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = navgraph.ParseInstructions("users/42", false, navgraph.NavigationOptions{})
	}
}

// BenchmarkParse_Complex parses siblings, params, viewports and a query.
func BenchmarkParse_Complex(b *testing.B) {
	const path = "shell/(dash(range=7d)+menu@side)/detail(1,tab=info)?q=x&page=2#top"
	for i := 0; i < b.N; i++ {
		_, _ = navgraph.ParseInstructions(path, false, navgraph.NavigationOptions{})
	}
}

// BenchmarkParse_Hash parses a hash URL.
func BenchmarkParse_Hash(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = navgraph.ParseInstructions("/#/users/42?tab=posts", true, navgraph.NavigationOptions{})
	}
}

// BenchmarkToURL measures serializing an instruction tree back to a URL.
func BenchmarkToURL(b *testing.B) {
	vit, err := navgraph.ParseInstructions("shell/(dash+menu@side)/detail(1,tab=info)?q=x", false, navgraph.NavigationOptions{})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vit.ToURL(false)
	}
}

// BenchmarkRecognize_10 matches against 10 patterns, repeating one path.
func BenchmarkRecognize_10(b *testing.B) {
	r := buildRecognizer(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Recognize("section9/items/42")
	}
}

// BenchmarkRecognize_100 matches against 100 patterns, repeating one path.
func BenchmarkRecognize_100(b *testing.B) {
	r := buildRecognizer(b, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Recognize("section99/items/42")
	}
}

// BenchmarkRecognize_100_Distinct matches a different path every time.
func BenchmarkRecognize_100_Distinct(b *testing.B) {
	r := buildRecognizer(b, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Recognize("section" + strconv.Itoa(i%100) + "/items/" + strconv.Itoa(i))
	}
}

func buildRecognizer(b *testing.B, n int) *recognizer.Recognizer[int] {
	b.Helper()
	r := recognizer.New[int]()
	for i := 0; i < n; i++ {
		prefix := "section" + strconv.Itoa(i)
		if _, err := r.Add(prefix+"/items/:id", false, i); err != nil {
			b.Fatal(err)
		}
		if _, err := r.Add(prefix+"/*rest", false, -i); err != nil {
			b.Fatal(err)
		}
	}
	return r
}
