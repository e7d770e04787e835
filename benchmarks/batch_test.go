package benchmarks

import (
	"sync"
	"testing"

	"github.com/randalmurphal/navgraph/pkg/navgraph/batch"
)

// BenchmarkBatch_Sequential drains a 3-link chain on one goroutine.
func BenchmarkBatch_Sequential(b *testing.B) {
	for i := 0; i < b.N; i++ {
		batch.Start(func(*batch.Batch) {}).
			ContinueWith(func(*batch.Batch) {}).
			ContinueWith(func(*batch.Batch) {}).
			Start()
	}
}

// BenchmarkBatch_FanOut_10 joins 10 goroutines per link.
func BenchmarkBatch_FanOut_10(b *testing.B) {
	benchmarkFanOut(b, 10)
}

// BenchmarkBatch_FanOut_100 joins 100 goroutines per link.
func BenchmarkBatch_FanOut_100(b *testing.B) {
	benchmarkFanOut(b, 100)
}

// BenchmarkWaitGroup_FanOut_100 is the sync.WaitGroup baseline.
func BenchmarkWaitGroup_FanOut_100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var wg sync.WaitGroup
		for j := 0; j < 100; j++ {
			wg.Add(1)
			go wg.Done()
		}
		wg.Wait()
	}
}

func benchmarkFanOut(b *testing.B, n int) {
	fan := func(bt *batch.Batch) {
		for j := 0; j < n; j++ {
			bt.Push()
			go bt.Pop()
		}
	}
	for i := 0; i < b.N; i++ {
		done := make(chan struct{})
		batch.Start(fan).
			ContinueWith(fan).
			ContinueWith(func(*batch.Batch) { close(done) }).
			Start()
		<-done
	}
}
