package worker

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"
)

type indexTask struct {
	index int
	delay time.Duration
	ran   *atomic.Int32
}

type indexResult struct {
	index int
}

func (t *indexTask) Index() int { return t.index }

func (t *indexTask) Run(ctx context.Context) Result {
	if t.delay > 0 {
		select {
		case <-ctx.Done():
			return &indexResult{index: t.index}
		case <-time.After(t.delay):
		}
	}
	if t.ran != nil {
		t.ran.Add(1)
	}
	return &indexResult{index: t.index}
}

func (r *indexResult) Index() int { return r.index }

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var ran atomic.Int32
	const n = 20
	for i := 0; i < n; i++ {
		pool.Submit(&indexTask{index: i, ran: &ran})
	}

	results := pool.Wait()
	if len(results) != n {
		t.Fatalf("got %d results, want %d", len(results), n)
	}
	if ran.Load() != n {
		t.Errorf("ran %d tasks, want %d", ran.Load(), n)
	}

	indices := make([]int, 0, n)
	for _, r := range results {
		indices = append(indices, r.Index())
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if i != idx {
			t.Fatalf("missing or duplicate index: %v", indices)
		}
	}
}

func TestPoolIndexRestoresOrder(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	// Later tasks finish first; Index carries the original position.
	delays := []time.Duration{40, 30, 20, 10}
	for i, d := range delays {
		pool.Submit(&indexTask{index: i, delay: d * time.Millisecond})
	}

	ordered := make([]int, len(delays))
	for i := range ordered {
		ordered[i] = -1
	}
	for _, r := range pool.Wait() {
		ordered[r.Index()] = r.Index()
	}
	for i, idx := range ordered {
		if idx != i {
			t.Errorf("position %d holds %d", i, idx)
		}
	}
}

func TestPoolCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	for i := 0; i < 5; i++ {
		pool.Submit(&indexTask{index: i, delay: 50 * time.Millisecond})
	}

	cancel()
	results := pool.Wait()

	// Partial results only; nothing should block.
	if len(results) > 5 {
		t.Fatalf("got %d results, want at most 5", len(results))
	}
}

func TestPoolMinimumWorkerCount(t *testing.T) {
	pool := NewPool(context.Background(), 0)
	pool.Start()
	pool.Submit(&indexTask{index: 0})

	if results := pool.Wait(); len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestLimiterAllowsBurst(t *testing.T) {
	l := NewLimiter(1000, 5)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx, "https://example.com/page"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("burst took %v, want near-instant", elapsed)
	}
}

func TestLimiterPerDomain(t *testing.T) {
	// A slow domain must not starve a different domain.
	l := NewLimiter(0.001, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://slow.example/one"); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- l.Wait(ctx, "https://other.example/one")
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait on second domain: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second domain blocked behind the first domain's budget")
	}
}

func TestLimiterContextCancel(t *testing.T) {
	l := NewLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the only token, then cancel while waiting for the next.
	if err := l.Wait(ctx, "https://example.com/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := l.Wait(ctx, "https://example.com/"); err == nil {
		t.Error("expected error after cancellation")
	}
}

func TestLimiterCrawlDelay(t *testing.T) {
	l := NewLimiter(1000, 5)
	ctx := context.Background()

	start := time.Now()
	if err := l.WaitWithDelay(ctx, "https://example.com/", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("crawl delay not honored: %v", elapsed)
	}
}
