package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/sitegraph/internal/model"
)

// newCountingFactory returns a pipeline factory whose single step records
// how many scans ran concurrently and in total.
func newCountingFactory(totalRuns, maxConcurrent *atomic.Int32) func(site string) *Pipeline {
	var current atomic.Int32
	return func(string) *Pipeline {
		p := New()
		p.AddStep(&mockStep{
			name: "count",
			fn: func(*model.ScanReport) {
				n := current.Add(1)
				for {
					m := maxConcurrent.Load()
					if n <= m || maxConcurrent.CompareAndSwap(m, n) {
						break
					}
				}
				totalRuns.Add(1)
				current.Add(-1)
			},
		})
		return p
	}
}

// TestProcessBatchScansAllSites verifies every site is scanned and
// results preserve input order.
func TestProcessBatchScansAllSites(t *testing.T) {
	t.Parallel()

	var totalRuns, maxConcurrent atomic.Int32
	bp := NewBatchProcessor(newCountingFactory(&totalRuns, &maxConcurrent), WithConcurrency(2))

	sites := []string{
		"https://a.example",
		"https://b.example",
		"https://c.example",
	}

	reports, err := bp.ProcessBatch(context.Background(), sites)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, site := range sites {
		if reports[i] == nil || reports[i].Site != site {
			t.Errorf("expected report %d for %s, got %+v", i, site, reports[i])
		}
	}
	if totalRuns.Load() != 3 {
		t.Errorf("expected 3 scans, got %d", totalRuns.Load())
	}
	if maxConcurrent.Load() > 2 {
		t.Errorf("concurrency limit exceeded: %d", maxConcurrent.Load())
	}
}

// TestProcessBatchRecordsFailures verifies that failed scans still produce
// reports with the error recorded, without aborting other scans.
func TestProcessBatchRecordsFailures(t *testing.T) {
	t.Parallel()

	scanErr := errors.New("site unreachable")
	factory := func(site string) *Pipeline {
		p := New()
		if site == "https://bad.example" {
			p.AddStep(&mockStep{name: "fail", err: scanErr})
		} else {
			p.AddStep(&mockStep{name: "ok"})
		}
		return p
	}

	bp := NewBatchProcessor(factory)
	reports, err := bp.ProcessBatch(context.Background(), []string{
		"https://good.example",
		"https://bad.example",
	})
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if reports[0].ErrorMessage != "" {
		t.Errorf("expected no error on good site, got %q", reports[0].ErrorMessage)
	}
	if reports[1].ErrorMessage != scanErr.Error() {
		t.Errorf("expected error recorded on bad site, got %q", reports[1].ErrorMessage)
	}
}

// TestProcessBatchWithCallback verifies streaming results via callback.
func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	factory := func(string) *Pipeline {
		p := New()
		p.AddStep(&mockStep{name: "ok"})
		return p
	}

	var mu sync.Mutex
	seen := make(map[int]string)

	bp := NewBatchProcessor(factory, WithConcurrency(2))
	err := bp.ProcessBatchWithCallback(context.Background(),
		[]string{"https://a.example", "https://b.example"},
		func(report *model.ScanReport, index int) {
			mu.Lock()
			seen[index] = report.Site
			mu.Unlock()
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(seen))
	}
	if seen[0] != "https://a.example" || seen[1] != "https://b.example" {
		t.Errorf("unexpected callback results: %v", seen)
	}
}

// TestProcessBatchCancellation verifies cancelled batches stop early.
func TestProcessBatchCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var totalRuns, maxConcurrent atomic.Int32
	bp := NewBatchProcessor(newCountingFactory(&totalRuns, &maxConcurrent))

	_, err := bp.ProcessBatch(ctx, []string{"https://a.example"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
