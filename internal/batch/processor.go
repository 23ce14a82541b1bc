package batch

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Result holds the outcome of processing one job.
type Result struct {
	Name    string
	Output  string
	Width   int
	Height  int
	Success bool
	Error   string
}

// Func processes one named job.
type Func func(name string) Result

// Options configures Run.
type Options struct {
	Workers  int
	Progress io.Writer     // nil disables progress lines
	Interval time.Duration // progress interval, default 2s
}

// Run processes all names using a worker pool. Results are in input order.
func Run(opts Options, names []string, fn Func) []Result {
	total := len(names)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	var reporter sync.WaitGroup
	if opts.Progress != nil {
		reporter.Add(1)
		go func() {
			defer reporter.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(opts.Progress, "  [%d/%d] %.1f files/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = runOne(fn, names[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range names {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)
	reporter.Wait()

	return results
}

// runOne turns a panicking job into a failed result.
func runOne(fn Func, name string) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = Result{Name: name, Error: fmt.Sprintf("panic: %v", p)}
		}
	}()
	r = fn(name)
	if r.Name == "" {
		r.Name = name
	}
	return r
}

// Failed returns the failed results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
