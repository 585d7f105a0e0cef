// Package bench collects per-stage timings and flushes them to a
// timestamped report on shutdown.
package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry stores named duration series. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	series map[string][]time.Duration
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{series: make(map[string][]time.Duration)}
}

// Track starts a timer for name; the returned func records it.
//
//	defer r.Track("total_processing")()
func (r *Registry) Track(name string) func() {
	start := time.Now()
	return func() {
		r.Observe(name, time.Since(start))
	}
}

// Observe records a single duration for name.
func (r *Registry) Observe(name string, d time.Duration) {
	r.mu.Lock()
	r.series[name] = append(r.series[name], d)
	r.mu.Unlock()
}

// Summary renders count/average/min/max/total per series, sorted by
// name for stable output.
func (r *Registry) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.series) == 0 {
		return "no benchmark data collected\n"
	}

	names := make([]string, 0, len(r.series))
	for name := range r.series {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("BENCHMARK SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	for _, name := range names {
		times := r.series[name]
		if len(times) == 0 {
			continue
		}
		var total, min, max time.Duration
		min = times[0]
		for _, d := range times {
			total += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
		avg := total / time.Duration(len(times))
		fmt.Fprintf(&b, "%s:\n", name)
		fmt.Fprintf(&b, "  Count: %d\n", len(times))
		fmt.Fprintf(&b, "  Average: %.3fs\n", avg.Seconds())
		fmt.Fprintf(&b, "  Min: %.3fs\n", min.Seconds())
		fmt.Fprintf(&b, "  Max: %.3fs\n", max.Seconds())
		fmt.Fprintf(&b, "  Total: %.3fs\n\n", total.Seconds())
	}
	return b.String()
}

// WriteFile saves the summary under dir as bench_<timestamp>.txt and
// returns the path.
func (r *Registry) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bench dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("bench_%s.txt", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(r.Summary()), 0o644); err != nil {
		return "", fmt.Errorf("write bench file: %w", err)
	}
	return path, nil
}
