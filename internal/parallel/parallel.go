// Package parallel provides small helpers for data-parallel loops over the
// batch dimension. Samples within a batch carry no cross-sample dependencies
// during forward or gradient computation, so chunking the batch across
// goroutines is always safe.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // whether parallel execution is enabled
	NumWorkers int  // number of worker goroutines
	MinPerTask int  // minimum iterations before spawning goroutines
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinPerTask: 2,
	}
}

// For executes f(i) for i in [0, n), chunked across workers when it pays off.
// Falls back to a sequential loop for small n or a disabled config.
func For(n int, cfg Config, f func(i int)) {
	if !cfg.Enabled || n < cfg.MinPerTask*2 || cfg.NumWorkers < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if chunk < cfg.MinPerTask {
		chunk = cfg.MinPerTask
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
