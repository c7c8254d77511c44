// Package parallel provides the goroutine fan-out used by the seqconv kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
// Kernels split work by batch row, and a single row already carries a full
// convolution, so the minimum chunk is small.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4,
	}
}

// Sequential returns a configuration that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// Workers returns the number of chunks ForChunks will split n items into.
// The result is always >= 1, even for n == 0.
func Workers(n int, cfg Config) int {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*max(cfg.MinChunkSize, 1) {
		return 1
	}
	chunk := chunkSize(n, cfg)
	return (n + chunk - 1) / chunk
}

func chunkSize(n int, cfg Config) int {
	workers := max(cfg.NumWorkers, 1)
	return max((n+workers-1)/workers, cfg.MinChunkSize, 1)
}

// ForChunks splits [0, n) into Workers(n, cfg) contiguous ranges and calls
// f(worker, start, end) once per range. Worker indices are dense in
// [0, Workers(n, cfg)) and range boundaries depend only on n and cfg, so
// callers can keep one partial buffer per worker and merge them in index
// order for a deterministic reduction.
func ForChunks(n int, cfg Config, f func(worker, start, end int)) {
	workers := Workers(n, cfg)
	if workers == 1 {
		f(0, 0, n)
		return
	}

	chunk := chunkSize(n, cfg)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			f(w, s, e)
		}(w, start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForChunks(n, cfg, func(_, s, e int) {
		for i := s; i < e; i++ {
			f(i)
		}
	})
}

// ForBatch executes f(b, c) for every pair in [0, batch) x [0, channels),
// splitting the flattened product across workers. Pooling kernels use it to
// spread work over (row, window) pairs.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	n := batch * channels
	For(n, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
