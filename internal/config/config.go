// Package config loads seqconv settings from defaults, an optional config
// file, SEQCONV_* environment variables and command line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/born-ml/seqconv/internal/parallel"
)

type Config struct {
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Verify   VerifyConfig  `mapstructure:"verify"`
	Bench    BenchConfig   `mapstructure:"bench"`
	LogLevel string        `mapstructure:"log_level"`
}

type RuntimeConfig struct {
	Backend  string `mapstructure:"backend"`
	Threads  int    `mapstructure:"threads"`
	MinChunk int    `mapstructure:"min_chunk"`
}

type VerifyConfig struct {
	Trials int   `mapstructure:"trials"`
	Seed   int64 `mapstructure:"seed"`
}

type BenchConfig struct {
	Batch       int `mapstructure:"batch"`
	Width       int `mapstructure:"width"`
	Channels    int `mapstructure:"channels"`
	Filters     int `mapstructure:"filters"`
	FilterWidth int `mapstructure:"filter_width"`
	PoolSize    int `mapstructure:"pool_size"`
	Runs        int `mapstructure:"runs"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Runtime: RuntimeConfig{
			Backend:  BackendCPU,
			Threads:  runtime.NumCPU(),
			MinChunk: 4,
		},
		Verify: VerifyConfig{
			Trials: 3,
			Seed:   1,
		},
		Bench: BenchConfig{
			Batch:       100,
			Width:       200,
			Channels:    4,
			Filters:     8,
			FilterWidth: 12,
			PoolSize:    1,
			Runs:        5,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("runtime-backend", defaults.Runtime.Backend, "Kernel backend: cpu|webgpu|auto")
	fs.Int("runtime-threads", defaults.Runtime.Threads, "Worker goroutines for CPU kernels (1 disables parallelism)")
	fs.Int("runtime-min-chunk", defaults.Runtime.MinChunk, "Minimum batch rows per worker")
	fs.Int("verify-trials", defaults.Verify.Trials, "Random shapes per kernel in verify")
	fs.Int64("verify-seed", defaults.Verify.Seed, "Random seed for verify")
	fs.Int("bench-batch", defaults.Bench.Batch, "Benchmark batch size")
	fs.Int("bench-width", defaults.Bench.Width, "Benchmark sequence width")
	fs.Int("bench-channels", defaults.Bench.Channels, "Benchmark conv1d input channels")
	fs.Int("bench-filters", defaults.Bench.Filters, "Benchmark filter count")
	fs.Int("bench-filter-width", defaults.Bench.FilterWidth, "Benchmark filter width")
	fs.Int("bench-pool-size", defaults.Bench.PoolSize, "Benchmark pool size")
	fs.Int("bench-runs", defaults.Bench.Runs, "Timed runs per kernel")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("SEQCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("seqconv")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	backend, err := NormalizeBackend(cfg.Runtime.Backend)
	if err != nil {
		return Config{}, err
	}
	cfg.Runtime.Backend = backend
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"runtime-backend":    "runtime.backend",
	"runtime-threads":    "runtime.threads",
	"runtime-min-chunk":  "runtime.min_chunk",
	"verify-trials":      "verify.trials",
	"verify-seed":        "verify.seed",
	"bench-batch":        "bench.batch",
	"bench-width":        "bench.width",
	"bench-channels":     "bench.channels",
	"bench-filters":      "bench.filters",
	"bench-filter-width": "bench.filter_width",
	"bench-pool-size":    "bench.pool_size",
	"bench-runs":         "bench.runs",
	"log-level":          "log_level",
}

// bindFlags binds each registered flag to its nested key so that a config
// file value is only overridden by a flag the user actually set.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("runtime.backend", c.Runtime.Backend)
	v.SetDefault("runtime.threads", c.Runtime.Threads)
	v.SetDefault("runtime.min_chunk", c.Runtime.MinChunk)
	v.SetDefault("verify.trials", c.Verify.Trials)
	v.SetDefault("verify.seed", c.Verify.Seed)
	v.SetDefault("bench.batch", c.Bench.Batch)
	v.SetDefault("bench.width", c.Bench.Width)
	v.SetDefault("bench.channels", c.Bench.Channels)
	v.SetDefault("bench.filters", c.Bench.Filters)
	v.SetDefault("bench.filter_width", c.Bench.FilterWidth)
	v.SetDefault("bench.pool_size", c.Bench.PoolSize)
	v.SetDefault("bench.runs", c.Bench.Runs)
	v.SetDefault("log_level", c.LogLevel)
}

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", s)
	}
}

// Parallel returns the worker configuration for the CPU backend.
func (r RuntimeConfig) Parallel() parallel.Config {
	threads := max(r.Threads, 1)
	return parallel.Config{
		Enabled:      threads > 1,
		NumWorkers:   threads,
		MinChunkSize: max(r.MinChunk, 1),
	}
}
