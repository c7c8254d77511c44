package bench

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/internal/backend/cpu"
	"github.com/born-ml/seqconv/internal/tensor"
)

func smallOptions() Options {
	return Options{
		Batch:       4,
		Width:       40,
		Channels:    3,
		Filters:     5,
		FilterWidth: 6,
		PoolSize:    7,
		Runs:        2,
		DType:       tensor.Float32,
		Seed:        1,
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats([]time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond})
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Mean)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestRun(t *testing.T) {
	for _, dtype := range []tensor.DataType{tensor.Float32, tensor.Float64} {
		o := smallOptions()
		o.DType = dtype
		results, err := Run(cpu.New(), o)
		require.NoError(t, err)
		require.Len(t, results, 9)
		for _, r := range results {
			assert.Len(t, r.Runs, o.Runs, r.Kernel)
			assert.LessOrEqual(t, r.Stats.Min, r.Stats.Max, r.Kernel)
		}
		assert.Equal(t, "convolve_sequence", results[0].Kernel)
		assert.Equal(t, "n=4 w=35 pool=7 f=5", results[5].Shape)
	}
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, smallOptions().Validate())

	mutate := []func(*Options){
		func(o *Options) { o.Batch = 0 },
		func(o *Options) { o.Width = 5 },
		func(o *Options) { o.PoolSize = 0 },
		func(o *Options) { o.PoolSize = 36 },
		func(o *Options) { o.Runs = 0 },
		func(o *Options) { o.DType = tensor.Uint8 },
	}
	for i, m := range mutate {
		o := smallOptions()
		m(&o)
		assert.Error(t, o.Validate(), "case %d", i)
		_, err := Run(cpu.New(), o)
		assert.Error(t, err, "case %d", i)
	}
}

func TestFormatters(t *testing.T) {
	results, err := Run(cpu.New(), smallOptions())
	require.NoError(t, err)

	var table bytes.Buffer
	FormatTable(results, &table)
	assert.Contains(t, table.String(), "max_pool_gradient")
	assert.Contains(t, table.String(), "Mean(ms)")

	var out bytes.Buffer
	require.NoError(t, FormatJSON(results, &out))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, len(results))
	assert.Equal(t, "conv1d", decoded[2]["kernel"])
	assert.Len(t, decoded[0]["runs_ms"], 2)
}
