package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/internal/backend/cpu"
	"github.com/born-ml/seqconv/internal/config"
	"github.com/born-ml/seqconv/internal/verify"
)

// execute runs the root command in an empty directory so no seqconv.yaml is
// picked up.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cfgFile = ""

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "seqconv "+version+"\n", out)
}

func TestNewRootCmd_Tree(t *testing.T) {
	activeCfg = &config.Config{}
	cmd := NewRootCmd()
	assert.Nil(t, activeCfg)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"bench", "doctor", "encode", "gradcheck", "verify", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRoot_InvalidBackend(t *testing.T) {
	_, err := execute(t, "", "version", "--runtime-backend", "tpu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seqconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  threads: 3\nlog_level: warn\n"), 0o644))

	_, err := execute(t, "", "--config", path, "version")
	require.NoError(t, err)
	cfg, err := requireConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Runtime.Threads)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, config.BackendCPU, cfg.Runtime.Backend)
}

func TestRequireConfig_NotLoaded(t *testing.T) {
	NewRootCmd()
	_, err := requireConfig()
	assert.Error(t, err)
}

func TestEncode_Codes(t *testing.T) {
	out, err := execute(t, ">s1 first\nACGT\nRY\n>s2\nNNACGT\n", "encode")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var rec encodedRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "s1", rec.ID)
	assert.Equal(t, 6, rec.Width)
	assert.Len(t, rec.Codes, 6)
	assert.Nil(t, rec.Channels)
}

func TestEncode_OneHotFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("AN\n"), 0o644))

	out, err := execute(t, "", "encode", "--one-hot", path)
	require.NoError(t, err)

	var rec encodedRecord
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &rec))
	assert.Equal(t, "line1", rec.ID)
	assert.Equal(t, [][]float64{{1, 0, 0, 0}, {0.25, 0.25, 0.25, 0.25}}, rec.Channels)
	assert.Nil(t, rec.Codes)
}

func TestEncode_Errors(t *testing.T) {
	_, err := execute(t, "", "encode")
	assert.ErrorContains(t, err, "no sequences")

	_, err = execute(t, "ACGT\nAC\n", "encode")
	assert.Error(t, err)

	_, err = execute(t, "ACXT\n", "encode")
	assert.Error(t, err)

	_, err = execute(t, "", "encode", filepath.Join(t.TempDir(), "missing.fa"))
	assert.ErrorContains(t, err, "open input")
}

func TestVerify_JSON(t *testing.T) {
	out, err := execute(t, "", "verify", "--format", "json", "--dtype", "float64",
		"--verify-trials", "1", "--runtime-threads", "2")
	require.NoError(t, err)

	var results []verify.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, len(verify.Kernels))
	for _, r := range results {
		assert.True(t, r.Pass, r.Kernel)
		assert.Equal(t, "float64", r.DType)
	}
}

func TestVerify_BadFlags(t *testing.T) {
	_, err := execute(t, "", "verify", "--format", "xml")
	assert.ErrorContains(t, err, "--format")

	_, err = execute(t, "", "verify", "--dtype", "int8")
	assert.ErrorContains(t, err, "unsupported dtype")
}

func TestBench_Table(t *testing.T) {
	out, err := execute(t, "", "bench", "--bench-batch", "2", "--bench-width", "20",
		"--bench-filter-width", "5", "--bench-pool-size", "4", "--bench-runs", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Kernel")
	assert.Contains(t, out, verify.KernelConvolveSequence)
}

func TestBench_InvalidShape(t *testing.T) {
	_, err := execute(t, "", "bench", "--bench-width", "3", "--bench-filter-width", "5")
	assert.Error(t, err)
}

func TestGradcheck(t *testing.T) {
	out, err := execute(t, "", "gradcheck")
	require.NoError(t, err)
	assert.Contains(t, out, "relative error")

	_, err = execute(t, "", "gradcheck", "--activation", "swish")
	assert.ErrorContains(t, err, "unknown activation")
}

func TestRunGradcheck_NoDense(t *testing.T) {
	o := gradcheckOptions{
		Batch: 2, Width: 10, Filters: 3, FilterWidth: 4, PoolSize: 7,
		Activation: "sigmoid", Eps: 1e-6, Seed: 5,
	}
	relErr, n, err := runGradcheck(cpu.New(), o)
	require.NoError(t, err)
	assert.Less(t, relErr, 1e-6)
	assert.Equal(t, 3*4*4+3, n)
}

func TestDoctor(t *testing.T) {
	out, err := execute(t, "", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: cpu")
	assert.Contains(t, out, "self test: ok")
	assert.Contains(t, out, "all checks passed")
}

func TestOpenBackend(t *testing.T) {
	rc := config.RuntimeConfig{Backend: config.BackendCPU, Threads: 2, MinChunk: 1}
	b, release, err := openBackend(rc)
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "CPU", b.Name())

	rc.Backend = config.BackendAuto
	b, release, err = openBackend(rc)
	require.NoError(t, err)
	release()
	assert.NotEmpty(t, b.Name())

	rc.Backend = "tpu"
	_, _, err = openBackend(rc)
	assert.Error(t, err)
}
