// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package seq_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqconv/seq"
	"github.com/born-ml/seqconv/tensor"
)

func TestEncodeDecode(t *testing.T) {
	codes, err := seq.Encode([]string{"acgtryn", "NNNAAAC"})
	require.NoError(t, err)
	assert.True(t, codes.Shape().Equal(tensor.Shape{2, 7}))
	assert.Equal(t, []uint8{seq.A, seq.C, seq.G, seq.T, seq.R, seq.Y, seq.N}, codes.AsUint8()[:7])

	back, err := seq.Decode(codes)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACGTRYN", "NNNAAAC"}, back)
}

func TestEncodeInvalidSymbol(t *testing.T) {
	_, err := seq.Encode([]string{"ACGU"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, seq.ErrInvalidSymbol))

	var se *seq.SymbolError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Pos)
}

func TestOneHotWeights(t *testing.T) {
	codes, err := seq.Encode([]string{"RY"})
	require.NoError(t, err)
	hot, err := seq.OneHot(codes, tensor.Float64)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0, 0.5, 0, 0, 0.5, 0, 0.5}, hot.AsFloat64())
	assert.Equal(t, [seq.Channels]float64{0.25, 0.25, 0.25, 0.25}, seq.Weights(seq.N))
}

func TestReadAndSample(t *testing.T) {
	records, err := seq.ReadSequences(strings.NewReader(">a\nAC\nGT\n>b\nNNNN\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ACGT", "NNNN"}, seq.Sequences(records))

	rng := rand.New(rand.NewSource(3))
	for _, s := range seq.Sample(20, 5, rng) {
		assert.Len(t, s, 20)
		assert.NotContains(t, s, "N")
	}
	_, err = seq.Encode(seq.SampleAmbiguous(9, 4, rng))
	assert.NoError(t, err)
}
