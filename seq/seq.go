// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package seq encodes DNA sequences with IUPAC ambiguity symbols for the
// sequence convolution kernels.
//
// # Alphabet
//
//	code  symbol  A     C     G     T
//	0     A       1     0     0     0
//	1     C       0     1     0     0
//	2     G       0     0     1     0
//	3     T       0     0     0     1
//	4     R       0.5   0     0.5   0
//	5     Y       0     0.5   0     0.5
//	6     N       0.25  0.25  0.25  0.25
//
// Lower-case letters are accepted. Anything else is rejected with an error
// wrapping ErrInvalidSymbol.
//
// # Basic Usage
//
//	records, err := seq.ReadSequences(file)
//	codes, err := seq.Encode(seq.Sequences(records)) // Uint8 [batch, width]
package seq

import (
	"io"
	"math/rand"

	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/tensor"
)

// Symbol codes.
const (
	A = seq.A
	C = seq.C
	G = seq.G
	T = seq.T
	R = seq.R
	Y = seq.Y
	N = seq.N
)

// NumSymbols is the number of valid symbol codes.
const NumSymbols = seq.NumSymbols

// Channels is the number of base channels (A, C, G, T).
const Channels = seq.Channels

// ErrInvalidSymbol is wrapped by every encoding error caused by a character
// outside the alphabet.
var ErrInvalidSymbol = seq.ErrInvalidSymbol

// SymbolError reports the sequence and position of an invalid character.
type SymbolError = seq.SymbolError

// Record is one sequence read from a FASTA or plain text source.
type Record = seq.Record

// Encode converts equal-length sequences into Uint8 symbol codes of shape
// [len(seqs), width].
func Encode(seqs []string) (*tensor.RawTensor, error) {
	return seq.Encode(seqs)
}

// Decode converts symbol codes back into upper-case sequences.
func Decode(codes *tensor.RawTensor) ([]string, error) {
	return seq.Decode(codes)
}

// CheckCodes reports whether t is a 2D Uint8 tensor of valid symbol codes.
func CheckCodes(t *tensor.RawTensor) error {
	return seq.CheckCodes(t)
}

// OneHot expands symbol codes into [batch, width, 4] channel weights.
func OneHot(codes *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	return seq.OneHot(codes, dtype)
}

// Weights returns the channel weights of a symbol code.
func Weights(code uint8) [Channels]float64 {
	return seq.Weights(code)
}

// ParseSymbol returns the code of a sequence character.
func ParseSymbol(r rune) (uint8, bool) {
	return seq.ParseSymbol(r)
}

// ReadSequences reads FASTA records or one sequence per line.
func ReadSequences(r io.Reader) ([]Record, error) {
	return seq.ReadSequences(r)
}

// Sequences returns the sequence strings of records in order.
func Sequences(records []Record) []string {
	return seq.Sequences(records)
}

// Sample returns height random sequences over A, C, G and T.
func Sample(width, height int, rng *rand.Rand) []string {
	return seq.Sample(width, height, rng)
}

// SampleAmbiguous returns height random sequences over all seven symbols.
func SampleAmbiguous(width, height int, rng *rand.Rand) []string {
	return seq.SampleAmbiguous(width, height, rng)
}
