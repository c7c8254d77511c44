// Package seq encodes nucleotide sequences for the sequence convolution
// kernels.
//
// Each position is stored as a one-byte symbol code. The unambiguous bases
// A, C, G and T map to a single channel; the IUPAC ambiguity symbols R (A/G),
// Y (C/T) and N (any base) spread their weight evenly over the bases they
// stand for. The channel weights of every code are given by Weights.
package seq

import (
	"errors"
	"fmt"
)

// Symbol codes in table order.
const (
	A uint8 = iota
	C
	G
	T
	R
	Y
	N
)

// NumSymbols is the number of valid symbol codes.
const NumSymbols = 7

// Channels is the width of the interpolated encoding (one slot per base).
const Channels = 4

// ErrInvalidSymbol is returned for characters outside the alphabet.
var ErrInvalidSymbol = errors.New("invalid symbol")

// SymbolError reports the location of an invalid symbol.
type SymbolError struct {
	Seq  int  // index of the offending sequence
	Pos  int  // position within the sequence
	Rune rune // offending character
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("sequence %d position %d: %q: %v", e.Seq, e.Pos, e.Rune, ErrInvalidSymbol)
}

// Unwrap allows errors.Is(err, ErrInvalidSymbol).
func (e *SymbolError) Unwrap() error {
	return ErrInvalidSymbol
}

const letters = "ACGTRYN"

var weights = [NumSymbols][Channels]float64{
	A: {1, 0, 0, 0},
	C: {0, 1, 0, 0},
	G: {0, 0, 1, 0},
	T: {0, 0, 0, 1},
	R: {0.5, 0, 0.5, 0},
	Y: {0, 0.5, 0, 0.5},
	N: {0.25, 0.25, 0.25, 0.25},
}

// Weights returns the channel weights (A, C, G, T) of a symbol code.
// Panics if code is not a valid symbol code.
func Weights(code uint8) [Channels]float64 {
	return weights[code]
}

// Table returns the full weight table, one row per symbol code.
func Table[T float32 | float64]() [NumSymbols][Channels]T {
	var t [NumSymbols][Channels]T
	for s := range weights {
		for c := range weights[s] {
			t[s][c] = T(weights[s][c])
		}
	}
	return t
}

// ParseSymbol returns the code of a sequence character. Lower-case letters
// are accepted.
func ParseSymbol(r rune) (uint8, bool) {
	switch r {
	case 'A', 'a':
		return A, true
	case 'C', 'c':
		return C, true
	case 'G', 'g':
		return G, true
	case 'T', 't':
		return T, true
	case 'R', 'r':
		return R, true
	case 'Y', 'y':
		return Y, true
	case 'N', 'n':
		return N, true
	}
	return 0, false
}

// Letter returns the upper-case character of a symbol code.
func Letter(code uint8) (byte, bool) {
	if int(code) >= NumSymbols {
		return 0, false
	}
	return letters[code], true
}

// Ambiguous reports whether code stands for more than one base.
func Ambiguous(code uint8) bool {
	return code >= R && code < NumSymbols
}
