package seq

import "math/rand"

// Sample returns height random sequences of the given width drawn uniformly
// from A, C, G and T.
// Note: Uses math/rand (not crypto/rand) - appropriate for ML/statistical purposes.
func Sample(width, height int, rng *rand.Rand) []string {
	return sample(width, height, 4, rng)
}

// SampleAmbiguous is like Sample but draws uniformly from all seven symbols,
// including R, Y and N.
func SampleAmbiguous(width, height int, rng *rand.Rand) []string {
	return sample(width, height, NumSymbols, rng)
}

func sample(width, height, symbols int, rng *rand.Rand) []string {
	out := make([]string, height)
	buf := make([]byte, width)
	for i := range out {
		for j := range buf {
			buf[j] = letters[rng.Intn(symbols)]
		}
		out[i] = string(buf)
	}
	return out
}
