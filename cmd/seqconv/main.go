// Command seqconv encodes DNA sequences and checks, benchmarks and
// diagnoses the sequence convolution kernels.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
