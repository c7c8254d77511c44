// Package reference holds direct nested-loop implementations of the seqconv
// kernels in float64. They follow the defining formulas with no tables,
// blocking or parallelism, and serve as the oracle for the optimised
// backends.
//
// All slices are row-major and channel-last, with the same layouts as the
// backend kernels.
package reference

import (
	"math"

	"github.com/born-ml/seqconv/internal/seq"
	"gonum.org/v1/gonum/floats"
)

// ConvolveSequence computes y[n,j,f] = b[f] + Σ_k Σ_c w[f,k,c]·Weights(x[n,j+k])[c].
func ConvolveSequence(x []uint8, batch, width int, w []float64, nFilters, fw int, b []float64) []float64 {
	outW := width - fw + 1
	y := make([]float64, batch*outW*nFilters)
	for n := 0; n < batch; n++ {
		for j := 0; j < outW; j++ {
			for f := 0; f < nFilters; f++ {
				sum := b[f]
				for k := 0; k < fw; k++ {
					wt := seq.Weights(x[n*width+j+k])
					for c := 0; c < seq.Channels; c++ {
						sum += w[(f*fw+k)*seq.Channels+c] * wt[c]
					}
				}
				y[(n*outW+j)*nFilters+f] = sum
			}
		}
	}
	return y
}

// ConvolveSequenceGradient computes dW[f,k,c] = Σ_{n,j} dy[n,j,f]·Weights(x[n,j+k])[c].
func ConvolveSequenceGradient(x []uint8, batch, width int, dy []float64, fw, nFilters int) []float64 {
	outW := width - fw + 1
	dw := make([]float64, nFilters*fw*seq.Channels)
	for n := 0; n < batch; n++ {
		for j := 0; j < outW; j++ {
			for f := 0; f < nFilters; f++ {
				g := dy[(n*outW+j)*nFilters+f]
				for k := 0; k < fw; k++ {
					wt := seq.Weights(x[n*width+j+k])
					for c := 0; c < seq.Channels; c++ {
						dw[(f*fw+k)*seq.Channels+c] += g * wt[c]
					}
				}
			}
		}
	}
	return dw
}

// Conv1D computes y[n,p,f] = b[f] + Σ_k Σ_c w[f,k,c]·x[n,p+k,c].
func Conv1D(x []float64, batch, width, channels int, w []float64, nFilters, fw int, b []float64) []float64 {
	outW := width - fw + 1
	y := make([]float64, batch*outW*nFilters)
	for n := 0; n < batch; n++ {
		for p := 0; p < outW; p++ {
			for f := 0; f < nFilters; f++ {
				sum := b[f]
				for k := 0; k < fw; k++ {
					for c := 0; c < channels; c++ {
						sum += w[(f*fw+k)*channels+c] * x[(n*width+p+k)*channels+c]
					}
				}
				y[(n*outW+p)*nFilters+f] = sum
			}
		}
	}
	return y
}

// Conv1DGradFilters computes dW[f,k,c] = Σ_{n,p} dy[n,p,f]·x[n,p+k,c].
func Conv1DGradFilters(x []float64, batch, width, channels int, dy []float64, nFilters, fw int) []float64 {
	outW := width - fw + 1
	dw := make([]float64, nFilters*fw*channels)
	for f := 0; f < nFilters; f++ {
		for k := 0; k < fw; k++ {
			for c := 0; c < channels; c++ {
				var sum float64
				for n := 0; n < batch; n++ {
					for p := 0; p < outW; p++ {
						sum += dy[(n*outW+p)*nFilters+f] * x[(n*width+p+k)*channels+c]
					}
				}
				dw[(f*fw+k)*channels+c] = sum
			}
		}
	}
	return dw
}

// Conv1DGradInput computes dx[n,p,c] = Σ_f Σ_k w[f,k,c]·dy[n,p-k,f] over the
// k with 0 <= p-k < outW.
func Conv1DGradInput(dy []float64, batch, outW, nFilters int, w []float64, fw, channels int) []float64 {
	width := outW + fw - 1
	dx := make([]float64, batch*width*channels)
	for n := 0; n < batch; n++ {
		for p := 0; p < width; p++ {
			for c := 0; c < channels; c++ {
				var sum float64
				for f := 0; f < nFilters; f++ {
					for k := 0; k < fw; k++ {
						q := p - k
						if q < 0 || q >= outW {
							continue
						}
						sum += w[(f*fw+k)*channels+c] * dy[(n*outW+q)*nFilters+f]
					}
				}
				dx[(n*width+p)*channels+c] = sum
			}
		}
	}
	return dx
}

// MaxPool returns window maxima and their in-window offsets. The first
// maximum in a window wins.
func MaxPool(x []float64, batch, width, nFilters, pool int) ([]float64, []int32) {
	outW := width / pool
	y := make([]float64, batch*outW*nFilters)
	idx := make([]int32, len(y))
	for n := 0; n < batch; n++ {
		for q := 0; q < outW; q++ {
			for f := 0; f < nFilters; f++ {
				best := x[(n*width+q*pool)*nFilters+f]
				arg := 0
				for i := 1; i < pool; i++ {
					if v := x[(n*width+q*pool+i)*nFilters+f]; v > best {
						best, arg = v, i
					}
				}
				o := (n*outW+q)*nFilters + f
				y[o], idx[o] = best, int32(arg)
			}
		}
	}
	return y, idx
}

// MaxPoolGradient scatters dy to the argmax position of each window.
func MaxPoolGradient(argmax []int32, dy []float64, batch, width, nFilters, outW int) []float64 {
	pool := width / outW
	dx := make([]float64, batch*width*nFilters)
	for n := 0; n < batch; n++ {
		for q := 0; q < outW; q++ {
			for f := 0; f < nFilters; f++ {
				o := (n*outW+q)*nFilters + f
				dx[(n*width+q*pool+int(argmax[o]))*nFilters+f] = dy[o]
			}
		}
	}
	return dx
}

// SumPool returns window sums.
func SumPool(x []float64, batch, width, nFilters, pool int) []float64 {
	outW := width / pool
	y := make([]float64, batch*outW*nFilters)
	for n := 0; n < batch; n++ {
		for p := 0; p < width; p++ {
			for f := 0; f < nFilters; f++ {
				y[(n*outW+p/pool)*nFilters+f] += x[(n*width+p)*nFilters+f]
			}
		}
	}
	return y
}

// SumPoolGradient broadcasts dy to every position of its window.
func SumPoolGradient(dy []float64, batch, width, nFilters, outW int) []float64 {
	pool := width / outW
	dx := make([]float64, batch*width*nFilters)
	for n := 0; n < batch; n++ {
		for p := 0; p < width; p++ {
			for f := 0; f < nFilters; f++ {
				dx[(n*width+p)*nFilters+f] = dy[(n*outW+p/pool)*nFilters+f]
			}
		}
	}
	return dx
}

// MaxRelError returns max_i |got_i - want_i| / max(|want_i|, 1). Entries of
// small magnitude are therefore compared absolutely. NaN in either slice
// yields NaN. Panics if the lengths differ.
func MaxRelError(got, want []float64) float64 {
	if len(got) != len(want) {
		panic("reference: length mismatch")
	}
	if len(got) == 0 {
		return 0
	}
	diff := make([]float64, len(got))
	floats.SubTo(diff, got, want)
	for i, d := range diff {
		diff[i] = math.Abs(d) / math.Max(math.Abs(want[i]), 1)
		if math.IsNaN(diff[i]) {
			return math.NaN()
		}
	}
	return floats.Max(diff)
}

// MaxAbsError returns the largest absolute elementwise difference.
func MaxAbsError(got, want []float64) float64 {
	if len(got) == 0 {
		return 0
	}
	return floats.Distance(got, want, math.Inf(1))
}
