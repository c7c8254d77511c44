package cpu

import (
	"github.com/born-ml/seqconv/internal/tensor"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// gemm computes C = op(A)·op(B) + beta·C on row-major matrices, dispatching
// to gonum's Sgemm or Dgemm. m×n is the shape of C and k the inner dimension.
func gemm[T tensor.Float](tA, tB blas.Transpose, m, n, k int, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) {
	switch av := any(a).(type) {
	case []float32:
		blas32.Implementation().Sgemm(tA, tB, m, n, k,
			1, av, lda, any(b).([]float32), ldb,
			any(beta).(float32), any(c).([]float32), ldc)
	case []float64:
		blas64.Implementation().Dgemm(tA, tB, m, n, k,
			1, av, lda, any(b).([]float64), ldb,
			any(beta).(float64), any(c).([]float64), ldc)
	}
}

// im2col copies the receptive field of every output position of one batch
// row into col, giving an [outW, fw*C] matrix. The layout is channel-last so
// each row is a single contiguous copy.
func im2col[T tensor.Float](col, x []T, outW, fw, channels int) {
	k := fw * channels
	for p := 0; p < outW; p++ {
		copy(col[p*k:(p+1)*k], x[p*channels:(p+fw)*channels])
	}
}

// col2im adds every row of an [outW, fw*C] matrix back onto the positions it
// was gathered from.
func col2im[T tensor.Float](dx, col []T, outW, fw, channels int) {
	k := fw * channels
	for p := 0; p < outW; p++ {
		dst := dx[p*channels : (p+fw)*channels]
		for i, v := range col[p*k : (p+1)*k] {
			dst[i] += v
		}
	}
}
