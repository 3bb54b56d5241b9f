package harness

import (
	"math/rand/v2"

	guda "github.com/LynnColeArt/guda-primitives"
)

// NewRand returns a deterministic generator for input data
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomRange returns n values drawn uniformly from [lo, hi)
func RandomRange[T guda.Number](r *rand.Rand, n, lo, hi int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(lo + r.IntN(hi-lo))
	}
	return out
}

// MapInput matches the map benchmark: values in [0, 1000)
func MapInput[T guda.Number](r *rand.Rand, n int) []T {
	return RandomRange[T](r, n, 0, 1000)
}

// MatMulInput matches the matmul benchmark: values in [-50, 50)
func MatMulInput[T guda.Number](r *rand.Rand, n int) []T {
	return RandomRange[T](r, n, -50, 50)
}

// StencilInput matches the stencil benchmark: values in [-5, 5) for both
// the input and the kernel
func StencilInput[T guda.Number](r *rand.Rand, n int) []T {
	return RandomRange[T](r, n, -5, 5)
}

// Identity returns the n x n identity matrix
func Identity[T guda.Number](n int) []T {
	out := make([]T, n*n)
	for i := 0; i < n; i++ {
		out[i*n+i] = 1
	}
	return out
}

// Iota returns 0, 1, ..., n-1
func Iota[T guda.Number](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(i)
	}
	return out
}
