// Package harness is the host side of the benchmarks: reference results
// computed on the host, verification against them, random inputs, and a
// driver that times repeated launches.
package harness

import (
	guda "github.com/LynnColeArt/guda-primitives"
)

// Reference contains simple, correct host implementations of every
// primitive. They share no code with the kernels.
type Reference[T guda.Number] struct{}

// Map returns f applied to every element of in
func (Reference[T]) Map(in []T, f func(T) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// MatMul returns the M x N product of the M x K matrix a and K x N matrix b
func (Reference[T]) MatMul(a, b []T, m, n, k int) []T {
	c := make([]T, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum T
			for p := 0; p < k; p++ {
				sum += a[i*k+p] * b[p*n+j]
			}
			c[i*n+j] = sum
		}
	}
	return c
}

// Stencil returns the zero-padded convolution of the n x n matrix in with
// the centered ksize x ksize kernel
func (Reference[T]) Stencil(in, kernel []T, n, ksize int) []T {
	half := ksize / 2
	out := make([]T, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sum T
			for ky := -half; ky <= half; ky++ {
				for kx := -half; kx <= half; kx++ {
					if 0 <= x+kx && x+kx < n && 0 <= y+ky && y+ky < n {
						sum += in[(y+ky)*n+x+kx] * kernel[(ky+half)*ksize+kx+half]
					}
				}
			}
			out[y*n+x] = sum
		}
	}
	return out
}

// Transpose returns the n x m transpose of the m x n matrix in
func (Reference[T]) Transpose(in []T, m, n int) []T {
	out := make([]T, m*n)
	for y := 0; y < m; y++ {
		for x := 0; x < n; x++ {
			out[x*m+y] = in[y*n+x]
		}
	}
	return out
}
