package kernels

import (
	guda "github.com/LynnColeArt/guda-primitives"
)

func checkMatMul[T guda.Number](op string, a, b, c *guda.Buffer[T], d MatMulDims, cfg TileConfig) error {
	if err := checkPositive(op, d.M, d.N, d.K); err != nil {
		return err
	}
	if err := checkLen(op, "A", a, d.M*d.K); err != nil {
		return err
	}
	if err := checkLen(op, "B", b, d.K*d.N); err != nil {
		return err
	}
	if err := checkLen(op, "C", c, d.M*d.N); err != nil {
		return err
	}
	return cfg.validate(op)
}

// matmulRange pads M (rows, Y) and N (columns, X) to whole groups
func matmulRange(d MatMulDims, gsize int) guda.NDRange {
	return guda.NewNDRange(guda.Dim3{X: d.N, Y: d.M}, guda.Dim3{X: gsize, Y: gsize})
}

// MatMulNaive computes C = A * B with one work-item per output element,
// each reading a full row of A and column of B from global memory.
func MatMulNaive[T guda.Number](ctx *guda.Context, a, b, c *guda.Buffer[T], d MatMulDims, cfg TileConfig) error {
	if err := checkMatMul("MatMulNaive", a, b, c, d, cfg); err != nil {
		return err
	}

	M, N, K := d.M, d.N, d.K
	A, B, C := a.Data(), b.Data(), c.Data()
	return ctx.Launch(matmulRange(d, cfg.GroupSize), func(it *guda.Item) {
		m, n := it.GlobalY(), it.GlobalX()
		if m >= M || n >= N {
			return
		}
		var sum T
		for k := 0; k < K; k++ {
			sum += A[m*K+k] * B[k*N+n]
		}
		C[m*N+n] = sum
	})
}

// MatMulTiled computes C = A * B blocking K in steps of the group size.
// For each block the group stages a gsize x gsize tile of A and of B into
// scratch, one element of each per work-item, then accumulates the
// partial products from scratch.
func MatMulTiled[T guda.Number](ctx *guda.Context, a, b, c *guda.Buffer[T], d MatMulDims, cfg TileConfig) error {
	if err := checkMatMul("MatMulTiled", a, b, c, d, cfg); err != nil {
		return err
	}

	M, N, K := d.M, d.N, d.K
	gs := cfg.GroupSize
	ceilK := guda.PaddedExtent(K, gs)
	A, B, C := a.Data(), b.Data(), c.Data()

	kernel := func(it *guda.Item) {
		tileA := guda.Scratch[T](it, 0)
		tileB := guda.Scratch[T](it, 1)

		m, n := it.GlobalY(), it.GlobalX()
		lm, ln := it.LocalY(), it.LocalX()

		var sum T
		for tile := 0; tile < ceilK; tile += gs {
			// Guards are per operand: the last block may overhang M, N
			// and K independently.
			if m < M && ln+tile < K {
				tileA.Set(lm, ln, A[m*K+ln+tile])
			}
			if lm+tile < K && n < N {
				tileB.Set(lm, ln, B[(lm+tile)*N+n])
			}
			it.Barrier()

			for k := 0; k < gs && k+tile < K; k++ {
				sum += tileA.At(lm, k) * tileB.At(k, ln)
			}
			it.Barrier()
		}

		if m < M && n < N {
			C[m*N+n] = sum
		}
	}

	return ctx.Launch(matmulRange(d, gs), kernel,
		guda.Local[T](gs, gs),
		guda.Local[T](gs, gs))
}
