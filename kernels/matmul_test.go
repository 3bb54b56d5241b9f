package kernels_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	guda "github.com/LynnColeArt/guda-primitives"
	"github.com/LynnColeArt/guda-primitives/harness"
	"github.com/LynnColeArt/guda-primitives/kernels"
)

type matmulFunc func(*guda.Context, *guda.Buffer[int64], *guda.Buffer[int64], *guda.Buffer[int64], kernels.MatMulDims, kernels.TileConfig) error

var matmulVariants = map[string]matmulFunc{
	"naive": kernels.MatMulNaive[int64],
	"tiled": kernels.MatMulTiled[int64],
}

// gonumProduct computes A * B in float64. Inputs in [-50, 50) keep every
// partial sum exactly representable.
func gonumProduct(a, b []int64, d kernels.MatMulDims) []int64 {
	toFloat := func(v []int64) []float64 {
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out
	}
	var c mat.Dense
	c.Mul(mat.NewDense(d.M, d.K, toFloat(a)), mat.NewDense(d.K, d.N, toFloat(b)))

	out := make([]int64, d.M*d.N)
	for i := 0; i < d.M; i++ {
		for j := 0; j < d.N; j++ {
			out[i*d.N+j] = int64(c.At(i, j))
		}
	}
	return out
}

func runMatMul(t *testing.T, ctx *guda.Context, fn matmulFunc, a, b []int64, d kernels.MatMulDims, cfg kernels.TileConfig) []int64 {
	t.Helper()
	dc := zeros[int64](t, ctx, d.M*d.N)
	require.NoError(t, fn(ctx, upload(t, ctx, a), upload(t, ctx, b), dc, d, cfg))
	return download(t, dc)
}

func TestMatMulAgainstGonum(t *testing.T) {
	ctx := guda.NewContext()
	dims := []kernels.MatMulDims{
		{M: 5, N: 7, K: 3},
		{M: 16, N: 16, K: 16},
		{M: 17, N: 33, K: 31},
		{M: 65, N: 75, K: 175},
		{M: 1, N: 1, K: 1},
	}

	for _, d := range dims {
		r := harness.NewRand(uint64(d.M*1000 + d.N))
		a := harness.MatMulInput[int64](r, d.M*d.K)
		b := harness.MatMulInput[int64](r, d.K*d.N)
		want := gonumProduct(a, b, d)

		for name, fn := range matmulVariants {
			t.Run(fmt.Sprintf("%s/%dx%dx%d", name, d.M, d.N, d.K), func(t *testing.T) {
				got := runMatMul(t, ctx, fn, a, b, d, kernels.DefaultTileConfig())
				requireMatch(t, want, got, d.M, d.N)
			})
		}
	}
}

func TestMatMulTiledMatchesNaive(t *testing.T) {
	ctx := guda.NewContext()
	d := kernels.MatMulDims{M: 100, N: 37, K: 150}
	r := harness.NewRand(11)
	a := harness.MatMulInput[int64](r, d.M*d.K)
	b := harness.MatMulInput[int64](r, d.K*d.N)

	naive := runMatMul(t, ctx, kernels.MatMulNaive[int64], a, b, d, kernels.DefaultTileConfig())
	for _, gs := range []int{1, 4, 8, 16, 32} {
		t.Run(fmt.Sprintf("group_%d", gs), func(t *testing.T) {
			got := runMatMul(t, ctx, kernels.MatMulTiled[int64], a, b, d, kernels.TileConfig{GroupSize: gs})
			requireMatch(t, naive, got, d.M, d.N)
		})
	}
}

func TestMatMulIdentity(t *testing.T) {
	ctx := guda.NewContext()
	const n = 40
	x := harness.MatMulInput[int64](harness.NewRand(5), n*n)
	d := kernels.MatMulDims{M: n, N: n, K: n}
	id := harness.Identity[int64](n)

	for name, fn := range matmulVariants {
		t.Run(name, func(t *testing.T) {
			requireMatch(t, x, runMatMul(t, ctx, fn, id, x, d, kernels.DefaultTileConfig()), n, n)
			requireMatch(t, x, runMatMul(t, ctx, fn, x, id, d, kernels.DefaultTileConfig()), n, n)
		})
	}
}

func TestMatMulFloat(t *testing.T) {
	ctx := guda.NewContext()
	d := kernels.MatMulDims{M: 33, N: 20, K: 47}
	r := harness.NewRand(13)
	a := harness.MatMulInput[float32](r, d.M*d.K)
	b := harness.MatMulInput[float32](r, d.K*d.N)
	want := harness.Reference[float32]{}.MatMul(a, b, d.M, d.N, d.K)

	dc := zeros[float32](t, ctx, d.M*d.N)
	require.NoError(t, kernels.MatMulTiled(ctx, upload(t, ctx, a), upload(t, ctx, b), dc, d, kernels.DefaultTileConfig()))
	require.NoError(t, harness.CheckNear("MatMulTiled", want, download(t, dc), harness.RelaxedTolerance(), d.M, d.N))
}

func TestMatMulRejectsBadArguments(t *testing.T) {
	ctx := guda.NewContext()
	d := kernels.MatMulDims{M: 4, N: 4, K: 4}
	a := zeros[int64](t, ctx, 16)
	b := zeros[int64](t, ctx, 16)
	c := zeros[int64](t, ctx, 12)

	err := kernels.MatMulTiled(ctx, a, b, c, d, kernels.DefaultTileConfig())
	require.True(t, guda.IsInvalidArgError(err), "short C: %v", err)

	err = kernels.MatMulNaive(ctx, a, b, a, kernels.MatMulDims{M: 4, N: 4, K: 0}, kernels.DefaultTileConfig())
	require.True(t, guda.IsInvalidArgError(err), "zero K: %v", err)

	// 64 x 64 items exceed the workgroup limit.
	err = kernels.MatMulTiled(ctx, a, b, a, d, kernels.TileConfig{GroupSize: 64})
	require.True(t, guda.IsInvalidArgError(err), "oversized group: %v", err)
}
