package kernels_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	guda "github.com/LynnColeArt/guda-primitives"
	"github.com/LynnColeArt/guda-primitives/harness"
	"github.com/LynnColeArt/guda-primitives/kernels"
)

type mapFunc[T guda.Number] func(*guda.Context, *guda.Buffer[T], *guda.Buffer[T], func(T) T, kernels.MapConfig) error

func mapVariants[T guda.Number]() map[string]mapFunc[T] {
	return map[string]mapFunc[T]{
		"naive":          kernels.MapNaive[T],
		"work_intensive": kernels.MapWorkIntensive[T],
		"unrolled":       kernels.MapUnrolled[T],
	}
}

func TestMapAddOne(t *testing.T) {
	ctx := guda.NewContext()
	// 1000 elements leave a partial last group for every variant.
	const n = 1000
	host := harness.MapInput[float32](harness.NewRand(7), n)
	want := harness.Reference[float32]{}.Map(host, kernels.AddOne[float32])

	for _, cfg := range []kernels.MapConfig{kernels.DefaultMapConfig(), {GroupSize: 64, WorkPerItem: 4}} {
		for name, fn := range mapVariants[float32]() {
			t.Run(fmt.Sprintf("%s/group_%d", name, cfg.GroupSize), func(t *testing.T) {
				in := upload(t, ctx, host)
				out := zeros[float32](t, ctx, n)
				require.NoError(t, fn(ctx, in, out, kernels.AddOne[float32], cfg))
				requireMatch(t, want, download(t, out), n)
			})
		}
	}
}

func TestMapIdentityIsCopy(t *testing.T) {
	ctx := guda.NewContext()
	host := harness.Iota[int64](4096)
	identity := func(v int64) int64 { return v }

	for name, fn := range mapVariants[int64]() {
		t.Run(name, func(t *testing.T) {
			in := upload(t, ctx, host)
			out := zeros[int64](t, ctx, len(host))
			require.NoError(t, fn(ctx, in, out, identity, kernels.DefaultMapConfig()))
			requireMatch(t, host, download(t, out))
		})
	}
}

func TestMapRelaunchIsIdempotent(t *testing.T) {
	ctx := guda.NewContext()
	host := harness.MapInput[int32](harness.NewRand(3), 2048)
	in := upload(t, ctx, host)
	out := zeros[int32](t, ctx, len(host))
	cfg := kernels.DefaultMapConfig()

	require.NoError(t, kernels.MapUnrolled(ctx, in, out, kernels.AddOne[int32], cfg))
	first := download(t, out)
	require.NoError(t, kernels.MapUnrolled(ctx, in, out, kernels.AddOne[int32], cfg))
	requireMatch(t, first, download(t, out))
	// The input is never written.
	requireMatch(t, host, download(t, in))
}

func TestMapRejectsBadArguments(t *testing.T) {
	ctx := guda.NewContext()
	in := upload(t, ctx, harness.Iota[float32](100))
	short := zeros[float32](t, ctx, 99)
	out := zeros[float32](t, ctx, 100)
	cfg := kernels.DefaultMapConfig()

	err := kernels.MapNaive(ctx, in, short, kernels.AddOne[float32], cfg)
	require.True(t, guda.IsInvalidArgError(err), "length mismatch: %v", err)

	err = kernels.MapNaive(ctx, in, out, nil, cfg)
	require.True(t, guda.IsInvalidArgError(err), "nil function: %v", err)

	err = kernels.MapNaive(ctx, in, out, kernels.AddOne[float32], kernels.MapConfig{GroupSize: 4096, WorkPerItem: 1})
	require.True(t, guda.IsInvalidArgError(err), "oversized group: %v", err)

	// 100 is not a multiple of 8.
	err = kernels.MapUnrolled(ctx, in, out, kernels.AddOne[float32], cfg)
	require.True(t, guda.IsInvalidArgError(err), "unroll remainder: %v", err)

	err = kernels.MapWorkIntensive(ctx, in, out, kernels.AddOne[float32], kernels.MapConfig{GroupSize: 32, WorkPerItem: 3})
	require.True(t, guda.IsInvalidArgError(err), "work remainder: %v", err)
}
