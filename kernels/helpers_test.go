package kernels_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	guda "github.com/LynnColeArt/guda-primitives"
	"github.com/LynnColeArt/guda-primitives/harness"
)

// upload copies host into a fresh buffer released at the end of the test
func upload[T guda.Number](t *testing.T, ctx *guda.Context, host []T) *guda.Buffer[T] {
	t.Helper()
	b, err := guda.MallocFrom(ctx, host)
	require.NoError(t, err)
	t.Cleanup(func() { b.Free() })
	return b
}

// zeros allocates an n element buffer released at the end of the test
func zeros[T guda.Number](t *testing.T, ctx *guda.Context, n int) *guda.Buffer[T] {
	t.Helper()
	b, err := guda.Malloc[T](ctx, n)
	require.NoError(t, err)
	t.Cleanup(func() { b.Free() })
	return b
}

// download returns a host copy of b
func download[T guda.Number](t *testing.T, b *guda.Buffer[T]) []T {
	t.Helper()
	out := make([]T, b.Len())
	require.NoError(t, b.CopyToHost(out))
	return out
}

// requireMatch fails with the coordinate of the first differing element
func requireMatch[T guda.Number](t *testing.T, want, got []T, shape ...int) {
	t.Helper()
	require.NoError(t, harness.CheckEqual(t.Name(), want, got, shape...))
}
