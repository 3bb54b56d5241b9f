package kernels

import (
	"fmt"

	guda "github.com/LynnColeArt/guda-primitives"
)

func checkStencil[T guda.Number](op string, in, kernel, out *guda.Buffer[T], d StencilDims, cfg TileConfig) error {
	if err := checkPositive(op, d.N, d.KSize); err != nil {
		return err
	}
	if d.KSize%2 == 0 {
		return guda.NewInvalidArgError(op, fmt.Sprintf("kernel size %d must be odd", d.KSize))
	}
	if err := cfg.validate(op); err != nil {
		return err
	}
	if err := checkLen(op, "in", in, d.N*d.N); err != nil {
		return err
	}
	if err := checkLen(op, "kernel", kernel, d.KSize*d.KSize); err != nil {
		return err
	}
	return checkLen(op, "out", out, d.N*d.N)
}

// neighborhood sums in[y+ky, x+kx] * w(ky+half, kx+half) over the kernel
// window. Terms outside [0,N) x [0,N) are skipped: zero padding, the input
// is never read out of range.
func neighborhood[T guda.Number](in []T, n, ksize, x, y int, w func(r, c int) T) T {
	half := ksize / 2
	var sum T
	for ky := -half; ky <= half; ky++ {
		yy := y + ky
		if yy < 0 || yy >= n {
			continue
		}
		for kx := -half; kx <= half; kx++ {
			xx := x + kx
			if xx < 0 || xx >= n {
				continue
			}
			sum += in[yy*n+xx] * w(ky+half, kx+half)
		}
	}
	return sum
}

// StencilNaive convolves the N x N input with the KSize x KSize kernel,
// every work-item reading the kernel from global memory.
func StencilNaive[T guda.Number](ctx *guda.Context, in, kernel, out *guda.Buffer[T], d StencilDims, cfg TileConfig) error {
	if err := checkStencil("StencilNaive", in, kernel, out, d, cfg); err != nil {
		return err
	}

	n, ks := d.N, d.KSize
	src, w, dst := in.Data(), kernel.Data(), out.Data()
	weight := func(r, c int) T { return w[r*ks+c] }

	ndr := guda.NewNDRange(guda.Dim3{X: n, Y: n}, guda.Dim3{X: cfg.GroupSize, Y: cfg.GroupSize})
	return ctx.Launch(ndr, func(it *guda.Item) {
		x, y := it.GlobalX(), it.GlobalY()
		if x >= n || y >= n {
			return
		}
		dst[y*n+x] = neighborhood(src, n, ks, x, y, weight)
	})
}

// StencilTiled stages the convolution kernel into scratch once per
// workgroup. The first KSize x KSize items of the group load it; the input
// window differs per item and stays in global memory. KSize must not
// exceed the group size.
func StencilTiled[T guda.Number](ctx *guda.Context, in, kernel, out *guda.Buffer[T], d StencilDims, cfg TileConfig) error {
	const op = "StencilTiled"
	if err := checkStencil(op, in, kernel, out, d, cfg); err != nil {
		return err
	}
	if d.KSize > cfg.GroupSize {
		return guda.NewInvalidArgError(op,
			fmt.Sprintf("kernel size %d exceeds group size %d", d.KSize, cfg.GroupSize))
	}

	n, ks := d.N, d.KSize
	src, w, dst := in.Data(), kernel.Data(), out.Data()

	body := func(it *guda.Item) {
		local := guda.Scratch[T](it, 0)

		lx, ly := it.LocalX(), it.LocalY()
		if lx < ks && ly < ks {
			local.Set(ly, lx, w[ly*ks+lx])
		}
		it.Barrier()

		x, y := it.GlobalX(), it.GlobalY()
		if x >= n || y >= n {
			return
		}
		dst[y*n+x] = neighborhood(src, n, ks, x, y, local.At)
	}

	ndr := guda.NewNDRange(guda.Dim3{X: n, Y: n}, guda.Dim3{X: cfg.GroupSize, Y: cfg.GroupSize})
	return ctx.Launch(ndr, body, guda.Local[T](ks, ks))
}
