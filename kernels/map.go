package kernels

import (
	"fmt"

	guda "github.com/LynnColeArt/guda-primitives"
)

// AddOne is the transform used by the map benchmark
func AddOne[T guda.Number](v T) T {
	return v + 1
}

func checkMap[T guda.Number](op string, in, out *guda.Buffer[T], f func(T) T) (int, error) {
	if in == nil {
		return 0, guda.NewInvalidArgError(op, "in buffer is nil")
	}
	if f == nil {
		return 0, guda.NewInvalidArgError(op, "map function is nil")
	}
	n := in.Len()
	return n, checkLen(op, "out", out, n)
}

// MapNaive computes out[i] = f(in[i]) with one work-item per element
func MapNaive[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], f func(T) T, cfg MapConfig) error {
	const op = "MapNaive"
	n, err := checkMap(op, in, out, f)
	if err != nil {
		return err
	}
	if err := cfg.validate(op); err != nil {
		return err
	}

	src, dst := in.Data(), out.Data()
	ndr := guda.NewNDRange(guda.Dim3{X: n}, guda.Dim3{X: cfg.GroupSize})
	return ctx.Launch(ndr, func(it *guda.Item) {
		if x := it.GlobalX(); x < n {
			dst[x] = f(src[x])
		}
	})
}

// MapWorkIntensive computes out[i] = f(in[i]) with each work-item handling
// cfg.WorkPerItem elements spaced one domain apart. len(in) must be a
// multiple of cfg.WorkPerItem.
func MapWorkIntensive[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], f func(T) T, cfg MapConfig) error {
	const op = "MapWorkIntensive"
	n, err := checkMap(op, in, out, f)
	if err != nil {
		return err
	}
	if err := cfg.validate(op); err != nil {
		return err
	}
	w := cfg.WorkPerItem
	if n%w != 0 {
		return guda.NewInvalidArgError(op, fmt.Sprintf("length %d is not a multiple of %d", n, w))
	}

	// The stride is the logical domain, not the padded range, so that
	// padding items never shift the elements of real ones.
	domain := n / w
	src, dst := in.Data(), out.Data()
	ndr := guda.NewNDRange(guda.Dim3{X: domain}, guda.Dim3{X: cfg.GroupSize})
	return ctx.Launch(ndr, func(it *guda.Item) {
		x := it.GlobalX()
		if x >= domain {
			return
		}
		for k := 0; k < w; k++ {
			i := x + k*domain
			dst[i] = f(src[i])
		}
	})
}

// MapUnrolled is MapWorkIntensive with UnrollFactor elements per item and
// the loop written out. cfg.WorkPerItem is ignored.
func MapUnrolled[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], f func(T) T, cfg MapConfig) error {
	const op = "MapUnrolled"
	n, err := checkMap(op, in, out, f)
	if err != nil {
		return err
	}
	cfg.WorkPerItem = guda.UnrollFactor
	if err := cfg.validate(op); err != nil {
		return err
	}
	if n%guda.UnrollFactor != 0 {
		return guda.NewInvalidArgError(op, fmt.Sprintf("length %d is not a multiple of %d", n, guda.UnrollFactor))
	}

	s := n / guda.UnrollFactor
	src, dst := in.Data(), out.Data()
	ndr := guda.NewNDRange(guda.Dim3{X: s}, guda.Dim3{X: cfg.GroupSize})
	return ctx.Launch(ndr, func(it *guda.Item) {
		x := it.GlobalX()
		if x >= s {
			return
		}
		dst[x+0*s] = f(src[x+0*s])
		dst[x+1*s] = f(src[x+1*s])
		dst[x+2*s] = f(src[x+2*s])
		dst[x+3*s] = f(src[x+3*s])
		dst[x+4*s] = f(src[x+4*s])
		dst[x+5*s] = f(src[x+5*s])
		dst[x+6*s] = f(src[x+6*s])
		dst[x+7*s] = f(src[x+7*s])
	})
}
