package harness

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"unsafe"

	guda "github.com/LynnColeArt/guda-primitives"
	"github.com/LynnColeArt/guda-primitives/kernels"
)

// Suite is the set of variants of one primitive sharing device buffers.
// Close releases the buffers.
type Suite struct {
	Name      string
	Workloads []Workload
	buffers   []interface{ Free() error }
}

// Close frees every buffer the suite allocated
func (s *Suite) Close() error {
	var errs []error
	for _, b := range s.buffers {
		errs = append(errs, b.Free())
	}
	s.buffers = nil
	return errors.Join(errs...)
}

// Run times every workload with d and records the measurements in log,
// which may be nil
func (s *Suite) Run(d Driver, log *SessionLog) ([]Measurement, error) {
	var results []Measurement
	for _, w := range s.Workloads {
		m, err := d.Run(w)
		if err != nil {
			return results, err
		}
		results = append(results, m)
		if log != nil {
			if err := log.Record(m); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

func alloc[T guda.Number](ctx *guda.Context, s *Suite, host []T) (*guda.Buffer[T], error) {
	b, err := guda.MallocFrom(ctx, host)
	if err != nil {
		return nil, err
	}
	s.buffers = append(s.buffers, b)
	return b, nil
}

func allocZero[T guda.Number](ctx *guda.Context, s *Suite, n int) (*guda.Buffer[T], error) {
	b, err := guda.Malloc[T](ctx, n)
	if err != nil {
		return nil, err
	}
	s.buffers = append(s.buffers, b)
	return b, nil
}

func sizeOf[T guda.Number]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

// verifier reads out back and compares it with want
func verifier[T guda.Number](op string, out *guda.Buffer[T], want []T, tol ToleranceConfig, shape ...int) func() error {
	return func() error {
		got := make([]T, out.Len())
		if err := out.CopyToHost(got); err != nil {
			return err
		}
		return CheckNear(op, want, got, tol, shape...)
	}
}

// MapSuite prepares the naive, work-intensive and unrolled map over n
// elements with the AddOne transform
func MapSuite[T guda.Number](ctx *guda.Context, r *rand.Rand, n int, cfg kernels.MapConfig) (*Suite, error) {
	s := &Suite{Name: "map"}
	host := MapInput[T](r, n)
	in, err := alloc(ctx, s, host)
	if err != nil {
		return nil, err
	}
	out, err := allocZero[T](ctx, s, n)
	if err != nil {
		s.Close()
		return nil, err
	}

	want := Reference[T]{}.Map(host, kernels.AddOne[T])
	bytes := sizeOf[T]() * int64(n)
	variants := []struct {
		name string
		fn   func(*guda.Context, *guda.Buffer[T], *guda.Buffer[T], func(T) T, kernels.MapConfig) error
	}{
		{"Naive parallel map operation", kernels.MapNaive[T]},
		{"Work intensive map operation", kernels.MapWorkIntensive[T]},
		{"Unrolled work intensive map operation", kernels.MapUnrolled[T]},
	}
	for _, v := range variants {
		s.Workloads = append(s.Workloads, Workload{
			Name:   v.name,
			Bytes:  bytes,
			Run:    func() error { return v.fn(ctx, in, out, kernels.AddOne[T], cfg) },
			Reset:  func() { clear(out.Data()) },
			Verify: verifier(v.name, out, want, Exact(), n),
		})
	}
	return s, nil
}

// MatMulSuite prepares the naive and tiled matmul of random M x K and
// K x N matrices
func MatMulSuite[T guda.Number](ctx *guda.Context, r *rand.Rand, d kernels.MatMulDims, cfg kernels.TileConfig, tol ToleranceConfig) (*Suite, error) {
	s := &Suite{Name: "matmul"}
	hostA := MatMulInput[T](r, d.M*d.K)
	hostB := MatMulInput[T](r, d.K*d.N)
	a, err := alloc(ctx, s, hostA)
	if err != nil {
		return nil, err
	}
	b, err := alloc(ctx, s, hostB)
	if err != nil {
		s.Close()
		return nil, err
	}
	c, err := allocZero[T](ctx, s, d.M*d.N)
	if err != nil {
		s.Close()
		return nil, err
	}

	want := Reference[T]{}.MatMul(hostA, hostB, d.M, d.N, d.K)
	bytes := sizeOf[T]() * int64(d.M*d.K+d.K*d.N+d.M*d.N)
	ops := int64(d.M) * int64(d.N) * int64(d.K)
	variants := []struct {
		name string
		fn   func(*guda.Context, *guda.Buffer[T], *guda.Buffer[T], *guda.Buffer[T], kernels.MatMulDims, kernels.TileConfig) error
	}{
		{"Naive parallel matmul", kernels.MatMulNaive[T]},
		{"Parallel matmul with local memory", kernels.MatMulTiled[T]},
	}
	for _, v := range variants {
		s.Workloads = append(s.Workloads, Workload{
			Name:   v.name,
			Bytes:  bytes,
			Ops:    ops,
			Run:    func() error { return v.fn(ctx, a, b, c, d, cfg) },
			Reset:  func() { clear(c.Data()) },
			Verify: verifier(v.name, c, want, tol, d.M, d.N),
		})
	}
	return s, nil
}

// StencilSuite prepares the naive and tiled stencil of a random N x N
// input with a random KSize x KSize kernel
func StencilSuite[T guda.Number](ctx *guda.Context, r *rand.Rand, d kernels.StencilDims, cfg kernels.TileConfig) (*Suite, error) {
	s := &Suite{Name: "stencil"}
	hostIn := StencilInput[T](r, d.N*d.N)
	hostKernel := StencilInput[T](r, d.KSize*d.KSize)
	in, err := alloc(ctx, s, hostIn)
	if err != nil {
		return nil, err
	}
	kernel, err := alloc(ctx, s, hostKernel)
	if err != nil {
		s.Close()
		return nil, err
	}
	out, err := allocZero[T](ctx, s, d.N*d.N)
	if err != nil {
		s.Close()
		return nil, err
	}

	want := Reference[T]{}.Stencil(hostIn, hostKernel, d.N, d.KSize)
	bytes := sizeOf[T]() * int64(d.N*d.N)
	ops := int64(d.KSize*d.KSize) * int64(d.N*d.N)
	variants := []struct {
		name string
		fn   func(*guda.Context, *guda.Buffer[T], *guda.Buffer[T], *guda.Buffer[T], kernels.StencilDims, kernels.TileConfig) error
	}{
		{"Naive parallel stencil", kernels.StencilNaive[T]},
		{"Parallel stencil with local memory", kernels.StencilTiled[T]},
	}
	for _, v := range variants {
		s.Workloads = append(s.Workloads, Workload{
			Name:   v.name,
			Bytes:  bytes,
			Ops:    ops,
			Run:    func() error { return v.fn(ctx, in, kernel, out, d, cfg) },
			Reset:  func() { clear(out.Data()) },
			Verify: verifier(v.name, out, want, Exact(), d.N, d.N),
		})
	}
	return s, nil
}

// TransposeSuite prepares the four transpose variants of a random M x N
// matrix
func TransposeSuite[T guda.Number](ctx *guda.Context, r *rand.Rand, d kernels.TransposeDims, cfg kernels.TransposeConfig) (*Suite, error) {
	s := &Suite{Name: "transpose"}
	host := RandomRange[T](r, d.M*d.N, 0, 1<<20)
	in, err := alloc(ctx, s, host)
	if err != nil {
		return nil, err
	}
	out, err := allocZero[T](ctx, s, d.M*d.N)
	if err != nil {
		s.Close()
		return nil, err
	}

	want := Reference[T]{}.Transpose(host, d.M, d.N)
	bytes := sizeOf[T]() * int64(d.M*d.N)
	variants := []struct {
		name string
		fn   func(*guda.Context, *guda.Buffer[T], *guda.Buffer[T], kernels.TransposeDims, kernels.TransposeConfig) error
	}{
		{"Naive implementation", kernels.TransposeNaive[T]},
		{"Naive transpose via shared memory", kernels.TransposeStaged[T]},
		{"Coalesced transpose via shared memory", kernels.TransposeCoalesced[T]},
		{"No shared memory bank conflicts", kernels.TransposeNoBankConflict[T]},
	}
	for _, v := range variants {
		s.Workloads = append(s.Workloads, Workload{
			Name:  v.name,
			Bytes: bytes,
			Run:   func() error { return v.fn(ctx, in, out, d, cfg) },
			Reset: func() { clear(out.Data()) },
			// The output is N x M.
			Verify: verifier(v.name, out, want, Exact(), d.N, d.M),
		})
	}
	return s, nil
}

// Describe returns the banner line of a suite
func Describe(s *Suite, shape string) string {
	return fmt.Sprintf("Parallel primitives : %s %s (%d variants)", s.Name, shape, len(s.Workloads))
}
