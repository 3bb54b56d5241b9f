// Package kernels implements the benchmark primitives on top of the guda
// launcher: elementwise map, matrix multiplication, 2D stencil and matrix
// transpose, each in a naive global-memory version and one or more
// scratch-tiled versions.
//
// Every primitive borrows its buffers for the duration of the call and
// leaves the result in the output buffer on return. Tile sizes are explicit
// per-call values and need not divide the dimensions: domains are padded
// and every access is guarded against the logical extent.
package kernels

import (
	"fmt"

	guda "github.com/LynnColeArt/guda-primitives"
)

// TileConfig sets the square workgroup edge used by matmul and stencil
type TileConfig struct {
	GroupSize int
}

// DefaultTileConfig returns the 16x16 workgroup of the benchmarks
func DefaultTileConfig() TileConfig {
	return TileConfig{GroupSize: guda.DefaultTileSize}
}

func (c TileConfig) validate(op string) error {
	if c.GroupSize <= 0 || c.GroupSize*c.GroupSize > guda.MaxWorkGroupSize {
		return guda.NewInvalidArgError(op, fmt.Sprintf("invalid group size %d", c.GroupSize))
	}
	return nil
}

// MapConfig sets the 1D workgroup size and the elements per work-item of
// the work-intensive map. The unrolled map always uses UnrollFactor.
type MapConfig struct {
	GroupSize   int
	WorkPerItem int
}

// DefaultMapConfig returns 1024-item groups with 8 elements per item
func DefaultMapConfig() MapConfig {
	return MapConfig{GroupSize: guda.DefaultBlockSize, WorkPerItem: guda.UnrollFactor}
}

func (c MapConfig) validate(op string) error {
	if c.GroupSize <= 0 || c.GroupSize > guda.MaxWorkGroupSize {
		return guda.NewInvalidArgError(op, fmt.Sprintf("invalid group size %d", c.GroupSize))
	}
	if c.WorkPerItem <= 0 {
		return guda.NewInvalidArgError(op, fmt.Sprintf("invalid work per item %d", c.WorkPerItem))
	}
	return nil
}

// TransposeConfig sets the square tile edge and the rows each work-item
// moves. Workgroups are Tile x Tile/WorkPerItem items.
type TransposeConfig struct {
	Tile        int
	WorkPerItem int
}

// DefaultTransposeConfig returns 32x32 tiles with 4 rows per item
func DefaultTransposeConfig() TransposeConfig {
	return TransposeConfig{Tile: guda.DefaultTransposeTile, WorkPerItem: guda.DefaultWorkPerItem}
}

// BlockRows is the workgroup's Y extent
func (c TransposeConfig) BlockRows() int {
	return c.Tile / c.WorkPerItem
}

func (c TransposeConfig) validate(op string) error {
	if c.Tile <= 0 || c.WorkPerItem <= 0 || c.Tile%c.WorkPerItem != 0 {
		return guda.NewInvalidArgError(op,
			fmt.Sprintf("tile %d must be a positive multiple of work per item %d", c.Tile, c.WorkPerItem))
	}
	if c.Tile*c.BlockRows() > guda.MaxWorkGroupSize {
		return guda.NewInvalidArgError(op, fmt.Sprintf("tile %d needs more than %d items", c.Tile, guda.MaxWorkGroupSize))
	}
	return nil
}

// MatMulDims are the extents of C[M,N] = A[M,K] * B[K,N]
type MatMulDims struct {
	M, N, K int
}

// StencilDims are the input edge N of an N x N matrix and the odd kernel
// edge KSize
type StencilDims struct {
	N, KSize int
}

// TransposeDims are the extents of an M-row, N-column input
type TransposeDims struct {
	M, N int
}

// checkLen verifies a buffer holds exactly want elements
func checkLen[T guda.Number](op, name string, b *guda.Buffer[T], want int) error {
	if b == nil {
		return guda.NewInvalidArgError(op, name+" buffer is nil")
	}
	if b.Len() != want {
		return guda.NewInvalidArgError(op,
			fmt.Sprintf("%s buffer has %d elements, want %d", name, b.Len(), want))
	}
	return nil
}

func checkPositive(op string, dims ...int) error {
	for _, d := range dims {
		if d <= 0 {
			return guda.NewInvalidArgError(op, fmt.Sprintf("dimensions must be positive, got %v", dims))
		}
	}
	return nil
}
