package kernels

import (
	guda "github.com/LynnColeArt/guda-primitives"
)

// The transpose family reads an M x N row-major input and writes the
// N x M output, out[x*M+y] = in[y*N+x]. x indexes input columns and y
// input rows throughout.

func checkTranspose[T guda.Number](op string, in, out *guda.Buffer[T], d TransposeDims, cfg TransposeConfig) error {
	if err := checkPositive(op, d.M, d.N); err != nil {
		return err
	}
	if err := cfg.validate(op); err != nil {
		return err
	}
	if err := checkLen(op, "in", in, d.M*d.N); err != nil {
		return err
	}
	return checkLen(op, "out", out, d.M*d.N)
}

// TransposeNaive gives each work-item WorkPerItem consecutive input rows
// of one column. Reads are contiguous across neighbouring items, writes
// are strided by M.
func TransposeNaive[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], d TransposeDims, cfg TransposeConfig) error {
	if err := checkTranspose("TransposeNaive", in, out, d, cfg); err != nil {
		return err
	}

	M, N, w := d.M, d.N, cfg.WorkPerItem
	rowBlocks := (M + w - 1) / w
	src, dst := in.Data(), out.Data()

	items := rowBlocks * N
	ndr := guda.NewNDRange(guda.Dim3{X: items}, guda.Dim3{X: cfg.Tile * cfg.BlockRows()})
	return ctx.Launch(ndr, func(it *guda.Item) {
		gid := it.GlobalX()
		if gid >= items {
			return
		}
		y := gid / N * w
		x := gid % N
		// The last row block overhangs M when w does not divide it.
		for work := 0; work < w && y+work < M; work++ {
			dst[x*M+y+work] = src[(y+work)*N+x]
		}
	})
}

// transposeRange covers N columns in X and M rows in Y, the latter in
// WorkPerItem strides, padded to whole tiles
func transposeRange(d TransposeDims, cfg TransposeConfig) guda.NDRange {
	rows := guda.PaddedExtent(d.M, cfg.Tile) / cfg.WorkPerItem
	return guda.NewNDRange(guda.Dim3{X: d.N, Y: rows}, guda.Dim3{X: cfg.Tile, Y: cfg.BlockRows()})
}

// stageTile loads the item's WorkPerItem rows of the group's input tile
// into scratch in row-major order and waits for the whole tile
func stageTile[T guda.Number](it *guda.Item, tile *guda.ScratchTile[T], src []T, d TransposeDims, w int) {
	x := it.GlobalX()
	y := it.GlobalY() * w
	lx := it.LocalX()
	ly := it.LocalY() * w

	for work := 0; work < w; work++ {
		if y+work < d.M && x < d.N {
			tile.Set(ly+work, lx, src[(y+work)*d.N+x])
		}
	}
	it.Barrier()
}

// TransposeStaged stages each Tile x Tile block into scratch and writes
// it back from the same local coordinates. Loads are coalesced, stores
// are still strided.
func TransposeStaged[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], d TransposeDims, cfg TransposeConfig) error {
	if err := checkTranspose("TransposeStaged", in, out, d, cfg); err != nil {
		return err
	}

	M, N, w := d.M, d.N, cfg.WorkPerItem
	src, dst := in.Data(), out.Data()

	kernel := func(it *guda.Item) {
		tile := guda.Scratch[T](it, 0)
		stageTile(it, tile, src, d, w)

		x := it.GlobalX()
		y := it.GlobalY() * w
		lx := it.LocalX()
		ly := it.LocalY() * w
		for work := 0; work < w; work++ {
			if y+work < M && x < N {
				dst[x*M+y+work] = tile.At(ly+work, lx)
			}
		}
	}

	return ctx.Launch(transposeRange(d, cfg), kernel, guda.Local[T](cfg.Tile, cfg.Tile))
}

// TransposeCoalesced stages like TransposeStaged, then swaps the tile's
// block origin for the store so that neighbouring items write
// neighbouring output elements.
func TransposeCoalesced[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], d TransposeDims, cfg TransposeConfig) error {
	if err := checkTranspose("TransposeCoalesced", in, out, d, cfg); err != nil {
		return err
	}
	return transposeCoalesced(ctx, in, out, d, cfg, guda.Local[T](cfg.Tile, cfg.Tile))
}

// TransposeNoBankConflict is TransposeCoalesced with one column of
// scratch padding. The column-wise scratch reads of the store phase then
// hit distinct banks. Results are identical.
func TransposeNoBankConflict[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], d TransposeDims, cfg TransposeConfig) error {
	if err := checkTranspose("TransposeNoBankConflict", in, out, d, cfg); err != nil {
		return err
	}
	return transposeCoalesced(ctx, in, out, d, cfg, guda.PaddedLocal[T](cfg.Tile, cfg.Tile, 1))
}

func transposeCoalesced[T guda.Number](ctx *guda.Context, in, out *guda.Buffer[T], d TransposeDims, cfg TransposeConfig, scratch guda.LocalDecl) error {
	M, N, w, t := d.M, d.N, cfg.WorkPerItem, cfg.Tile
	src, dst := in.Data(), out.Data()

	kernel := func(it *guda.Item) {
		tile := guda.Scratch[T](it, 0)
		stageTile(it, tile, src, d, w)

		x := it.GlobalX()
		y := it.GlobalY() * w
		lx := it.LocalX()
		ly := it.LocalY() * w

		xStart := x / t * t
		yStart := y / t * t
		// Output row = input column, output column = input row.
		ox := yStart + lx
		oy := xStart + ly
		for work := 0; work < w; work++ {
			if oy+work < N && ox < M {
				dst[(oy+work)*M+ox] = tile.At(lx, ly+work)
			}
		}
	}

	return ctx.Launch(transposeRange(d, cfg), kernel, scratch)
}
