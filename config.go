// Package guda configuration constants
package guda

// Workgroup limits of the emulated device
const (
	// Default 1D workgroup size for elementwise kernels
	DefaultBlockSize = 1024

	// Maximum work-items per workgroup
	MaxWorkGroupSize = 1024

	// Scratch memory available to one workgroup (in bytes)
	LocalMemSize = 48 * 1024

	// Number of scratch memory banks. Consecutive 4-byte words map to
	// consecutive banks.
	ScratchBanks = 32

	// Width of one scratch bank in bytes
	ScratchBankWidth = 4
)

// Tile sizes used when a caller does not pick its own
const (
	// Square workgroup edge for matmul and stencil
	DefaultTileSize = 16

	// Transpose tile edge
	DefaultTransposeTile = 32

	// Rows handled by one work-item in transpose and map
	DefaultWorkPerItem = 4

	// Elements per work-item in the unrolled map kernel. Fixed: the
	// kernel body is written out by hand for this factor.
	UnrollFactor = 8
)

// Memory pool parameters
const (
	// Memory alignment for allocations (cache line)
	MemoryAlignment = 64
)
