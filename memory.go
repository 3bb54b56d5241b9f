package guda

import (
	"fmt"
	"sync"
	"unsafe"
)

// Number is the set of element types kernels operate on. All members are
// pointer-free, so buffers can be carved from raw byte blocks.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// MemoryPool manages device memory allocation with efficient reuse.
// It maintains a free list of previously allocated blocks to reduce
// allocation overhead and memory fragmentation.
type MemoryPool struct {
	mu         sync.Mutex
	nextID     uint64
	allocated  map[uint64]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	id   uint64
	buf  []byte
	used bool
}

// NewMemoryPool creates a new memory pool for efficient memory management.
// The pool tracks allocations and provides statistics on memory usage.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uint64]*allocation),
	}
}

// Buffer is a flat, row-major device buffer of n elements. The shape is
// carried by the caller. The harness owns a Buffer from Malloc to Free;
// kernels borrow it for the duration of one call and never retain it.
type Buffer[T Number] struct {
	pool  *MemoryPool
	alloc *allocation
	data  []T
	freed bool
}

// Malloc allocates a device buffer of n elements from the context's pool.
// Memory is aligned to MemoryAlignment and zeroed.
//
// Example:
//
//	d_a, err := guda.Malloc[int64](ctx, m*k)
//	if err != nil {
//		return err
//	}
//	defer d_a.Free()
func Malloc[T Number](ctx *Context, n int) (*Buffer[T], error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	var zero T
	size := n * int(unsafe.Sizeof(zero))
	alloc := ctx.memory.allocate(size)
	data := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(alloc.buf))), n)
	return &Buffer[T]{pool: ctx.memory, alloc: alloc, data: data}, nil
}

// allocate returns a zeroed block of at least size bytes
func (mp *MemoryPool) allocate(size int) *allocation {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	// Try to reuse from free list
	for i, alloc := range mp.freeList {
		if len(alloc.buf) >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			clear(alloc.buf)
			mp.track(int64(len(alloc.buf)))
			return alloc
		}
	}

	mp.nextID++
	alloc := &allocation{
		id:   mp.nextID,
		buf:  make([]byte, alignedSize),
		used: true,
	}
	mp.allocated[alloc.id] = alloc
	mp.track(int64(alignedSize))
	return alloc
}

func (mp *MemoryPool) track(delta int64) {
	mp.totalAlloc += delta
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}
}

// release returns a block to the free list
func (mp *MemoryPool) release(alloc *allocation) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.allocated[alloc.id]; !ok {
		return NewMemoryError("Free", "buffer not found in allocation pool", nil)
	}
	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(len(alloc.buf))
	return nil
}

// GetStats returns bytes currently allocated and the peak
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// Data returns the buffer's elements. The slice is only valid until Free.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// Len returns the number of elements
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Bytes returns the size of the elements in bytes
func (b *Buffer[T]) Bytes() int {
	var zero T
	return len(b.data) * int(unsafe.Sizeof(zero))
}

// CopyFromHost copies src into the start of the buffer
func (b *Buffer[T]) CopyFromHost(src []T) error {
	if len(src) > len(b.data) {
		return NewInvalidArgError("CopyFromHost",
			fmt.Sprintf("host slice of %d elements exceeds buffer of %d", len(src), len(b.data)))
	}
	copy(b.data, src)
	return nil
}

// CopyToHost copies the whole buffer into dst
func (b *Buffer[T]) CopyToHost(dst []T) error {
	if len(dst) < len(b.data) {
		return NewInvalidArgError("CopyToHost",
			fmt.Sprintf("host slice of %d elements is shorter than buffer of %d", len(dst), len(b.data)))
	}
	copy(dst, b.data)
	return nil
}

// Free returns the buffer to its pool. The buffer must not be used
// afterwards.
func (b *Buffer[T]) Free() error {
	if b == nil {
		return nil
	}
	if b.freed {
		return ErrDoubleFree
	}
	if err := b.pool.release(b.alloc); err != nil {
		return err
	}
	// The block may be handed to another Malloc, drop every reference.
	b.freed = true
	b.alloc = nil
	b.data = nil
	return nil
}

// MallocFrom allocates a buffer sized to host and copies host into it
func MallocFrom[T Number](ctx *Context, host []T) (*Buffer[T], error) {
	b, err := Malloc[T](ctx, len(host))
	if err != nil {
		return nil, err
	}
	copy(b.data, host)
	return b, nil
}
