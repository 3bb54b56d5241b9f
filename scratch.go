package guda

import (
	"fmt"
	"sync"
	"unsafe"
)

// LocalDecl declares one scratch slot of a launch. Each workgroup gets its
// own instance of every declared slot, in declaration order.
type LocalDecl interface {
	// Bytes is the slot's footprint, padding included
	Bytes() int
	newInstance() any
}

type localDecl[T Number] struct {
	rows, cols, pad int
}

// Local declares a rows x cols scratch tile of T
func Local[T Number](rows, cols int) LocalDecl {
	return localDecl[T]{rows: rows, cols: cols}
}

// PaddedLocal declares a rows x cols scratch tile whose rows are pad
// elements longer than cols. The padding shifts each row onto a different
// bank and is never addressed.
func PaddedLocal[T Number](rows, cols, pad int) LocalDecl {
	return localDecl[T]{rows: rows, cols: cols, pad: pad}
}

func (d localDecl[T]) Bytes() int {
	var zero T
	return d.rows * (d.cols + d.pad) * int(unsafe.Sizeof(zero))
}

func (d localDecl[T]) newInstance() any {
	stride := d.cols + d.pad
	return &ScratchTile[T]{
		data:   make([]T, d.rows*stride),
		rows:   d.rows,
		cols:   d.cols,
		stride: stride,
	}
}

// ScratchTile is a workgroup's instance of a scratch slot. It is shared by
// every work-item of the group. Values written by one item are visible to
// the others only after the group's next barrier.
type ScratchTile[T Number] struct {
	data       []T
	rows, cols int
	stride     int
}

// Scratch returns the workgroup's instance of slot. It panics if the slot
// was not declared with element type T.
func Scratch[T Number](it *Item, slot int) *ScratchTile[T] {
	if slot < 0 || slot >= len(it.group.scratch) {
		panic(fmt.Sprintf("guda: scratch slot %d not declared (%d slots)", slot, len(it.group.scratch)))
	}
	tile, ok := it.group.scratch[slot].(*ScratchTile[T])
	if !ok {
		panic(fmt.Sprintf("guda: scratch slot %d holds %T", slot, it.group.scratch[slot]))
	}
	return tile
}

// At returns element (r, c)
func (s *ScratchTile[T]) At(r, c int) T {
	return s.data[r*s.stride+c]
}

// Set stores v at (r, c)
func (s *ScratchTile[T]) Set(r, c int, v T) {
	s.data[r*s.stride+c] = v
}

// Rows returns the number of rows
func (s *ScratchTile[T]) Rows() int { return s.rows }

// Cols returns the number of addressable columns
func (s *ScratchTile[T]) Cols() int { return s.cols }

// Stride returns the distance in elements between rows
func (s *ScratchTile[T]) Stride() int { return s.stride }

// Bank returns the scratch bank holding element (r, c)
func (s *ScratchTile[T]) Bank(r, c int) int {
	var zero T
	word := (r*s.stride + c) * int(unsafe.Sizeof(zero)) / ScratchBankWidth
	return word % ScratchBanks
}

// barrier is a reusable rendezvous for the n work-items of one group.
// A broken barrier releases all current and future waiters by panicking
// with its cause.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	n          int
	waiting    int
	exited     int
	generation uint64
	broken     bool
	cause      error
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until all n items reached the barrier
func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.broken {
		panic(b.cause)
	}
	gen := b.generation
	b.waiting++
	switch {
	case b.waiting == b.n:
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	case b.waiting+b.exited == b.n:
		// Everyone still running is here, the rest returned without
		// reaching this barrier.
		b.breakLocked(ErrBarrierDivergence)
		panic(b.cause)
	}
	for gen == b.generation && !b.broken {
		b.cond.Wait()
	}
	if gen == b.generation {
		panic(b.cause)
	}
}

// leave records that an item returned from the kernel
func (b *barrier) leave() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.exited++
	if b.waiting > 0 && b.waiting+b.exited == b.n {
		b.breakLocked(ErrBarrierDivergence)
	}
}

// breakAll wakes every waiter with cause
func (b *barrier) breakAll(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.breakLocked(cause)
}

func (b *barrier) breakLocked(cause error) {
	if b.broken {
		return
	}
	b.broken = true
	b.cause = cause
	b.cond.Broadcast()
}
