package guda

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// KernelFunc is the body of a kernel, invoked once per work-item of the
// padded domain. The Item is only valid for the duration of the call.
type KernelFunc func(it *Item)

// NDRange is a dispatched domain: Global is the padded extent and is a
// whole multiple of the workgroup extent Local in every dimension.
type NDRange struct {
	Global Dim3
	Local  Dim3
}

// NewNDRange pads logical up to whole workgroups of local
func NewNDRange(logical, local Dim3) NDRange {
	logical, local = logical.normalize(), local.normalize()
	return NDRange{
		Global: Dim3{
			X: PaddedExtent(logical.X, local.X),
			Y: PaddedExtent(logical.Y, local.Y),
			Z: PaddedExtent(logical.Z, local.Z),
		},
		Local: local,
	}
}

// PaddedExtent rounds extent up to a multiple of tile
func PaddedExtent(extent, tile int) int {
	if tile <= 0 {
		return extent
	}
	return (extent + tile - 1) / tile * tile
}

// Groups returns the number of workgroups per dimension
func (r NDRange) Groups() Dim3 {
	g, l := r.Global.normalize(), r.Local.normalize()
	return Dim3{X: g.X / l.X, Y: g.Y / l.Y, Z: g.Z / l.Z}
}

// Item identifies one work-item: its global coordinate in the padded
// domain, its local coordinate within the workgroup and the group's
// coordinate in the grid.
type Item struct {
	global Dim3
	local  Dim3
	id     Dim3
	ndr    NDRange
	group  *workgroup
}

type workgroup struct {
	scratch []any
	barrier *barrier
}

// GlobalID returns the item's coordinate in the padded domain
func (it *Item) GlobalID() Dim3 { return it.global }

// GlobalX returns the global X index
func (it *Item) GlobalX() int { return it.global.X }

// GlobalY returns the global Y index
func (it *Item) GlobalY() int { return it.global.Y }

// GlobalZ returns the global Z index
func (it *Item) GlobalZ() int { return it.global.Z }

// LocalID returns the item's coordinate within its workgroup
func (it *Item) LocalID() Dim3 { return it.local }

// LocalX returns the local X index
func (it *Item) LocalX() int { return it.local.X }

// LocalY returns the local Y index
func (it *Item) LocalY() int { return it.local.Y }

// GroupID returns the workgroup's coordinate in the grid
func (it *Item) GroupID() Dim3 { return it.id }

// GlobalRange returns the padded domain extent
func (it *Item) GlobalRange() Dim3 { return it.ndr.Global }

// LocalRange returns the workgroup extent
func (it *Item) LocalRange() Dim3 { return it.ndr.Local }

// GlobalLinear returns the row-major linear index of the global coordinate,
// X varying fastest.
func (it *Item) GlobalLinear() int {
	g := it.ndr.Global
	return (it.global.Z*g.Y+it.global.Y)*g.X + it.global.X
}

// Barrier blocks until every item of the workgroup reached the same
// barrier. Scratch writes made before the barrier are visible to every
// member after it. Every item must execute the same sequence of barriers.
//
// For launches without scratch the items of a group cannot communicate
// and Barrier returns immediately.
func (it *Item) Barrier() {
	if it.group.barrier != nil {
		it.group.barrier.wait()
	}
}

// Launch dispatches fn over every coordinate of ndr and blocks until all
// work-items finished. locals declares the scratch slots each workgroup
// shares; see Scratch.
//
// Workgroups execute concurrently, at most Workers() at a time. When
// scratch is declared every item of a group runs on its own goroutine so
// that it can suspend at barriers; otherwise the group's items run
// sequentially.
//
// A panicking work-item fails the launch with an execution error. Its
// group's barrier is broken so that the other members do not deadlock.
func (ctx *Context) Launch(ndr NDRange, fn KernelFunc, locals ...LocalDecl) error {
	if err := ctx.validate(ndr, locals); err != nil {
		return err
	}

	groups := ndr.Groups()
	var g errgroup.Group
	g.SetLimit(ctx.workers)
	for gid := 0; gid < groups.Size(); gid++ {
		id := linearTo3D(gid, groups)
		g.Go(func() error {
			if len(locals) == 0 {
				return runSequential(ndr, id, fn)
			}
			return runCooperative(ndr, id, fn, locals)
		})
	}
	return g.Wait()
}

func (ctx *Context) validate(ndr NDRange, locals []LocalDecl) error {
	g, l := ndr.Global, ndr.Local
	if g.X < 0 || g.Y < 0 || g.Z < 0 || g.Size() == 0 {
		return NewInvalidArgError("Launch", fmt.Sprintf("invalid global range %v", g))
	}
	if l.X < 0 || l.Y < 0 || l.Z < 0 || l.Size() == 0 {
		return NewInvalidArgError("Launch", fmt.Sprintf("invalid workgroup %v", l))
	}
	gn, ln := g.normalize(), l.normalize()
	if gn.X%ln.X != 0 || gn.Y%ln.Y != 0 || gn.Z%ln.Z != 0 {
		return NewInvalidArgError("Launch",
			fmt.Sprintf("global range %v is not a multiple of workgroup %v", g, l))
	}
	if l.Size() > ctx.device.MaxWorkGroupSize {
		return NewInvalidArgError("Launch",
			fmt.Sprintf("workgroup of %d items exceeds limit %d", l.Size(), ctx.device.MaxWorkGroupSize))
	}
	bytes := 0
	for _, d := range locals {
		bytes += d.Bytes()
	}
	if bytes > ctx.device.LocalMemSize {
		return NewInvalidArgError("Launch",
			fmt.Sprintf("scratch of %d bytes exceeds limit %d", bytes, ctx.device.LocalMemSize))
	}
	return nil
}

func itemAt(ndr NDRange, id Dim3, linear int, group *workgroup) Item {
	l := ndr.Local.normalize()
	local := linearTo3D(linear, l)
	return Item{
		global: Dim3{X: id.X*l.X + local.X, Y: id.Y*l.Y + local.Y, Z: id.Z*l.Z + local.Z},
		local:  local,
		id:     id,
		ndr:    NDRange{Global: ndr.Global.normalize(), Local: l},
		group:  group,
	}
}

// runSequential executes a scratch-free group on the calling goroutine
func runSequential(ndr NDRange, id Dim3, fn KernelFunc) (err error) {
	group := &workgroup{}
	n := ndr.Local.Size()
	linear := 0
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r, id, linearTo3D(linear, ndr.Local.normalize()))
		}
	}()
	for ; linear < n; linear++ {
		it := itemAt(ndr, id, linear, group)
		fn(&it)
	}
	return nil
}

// runCooperative executes one goroutine per item sharing scratch and a
// barrier
func runCooperative(ndr NDRange, id Dim3, fn KernelFunc, locals []LocalDecl) error {
	n := ndr.Local.Size()
	group := &workgroup{
		scratch: make([]any, len(locals)),
		barrier: newBarrier(n),
	}
	for i, d := range locals {
		group.scratch[i] = d.newInstance()
	}

	var (
		wg      sync.WaitGroup
		once    sync.Once
		failure error
	)
	wg.Add(n)
	for linear := 0; linear < n; linear++ {
		it := itemAt(ndr, id, linear, group)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { failure = panicError(r, id, it.local) })
					group.barrier.breakAll(ErrBarrierBroken)
					return
				}
				group.barrier.leave()
			}()
			fn(&it)
		}()
	}
	wg.Wait()
	return failure
}

func panicError(r any, group, local Dim3) error {
	if err, ok := r.(error); ok && (errors.Is(err, ErrBarrierBroken) || errors.Is(err, ErrBarrierDivergence)) {
		return err
	}
	var cause error
	if err, ok := r.(error); ok {
		cause = err
	} else {
		cause = fmt.Errorf("%v", r)
	}
	return NewExecutionError("Launch",
		fmt.Sprintf("work-item %s of group %s panicked", coord(local), coord(group)), cause)
}

func coord(d Dim3) string {
	return fmt.Sprintf("(%d,%d,%d)", d.X, d.Y, d.Z)
}
