package guda

import (
	"fmt"
	"runtime"
	"sync"
)

// Device represents a compute device. In GUDA, this is the CPU with its
// cores. The workgroup and scratch limits are those of the emulated
// accelerator, not of the host.
type Device struct {
	ID               int    // Unique device identifier
	Name             string // Human-readable device name
	NumCores         int    // Number of CPU cores
	MaxWorkGroupSize int    // Maximum work-items per workgroup
	LocalMemSize     int    // Scratch bytes per workgroup
	Features         CPUFeatures
}

// Context owns a device, its memory pool and the worker limit used to
// schedule workgroups. A Context is safe for concurrent use, but launches
// are synchronous: Launch returns only after every work-item finished.
type Context struct {
	device  *Device
	memory  *MemoryPool
	workers int
}

// Dim3 represents 3D dimensions for domains and workgroups.
// Zero components are treated as 1.
type Dim3 struct {
	X, Y, Z int
}

// Option configures a Context
type Option func(*Context)

// WithWorkers bounds the number of workgroups executing at once.
// Values <= 0 select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(ctx *Context) {
		if n > 0 {
			ctx.workers = n
		}
	}
}

// WithDevice replaces the default CPU device description
func WithDevice(d *Device) Option {
	return func(ctx *Context) {
		if d != nil {
			ctx.device = d
		}
	}
}

// Global runtime state
var (
	defaultDevice  *Device
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultDevice = newCPUDevice()
		defaultContext = NewContext()
	})
}

func newCPUDevice() *Device {
	return &Device{
		ID:               0,
		Name:             "CPU",
		NumCores:         runtime.NumCPU(),
		MaxWorkGroupSize: MaxWorkGroupSize,
		LocalMemSize:     LocalMemSize,
		Features:         Features(),
	}
}

// NewContext creates a context on the CPU device
func NewContext(opts ...Option) *Context {
	ctx := &Context{
		device:  defaultDevice,
		memory:  NewMemoryPool(),
		workers: runtime.NumCPU(),
	}
	if ctx.device == nil {
		ctx.device = newCPUDevice()
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// Default returns the process-wide default context
func Default() *Context {
	return defaultContext
}

// Device returns the context's device
func (ctx *Context) Device() *Device {
	return ctx.device
}

// Workers returns how many workgroups may execute concurrently
func (ctx *Context) Workers() int {
	return ctx.workers
}

// Memory returns the context's memory pool
func (ctx *Context) Memory() *MemoryPool {
	return ctx.memory
}

// GetDevice returns the default device information.
//
// Example:
//
//	device := guda.GetDevice()
//	fmt.Printf("Running on: %s with %d cores\n", device.Name, device.NumCores)
func GetDevice() *Device {
	return defaultDevice
}

// SetDevice sets the active device (no-op for CPU)
func SetDevice(id int) error {
	if id != 0 {
		return ErrInvalidDevice
	}
	return nil
}

// Launch executes a kernel on the default context
func Launch(ndr NDRange, fn KernelFunc, locals ...LocalDecl) error {
	return defaultContext.Launch(ndr, fn, locals...)
}

// String formats the device for banners
func (d *Device) String() string {
	return fmt.Sprintf("%s (%d cores, workgroup<=%d, scratch %d KiB)",
		d.Name, d.NumCores, d.MaxWorkGroupSize, d.LocalMemSize/1024)
}

// Size returns the total number of elements
func (d Dim3) Size() int {
	d = d.normalize()
	return d.X * d.Y * d.Z
}

func (d Dim3) normalize() Dim3 {
	if d.X == 0 {
		d.X = 1
	}
	if d.Y == 0 {
		d.Y = 1
	}
	if d.Z == 0 {
		d.Z = 1
	}
	return d
}

// String formats the extents, e.g. "32x8x1"
func (d Dim3) String() string {
	d = d.normalize()
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}
