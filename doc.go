// Copyright ©2019 The Gonum Authors. All rights reserved.
// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package guda provides a small data-parallel execution model for CPU
// execution, shaped after accelerator runtimes: a logical N-dimensional
// domain is padded to whole workgroups, each workgroup shares a scratch
// memory instance, and the work-items of a group meet at barriers.
//
// Example usage:
//
//	ctx := guda.NewContext()
//
//	in, _ := guda.Malloc[float32](ctx, n)
//	out, _ := guda.Malloc[float32](ctx, n)
//	defer in.Free()
//	defer out.Free()
//	in.CopyFromHost(host)
//
//	ndr := guda.NewNDRange(guda.Dim3{X: n}, guda.Dim3{X: 256})
//	err := ctx.Launch(ndr, func(it *guda.Item) {
//		if x := it.GlobalX(); x < n {
//			out.Data()[x] = in.Data()[x] + 1
//		}
//	})
package guda
