// Copyright ©2019 The Gonum Authors. All rights reserved.
// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guda

import (
	"fmt"
	"runtime/debug"
)

const root = "github.com/LynnColeArt/guda-primitives"

// Version returns the module version and checksum this package was built
// from, whether it is the main module or a dependency. Replaced modules
// report both sides as "v=>replacement". The values are empty in binaries
// built without module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	if b.Main.Path == root {
		return moduleVersion(&b.Main)
	}
	for _, m := range b.Deps {
		if m.Path == root {
			return moduleVersion(m)
		}
	}
	return "", ""
}

func moduleVersion(m *debug.Module) (string, string) {
	r := m.Replace
	if r == nil {
		return m.Version, m.Sum
	}
	target := r.Path
	if r.Version != "" {
		target = fmt.Sprintf("%s %s", r.Path, r.Version)
	}
	return fmt.Sprintf("%s=>%s", m.Version, target), r.Sum
}
