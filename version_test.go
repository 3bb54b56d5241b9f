package guda

import (
	"runtime/debug"
	"testing"
)

func TestModuleVersion(t *testing.T) {
	tests := []struct {
		name    string
		m       debug.Module
		version string
		sum     string
	}{
		{"plain", debug.Module{Path: root, Version: "v0.2.0", Sum: "h1:abc"}, "v0.2.0", "h1:abc"},
		{"local replace", debug.Module{Path: root, Version: "v0.2.0", Replace: &debug.Module{Path: "../guda-primitives"}}, "v0.2.0=>../guda-primitives", ""},
		{"versioned replace", debug.Module{Path: root, Version: "v0.2.0", Replace: &debug.Module{Path: "example.com/fork", Version: "v0.2.1", Sum: "h1:def"}}, "v0.2.0=>example.com/fork v0.2.1", "h1:def"},
	}
	for _, tt := range tests {
		version, sum := moduleVersion(&tt.m)
		if version != tt.version || sum != tt.sum {
			t.Errorf("%s: moduleVersion = %q, %q; want %q, %q", tt.name, version, sum, tt.version, tt.sum)
		}
	}
}
