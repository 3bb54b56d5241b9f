package guda

import (
	"testing"
)

func TestMallocAndCopy(t *testing.T) {
	ctx := NewContext()
	sizes := []int{1, 100, 1000, 100000}

	for _, size := range sizes {
		buf, err := Malloc[float32](ctx, size)
		if err != nil {
			t.Fatalf("Failed to allocate %d elements: %v", size, err)
		}
		if buf.Len() != size {
			t.Errorf("Expected length %d, got %d", size, buf.Len())
		}
		if buf.Bytes() != size*4 {
			t.Errorf("Expected %d bytes, got %d", size*4, buf.Bytes())
		}

		host := make([]float32, size)
		for i := range host {
			host[i] = float32(i)
		}
		if err := buf.CopyFromHost(host); err != nil {
			t.Fatalf("CopyFromHost failed: %v", err)
		}
		back := make([]float32, size)
		if err := buf.CopyToHost(back); err != nil {
			t.Fatalf("CopyToHost failed: %v", err)
		}
		for i := range back {
			if back[i] != float32(i) {
				t.Fatalf("Memory corruption at index %d: %v", i, back[i])
			}
		}

		if err := buf.Free(); err != nil {
			t.Fatalf("Failed to free memory: %v", err)
		}
	}
}

func TestMallocInvalidSize(t *testing.T) {
	ctx := NewContext()
	for _, n := range []int{0, -1} {
		if _, err := Malloc[int64](ctx, n); err != ErrInvalidSize {
			t.Errorf("Malloc(%d) error = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestDoubleFree(t *testing.T) {
	ctx := NewContext()
	buf, err := Malloc[int64](ctx, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Free(); err != nil {
		t.Fatalf("first Free failed: %v", err)
	}
	if err := buf.Free(); err != ErrDoubleFree {
		t.Errorf("second Free error = %v, want ErrDoubleFree", err)
	}
}

func TestDoubleFreeAfterReuse(t *testing.T) {
	ctx := NewContext()
	first, _ := Malloc[int32](ctx, 64)
	first.Free()

	// The block is handed to second; freeing first again must not
	// release it.
	second, _ := Malloc[int32](ctx, 64)
	if err := first.Free(); err != ErrDoubleFree {
		t.Errorf("stale Free error = %v, want ErrDoubleFree", err)
	}
	second.Data()[0] = 7
	if allocated, _ := ctx.Memory().GetStats(); allocated == 0 {
		t.Error("second buffer was released by the stale Free")
	}
	if err := second.Free(); err != nil {
		t.Errorf("Free failed: %v", err)
	}
}

func TestMemoryPoolReuseZeroes(t *testing.T) {
	ctx := NewContext()
	buf, _ := Malloc[int64](ctx, 32)
	for i := range buf.Data() {
		buf.Data()[i] = -1
	}
	buf.Free()

	reused, _ := Malloc[int64](ctx, 16)
	defer reused.Free()
	for i, v := range reused.Data() {
		if v != 0 {
			t.Fatalf("reused block not zeroed at %d: %d", i, v)
		}
	}

	allocated, peak := ctx.Memory().GetStats()
	if allocated != 256 {
		t.Errorf("allocated = %d, want the reused 256-byte block", allocated)
	}
	if peak != 256 {
		t.Errorf("peak = %d, want 256", peak)
	}
}

func TestCopyLengthChecks(t *testing.T) {
	ctx := NewContext()
	buf, _ := Malloc[float64](ctx, 4)
	defer buf.Free()

	if err := buf.CopyFromHost(make([]float64, 5)); !IsInvalidArgError(err) {
		t.Errorf("oversized CopyFromHost error = %v, want invalid argument", err)
	}
	if err := buf.CopyToHost(make([]float64, 3)); !IsInvalidArgError(err) {
		t.Errorf("short CopyToHost error = %v, want invalid argument", err)
	}
}

func TestMallocFrom(t *testing.T) {
	ctx := NewContext()
	host := []int{3, 1, 4, 1, 5}
	buf, err := MallocFrom(ctx, host)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Free()
	for i, v := range buf.Data() {
		if v != host[i] {
			t.Errorf("element %d = %d, want %d", i, v, host[i])
		}
	}
}
