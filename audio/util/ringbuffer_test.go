package util

import "testing"

func TestRingBuffer(t *testing.T) {
	rb := NewSampleRingBuffer(4)
	for i := 1; i <= 6; i++ {
		rb.Write(Frame{int16(i), int16(-i)})
	}

	g := rb.Snapshot()
	exp := []Frame{{5, -5}, {6, -6}, {3, -3}, {4, -4}}
	for i := range g {
		if g[i] != exp[i] {
			t.Fatal(exp, g)
		}
	}
	if rb.Cursor() != 2 {
		t.Fatal("expected cursor 2, got", rb.Cursor())
	}
}

func TestRingBufferCursor(t *testing.T) {
	for _, c := range []int{1, 3, 7, 1367} {
		rb := NewSampleRingBuffer(c)
		for n := 1; n <= 3*c+2; n++ {
			rb.Write(Frame{1, 1})
			if rb.Cursor() != n%c {
				t.Fatalf("capacity %d: after %d writes cursor = %d, want %d", c, n, rb.Cursor(), n%c)
			}
			if len(rb.Snapshot()) != c {
				t.Fatalf("capacity %d: snapshot grew to %d", c, len(rb.Snapshot()))
			}
		}
	}
}

func TestRingBufferReconfigure(t *testing.T) {
	rb := NewSampleRingBuffer(8)
	for i := 0; i < 5; i++ {
		rb.Write(Frame{100, 200})
	}

	if rb.Reconfigure(8) {
		t.Fatal("same capacity should not reallocate")
	}
	if rb.Cursor() != 5 || rb.Snapshot()[0] != (Frame{100, 200}) {
		t.Fatal("same capacity reconfigure lost contents")
	}

	if !rb.Reconfigure(12) {
		t.Fatal("new capacity should reallocate")
	}
	if rb.Cap() != 12 || rb.Cursor() != 0 {
		t.Fatal("unexpected state after reconfigure", rb.Cap(), rb.Cursor())
	}
	for i, f := range rb.Snapshot() {
		if f != (Frame{}) {
			t.Fatalf("frame %d not zero after reconfigure: %v", i, f)
		}
	}

	rb.Write(Frame{1, 2})
	rb.Reconfigure(3)
	for i, f := range rb.Snapshot() {
		if f != (Frame{}) {
			t.Fatalf("frame %d not zero after shrink: %v", i, f)
		}
	}
}

func TestRingBufferZeroCapacity(t *testing.T) {
	rb := NewSampleRingBuffer(0)
	rb.Write(Frame{1, 1})
	rb.WriteFrames([]Frame{{2, 2}, {3, 3}})
	if rb.Cursor() != 0 || rb.Cap() != 0 || len(rb.Snapshot()) != 0 {
		t.Fatal("zero capacity buffer changed state")
	}

	rb = NewSampleRingBuffer(-3)
	if rb.Cap() != 0 {
		t.Fatal("negative capacity should clamp to 0")
	}
}

func TestCapacityFor(t *testing.T) {
	cases := []struct {
		rate, ms, exp int
	}{
		{44100, 31, 1367},
		{48000, 31, 1488},
		{22050, 31, 684},
		{8000, 31, 248},
		{192000, 31, 5952},
		{0, 31, 0},
		{44100, 0, 0},
	}
	for _, c := range cases {
		if got := CapacityFor(c.rate, c.ms); got != c.exp {
			t.Errorf("CapacityFor(%d, %d) = %d, want %d", c.rate, c.ms, got, c.exp)
		}
	}
}
