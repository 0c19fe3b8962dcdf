package util

import "math"

// Frame is one instant of audio: a left/right pair of 16-bit samples. Mono
// input stores the same sample in both fields.
type Frame struct {
	L int16
	R int16
}

// CapacityFor returns the number of frames that cover durationMs of audio at
// the given sample rate, rounded to the nearest frame.
func CapacityFor(sampleRate, durationMs int) int {
	if sampleRate <= 0 || durationMs <= 0 {
		return 0
	}
	return int(math.Round(float64(sampleRate) * float64(durationMs) / 1000))
}

// SampleRingBuffer is a fixed capacity circular store of frames. New frames
// overwrite the oldest ones.
//
// It does no locking. The owner must serialize writes and snapshots, which
// the host loop does by running both on the same goroutine.
type SampleRingBuffer struct {
	buf    []Frame
	cursor int
}

// NewSampleRingBuffer creates a new ring buffer holding capacity zero frames.
func NewSampleRingBuffer(capacity int) *SampleRingBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &SampleRingBuffer{buf: make([]Frame, capacity)}
}

// Reconfigure reallocates the buffer when capacity differs from the current
// one. Prior contents are discarded and the cursor goes back to 0. It reports
// whether a reallocation happened; an unchanged capacity keeps everything.
func (r *SampleRingBuffer) Reconfigure(capacity int) bool {
	if capacity < 0 {
		capacity = 0
	}
	if capacity == len(r.buf) {
		return false
	}
	r.buf = make([]Frame, capacity)
	r.cursor = 0
	return true
}

// Write stores f at the cursor and advances it. A zero capacity buffer
// ignores the write.
func (r *SampleRingBuffer) Write(f Frame) {
	if len(r.buf) == 0 {
		return
	}
	if r.cursor >= len(r.buf) {
		r.cursor = 0
	}
	r.buf[r.cursor] = f
	r.cursor = (r.cursor + 1) % len(r.buf)
}

// WriteFrames writes every frame in order.
func (r *SampleRingBuffer) WriteFrames(frames []Frame) {
	for _, f := range frames {
		r.Write(f)
	}
}

// Snapshot returns the whole buffer in physical order. The slice aliases the
// buffer and is only valid until the next Write or Reconfigure.
func (r *SampleRingBuffer) Snapshot() []Frame {
	return r.buf
}

// Cursor is the index of the next write.
func (r *SampleRingBuffer) Cursor() int {
	return r.cursor
}

// Cap is the capacity in frames.
func (r *SampleRingBuffer) Cap() int {
	return len(r.buf)
}
