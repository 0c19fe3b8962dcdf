package audio

import "github.com/peragwin/xyscope/audio/util"

// Block is one audio callback worth of interleaved 16-bit PCM.
type Block struct {
	Samples       []int16
	Frames        int
	BitsPerSample int
	Channels      int
	SampleRate    int
}

// Valid reports whether the block holds at least Frames*Channels samples.
func (b *Block) Valid() bool {
	return b != nil && b.Frames >= 0 && b.Channels >= 1 && len(b.Samples) >= b.Frames*b.Channels
}

// DownmixToMono averages the first two channels of each interleaved frame,
// truncating toward zero. Mono input is copied through unchanged. The result
// reuses dst when it is large enough.
func DownmixToMono(samples []int16, frames, channels int, dst []int16) []int16 {
	frames = clampFrames(samples, frames, channels)
	if cap(dst) < frames {
		dst = make([]int16, frames)
	}
	dst = dst[:frames]
	if channels == 1 {
		copy(dst, samples[:frames])
		return dst
	}
	for i := range dst {
		l := int32(samples[i*channels])
		r := int32(samples[i*channels+1])
		dst[i] = int16((l + r) / 2)
	}
	return dst
}

// Frames splits interleaved samples into left/right pairs. Mono input fills
// both sides with the same sample; beyond two channels only the first two are
// kept.
func Frames(samples []int16, frames, channels int, dst []util.Frame) []util.Frame {
	frames = clampFrames(samples, frames, channels)
	if cap(dst) < frames {
		dst = make([]util.Frame, frames)
	}
	dst = dst[:frames]
	for i := range dst {
		if channels == 1 {
			dst[i] = util.Frame{L: samples[i], R: samples[i]}
		} else {
			dst[i] = util.Frame{L: samples[i*channels], R: samples[i*channels+1]}
		}
	}
	return dst
}

// clampFrames limits frames to what samples can actually hold so a short
// buffer from the host never causes an out of range read.
func clampFrames(samples []int16, frames, channels int) int {
	if channels < 1 || frames < 0 {
		return 0
	}
	if n := len(samples) / channels; frames > n {
		return n
	}
	return frames
}
