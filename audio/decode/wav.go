package decode

import (
	"fmt"
	"io"

	"github.com/mjibson/go-dsp/wav"
)

// WAV decodes 8 and 16 bit PCM and 32 bit float wave files.
type WAV struct {
	w *wav.Wav
	// left counts down the header's sample count. go-dsp rounds that count
	// down to a multiple of 8, so the remainder is read one sample at a time
	// until the data chunk runs out.
	left int
	done bool
}

// NewWAV reads the header from r.
func NewWAV(r io.Reader) (*WAV, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, err
	}
	if w.NumChannels == 0 || w.SampleRate == 0 {
		return nil, fmt.Errorf("wav: %d channels at %d Hz", w.NumChannels, w.SampleRate)
	}
	return &WAV{w: w, left: w.Samples}, nil
}

func (d *WAV) Read(dst []int16) (int, error) {
	if d.done {
		return 0, io.EOF
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if d.left > 0 {
		n := len(dst)
		if n > d.left {
			n = d.left
		}
		data, err := d.w.ReadSamples(n)
		if err != nil {
			return 0, err
		}
		d.left -= n
		return n, convertSamples(dst, data)
	}

	var n int
	for n < len(dst) {
		data, err := d.w.ReadSamples(1)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			d.done = true
			break
		}
		if err != nil {
			return n, err
		}
		if err := convertSamples(dst[n:], data); err != nil {
			return n, err
		}
		n++
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func convertSamples(dst []int16, data interface{}) error {
	switch s := data.(type) {
	case []int16:
		copy(dst, s)
	case []uint8:
		for i, v := range s {
			dst[i] = int16(int(v)-128) << 8
		}
	case []float32:
		for i, v := range s {
			dst[i] = floatToInt16(v)
		}
	default:
		return fmt.Errorf("wav: unexpected sample type %T", data)
	}
	return nil
}

func (d *WAV) SampleRate() int { return int(d.w.SampleRate) }
func (d *WAV) Channels() int   { return int(d.w.NumChannels) }
func (d *WAV) Close() error    { return nil }

func floatToInt16(v float32) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	}
	return int16(v * 32767)
}
