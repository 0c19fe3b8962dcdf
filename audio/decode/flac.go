package decode

import (
	"io"

	"github.com/mewkiz/flac"
)

// FLAC decodes a FLAC stream frame by frame, scaling every depth to 16 bits.
type FLAC struct {
	s       *flac.Stream
	buf     []int16
	pending []int16
}

// NewFLAC parses the stream info from r.
func NewFLAC(r io.Reader) (*FLAC, error) {
	s, err := flac.New(r)
	if err != nil {
		return nil, err
	}
	return &FLAC{s: s}, nil
}

func (d *FLAC) Read(dst []int16) (int, error) {
	n := 0
	for n < len(dst) {
		if len(d.pending) == 0 {
			if err := d.next(); err != nil {
				if n > 0 && err == io.EOF {
					return n, nil
				}
				return n, err
			}
		}
		c := copy(dst[n:], d.pending)
		d.pending = d.pending[c:]
		n += c
	}
	return n, nil
}

// next decodes one frame into pending.
func (d *FLAC) next() error {
	frame, err := d.s.ParseNext()
	if err != nil {
		return err
	}
	nch := len(frame.Subframes)
	bs := int(frame.BlockSize)
	shift := int(d.s.Info.BitsPerSample) - 16

	out := d.buf[:0]
	if cap(out) < bs*nch {
		out = make([]int16, 0, bs*nch)
	}
	for i := 0; i < bs; i++ {
		for ch := 0; ch < nch; ch++ {
			v := frame.Subframes[ch].Samples[i]
			if shift > 0 {
				v >>= uint(shift)
			} else if shift < 0 {
				v <<= uint(-shift)
			}
			out = append(out, int16(v))
		}
	}
	d.buf, d.pending = out, out
	return nil
}

func (d *FLAC) SampleRate() int { return int(d.s.Info.SampleRate) }
func (d *FLAC) Channels() int   { return int(d.s.Info.NChannels) }
func (d *FLAC) Close() error    { return nil }
