package decode

import (
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes MPEG layer 3. The decoder always produces stereo.
type MP3 struct {
	d   *mp3.Decoder
	buf []byte
}

// NewMP3 reads the first frame from r.
func NewMP3(r io.Reader) (*MP3, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &MP3{d: d}, nil
}

func (d *MP3) Read(dst []int16) (int, error) {
	if cap(d.buf) < 2*len(dst) {
		d.buf = make([]byte, 2*len(dst))
	}
	buf := d.buf[:2*len(dst)]
	n, err := io.ReadFull(d.d, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	// whole samples only
	n /= 2
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

func (d *MP3) SampleRate() int { return d.d.SampleRate() }
func (d *MP3) Channels() int   { return 2 }
func (d *MP3) Close() error    { return nil }
