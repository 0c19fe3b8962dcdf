// Package output plays blocks through the default sound device so the
// audio being drawn can also be heard.
package output

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/golang/glog"

	"github.com/peragwin/xyscope/audio"
)

// Playback feeds a single oto player through a pipe. oto allows one context
// per process, so the device format is fixed by the first block and later
// blocks are converted to it.
type Playback struct {
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	pr     *io.PipeReader

	rate int
	buf  []byte
	conv []int16
}

// NewPlayback opens the device for stereo 16-bit output at sampleRate.
func NewPlayback(sampleRate int) (*Playback, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("creating oto context: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	p := &Playback{ctx: ctx, pr: pr, pw: pw, rate: sampleRate}
	p.player = ctx.NewPlayer(pr)
	p.player.Play()
	glog.Infof("playback at %d Hz", sampleRate)
	return p, nil
}

// Write blocks until the device has taken the block, which paces the caller
// in real time.
func (p *Playback) Write(b *audio.Block) error {
	if !b.Valid() || b.Frames == 0 {
		return nil
	}
	p.conv = Convert(b, p.rate, p.conv)
	if cap(p.buf) < 2*len(p.conv) {
		p.buf = make([]byte, 2*len(p.conv))
	}
	buf := p.buf[:2*len(p.conv)]
	for i, s := range p.conv {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	if _, err := p.pw.Write(buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close stops the player and releases the pipe.
func (p *Playback) Close() error {
	p.pw.Close()
	err := p.player.Close()
	p.pr.Close()
	if serr := p.ctx.Suspend(); err == nil {
		err = serr
	}
	return err
}

// Convert maps a block of any layout and rate to interleaved stereo at rate,
// picking the nearest source frame. dst is reused when large enough.
func Convert(b *audio.Block, rate int, dst []int16) []int16 {
	frames := b.Frames
	if b.SampleRate != rate && b.SampleRate > 0 {
		frames = int(int64(b.Frames) * int64(rate) / int64(b.SampleRate))
	}
	if cap(dst) < 2*frames {
		dst = make([]int16, 2*frames)
	}
	dst = dst[:2*frames]
	for i := 0; i < frames; i++ {
		j := i
		if frames != b.Frames {
			j = int(int64(i) * int64(b.SampleRate) / int64(rate))
		}
		l := b.Samples[j*b.Channels]
		r := l
		if b.Channels > 1 {
			r = b.Samples[j*b.Channels+1]
		}
		dst[2*i], dst[2*i+1] = l, r
	}
	return dst
}
