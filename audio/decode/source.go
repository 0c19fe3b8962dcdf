package decode

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/xyscope/audio"
)

// SourceConfig controls how files are turned into blocks.
type SourceConfig struct {
	// BlockSize is the number of frames per block.
	BlockSize int `yaml:"block_size"`
	// Paced emits blocks in real time. Leave it off when the consumer is
	// paced by something else, such as playback.
	Paced bool `yaml:"paced"`
	// Loop starts over after the last file.
	Loop bool `yaml:"loop"`
}

// Blocks reads s to the end and sends it to out one block at a time.
func Blocks(ctx context.Context, s Stream, cfg SourceConfig, out chan<- *audio.Block) error {
	ch, rate := s.Channels(), s.SampleRate()
	if ch < 1 || rate < 1 || cfg.BlockSize < 1 {
		return fmt.Errorf("cannot stream %d channels at %d Hz in blocks of %d", ch, rate, cfg.BlockSize)
	}

	var tick <-chan time.Time
	if cfg.Paced {
		t := time.NewTicker(time.Duration(cfg.BlockSize) * time.Second / time.Duration(rate))
		defer t.Stop()
		tick = t.C
	}

	for {
		buf := make([]int16, cfg.BlockSize*ch)
		n, err := readFull(s, buf)
		n -= n % ch
		if n > 0 {
			if tick != nil {
				select {
				case <-tick:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			b := &audio.Block{
				Samples:       buf[:n],
				Frames:        n / ch,
				BitsPerSample: 16,
				Channels:      ch,
				SampleRate:    rate,
			}
			select {
			case out <- b:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readFull reads until buf is full or the stream fails. Decoders may come up
// short on a read, and a block must not end in the middle of a frame.
func readFull(s Stream, buf []int16) (int, error) {
	var n int
	for n < len(buf) {
		m, err := s.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}

// NewSource plays the files in order and returns a channel of blocks. The
// channel is closed after the last file or when ctx is done.
func NewSource(ctx context.Context, paths []string, cfg SourceConfig) (<-chan *audio.Block, <-chan error) {
	out := make(chan *audio.Block, 4)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		for {
			for _, p := range paths {
				if err := playFile(ctx, p, cfg, out); err != nil {
					if ctx.Err() == nil {
						errc <- err
					}
					return
				}
				glog.V(1).Infof("finished %s", p)
			}
			if !cfg.Loop || len(paths) == 0 {
				return
			}
		}
	}()

	return out, errc
}

func playFile(ctx context.Context, path string, cfg SourceConfig, out chan<- *audio.Block) error {
	s, err := Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := Blocks(ctx, s, cfg, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
