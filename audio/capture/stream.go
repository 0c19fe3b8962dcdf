// Package capture reads interleaved 16-bit audio from a portaudio input
// device.
package capture

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"

	"github.com/peragwin/xyscope/audio"
)

// Config represents a config that is used to open a new Stream.
type Config struct {
	// Device is the input device name. Empty selects the default input.
	Device string
	// BlockSize is the number of frames per block.
	BlockSize int
	// Channels is the number of input channels.
	Channels int
	// SampleRate is the sample rate (Fs).
	SampleRate float64
}

// DefaultConfig is stereo at 44.1kHz in blocks of 512 frames.
func DefaultConfig() Config {
	return Config{BlockSize: 512, Channels: 2, SampleRate: 44100}
}

// withDefaults fills the unset fields of c from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BlockSize <= 0 {
		c.BlockSize = d.BlockSize
	}
	if c.Channels <= 0 {
		c.Channels = d.Channels
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	return c
}

func openStream(cfg *Config, in []int16) (*portaudio.Stream, error) {
	if cfg.Device == "" {
		return portaudio.OpenDefaultStream(cfg.Channels, 0, cfg.SampleRate, cfg.BlockSize, in)
	}
	dev, err := findDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	return portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.BlockSize,
	}, in)
}

// NewSource opens the configured input and returns a channel of blocks. Each
// block owns its samples. If the consumer falls behind, blocks are dropped
// rather than stalling the device. Unset fields of cfg, or a nil cfg, take
// their values from DefaultConfig.
func NewSource(ctx context.Context, cfg *Config) (<-chan *audio.Block, <-chan error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c = c.withDefaults()
	cfg = &c

	out := make(chan *audio.Block, 16)
	errc := make(chan error, 1)
	done := ctx.Done()

	go func() {
		defer close(out)

		if err := portaudio.Initialize(); err != nil {
			errc <- fmt.Errorf("initializing portaudio: %w", err)
			return
		}
		defer portaudio.Terminate()

		in := make([]int16, cfg.BlockSize*cfg.Channels)
		stream, err := openStream(cfg, in)
		if err != nil {
			errc <- fmt.Errorf("opening stream: %w", err)
			return
		}
		defer stream.Close()
		if err := stream.Start(); err != nil {
			errc <- fmt.Errorf("starting stream: %w", err)
			return
		}
		rate := int(stream.Info().SampleRate)
		glog.Infof("capturing %d channels at %d Hz", cfg.Channels, rate)

		for {
			select {
			case <-done:
				return
			default:
			}

			if err := stream.Read(); err != nil {
				if err == portaudio.InputOverflowed {
					glog.Warning("input overflowed")
					continue
				}
				errc <- fmt.Errorf("reading from stream: %w", err)
				return
			}

			b := &audio.Block{
				Samples:       append([]int16(nil), in...),
				Frames:        cfg.BlockSize,
				BitsPerSample: 16,
				Channels:      cfg.Channels,
				SampleRate:    rate,
			}
			select {
			case out <- b:
			case <-done:
				return
			default:
				glog.Warning("input buffer overrun, block dropped")
			}
		}
	}()

	return out, errc
}
