// Package scope renders audio as an X-Y phosphor oscilloscope or as a mono
// waveform.
package scope

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/glog"

	"github.com/peragwin/xyscope/audio"
	"github.com/peragwin/xyscope/audio/util"
)

// Running modes
const (
	XYMode Mode = iota
	WaveformMode
)

// Mode selects what a paint draws.
type Mode int

func (m Mode) String() string {
	switch m {
	case XYMode:
		return "xy"
	case WaveformMode:
		return "waveform"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// maxPixels bounds the images a paint will allocate.
const maxPixels = 1 << 26

// ErrSurfaceTooLarge is returned by Paint for an area it refuses to allocate.
// Nothing is kept, so the next paint simply tries again.
var ErrSurfaceTooLarge = errors.New("paint area too large")

// Scope is the visualizer state: the sample ring buffer, the trail image and
// the display mode. It is owned by a single goroutine; see Host.
type Scope struct {
	params  Parameters
	palette palette
	surface Surface

	mode       Mode
	channels   int
	sampleRate int

	ring   *util.SampleRingBuffer
	frames []util.Frame
	mono   []int16

	trail *Trail
	wave  *Waveform

	blocks  uint64
	paints  uint64
	lastGeo Geometry
	closed  bool
}

// New creates a scope for the given host. A host without a surface is a
// configuration error and nothing is started. A nil params uses
// DefaultParameters.
func New(host Host, params *Parameters) (*Scope, error) {
	if host == nil {
		return nil, fmt.Errorf("xyscope needs a host that can embed a view: %w", ErrUnsupported)
	}
	if params == nil {
		params = DefaultParameters()
	}
	pal, err := params.palette()
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	surface, err := host.Surface()
	if err != nil {
		return nil, fmt.Errorf("xyscope needs a host that can embed a view: %w", err)
	}
	return &Scope{
		params:     *params,
		palette:    pal,
		surface:    surface,
		mode:       XYMode,
		channels:   2,
		sampleRate: referenceRate,
		ring:       util.NewSampleRingBuffer(util.CapacityFor(referenceRate, params.DurationMs)),
		trail:      NewTrail(),
		wave:       new(Waveform),
	}, nil
}

// ProcessBlock takes one host audio callback. In X-Y mode the frames go into
// the ring buffer; in waveform mode the block is downmixed and kept as the
// window for the next paint. The audio itself is never modified and the
// frame count is always returned.
func (s *Scope) ProcessBlock(samples []int16, frames, bitsPerSample, channels, sampleRate int) int {
	if s.closed {
		return frames
	}
	if sampleRate > 0 && sampleRate != s.sampleRate {
		s.sampleRate = sampleRate
		if s.ring.Reconfigure(util.CapacityFor(sampleRate, s.params.DurationMs)) {
			glog.V(1).Infof("sample rate %d: ring buffer holds %d frames", sampleRate, s.ring.Cap())
		}
	}
	if channels >= 1 && channels != s.channels {
		glog.V(1).Infof("channels %d -> %d", s.channels, channels)
		s.channels = channels
	}
	if channels < 1 || frames <= 0 {
		return frames
	}
	if s.params.Debug || bool(glog.V(3)) {
		glog.Infof("block: frames=%d bps=%d nch=%d srate=%d mode=%s",
			frames, bitsPerSample, channels, sampleRate, s.mode)
	}

	switch s.mode {
	case WaveformMode:
		s.mono = audio.DownmixToMono(samples, frames, channels, s.mono)
	default:
		s.frames = audio.Frames(samples, frames, channels, s.frames)
		s.ring.WriteFrames(s.frames)
	}
	s.blocks++
	s.surface.Invalidate()
	return frames
}

// Paint renders the current state into a width x height image. The image is
// reused and stays valid until the next Paint. An empty area paints nothing
// and returns a nil image.
func (s *Scope) Paint(width, height int) (*image.RGBA, error) {
	if s.closed || width <= 0 || height <= 0 {
		return nil, nil
	}
	if width*height > maxPixels {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrSurfaceTooLarge)
	}
	g := NewGeometry(width, height)
	s.lastGeo = g
	s.paints++

	if s.mode == WaveformMode {
		return s.wave.Render(s.mono, width, height, s.palette.axis, s.palette.wave), nil
	}

	if s.trail.Resize(width, height) {
		glog.V(2).Infof("trail resized to %dx%d", width, height)
	}
	s.trail.Fade(uint8(s.params.Fade))
	alpha := PointAlpha(BrightnessScale(s.sampleRate), g.Size)
	s.trail.Plot(s.ring.Snapshot(), s.channels == 1, g, s.palette.trace, alpha)
	img := s.trail.Present(g, s.params.Graticule, s.palette.axis)
	if s.params.Debug {
		outline(img, g, s.palette.axis)
	}
	return img, nil
}

// ToggleMode flips between X-Y and waveform mode and returns the new mode.
// The ring buffer and the trail are left as they are.
func (s *Scope) ToggleMode() Mode {
	if s.mode == XYMode {
		s.mode = WaveformMode
	} else {
		s.mode = XYMode
	}
	glog.V(1).Infof("mode: %s", s.mode)
	if !s.closed {
		s.surface.Invalidate()
	}
	return s.mode
}

// Configure asks the host to present the view.
func (s *Scope) Configure() error {
	if s.closed {
		return nil
	}
	return s.surface.Show()
}

// Shutdown releases the images and the ring buffer and closes the surface.
// Every later call is a no-op.
func (s *Scope) Shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	s.trail.Release()
	s.wave.Release()
	s.ring = util.NewSampleRingBuffer(0)
	s.frames, s.mono = nil, nil
	if err := s.surface.Close(); err != nil {
		glog.Warningf("closing surface: %v", err)
	}
}

// Parameters returns a copy of the current parameters.
func (s *Scope) Parameters() Parameters {
	return s.params
}

// SetParameters validates and applies p. A new duration resizes the ring
// buffer right away. On error the current parameters are kept.
func (s *Scope) SetParameters(p Parameters) error {
	pal, err := p.palette()
	if err != nil {
		return err
	}
	resize := p.DurationMs != s.params.DurationMs
	s.params = p
	s.palette = pal
	if s.closed {
		return nil
	}
	if resize {
		s.ring.Reconfigure(util.CapacityFor(s.sampleRate, p.DurationMs))
	}
	s.surface.Invalidate()
	return nil
}

// Mode is the current display mode.
func (s *Scope) Mode() Mode { return s.mode }

// SampleRate is the last sample rate the host reported.
func (s *Scope) SampleRate() int { return s.sampleRate }

// Channels is the last channel count the host reported.
func (s *Scope) Channels() int { return s.channels }

// Ring exposes the sample ring buffer for inspection.
func (s *Scope) Ring() *util.SampleRingBuffer { return s.ring }

// Trail exposes the X-Y trail.
func (s *Scope) Trail() *Trail { return s.trail }

// Stats is a snapshot of the scope for status reporting.
type Stats struct {
	Mode            string  `json:"mode"`
	SampleRate      int     `json:"sampleRate"`
	Channels        int     `json:"channels"`
	Capacity        int     `json:"capacity"`
	BrightnessScale float32 `json:"brightnessScale"`
	PointAlpha      float32 `json:"pointAlpha"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Blocks          uint64  `json:"blocks"`
	Paints          uint64  `json:"paints"`
}

// Stats returns the current Stats.
func (s *Scope) Stats() Stats {
	bs := BrightnessScale(s.sampleRate)
	st := Stats{
		Mode:            s.mode.String(),
		SampleRate:      s.sampleRate,
		Channels:        s.channels,
		Capacity:        s.ring.Cap(),
		BrightnessScale: bs,
		Width:           s.lastGeo.Width,
		Height:          s.lastGeo.Height,
		Blocks:          s.blocks,
		Paints:          s.paints,
	}
	if !s.lastGeo.Empty() {
		st.PointAlpha = PointAlpha(bs, s.lastGeo.Size)
	}
	return st
}
