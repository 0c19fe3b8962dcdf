package scope

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peragwin/xyscope/audio/util"
)

type fakeSurface struct {
	invalidated int
	shown       int
	closed      int
	showErr     error
}

func (f *fakeSurface) Invalidate()  { f.invalidated++ }
func (f *fakeSurface) Show() error  { f.shown++; return f.showErr }
func (f *fakeSurface) Close() error { f.closed++; return nil }

func newTestScope(t *testing.T) (*Scope, *fakeSurface) {
	t.Helper()
	surf := &fakeSurface{}
	s, err := New(SurfaceHost{surf}, nil)
	require.NoError(t, err)
	return s, surf
}

func stereoBlock(frames int, l, r int16) []int16 {
	samples := make([]int16, 2*frames)
	for i := 0; i < frames; i++ {
		samples[2*i] = l
		samples[2*i+1] = r
	}
	return samples
}

func TestNewRequiresSurface(t *testing.T) {
	_, err := New(SurfaceHost{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = New(nil, nil)
	assert.True(t, errors.Is(err, ErrUnsupported))

	bad := DefaultParameters()
	bad.TraceColor = "nope"
	_, err = New(SurfaceHost{&fakeSurface{}}, bad)
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	s, _ := newTestScope(t)
	assert.Equal(t, XYMode, s.Mode())
	assert.Equal(t, 44100, s.SampleRate())
	assert.Equal(t, 1367, s.Ring().Cap())
	assert.Equal(t, 0, s.Ring().Cursor())
}

func TestProcessBlockPassThrough(t *testing.T) {
	s, surf := newTestScope(t)
	samples := stereoBlock(576, 100, -100)
	orig := append([]int16(nil), samples...)

	n := s.ProcessBlock(samples, 576, 16, 2, 44100)
	assert.Equal(t, 576, n)
	assert.Equal(t, orig, samples, "audio must not be modified")
	assert.Equal(t, 576, s.Ring().Cursor())
	assert.Equal(t, util.Frame{L: 100, R: -100}, s.Ring().Snapshot()[0])
	assert.Equal(t, 1, surf.invalidated)
}

func TestProcessBlockSampleRateChange(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock(stereoBlock(100, 5, 5), 100, 16, 2, 44100)
	require.Equal(t, 100, s.Ring().Cursor())

	s.ProcessBlock(stereoBlock(10, 7, 7), 10, 16, 2, 48000)
	assert.Equal(t, 48000, s.SampleRate())
	assert.Equal(t, 1488, s.Ring().Cap())
	assert.Equal(t, 10, s.Ring().Cursor())
	for i, f := range s.Ring().Snapshot()[10:] {
		require.Equal(t, util.Frame{}, f, "frame %d carried over", i+10)
	}

	// same rate again keeps contents
	s.ProcessBlock(stereoBlock(5, 1, 1), 5, 16, 2, 48000)
	assert.Equal(t, 15, s.Ring().Cursor())
	assert.Equal(t, util.Frame{L: 7, R: 7}, s.Ring().Snapshot()[0])
}

func TestProcessBlockWraps(t *testing.T) {
	s, _ := newTestScope(t)
	total := 0
	for _, n := range []int{441, 576, 1024, 17, 2048} {
		s.ProcessBlock(stereoBlock(n, 1, 2), n, 16, 2, 44100)
		total += n
		require.Equal(t, total%1367, s.Ring().Cursor())
		require.Equal(t, 1367, len(s.Ring().Snapshot()))
	}
}

func TestProcessBlockMono(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock([]int16{300, -300}, 2, 16, 1, 44100)
	assert.Equal(t, 1, s.Channels())
	assert.Equal(t, util.Frame{L: 300, R: 300}, s.Ring().Snapshot()[0])
	assert.Equal(t, util.Frame{L: -300, R: -300}, s.Ring().Snapshot()[1])
}

func TestProcessBlockDegenerate(t *testing.T) {
	s, surf := newTestScope(t)
	assert.Equal(t, 4, s.ProcessBlock([]int16{1, 2}, 4, 16, 0, 44100))
	assert.Equal(t, 0, s.ProcessBlock(nil, 0, 16, 2, 44100))
	// short buffer from the host only yields whole frames
	assert.Equal(t, 8, s.ProcessBlock([]int16{1, 2, 3}, 8, 16, 2, 44100))
	assert.Equal(t, 1, s.Ring().Cursor())
	assert.Equal(t, 1, surf.invalidated)
}

func TestWaveformModeKeepsLastBlock(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock(stereoBlock(10, 1, 1), 10, 16, 2, 44100)
	require.Equal(t, WaveformMode, s.ToggleMode())

	s.ProcessBlock([]int16{100, 200, -100, 100, 0, 0}, 3, 16, 2, 44100)
	assert.Equal(t, []int16{150, 0, 0}, s.mono)
	assert.Equal(t, 10, s.Ring().Cursor(), "waveform mode does not feed the ring")

	s.ProcessBlock([]int16{9}, 1, 16, 1, 44100)
	assert.Equal(t, []int16{9}, s.mono, "window is the last block only")
}

func TestToggleModePreservesState(t *testing.T) {
	s, surf := newTestScope(t)
	s.ProcessBlock(stereoBlock(200, 1000, -1000), 200, 16, 2, 44100)
	img, err := s.Paint(200, 100)
	require.NoError(t, err)
	before := append([]uint8(nil), s.Trail().Image().Pix...)
	ringBefore := append([]util.Frame(nil), s.Ring().Snapshot()...)
	require.NotNil(t, img)

	assert.Equal(t, WaveformMode, s.ToggleMode())
	assert.Equal(t, XYMode, s.ToggleMode())

	assert.Equal(t, before, s.Trail().Image().Pix)
	assert.Equal(t, ringBefore, s.Ring().Snapshot())
	assert.Equal(t, 200, s.Ring().Cursor())
	assert.Equal(t, 3, surf.invalidated)
}

func TestPaintEmptyArea(t *testing.T) {
	s, _ := newTestScope(t)
	for _, sz := range [][2]int{{0, 100}, {100, 0}, {-1, 5}, {0, 0}} {
		img, err := s.Paint(sz[0], sz[1])
		assert.NoError(t, err)
		assert.Nil(t, img)
	}
	assert.Nil(t, s.Trail().Image())
}

func TestPaintTooLarge(t *testing.T) {
	s, _ := newTestScope(t)
	_, err := s.Paint(1<<14, 1<<14)
	assert.True(t, errors.Is(err, ErrSurfaceTooLarge))
	assert.Nil(t, s.Trail().Image(), "failed paint keeps nothing")

	img, err := s.Paint(64, 64)
	assert.NoError(t, err)
	assert.NotNil(t, img)
}

func TestPaintXY(t *testing.T) {
	s, _ := newTestScope(t)
	// 44100Hz in a 488 square: point alpha is 2, so each point adds (62,126,1.5)
	s.ProcessBlock(stereoBlock(1, 16384, -16384), 1, 16, 2, 44100)
	img, err := s.Paint(488, 488)
	require.NoError(t, err)
	require.NotNil(t, img)

	c := img.RGBAAt(366, 366)
	assert.Equal(t, uint8(62), c.R)
	assert.Equal(t, uint8(126), c.G)
	assert.Equal(t, uint8(1), c.B)
	assert.Equal(t, uint8(255), c.A)

	// the other 1366 zero frames of the ring also land in the center
	s2, _ := newTestScope(t)
	img, err = s2.Paint(488, 488)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(244, 244).G)
}

func TestPaintFadesTrail(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock(stereoBlock(1367, 16384, 16384), 1367, 16, 2, 44100)
	img, err := s.Paint(100, 100)
	require.NoError(t, err)
	x, y := MapPoint(util.Frame{L: 16384, R: 16384}, false, NewGeometry(100, 100))
	require.Equal(t, uint8(255), img.RGBAAt(x, y).G)

	// move the beam away; the old spot decays by about half per paint
	s.ProcessBlock(stereoBlock(1367, -16384, -16384), 1367, 16, 2, 44100)
	img, err = s.Paint(100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint8(127), img.RGBAAt(x, y).G)
	img, err = s.Paint(100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint8(63), img.RGBAAt(x, y).G)
}

func TestPaintResizeClears(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock(stereoBlock(1367, 8000, 8000), 1367, 16, 2, 44100)
	_, err := s.Paint(100, 100)
	require.NoError(t, err)

	// silence so the new paint only draws the center point
	s.ProcessBlock(stereoBlock(1367, 0, 0), 1367, 16, 2, 44100)
	img, err := s.Paint(120, 100)
	require.NoError(t, err)
	lit := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 120; x++ {
			if img.RGBAAt(x, y).G > 0 {
				lit++
			}
		}
	}
	assert.Equal(t, 1, lit, "resize must forget the old trail")
}

func TestPaintWaveform(t *testing.T) {
	s, _ := newTestScope(t)
	s.ToggleMode()
	s.ProcessBlock([]int16{0, 0, 0, 0}, 2, 16, 2, 44100)
	img, err := s.Paint(10, 10)
	require.NoError(t, err)
	wave := util.MustParseColor("#a0ffa0")
	axis := util.MustParseColor("#284028")
	assert.Equal(t, wave, img.RGBAAt(0, 5))
	assert.Equal(t, wave, img.RGBAAt(5, 5))
	assert.Equal(t, axis, img.RGBAAt(9, 5))
	assert.Nil(t, s.Trail().Image(), "waveform mode does not touch the trail")
}

func TestConfigureAndShutdown(t *testing.T) {
	s, surf := newTestScope(t)
	require.NoError(t, s.Configure())
	assert.Equal(t, 1, surf.shown)

	_, err := s.Paint(50, 50)
	require.NoError(t, err)
	s.Shutdown()
	s.Shutdown()
	assert.Equal(t, 1, surf.closed)
	assert.Nil(t, s.Trail().Image())
	assert.Equal(t, 0, s.Ring().Cap())

	assert.Equal(t, 64, s.ProcessBlock(stereoBlock(64, 1, 1), 64, 16, 2, 48000))
	img, err := s.Paint(50, 50)
	assert.NoError(t, err)
	assert.Nil(t, img)
	assert.NoError(t, s.Configure())
	assert.Equal(t, 1, surf.shown)
}

func TestSetParameters(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock(stereoBlock(10, 1, 1), 10, 16, 2, 48000)

	p := s.Parameters()
	p.DurationMs = 50
	require.NoError(t, s.SetParameters(p))
	assert.Equal(t, 2400, s.Ring().Cap())
	assert.Equal(t, 0, s.Ring().Cursor())

	p.Fade = 300
	assert.Error(t, s.SetParameters(p))
	assert.Equal(t, 128, s.Parameters().Fade)
	assert.Equal(t, 50, s.Parameters().DurationMs)
}

func TestSetParametersAfterShutdown(t *testing.T) {
	s, surf := newTestScope(t)
	s.Shutdown()
	before := surf.invalidated

	p := s.Parameters()
	p.DurationMs = 80
	require.NoError(t, s.SetParameters(p))
	assert.Equal(t, before, surf.invalidated)
	assert.Equal(t, 0, s.Ring().Cap())
}

func TestPaintDebugOutline(t *testing.T) {
	s, _ := newTestScope(t)
	axis := color.RGBA{40, 64, 40, 255}

	img, err := s.Paint(600, 400)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(100, 0))

	p := s.Parameters()
	p.Debug = true
	require.NoError(t, s.SetParameters(p))
	img, err = s.Paint(600, 400)
	require.NoError(t, err)
	// square is 400 wide starting at x=100
	assert.Equal(t, axis, img.RGBAAt(100, 0))
	assert.Equal(t, axis, img.RGBAAt(499, 399))
	assert.Equal(t, axis, img.RGBAAt(300, 399))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(99, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(500, 200))
	// only the presented copy is outlined
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, s.Trail().Image().RGBAAt(100, 0))
}

func TestStats(t *testing.T) {
	s, _ := newTestScope(t)
	s.ProcessBlock(stereoBlock(10, 1, 1), 10, 16, 2, 176400)
	_, err := s.Paint(488, 600)
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, "xy", st.Mode)
	assert.Equal(t, 176400, st.SampleRate)
	assert.Equal(t, 5468, st.Capacity)
	assert.InDelta(t, 16, st.BrightnessScale, 1e-4)
	assert.InDelta(t, 27.595, st.PointAlpha, 1e-2)
	assert.Equal(t, uint64(1), st.Blocks)
	assert.Equal(t, uint64(1), st.Paints)
	assert.Equal(t, 488, st.Width)
}
