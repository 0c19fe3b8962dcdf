package scope

import (
	"fmt"
	"image/color"

	"github.com/peragwin/xyscope/audio/util"
)

// Parameters is a set of parameters that control the visualization.
type Parameters struct {
	// DurationMs is how much audio the X-Y ring buffer holds.
	DurationMs int `json:"durationMs" yaml:"duration_ms"`
	// Fade is the alpha of the black layer laid over the trail each paint.
	// 128 keeps roughly half of the previous image.
	Fade       int    `json:"fade" yaml:"fade"`
	TraceColor string `json:"traceColor" yaml:"trace_color"`
	WaveColor  string `json:"waveColor" yaml:"wave_color"`
	AxisColor  string `json:"axisColor" yaml:"axis_color"`
	Graticule  bool   `json:"graticule" yaml:"graticule"`

	// Debug logs every audio block and outlines the plotting square.
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultParameters returns the stock look: 31ms of audio, green phosphor.
func DefaultParameters() *Parameters {
	return &Parameters{
		DurationMs: 31,
		Fade:       128,
		TraceColor: "#7cfc03",
		WaveColor:  "#a0ffa0",
		AxisColor:  "#284028",
	}
}

type palette struct {
	trace color.RGBA
	wave  color.RGBA
	axis  color.RGBA
}

// Validate checks ranges and colors.
func (p *Parameters) Validate() error {
	_, err := p.palette()
	return err
}

func (p *Parameters) palette() (palette, error) {
	var pal palette
	if p.DurationMs < 1 || p.DurationMs > 1000 {
		return pal, fmt.Errorf("durationMs out of range [1, 1000]: %d", p.DurationMs)
	}
	if p.Fade < 0 || p.Fade > 255 {
		return pal, fmt.Errorf("fade out of range [0, 255]: %d", p.Fade)
	}
	var err error
	if pal.trace, err = util.ParseColor(p.TraceColor); err != nil {
		return pal, fmt.Errorf("traceColor: %w", err)
	}
	if pal.wave, err = util.ParseColor(p.WaveColor); err != nil {
		return pal, fmt.Errorf("waveColor: %w", err)
	}
	if pal.axis, err = util.ParseColor(p.AxisColor); err != nil {
		return pal, fmt.Errorf("axisColor: %w", err)
	}
	return pal, nil
}
