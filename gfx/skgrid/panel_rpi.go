//go:build rpi

package skgrid

import (
	"image"
	"image/color"

	rgbmatrix "github.com/peragwin/go-rpi-rgb-led-matrix"
)

func init() {
	drivers["panel"] = newPanel
}

type panel struct {
	m         rgbmatrix.Matrix
	c         *rgbmatrix.Canvas
	w         int
	h         int
	transpose bool
}

// newPanel drives an rgb matrix wired to the Pi's GPIO.
func newPanel(w, h int, opts Options) (Grid, error) {
	cfg := &rgbmatrix.HardwareConfig{
		Rows:              h,
		Cols:              w,
		ChainLength:       1,
		Parallel:          1,
		PWMBits:           11,
		Brightness:        100,
		PWMLSBNanoseconds: 50,
		ScanMode:          rgbmatrix.Progressive,
		PanelType:         opts.PanelType,
	}
	m, err := rgbmatrix.NewRGBLedMatrix(cfg)
	if err != nil {
		return nil, err
	}
	return &panel{m: m, c: rgbmatrix.NewCanvas(m), w: w, h: h, transpose: opts.Transpose}, nil
}

func (p *panel) Rect() image.Rectangle {
	if p.transpose {
		return image.Rect(0, 0, p.h, p.w)
	}
	return image.Rect(0, 0, p.w, p.h)
}

func (p *panel) Pixel(x, y int, col color.RGBA) {
	if p.transpose {
		x, y = y, x
	}
	p.c.Set(x, y, col)
}

func (p *panel) Show() error {
	return p.m.Render()
}

func (p *panel) Close() error {
	return p.c.Close()
}
