// Package skgrid mirrors the scope onto LED grids: strings of APA102 style
// pixels behind a TCP controller, or an rgb matrix panel on a Raspberry Pi.
package skgrid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Driver moves a finished frame buffer to the hardware.
type Driver interface {
	Send([]byte) error
	Close() error
}

// Grid is a low resolution display.
type Grid interface {
	Rect() image.Rectangle
	Pixel(x, y int, col color.RGBA)
	Show() error
	Close() error
}

// Options configures a grid. Drivers ignore the fields they do not use.
type Options struct {
	// Driver carries frames for grids behind a controller, e.g. a *Remote.
	Driver Driver
	// Transpose swaps the logical axes.
	Transpose bool
	// PanelType is handed to the rgb matrix hardware config.
	PanelType string
}

type initFunc func(width, height int, opts Options) (Grid, error)

var drivers = map[string]initFunc{
	"skgrid": newSkGrid,
}

// NewGrid creates a grid of width x height pixels using the named driver.
func NewGrid(width, height int, driver string, opts Options) (Grid, error) {
	init, ok := drivers[driver]
	if !ok {
		return nil, fmt.Errorf("unknown grid driver: %q", driver)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid size %dx%d is empty", width, height)
	}
	return init(width, height, opts)
}

// Open creates a grid with the named driver; an empty name means "skgrid".
// An skgrid without opts.Driver is reached over TCP at remote.
func Open(width, height int, driver, remote string, opts Options) (Grid, error) {
	if driver == "" {
		driver = "skgrid"
	}
	if driver != "skgrid" || opts.Driver != nil {
		return NewGrid(width, height, driver, opts)
	}
	if remote == "" {
		return nil, errors.New("skgrid needs a remote address")
	}
	rem, err := NewRemote(remote)
	if err != nil {
		return nil, err
	}
	opts.Driver = rem
	g, err := NewGrid(width, height, driver, opts)
	if err != nil {
		rem.Close()
		return nil, err
	}
	return g, nil
}

// skGrid is width strips of height pixels each, wired as a snake: every odd
// strip runs backwards.
type skGrid struct {
	width     int
	height    int
	frame     []byte
	out       Driver
	transpose bool
}

func newSkGrid(width, height int, opts Options) (Grid, error) {
	if opts.Driver == nil {
		return nil, errors.New("skgrid needs a driver")
	}
	// start word, one word per pixel, then enough end bits to clock the
	// last pixel through
	n := width * height
	frame := make([]byte, 4*(n+1)+6+n/16)
	frame[4*(n+1)] = 0xff
	return &skGrid{
		width:     width,
		height:    height,
		frame:     frame,
		out:       opts.Driver,
		transpose: opts.Transpose,
	}, nil
}

func (s *skGrid) Rect() image.Rectangle {
	if s.transpose {
		return image.Rect(0, 0, s.height, s.width)
	}
	return image.Rect(0, 0, s.width, s.height)
}

func (s *skGrid) put(idx int, col color.RGBA) {
	w := s.frame[4*idx+4 : 4*idx+8]
	w[0], w[1], w[2], w[3] = 0xe0|col.A, col.B, col.G, col.R
}

func (s *skGrid) Pixel(x, y int, col color.RGBA) {
	if s.transpose {
		x, y = y, x
	}
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	// the green and blue dies are brighter than red
	col.G /= 2
	col.B /= 2
	// 5 bit global brightness
	col.A = uint8(float64(col.A)/8 + 0.5)
	if col.A > 31 {
		col.A = 31
	}

	if x%2 == 1 {
		y = s.height - 1 - y
	}
	s.put(s.height*x+y, col)
}

func (s *skGrid) Show() error {
	return s.out.Send(s.frame)
}

func (s *skGrid) Close() error {
	return s.out.Close()
}
