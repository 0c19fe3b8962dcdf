package skgrid

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Mirror keeps a downsampled copy of the rendered frames for a Grid. The
// grid can be replaced, e.g. after a reconnect, without losing captures.
type Mirror struct {
	mu    sync.Mutex
	frame *image.RGBA
	fresh bool
}

// NewMirror creates a mirror with the resolution of r.
func NewMirror(r image.Rectangle) *Mirror {
	return &Mirror{frame: image.NewRGBA(r)}
}

// Capture downsamples img into the mirror. img is not retained.
func (m *Mirror) Capture(img *image.RGBA) {
	if img == nil {
		return
	}
	m.mu.Lock()
	Downsample(m.frame, img)
	m.fresh = true
	m.mu.Unlock()
}

// Run pushes captured frames to g at up to frameRate frames per second
// until ctx is done or g fails. g is closed on return.
func (m *Mirror) Run(ctx context.Context, g Grid, frameRate int) error {
	defer g.Close()

	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := m.show(g); err != nil {
			return err
		}
	}
}

func (m *Mirror) show(g Grid) error {
	m.mu.Lock()
	if !m.fresh {
		m.mu.Unlock()
		return nil
	}
	m.fresh = false
	r := m.frame.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.Pixel(x, y, m.frame.RGBAAt(x, y))
		}
	}
	m.mu.Unlock()
	if err := g.Show(); err != nil {
		return err
	}
	glog.V(3).Info("grid frame sent")
	return nil
}

// Downsample reduces src into dst keeping the brightest value of each
// channel per cell, so thin traces survive.
func Downsample(dst, src *image.RGBA) {
	dr, sr := dst.Rect, src.Rect
	dw, dh := dr.Dx(), dr.Dy()
	sw, sh := sr.Dx(), sr.Dy()
	if dw == 0 || dh == 0 {
		return
	}
	for j := 0; j < dh; j++ {
		y0, y1 := j*sh/dh, (j+1)*sh/dh
		if y1 == y0 {
			y1 = y0 + 1
		}
		for i := 0; i < dw; i++ {
			x0, x1 := i*sw/dw, (i+1)*sw/dw
			if x1 == x0 {
				x1 = x0 + 1
			}
			var c color.RGBA
			for y := y0; y < y1 && y < sh; y++ {
				for x := x0; x < x1 && x < sw; x++ {
					p := src.RGBAAt(sr.Min.X+x, sr.Min.Y+y)
					c.R = max(c.R, p.R)
					c.G = max(c.G, p.G)
					c.B = max(c.B, p.B)
					c.A = max(c.A, p.A)
				}
			}
			dst.SetRGBA(dr.Min.X+i, dr.Min.Y+j, c)
		}
	}
}
