package scope

import (
	"image"
	"image/color"
)

// Waveform draws the mono oscilloscope: a center line and the latest block
// as a connected polyline. Nothing carries over between frames; only the
// pixel buffer is reused.
type Waveform struct {
	img *image.RGBA
}

// Render draws samples across the whole width x height area and returns the
// image, which stays valid until the next call.
func (w *Waveform) Render(samples []int16, width, height int, axis, wave color.RGBA) *image.RGBA {
	if width <= 0 || height <= 0 {
		return nil
	}
	if w.img == nil || w.img.Rect.Dx() != width || w.img.Rect.Dy() != height {
		w.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	fill(w.img, color.RGBA{0, 0, 0, 255})

	midY := height / 2
	drawLine(w.img, 0, midY, width-1, midY, axis)

	n := len(samples)
	if n == 0 {
		return w.img
	}
	px, py := 0, 0
	for i, s := range samples {
		x := i * width / n
		y := midY - int(s)*height/65536
		if i == 0 {
			px, py = x, y
		}
		drawLine(w.img, px, py, x, y, wave)
		px, py = x, y
	}
	return w.img
}

// Release drops the pixel buffer.
func (w *Waveform) Release() {
	w.img = nil
}

func fill(img *image.RGBA, c color.RGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// drawLine is Bresenham between two inclusive endpoints. Points outside the
// image are skipped by SetRGBA.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
