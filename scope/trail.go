package scope

import (
	"image"
	"image/color"

	"github.com/phrozen/blend"

	"github.com/peragwin/xyscope/audio/util"
)

// Trail is the persistent phosphor image of the X-Y mode. Every paint fades
// what is already there and adds the new points on top; the only full clear
// happens when the output size changes.
type Trail struct {
	persistent *image.RGBA
	back       *image.RGBA
	graticule  *image.RGBA
	gratAxis   color.RGBA
}

// NewTrail returns an empty trail; images are created on the first Resize.
func NewTrail() *Trail {
	return &Trail{}
}

// Resize recreates the images filled with black when the size differs from
// the current one, forgetting all trail history. It reports whether that
// happened.
func (t *Trail) Resize(width, height int) bool {
	if t.persistent != nil {
		sz := t.persistent.Rect.Size()
		if sz.X == width && sz.Y == height {
			return false
		}
	}
	r := image.Rect(0, 0, width, height)
	t.persistent = newBlack(r)
	t.back = image.NewRGBA(r)
	t.graticule = nil
	return true
}

// Image is the persistent image, nil before the first Resize.
func (t *Trail) Image() *image.RGBA {
	return t.persistent
}

// Fade blends the image toward black with the given alpha, the way a black
// layer drawn over it at that opacity would.
func (t *Trail) Fade(alpha uint8) {
	if t.persistent == nil || alpha == 0 {
		return
	}
	keep := 255 - uint32(alpha)
	pix := t.persistent.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = uint8(uint32(pix[i]) * keep / 255)
		pix[i+1] = uint8(uint32(pix[i+1]) * keep / 255)
		pix[i+2] = uint8(uint32(pix[i+2]) * keep / 255)
	}
}

// Plot adds col/pointAlpha to the pixel of every frame, saturating each
// channel at full intensity. Overlapping points build up hot spots.
func (t *Trail) Plot(frames []util.Frame, mono bool, g Geometry, col color.RGBA, pointAlpha float32) {
	if t.persistent == nil || g.Empty() {
		return
	}
	if pointAlpha <= 0 {
		pointAlpha = 1
	}
	r := float32(col.R) / pointAlpha
	gr := float32(col.G) / pointAlpha
	b := float32(col.B) / pointAlpha

	bounds := t.persistent.Rect
	for _, f := range frames {
		x, y := MapPoint(f, mono, g)
		if !(image.Point{x, y}).In(bounds) {
			continue
		}
		i := t.persistent.PixOffset(x, y)
		p := t.persistent.Pix[i : i+4 : i+4]
		c := SaturatingAdd(color.RGBA{p[0], p[1], p[2], p[3]}, r, gr, b)
		p[0], p[1], p[2] = c.R, c.G, c.B
	}
}

// Present copies the persistent image into the back buffer and returns it.
// With graticule set, a cross-hair over the square is screen blended onto
// the copy; the persistent image never sees it.
func (t *Trail) Present(g Geometry, graticule bool, axis color.RGBA) *image.RGBA {
	if t.persistent == nil {
		return nil
	}
	copy(t.back.Pix, t.persistent.Pix)
	if graticule {
		if t.graticule == nil || t.gratAxis != axis {
			t.graticule = drawGraticule(t.back.Rect, g, axis)
			t.gratAxis = axis
		}
		blend.BlendImage(t.back, t.graticule, blend.Screen)
	}
	return t.back
}

// outline frames the plotting square of img in col.
func outline(img *image.RGBA, g Geometry, col color.RGBA) {
	if img == nil || g.Empty() {
		return
	}
	x0, y0 := g.OffsetX, g.OffsetY
	x1, y1 := x0+g.Size-1, y0+g.Size-1
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// Release drops the images.
func (t *Trail) Release() {
	t.persistent = nil
	t.back = nil
	t.graticule = nil
}

// SaturatingAdd adds r, g, b to the color channel-wise. A channel that would
// exceed 255 stays at 255; nothing wraps.
func SaturatingAdd(c color.RGBA, r, g, b float32) color.RGBA {
	return color.RGBA{
		R: addClamped(c.R, r),
		G: addClamped(c.G, g),
		B: addClamped(c.B, b),
		A: c.A,
	}
}

func addClamped(c uint8, v float32) uint8 {
	s := float32(c) + v
	if s >= 255 {
		return 255
	}
	if s <= 0 {
		return 0
	}
	return uint8(s)
}

func newBlack(r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(r)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func drawGraticule(r image.Rectangle, g Geometry, axis color.RGBA) *image.RGBA {
	img := newBlack(r)
	if g.Empty() {
		return img
	}
	cx := g.OffsetX + g.Size/2
	cy := g.OffsetY + g.Size/2
	for i := 0; i < g.Size; i++ {
		img.SetRGBA(g.OffsetX+i, cy, axis)
		img.SetRGBA(cx, g.OffsetY+i, axis)
		// border of the square
		img.SetRGBA(g.OffsetX+i, g.OffsetY, axis)
		img.SetRGBA(g.OffsetX+i, g.OffsetY+g.Size-1, axis)
		img.SetRGBA(g.OffsetX, g.OffsetY+i, axis)
		img.SetRGBA(g.OffsetX+g.Size-1, g.OffsetY+i, axis)
	}
	return img
}
