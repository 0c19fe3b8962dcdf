package scope

import (
	"github.com/chewxy/math32"

	"github.com/peragwin/xyscope/audio/util"
)

// reference values the brightness model was tuned against
const (
	referenceRate   = 44100
	referenceSquare = 488
)

// Geometry is the square drawing region centered in the client area.
type Geometry struct {
	Width   int
	Height  int
	Size    int
	OffsetX int
	OffsetY int
}

// NewGeometry centers the largest square that fits in width x height.
func NewGeometry(width, height int) Geometry {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := min(width, height)
	return Geometry{
		Width:   width,
		Height:  height,
		Size:    size,
		OffsetX: (width - size) / 2,
		OffsetY: (height - size) / 2,
	}
}

// Empty is true when there is nothing to draw into.
func (g Geometry) Empty() bool {
	return g.Size <= 0
}

// MapPoint maps a frame to a pixel inside the square. The first sample is
// the x axis and the second the y axis, inverted so positive amplitude plots
// upward. With mono set both axes come from the first sample.
func MapPoint(f util.Frame, mono bool, g Geometry) (x, y int) {
	first := int(f.L)
	second := int(f.R)
	if mono {
		second = first
	}
	x = g.OffsetX + (first+32768)*g.Size/65536
	y = g.OffsetY + g.Size - (second+32768)*g.Size/65536

	// full negative scale lands one pixel past the square
	x = clamp(x, g.OffsetX, g.OffsetX+g.Size-1)
	y = clamp(y, g.OffsetY, g.OffsetY+g.Size-1)
	return x, y
}

// BrightnessScale grows with sample rate: more points land in the same
// window so each one has to be dimmer.
func BrightnessScale(sampleRate int) float32 {
	return float32(sampleRate) / referenceRate * 4
}

// PointAlpha is the divisor applied to the trace color for every point. It
// never goes below 2.
func PointAlpha(brightnessScale float32, squareSize int) float32 {
	ratio := float32(squareSize) / referenceSquare
	v := brightnessScale*(ratio/8) +
		math32.Max(math32.Log10(brightnessScale/ratio)*96-90, 0)
	return math32.Max(v, 2)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
