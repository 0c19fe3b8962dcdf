// Package surface is the desktop window the scope draws into. It implements
// scope.Surface; all glfw and OpenGL calls stay on the thread that runs the
// event loop.
package surface

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	ml "github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"

	"github.com/peragwin/xyscope/gfx"
)

const (
	vertexShaderSource = `
	#version 410
	in vec3 vertPos;
	in vec2 texPos;
	out vec2 fragTexPos;
	void main() {
		fragTexPos = texPos;
		gl_Position = vec4(vertPos, 1.0);
	}`

	fragmentShaderSource = `
	#version 410
	uniform sampler2D tex;
	in vec2 fragTexPos;
	out vec4 frag_color;
	void main() {
		frag_color = texture(tex, fragTexPos);
	}`

	// idle bounds how long the loop sleeps without events.
	idle = 100 * time.Millisecond
)

var (
	square = [4]ml.Vec2{{-1, 1}, {-1, -1}, {1, 1}, {1, -1}}
	uvCord = [4]ml.Vec2{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
)

// PaintFunc renders a width x height frame. A nil image skips the frame.
type PaintFunc func(width, height int) (*image.RGBA, error)

// Config places the window.
type Config struct {
	X, Y, Width, Height int
	Title               string
}

// Bounds is the window position and size.
type Bounds struct {
	X, Y, Width, Height int
}

// Display is a window showing one texture that covers it.
type Display struct {
	gfx     *gfx.Context
	texture *gfx.TextureObject

	paint   PaintFunc
	onClick func()

	dirty atomic.Bool
	calls chan func()

	// glfw may not be woken once terminated
	life  sync.RWMutex
	alive bool

	mu     sync.Mutex
	bounds Bounds
}

// New opens the window hidden; Show brings it up. Call it from the main
// goroutine with the OS thread locked.
func New(ctx context.Context, cfg *Config) (*Display, error) {
	g, err := gfx.NewContext(ctx, &gfx.WindowConfig{
		X: cfg.X, Y: cfg.Y, Width: cfg.Width, Height: cfg.Height, Title: cfg.Title,
	}, []*gfx.ShaderConfig{
		{
			Typ:            gfx.VertexShaderType,
			Source:         vertexShaderSource,
			AttributeNames: []string{"vertPos", "texPos"},
		},
		{
			Typ:          gfx.FragmentShaderType,
			Source:       fragmentShaderSource,
			UniformNames: []string{"tex"},
		},
	})
	if err != nil {
		return nil, err
	}

	tex, err := g.AddTextureObject(&gfx.TextureConfig{UniformName: "tex"})
	if err != nil {
		g.Terminate()
		return nil, err
	}

	d := &Display{
		gfx:     g,
		texture: tex,
		calls:   make(chan func(), 16),
	}
	if err := g.AddVertexArrayObject(&gfx.VAOConfig{
		Vertices:   quad(),
		Size:       3,
		GLDrawType: gl.TRIANGLE_STRIP,
		VertAttr:   "vertPos",
		TexAttr:    "texPos",
		Stride:     5,
	}); err != nil {
		g.Terminate()
		return nil, err
	}

	x, y, w, h := g.Window.Bounds()
	d.bounds = Bounds{X: x, Y: y, Width: w, Height: h}
	win := g.Window.GlfwWindow
	win.SetPosCallback(func(_ *glfw.Window, x, y int) {
		d.mu.Lock()
		d.bounds.X, d.bounds.Y = x, y
		d.mu.Unlock()
	})
	win.SetSizeCallback(func(_ *glfw.Window, w, h int) {
		d.mu.Lock()
		d.bounds.Width, d.bounds.Height = w, h
		d.mu.Unlock()
	})
	win.SetFramebufferSizeCallback(func(*glfw.Window, int, int) {
		d.dirty.Store(true)
	})
	win.SetRefreshCallback(func(*glfw.Window) {
		d.dirty.Store(true)
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, b glfw.MouseButton, a glfw.Action, _ glfw.ModifierKey) {
		if b == glfw.MouseButtonLeft && a == glfw.Press && d.onClick != nil {
			d.onClick()
		}
	})
	d.dirty.Store(true)
	d.alive = true
	return d, nil
}

// quad interleaves position and texture coordinates for a full-window strip.
func quad() []float32 {
	verts := make([]float32, 5*len(square))
	for i := range square {
		verts[5*i] = square[i][0]
		verts[5*i+1] = square[i][1]
		verts[5*i+3] = uvCord[i][0]
		verts[5*i+4] = uvCord[i][1]
	}
	return verts
}

// SetPaintFunc sets the frame source. Set it before Run.
func (d *Display) SetPaintFunc(f PaintFunc) { d.paint = f }

// OnClick sets the left click handler. Set it before Run.
func (d *Display) OnClick(f func()) { d.onClick = f }

// Invalidate requests a repaint. It is safe from any goroutine.
func (d *Display) Invalidate() {
	if !d.dirty.Swap(true) {
		d.wake()
	}
}

// Show makes the window visible and focused.
func (d *Display) Show() error {
	d.post(func() {
		d.gfx.Window.GlfwWindow.Show()
		d.gfx.Window.GlfwWindow.Focus()
	})
	return nil
}

// Close asks the event loop to close the window.
func (d *Display) Close() error {
	d.post(func() { d.gfx.Window.GlfwWindow.SetShouldClose(true) })
	return nil
}

func (d *Display) post(f func()) {
	select {
	case d.calls <- f:
		d.wake()
	default:
		glog.Warning("display call queue full")
	}
}

func (d *Display) wake() {
	d.life.RLock()
	defer d.life.RUnlock()
	if d.alive {
		glfw.PostEmptyEvent()
	}
}

// Bounds returns the last known window position and size.
func (d *Display) Bounds() Bounds {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds
}

// Run services the window until it is closed or the context is done, then
// destroys it. It must run on the goroutine that called New.
func (d *Display) Run() {
	defer func() {
		d.life.Lock()
		d.alive = false
		d.life.Unlock()
		d.gfx.Terminate()
	}()
	d.gfx.EventLoop(idle, d.frame)
}

func (d *Display) frame(c *gfx.Context) bool {
drain:
	for {
		select {
		case f := <-d.calls:
			f()
		default:
			break drain
		}
	}
	if !d.dirty.Swap(false) || d.paint == nil {
		return false
	}

	w, h := c.Window.GlfwWindow.GetFramebufferSize()
	img, err := d.paint(w, h)
	if err != nil {
		glog.Warningf("paint %dx%d: %v", w, h, err)
		return false
	}
	if img == nil {
		return false
	}
	gl.Viewport(0, 0, int32(w), int32(h))
	c.Clear()
	d.texture.Update(img)
	return true
}
