package gfx

import (
	"github.com/go-gl/glfw/v3.2/glfw"
)

const (
	openglVersionMajor = 4
	openglVersionMinor = 1
)

// Window represents a wrapped glfw window object.
type Window struct {
	Config     *WindowConfig
	GlfwWindow *glfw.Window
}

// WindowConfig contains a new window configuration. X and Y place the window
// when either is non-zero; otherwise the window manager decides.
type WindowConfig struct {
	X      int
	Y      int
	Width  int
	Height int
	Title  string
}

// NewWindow initializes glfw and opens a window with a current OpenGL 4.1
// core context. It must be called from the main thread.
func NewWindow(cfg *WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, openglVersionMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, openglVersionMinor)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	if cfg.X != 0 || cfg.Y != 0 {
		window.SetPos(cfg.X, cfg.Y)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	return &Window{Config: cfg, GlfwWindow: window}, nil
}

// Bounds returns the window position and size in screen coordinates.
func (w *Window) Bounds() (x, y, width, height int) {
	x, y = w.GlfwWindow.GetPos()
	width, height = w.GlfwWindow.GetSize()
	return
}
