package gfx

import (
	"context"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/golang/glog"
)

// Context is a context for doing opengl graphics
type Context struct {
	Window  *Window
	Program *Program

	uniforms   map[string]int32
	attributes map[string]int32
	vaos       []*VertexArrayObject
	textures   []*TextureObject

	ctx context.Context
}

// NewContext opens a window and links a program from shaderConfigs.
func NewContext(ctx context.Context,
	windowConfig *WindowConfig, shaderConfigs []*ShaderConfig) (*Context, error) {
	window, err := NewWindow(windowConfig)
	if err != nil {
		return nil, err
	}

	if err := gl.Init(); err != nil {
		return nil, err
	}
	glog.Infof("OpenGL version %s", gl.GoStr(gl.GetString(gl.VERSION)))

	program, err := NewProgram()
	if err != nil {
		return nil, err
	}
	for _, cfg := range shaderConfigs {
		if err := program.AttachShader(cfg); err != nil {
			return nil, err
		}
	}
	if err := program.Link(); err != nil {
		return nil, err
	}
	gl.UseProgram(program.ProgramID)

	uniforms := make(map[string]int32)
	attributes := make(map[string]int32)
	for _, sh := range program.Shaders {
		for uname, uloc := range sh.UniformLocations {
			uniforms[uname] = uloc
		}
		for aname, aloc := range sh.AttributeLocations {
			attributes[aname] = aloc
		}
	}

	return &Context{
		Window:     window,
		Program:    program,
		uniforms:   uniforms,
		attributes: attributes,
		ctx:        ctx,
	}, nil
}

// EventLoop runs until the window is closed or the context is done. Each
// iteration calls render; when it returns true the VAOs are drawn and the
// buffers swapped. Between frames the loop sleeps in glfw until an event
// arrives or idle passes; glfw.PostEmptyEvent wakes it early.
func (c *Context) EventLoop(idle time.Duration, render func(*Context) bool) {
	// OpenGL requires that rendering functions be called from the main thread
	runtime.LockOSThread()

	for !c.Window.GlfwWindow.ShouldClose() {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if render(c) {
			gl.UseProgram(c.Program.ProgramID)
			c.Draw()
			c.Window.GlfwWindow.SwapBuffers()
		}
		glfw.WaitEventsTimeout(idle.Seconds())
	}
}

// Clear clears the current framebuffer.
func (c *Context) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw draws every VAO that's attached to the context.
func (c *Context) Draw() {
	for _, v := range c.vaos {
		v.Draw(c)
	}
}

// Terminate releases the textures and ends the glfw session.
func (c *Context) Terminate() {
	for _, t := range c.textures {
		t.Delete()
	}
	c.Window.GlfwWindow.Destroy()
	glfw.Terminate()
}

// GetUniformLocation returns the location of a uniform within the context's program.
func (c *Context) GetUniformLocation(uname string) int32 {
	uloc, ok := c.uniforms[uname]
	if !ok {
		panic("unknown uniform name: " + uname)
	}
	return uloc
}

// GetAttributeLocation returns the location of a vertex attribute.
func (c *Context) GetAttributeLocation(aname string) int32 {
	aloc, ok := c.attributes[aname]
	if !ok {
		panic("unknown attribute name: " + aname)
	}
	return aloc
}
