package gfx

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Shader is a compiled shader and the names of the variables it declares.
type Shader struct {
	ShaderID           uint32
	UniformLocations   map[string]int32
	AttributeLocations map[string]int32
}

// ShaderConfig is used to create new shaders
type ShaderConfig struct {
	Source         string
	Typ            ShaderType
	AttributeNames []string
	UniformNames   []string
}

// ShaderType tells NewShader what type of shader it's creating.
type ShaderType int

// Types of shaders
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
)

func (t ShaderType) glType() uint32 {
	if t == FragmentShaderType {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func (t ShaderType) String() string {
	if t == FragmentShaderType {
		return "fragment shader"
	}
	return "vertex shader"
}

// NewShader compiles a shader. Locations are filled in when the program it
// is attached to is linked.
func NewShader(cfg *ShaderConfig) (*Shader, error) {
	id, err := compileShader(cfg.Source, cfg.Typ)
	if err != nil {
		return nil, err
	}
	sh := &Shader{
		ShaderID:           id,
		UniformLocations:   make(map[string]int32),
		AttributeLocations: make(map[string]int32),
	}
	for _, un := range cfg.UniformNames {
		sh.UniformLocations[un] = -1
	}
	for _, an := range cfg.AttributeNames {
		sh.AttributeLocations[an] = -1
	}
	return sh, nil
}

func compileShader(src string, typ ShaderType) (uint32, error) {
	id := gl.CreateShader(typ.glType())

	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(id, 1, csources, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteShader(id)
		return 0, fmt.Errorf("failed to compile %s: %s", typ, strings.TrimRight(log, "\x00"))
	}
	return id, nil
}
