package gfx

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// TextureConfig is a configuration for creating a new TextureObject.
// Mode is the min/mag filter, gl.NEAREST when zero.
type TextureConfig struct {
	Image       *image.RGBA
	UniformName string
	Mode        int32
}

// TextureObject is a 2D texture bound to a sampler uniform.
type TextureObject struct {
	texID  uint32
	texLoc int32
	size   image.Point
}

// AddTextureObject creates the texture and fills it from cfg.Image, which may
// be nil to defer the upload to the first Update.
func (c *Context) AddTextureObject(cfg *TextureConfig) (*TextureObject, error) {
	mode := cfg.Mode
	if mode == 0 {
		mode = gl.NEAREST
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, mode)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, mode)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	texLoc := c.GetUniformLocation(cfg.UniformName)
	gl.Uniform1i(texLoc, 0)

	tex := &TextureObject{texID: texID, texLoc: texLoc}
	if cfg.Image != nil {
		tex.Update(cfg.Image)
	}
	c.textures = append(c.textures, tex)
	return tex, nil
}

// Update uploads img, reallocating the texture when the size changed.
func (t *TextureObject) Update(img *image.RGBA) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.texID)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))

	size := img.Rect.Size()
	if size != t.size {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(size.X), int32(size.Y),
			0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		t.size = size
		return
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(size.X), int32(size.Y),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
}

// Delete frees the texture.
func (t *TextureObject) Delete() {
	gl.DeleteTextures(1, &t.texID)
}
