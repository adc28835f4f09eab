// Package texture uploads light data to OpenGL textures.
package texture

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Texture is a 2D or 3D OpenGL texture.
type Texture struct {
	ID             uint32
	Target         uint32
	Width, Height  int
	Depth          int
	internalFormat int32
	format         uint32
	pixelType      uint32
}

// NewFloat2D allocates an RGBA32F texture for composited light.
func NewFloat2D(width, height int) *Texture {
	return create(gl.TEXTURE_2D, width, height, 1, gl.RGBA32F, gl.RGBA, gl.FLOAT)
}

// NewFloat3D allocates an RGBA32F volume texture.
func NewFloat3D(width, height, depth int) *Texture {
	return create(gl.TEXTURE_3D, width, height, depth, gl.RGBA32F, gl.RGBA, gl.FLOAT)
}

// NewRGBA8 allocates a normalised 8-bit texture for raw style layers.
func NewRGBA8(width, height int) *Texture {
	return create(gl.TEXTURE_2D, width, height, 1, gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE)
}

// NewStyleMap allocates an unnormalised integer texture for per-texel style
// indices. Integer textures must be sampled with NEAREST filtering.
func NewStyleMap(width, height int) *Texture {
	return create(gl.TEXTURE_2D, width, height, 1, gl.RGBA8UI, gl.RGBA_INTEGER, gl.UNSIGNED_BYTE)
}

func create(target uint32, width, height, depth int, internalFormat int32, format, pixelType uint32) *Texture {
	t := &Texture{
		Target:         target,
		Width:          width,
		Height:         height,
		Depth:          depth,
		internalFormat: internalFormat,
		format:         format,
		pixelType:      pixelType,
	}
	gl.GenTextures(1, &t.ID)
	gl.BindTexture(target, t.ID)

	filter := int32(gl.LINEAR)
	if format == gl.RGBA_INTEGER {
		filter = gl.NEAREST
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if target == gl.TEXTURE_3D {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
		gl.TexImage3D(target, 0, internalFormat, int32(width), int32(height), int32(depth), 0, format, pixelType, nil)
	} else {
		gl.TexImage2D(target, 0, internalFormat, int32(width), int32(height), 0, format, pixelType, nil)
	}
	gl.BindTexture(target, 0)
	return t
}

// SetNearest switches between nearest and linear magnification.
func (t *Texture) SetNearest(nearest bool) {
	if t.format == gl.RGBA_INTEGER {
		return
	}
	filter := int32(gl.LINEAR)
	if nearest {
		filter = gl.NEAREST
	}
	gl.BindTexture(t.Target, t.ID)
	gl.TexParameteri(t.Target, gl.TEXTURE_MAG_FILTER, filter)
	gl.BindTexture(t.Target, 0)
}

// UploadFloat replaces the contents of a float texture.
func (t *Texture) UploadFloat(pix []float32) error {
	if t.pixelType != gl.FLOAT {
		return fmt.Errorf("texture %d is not a float texture", t.ID)
	}
	if want := t.Width * t.Height * t.Depth * 4; len(pix) != want {
		return fmt.Errorf("pixel data size mismatch: expected %d, got %d", want, len(pix))
	}
	t.upload(gl.Ptr(pix))
	return nil
}

// UploadBytes replaces the contents of an 8-bit texture.
func (t *Texture) UploadBytes(pix []byte) error {
	if t.pixelType != gl.UNSIGNED_BYTE {
		return fmt.Errorf("texture %d is not an 8-bit texture", t.ID)
	}
	if want := t.Width * t.Height * t.Depth * 4; len(pix) != want {
		return fmt.Errorf("pixel data size mismatch: expected %d, got %d", want, len(pix))
	}
	t.upload(gl.Ptr(pix))
	return nil
}

func (t *Texture) upload(ptr unsafe.Pointer) {
	gl.BindTexture(t.Target, t.ID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if t.Target == gl.TEXTURE_3D {
		gl.TexSubImage3D(t.Target, 0, 0, 0, 0, int32(t.Width), int32(t.Height), int32(t.Depth), t.format, t.pixelType, ptr)
	} else {
		gl.TexSubImage2D(t.Target, 0, 0, 0, int32(t.Width), int32(t.Height), t.format, t.pixelType, ptr)
	}
	gl.BindTexture(t.Target, 0)
}

// Bind binds the texture to the given texture unit.
func (t *Texture) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(t.Target, t.ID)
}

// Delete releases the GL texture.
func (t *Texture) Delete() {
	if t.ID != 0 {
		gl.DeleteTextures(1, &t.ID)
		t.ID = 0
	}
}
