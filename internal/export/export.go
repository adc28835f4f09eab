// Package export writes packed and composited light data as images.
package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chewxy/math32"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/composite"
)

// Format is an output image encoding.
type Format int

const (
	PNG Format = iota
	WebP
	TGA
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case WebP:
		return "webp"
	case TGA:
		return "tga"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension for f, with the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	case "tga":
		return TGA, nil
	}
	return PNG, fmt.Errorf("unknown image format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encode writes img to w.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case TGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("unknown image format %v", f)
}

// WriteFile encodes img in the format implied by the path extension,
// creating parent directories as needed.
func WriteFile(path string, img image.Image) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return out.Close()
}

// Upscale magnifies img by an integer factor with nearest-neighbour
// sampling so individual luxels stay visible.
func Upscale(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// LayerImage wraps style slot k of a packed atlas.
func LayerImage(a *atlas.Atlas, k int) *image.RGBA {
	return &image.RGBA{
		Pix:    a.Layers[k],
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}

// StyleImage wraps the per-texel style indices of a packed atlas. Each
// channel holds one slot's style.
func StyleImage(a *atlas.Atlas) *image.RGBA {
	return &image.RGBA{
		Pix:    a.Styles,
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}

// Tonemap controls conversion of composited light to 8-bit pixels.
type Tonemap struct {
	Exposure float32 // multiplier applied before clamping; 0 means 1
	SRGB     bool    // re-encode linear values as sRGB
}

// DefaultTonemap re-encodes to sRGB at unit exposure.
func DefaultTonemap() Tonemap {
	return Tonemap{Exposure: 1, SRGB: true}
}

func (tm Tonemap) byteOf(v float32) uint8 {
	if tm.Exposure != 0 {
		v *= tm.Exposure
	}
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	if tm.SRGB {
		v = linearToSRGB(v)
	}
	return uint8(v*255 + 0.5)
}

func linearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 1/2.4) - 0.055
}

// Texture2DImage converts a composited texture to RGBA8. Alpha is forced
// opaque.
func Texture2DImage(tex *composite.Texture2D, tm Tonemap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	convert(img.Pix, tex.Pix, tm)
	return img
}

// SliceImage converts depth slice z of a composited volume to RGBA8.
func SliceImage(tex *composite.Texture3D, z int, tm Tonemap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	n := tex.Width * tex.Height * 4
	convert(img.Pix, tex.Pix[z*n:(z+1)*n], tm)
	return img
}

// VolumeSlices converts every depth slice of a composited volume.
func VolumeSlices(tex *composite.Texture3D, tm Tonemap) []*image.RGBA {
	out := make([]*image.RGBA, tex.Depth)
	for z := range out {
		out[z] = SliceImage(tex, z, tm)
	}
	return out
}

// VolumeLayerSlices wraps the depth slices of style slot k of a packed
// volume.
func VolumeLayerSlices(v *atlas.Volume, k int) []*image.RGBA {
	w, h := v.FullSize.X, v.FullSize.Y
	n := w * h * 4
	out := make([]*image.RGBA, v.FullSize.Z)
	for z := range out {
		out[z] = &image.RGBA{
			Pix:    v.Layers[k][z*n : (z+1)*n],
			Stride: w * 4,
			Rect:   image.Rect(0, 0, w, h),
		}
	}
	return out
}

func convert(dst []uint8, src []float32, tm Tonemap) {
	for i := 0; i+3 < len(src); i += 4 {
		dst[i] = tm.byteOf(src[i])
		dst[i+1] = tm.byteOf(src[i+1])
		dst[i+2] = tm.byteOf(src[i+2])
		dst[i+3] = 255
	}
}
