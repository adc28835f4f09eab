// Package camera provides the 2D view transform used to inspect atlases.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// PanZoomCamera looks straight down at a flat image. Content coordinates
// are texels with the origin at the top-left corner; screen coordinates are
// window pixels, also top-left.
type PanZoomCamera struct {
	// Content point shown at the centre of the window
	CenterX, CenterY float32

	// Screen pixels per texel
	Zoom float32

	// Constraints
	MinZoom float32
	MaxZoom float32

	// Zoom step per wheel notch
	ZoomSensitivity float32
}

// NewPanZoomCamera creates a camera at 1:1 centred on the origin.
func NewPanZoomCamera() *PanZoomCamera {
	return &PanZoomCamera{
		Zoom:            1,
		MinZoom:         0.125,
		MaxZoom:         64,
		ZoomSensitivity: 0.15,
	}
}

// ViewMatrix maps content coordinates to clip space for a viewport of the
// given size. Y is flipped so texel rows run down the screen.
func (c *PanZoomCamera) ViewMatrix(viewW, viewH int) mgl32.Mat4 {
	halfW := float32(viewW) / (2 * c.Zoom)
	halfH := float32(viewH) / (2 * c.Zoom)
	return mgl32.Ortho2D(
		c.CenterX-halfW, c.CenterX+halfW,
		c.CenterY+halfH, c.CenterY-halfH,
	)
}

// ScreenToContent converts a window position to content coordinates.
func (c *PanZoomCamera) ScreenToContent(sx, sy float32, viewW, viewH int) (x, y float32) {
	x = c.CenterX + (sx-float32(viewW)/2)/c.Zoom
	y = c.CenterY + (sy-float32(viewH)/2)/c.Zoom
	return x, y
}

// HandleDrag pans by a mouse delta in screen pixels.
func (c *PanZoomCamera) HandleDrag(deltaX, deltaY float32) {
	c.CenterX -= deltaX / c.Zoom
	c.CenterY -= deltaY / c.Zoom
}

// HandleZoom zooms by wheel notches, keeping the content point under the
// cursor fixed.
func (c *PanZoomCamera) HandleZoom(delta, sx, sy float32, viewW, viewH int) {
	beforeX, beforeY := c.ScreenToContent(sx, sy, viewW, viewH)

	c.Zoom *= math32.Pow(1+c.ZoomSensitivity, delta)
	c.Zoom = clamp(c.Zoom, c.MinZoom, c.MaxZoom)

	afterX, afterY := c.ScreenToContent(sx, sy, viewW, viewH)
	c.CenterX += beforeX - afterX
	c.CenterY += beforeY - afterY
}

// FitToBounds centres a width x height image and picks the largest
// power-of-two zoom that shows all of it.
func (c *PanZoomCamera) FitToBounds(width, height, viewW, viewH int) {
	c.CenterX = float32(width) / 2
	c.CenterY = float32(height) / 2
	if width <= 0 || height <= 0 {
		c.Zoom = 1
		return
	}

	fit := math32.Min(float32(viewW)/float32(width), float32(viewH)/float32(height))
	c.Zoom = math32.Exp2(math32.Floor(math32.Log2(fit)))
	c.Zoom = clamp(c.Zoom, c.MinZoom, c.MaxZoom)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
