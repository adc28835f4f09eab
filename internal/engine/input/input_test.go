package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestTranslate(t *testing.T) {
	in := New()

	events := []sdl.Event{
		&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_SPACE}},
		&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_SPACE}},
		&sdl.MouseMotionEvent{X: 40, Y: 30, XRel: 4, YRel: -2},
		&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT, X: 40, Y: 30},
		&sdl.MouseWheelEvent{Y: -1},
		&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600},
	}
	for _, e := range events {
		if in.translate(e) {
			t.Fatalf("unexpected quit on %T", e)
		}
	}

	got := in.Events()
	if len(got) != 5 {
		t.Fatalf("got %d events, want 5 (key repeat dropped)", len(got))
	}
	if !in.IsKeyPressed(sdl.SCANCODE_SPACE) {
		t.Error("space not reported as pressed")
	}
	if got[1].DeltaX != 4 || got[1].DeltaY != -2 {
		t.Errorf("motion delta = (%d,%d)", got[1].DeltaX, got[1].DeltaY)
	}
	if !in.IsButtonDown(sdl.BUTTON_LEFT) {
		t.Error("left button not held")
	}
	wheel := got[3]
	if wheel.Type != EventMouseWheel || wheel.DeltaY != -1 || wheel.MouseX != 40 {
		t.Errorf("wheel event = %+v", wheel)
	}
	if got[4].Width != 800 || got[4].Height != 600 {
		t.Errorf("resize event = %+v", got[4])
	}

	if !in.translate(&sdl.QuitEvent{Type: sdl.QUIT}) {
		t.Error("quit event did not request quit")
	}
}
