package viewer

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/veandco/go-sdl2/sdl"
)

// View selects what is displayed.
type View int

const (
	ViewComposite View = iota
	ViewLayer0
	ViewLayer1
	ViewLayer2
	ViewLayer3
	ViewStyles
	ViewVolume
)

func (v View) String() string {
	switch v {
	case ViewComposite:
		return "composite"
	case ViewLayer0, ViewLayer1, ViewLayer2, ViewLayer3:
		return fmt.Sprintf("slot %d", int(v-ViewLayer0))
	case ViewStyles:
		return "styles"
	case ViewVolume:
		return "volume"
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// Action is a side effect requested by a key press.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionFit
	ActionScreenshot
	ActionFilter
	ActionReload
)

const (
	minExposure = 1.0 / 64
	maxExposure = 64
	minSpeed    = 1.0 / 16
	maxSpeed    = 16
)

// state is the viewer's input-driven state, kept apart from GL so it can be
// driven directly.
type state struct {
	view     View
	atlas    int
	atlases  int
	slice    int
	slices   int
	paused   bool
	speed    float32
	exposure float32
	outlines bool
	nearest  bool
	clock    float32
}

func newState(atlases, slices int) *state {
	return &state{
		atlases:  atlases,
		slices:   slices,
		speed:    1,
		exposure: 1,
		nearest:  true,
	}
}

// advance moves the animation clock by dt seconds and returns it.
func (s *state) advance(dt float32) float32 {
	if !s.paused {
		s.clock += dt * s.speed
	}
	return s.clock
}

// handleKey applies one key press.
func (s *state) handleKey(key sdl.Scancode) Action {
	switch key {
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		return ActionQuit
	case sdl.SCANCODE_SPACE:
		s.paused = !s.paused
	case sdl.SCANCODE_HOME:
		s.clock = 0
	case sdl.SCANCODE_R:
		return ActionReload
	case sdl.SCANCODE_RIGHT, sdl.SCANCODE_TAB:
		if s.atlases > 0 {
			s.atlas = (s.atlas + 1) % s.atlases
		}
	case sdl.SCANCODE_LEFT:
		if s.atlases > 0 {
			s.atlas = (s.atlas + s.atlases - 1) % s.atlases
		}
	case sdl.SCANCODE_C, sdl.SCANCODE_0:
		s.view = ViewComposite
	case sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3, sdl.SCANCODE_4:
		s.view = ViewLayer0 + View(key-sdl.SCANCODE_1)
	case sdl.SCANCODE_S:
		s.view = ViewStyles
	case sdl.SCANCODE_V:
		if s.slices > 0 {
			s.view = ViewVolume
		}
	case sdl.SCANCODE_PAGEUP:
		if s.slice+1 < s.slices {
			s.slice++
		}
	case sdl.SCANCODE_PAGEDOWN:
		if s.slice > 0 {
			s.slice--
		}
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		s.exposure = math32.Min(s.exposure*2, maxExposure)
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		s.exposure = math32.Max(s.exposure/2, minExposure)
	case sdl.SCANCODE_RIGHTBRACKET:
		s.speed = math32.Min(s.speed*2, maxSpeed)
	case sdl.SCANCODE_LEFTBRACKET:
		s.speed = math32.Max(s.speed/2, minSpeed)
	case sdl.SCANCODE_O:
		s.outlines = !s.outlines
	case sdl.SCANCODE_N:
		s.nearest = !s.nearest
		return ActionFilter
	case sdl.SCANCODE_F:
		return ActionFit
	case sdl.SCANCODE_F12, sdl.SCANCODE_P:
		return ActionScreenshot
	}
	return ActionNone
}

// reset adopts a new level's atlas and slice counts.
func (s *state) reset(atlases, slices int) {
	s.atlases, s.slices = atlases, slices
	s.atlas, s.slice = 0, 0
	if s.view == ViewVolume && slices == 0 {
		s.view = ViewComposite
	}
}
