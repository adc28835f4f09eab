package viewer

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestStateClock(t *testing.T) {
	s := newState(1, 0)
	if got := s.advance(0.5); got != 0.5 {
		t.Errorf("clock = %v, want 0.5", got)
	}
	s.handleKey(sdl.SCANCODE_SPACE)
	if got := s.advance(1); got != 0.5 {
		t.Errorf("paused clock = %v, want 0.5", got)
	}
	s.handleKey(sdl.SCANCODE_SPACE)
	s.handleKey(sdl.SCANCODE_RIGHTBRACKET)
	if got := s.advance(1); got != 2.5 {
		t.Errorf("double speed clock = %v, want 2.5", got)
	}
	s.handleKey(sdl.SCANCODE_HOME)
	if s.clock != 0 {
		t.Errorf("reset clock = %v", s.clock)
	}
}

func TestStateAtlasCycling(t *testing.T) {
	s := newState(3, 0)
	s.handleKey(sdl.SCANCODE_LEFT)
	if s.atlas != 2 {
		t.Errorf("atlas = %d, want 2", s.atlas)
	}
	s.handleKey(sdl.SCANCODE_RIGHT)
	s.handleKey(sdl.SCANCODE_TAB)
	if s.atlas != 1 {
		t.Errorf("atlas = %d, want 1", s.atlas)
	}

	empty := newState(0, 0)
	empty.handleKey(sdl.SCANCODE_RIGHT)
	if empty.atlas != 0 {
		t.Errorf("atlas = %d with no atlases", empty.atlas)
	}
}

func TestStateViews(t *testing.T) {
	s := newState(1, 0)
	s.handleKey(sdl.SCANCODE_3)
	if s.view != ViewLayer2 || s.view.String() != "slot 2" {
		t.Errorf("view = %v", s.view)
	}
	s.handleKey(sdl.SCANCODE_V)
	if s.view != ViewLayer2 {
		t.Error("volume view selected without a volume")
	}

	s.reset(1, 4)
	s.handleKey(sdl.SCANCODE_V)
	s.handleKey(sdl.SCANCODE_PAGEUP)
	s.handleKey(sdl.SCANCODE_PAGEUP)
	if s.view != ViewVolume || s.slice != 2 {
		t.Errorf("view = %v slice = %d", s.view, s.slice)
	}
	s.reset(2, 0)
	if s.view != ViewComposite || s.slice != 0 {
		t.Errorf("after reset view = %v slice = %d", s.view, s.slice)
	}
}

func TestStateLimitsAndActions(t *testing.T) {
	s := newState(1, 0)
	for i := 0; i < 20; i++ {
		s.handleKey(sdl.SCANCODE_EQUALS)
	}
	if s.exposure != maxExposure {
		t.Errorf("exposure = %v, want %v", s.exposure, float32(maxExposure))
	}
	for i := 0; i < 40; i++ {
		s.handleKey(sdl.SCANCODE_MINUS)
	}
	if s.exposure != minExposure {
		t.Errorf("exposure = %v, want %v", s.exposure, float32(minExposure))
	}

	actions := map[sdl.Scancode]Action{
		sdl.SCANCODE_ESCAPE: ActionQuit,
		sdl.SCANCODE_F:      ActionFit,
		sdl.SCANCODE_F12:    ActionScreenshot,
		sdl.SCANCODE_N:      ActionFilter,
		sdl.SCANCODE_R:      ActionReload,
		sdl.SCANCODE_O:      ActionNone,
	}
	for key, want := range actions {
		if got := s.handleKey(key); got != want {
			t.Errorf("key %d -> %v, want %v", key, got, want)
		}
	}
}
