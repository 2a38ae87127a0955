// Package input turns SDL2 events into map viewer events and actions.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies an Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventAction
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventWheel
)

// Action is a keyboard command.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionToggleMode
	ActionTogglePresentation
	ActionOpacityUp
	ActionOpacityDown
	ActionFocusOwner
	ActionClearSelection
	ActionScreenshot
	ActionToggleSpin
	ActionCycleMapMode
)

var actionNames = map[Action]string{
	ActionQuit:               "quit",
	ActionToggleMode:         "toggle mode",
	ActionTogglePresentation: "toggle globe",
	ActionOpacityUp:          "opacity up",
	ActionOpacityDown:        "opacity down",
	ActionFocusOwner:         "focus owner",
	ActionClearSelection:     "clear selection",
	ActionScreenshot:         "screenshot",
	ActionToggleSpin:         "toggle spin",
	ActionCycleMapMode:       "cycle map mode",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "none"
}

// DefaultBindings maps keys to viewer actions.
var DefaultBindings = map[sdl.Keycode]Action{
	sdl.K_ESCAPE: ActionQuit,
	sdl.K_m:      ActionToggleMode,
	sdl.K_g:      ActionTogglePresentation,
	sdl.K_p:      ActionOpacityUp,
	sdl.K_o:      ActionOpacityDown,
	sdl.K_f:      ActionFocusOwner,
	sdl.K_c:      ActionClearSelection,
	sdl.K_F12:    ActionScreenshot,
	sdl.K_SPACE:  ActionToggleSpin,
	sdl.K_TAB:    ActionCycleMapMode,
}

// Event is one processed input event.
type Event struct {
	Type   EventType
	Action Action
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int
	DeltaY int
	Wheel  float32
	Button uint8
	Shift  bool
}

// Input polls SDL and tracks drag state.
type Input struct {
	Bindings map[sdl.Keycode]Action

	events   []Event
	dragging bool
	dragged  bool
}

// New creates an input handler with the default bindings.
func New() *Input {
	return &Input{
		Bindings: DefaultBindings,
		events:   make([]Event, 0, 16),
	}
}

// Update polls SDL events. It returns true when the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			a := i.Bindings[e.Keysym.Sym]
			if a == ActionNone {
				continue
			}
			i.events = append(i.events, Event{Type: EventAction, Action: a})
			if a == ActionQuit {
				quit = true
			}

		case *sdl.MouseMotionEvent:
			if i.dragging && (e.XRel != 0 || e.YRel != 0) {
				i.dragged = true
			}
			i.events = append(i.events, Event{
				Type:   EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				DeltaX: int(e.XRel),
				DeltaY: int(e.YRel),
				Button: buttonFromState(e.State),
			})

		case *sdl.MouseButtonEvent:
			ev := Event{
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
				Shift:  sdl.GetModState()&sdl.KMOD_SHIFT != 0,
			}
			if e.Type == sdl.MOUSEBUTTONDOWN {
				ev.Type = EventMouseDown
				if e.Button == sdl.BUTTON_LEFT {
					i.dragging, i.dragged = true, false
				}
			} else {
				ev.Type = EventMouseUp
				if e.Button == sdl.BUTTON_LEFT {
					i.dragging = false
				}
			}
			i.events = append(i.events, ev)

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, Event{Type: EventWheel, Wheel: float32(e.Y)})
		}
	}

	return quit
}

func buttonFromState(state uint32) uint8 {
	switch {
	case state&sdl.ButtonLMask() != 0:
		return sdl.BUTTON_LEFT
	case state&sdl.ButtonRMask() != 0:
		return sdl.BUTTON_RIGHT
	}
	return 0
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// WasClick reports whether the left button was released without dragging
// since it went down. Call it on EventMouseUp.
func (i *Input) WasClick() bool {
	return !i.dragged
}
