package input

import (
	"time"

	"github.com/kobold-systems/lr35902/gbcore/input/action"
	"github.com/kobold-systems/lr35902/gbcore/input/event"
)

// InputEvent is a single backend-observed input occurrence, translated from
// a platform-specific key/button event into an Action the emulator
// understands. Backends alias this type so call sites can keep writing
// backend.InputEvent{...}.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Handler manages input processing with debouncing for UI actions
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  300 * time.Millisecond,
	}
}

// ProcessEvent processes an input event, applying debouncing for Press/Release events
// of non-game actions; Game Boy button events always pass.
// Returns true if the event should be handled, false if it was debounced
func (h *Handler) ProcessEvent(evt InputEvent) bool {
	if action.GetInfo(evt.Action).Category == action.CategoryGameInput {
		return true
	}
	if evt.Type == event.Press || evt.Type == event.Release {
		now := time.Now()
		if lastTime, exists := h.lastActionTime[evt.Action]; exists {
			if now.Sub(lastTime) < h.debounceDelay {
				return false
			}
		}
		h.lastActionTime[evt.Action] = now
	}

	return true
}
