package watchlater

import (
	"time"

	"github.com/tapeworks/watchlater/internal/app"
)

// State represents the lifecycle state of a watchlater instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// PositionSavedEvent describes a persisted playback position.
type PositionSavedEvent struct {
	Path     string
	Position time.Duration
	At       time.Time
}

// ResumeEvent describes a resume position being served. Auto is true for
// the startup auto-resume and false when the host reopened a file.
type ResumeEvent struct {
	Path     string
	Position time.Duration
	Auto     bool
}

// EventHandler receives watchlater events. Handlers are called
// synchronously from the tracker goroutine and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnPositionSaved(event PositionSavedEvent)
	OnResume(event ResumeEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnPositionSaved(path string, position time.Duration, at time.Time) {
	if e.handler == nil {
		return
	}
	e.handler.OnPositionSaved(PositionSavedEvent{Path: path, Position: position, At: at})
}

func (e *eventEmitterWrapper) OnResume(path string, position time.Duration, auto bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnResume(ResumeEvent{Path: path, Position: position, Auto: auto})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
