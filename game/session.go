package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/echothief/noise"
)

// SessionState is the level-wide game state.
type SessionState uint8

const (
	SessionPlaying SessionState = iota
	SessionPaused
	SessionGameOver
	SessionLevelComplete
)

func (s SessionState) String() string {
	switch s {
	case SessionPlaying:
		return "playing"
	case SessionPaused:
		return "paused"
	case SessionGameOver:
		return "game_over"
	case SessionLevelComplete:
		return "level_complete"
	default:
		return fmt.Sprintf("SessionState(%d)", uint8(s))
	}
}

// Over reports whether the level has ended.
func (s SessionState) Over() bool {
	return s == SessionGameOver || s == SessionLevelComplete
}

// SessionListener observes session state changes.
type SessionListener func(from, to SessionState)

// Session tracks whether the level is running, paused or finished. It is the
// guards' catch reporter: the first catch ends the level, later ones are ignored.
type Session struct {
	state     SessionState
	bus       *noise.Bus
	listeners []SessionListener
	logger    *slog.Logger
}

// NewSession creates a session in the Playing state.
func NewSession(bus *noise.Bus, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{bus: bus, logger: logger}
}

// State returns the current state.
func (s *Session) State() SessionState {
	return s.state
}

// OnChange registers fn to run after every state change.
func (s *Session) OnChange(fn SessionListener) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// PlayerCaught ends the level in GameOver. Idempotent.
func (s *Session) PlayerCaught() {
	if s.state.Over() {
		return
	}
	s.set(SessionGameOver)
}

// Complete ends the level in LevelComplete unless it is already over.
func (s *Session) Complete() {
	if s.state.Over() {
		return
	}
	s.set(SessionLevelComplete)
}

// Pause suspends a running level.
func (s *Session) Pause() {
	if s.state == SessionPlaying {
		s.set(SessionPaused)
	}
}

// Resume continues a paused level.
func (s *Session) Resume() {
	if s.state == SessionPaused {
		s.set(SessionPlaying)
	}
}

// Restart drops every bus subscription and returns to Playing. The owner
// re-subscribes whatever it rebuilds.
func (s *Session) Restart() {
	if s.bus != nil {
		s.bus.ClearAll()
	}
	s.set(SessionPlaying)
}

func (s *Session) set(next SessionState) {
	from := s.state
	s.state = next
	s.logger.Info("session", "from", from.String(), "to", next.String())
	for _, fn := range s.listeners {
		fn(from, next)
	}
}
