package supervisor

import (
	"sync"

	"github.com/web96lol/reveal/internal/lcu"
)

// State is the shared connection record: whether a live session to the client
// exists, the credentials behind it, and the most recent phase. Reset to
// empty whenever the client process disappears.
type State struct {
	mu        sync.Mutex
	connected bool
	creds     *lcu.Credentials
	lastPhase string
}

// Snapshot is a point-in-time copy of the connection state for the shell.
type Snapshot struct {
	Connected bool   `json:"connected"`
	Port      string `json:"port,omitempty"`
	LastPhase string `json:"lastPhase,omitempty"`
}

// NewState returns an empty connection record.
func NewState() *State {
	return &State{}
}

func (s *State) setConnected(creds *lcu.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.creds = creds
}

func (s *State) setDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.creds = nil
	s.lastPhase = ""
}

// SetLastPhase records the most recent dispatched phase.
func (s *State) SetLastPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPhase = phase
}

// Connected reports whether a live session exists.
func (s *State) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Credentials returns the active connection credentials, if connected.
func (s *State) Credentials() (*lcu.Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.creds == nil {
		return nil, false
	}
	return s.creds, true
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Connected: s.connected,
		LastPhase: s.lastPhase,
	}
	if s.creds != nil {
		snap.Port = s.creds.Port
	}
	return snap
}
