// Package shell defines the contract between the automation core and the
// desktop shell hosting it. The core never talks to the window layer directly;
// it emits named events through a Notifier and the app wires that to the
// runtime event bus.
package shell

// Event names understood by the frontend.
const (
	EventLCUState         = "lcu_state_update"
	EventClientState      = "client_state_update"
	EventChampSelectStart = "champ_select_started"
	EventDodgeState       = "dodge_state_update"
	EventEndOfGameStarted = "end_of_game_started"
	EventConfigUpdated    = "config_updated"
)

// Notifier delivers one-way notifications to the shell.
type Notifier interface {
	Emit(event string, payload any)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(event string, payload any)

func (f NotifierFunc) Emit(event string, payload any) { f(event, payload) }

// Discard is a Notifier that drops everything. Useful in tests and as a
// placeholder before the shell is ready.
var Discard Notifier = NotifierFunc(func(string, any) {})
