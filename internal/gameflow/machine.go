// Package gameflow classifies client lifecycle events and dispatches the
// matching automation: champ-select tracking, ready-check auto-accept,
// finalization dodge scheduling, and end-of-game reporting.
package gameflow

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/web96lol/reveal/internal/config"
	"github.com/web96lol/reveal/internal/dodge"
	"github.com/web96lol/reveal/internal/lcu"
	"github.com/web96lol/reveal/internal/lobby"
	"github.com/web96lol/reveal/internal/report"
	"github.com/web96lol/reveal/internal/shell"
)

// Event topics the supervisor subscribes to.
const (
	TopicGameflowPhase = "OnJsonApiEvent_lol-gameflow_v1_gameflow-phase"
	TopicChampSelect   = "OnJsonApiEvent_lol-champ-select_v1_session"
)

const (
	// GameflowPhasePath reads the current phase; covers phases that began
	// before the event stream connected.
	GameflowPhasePath = "/lol-gameflow/v1/gameflow-phase"
	// ChampSelectSessionPath reads the current champ-select session snapshot.
	ChampSelectSessionPath = "/lol-champ-select/v1/session"

	readyCheckAcceptPath = "/lol-matchmaking/v1/ready-check/accept"
)

// Client is the request surface the machine needs from a session handle.
type Client interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// ConfigSource yields a settings snapshot at dispatch time.
type ConfigSource interface {
	Get() config.Config
}

// SessionSnapshot is the slice of the champ-select session this tool cares
// about: the match id and the finalization countdown.
type SessionSnapshot struct {
	GameID uint64 `json:"gameId"`
	Timer  struct {
		Phase              string `json:"phase"`
		AdjustedTimeLeftMs uint64 `json:"adjustedTimeLeftInPhase"`
	} `json:"timer"`
}

// Deps wires a Machine to its collaborators.
type Deps struct {
	App      Client
	Remoting Client
	Config   ConfigSource
	Dodge    *dodge.Scheduler
	Reporter *report.Deduper
	Notify   shell.Notifier
	Log      zerolog.Logger
	// OnPhase observes every dispatched phase string. Optional.
	OnPhase func(string)
}

// Machine routes one connection's event stream. HandleEvent is never called
// concurrently: events are processed strictly in stream order, and handlers
// that take wall-clock time run as background tasks.
type Machine struct {
	app      Client
	remoting Client
	cfg      ConfigSource
	dodge    *dodge.Scheduler
	reporter *report.Deduper
	notify   shell.Notifier
	onPhase  func(string)
	log      zerolog.Logger

	mu       sync.Mutex
	csCancel context.CancelFunc
}

// NewMachine builds a machine for one connection.
func NewMachine(deps Deps) *Machine {
	notify := deps.Notify
	if notify == nil {
		notify = shell.Discard
	}
	return &Machine{
		app:      deps.App,
		remoting: deps.Remoting,
		cfg:      deps.Config,
		dodge:    deps.Dodge,
		reporter: deps.Reporter,
		notify:   notify,
		onPhase:  deps.OnPhase,
		log:      deps.Log.With().Str("component", "gameflow").Logger(),
	}
}

// HandleEvent dispatches one inbound stream event.
func (m *Machine) HandleEvent(ctx context.Context, ev lcu.Event) {
	switch ev.Topic {
	case TopicGameflowPhase:
		m.HandlePhase(ctx, DecodePhase(ev.Data))
	case TopicChampSelect:
		m.handleChampSelectEvent(ev)
	default:
		m.log.Debug().Str("topic", ev.Topic).Msg("unhandled event topic")
	}
}

// HandlePhase runs the transition for one phase string and re-broadcasts it
// to the shell once the phase-specific work has been scheduled.
func (m *Machine) HandlePhase(ctx context.Context, raw string) {
	phase, known := ParsePhase(raw)
	m.log.Info().Str("phase", raw).Msg("client state update")

	switch phase {
	case PhaseChampSelect:
		m.startChampSelect(ctx)
	case PhaseReadyCheck:
		m.stopChampSelect()
		if cfg := m.cfg.Get(); cfg.AutoAccept {
			go m.acceptReadyCheck(ctx, cfg.AcceptDelayMs)
		}
	case PhasePreEndOfGame, PhaseEndOfGame:
		m.stopChampSelect()
		if m.cfg.Get().AutoReport {
			go m.reporter.Handle(ctx, m.app, m.remoting)
		}
	default:
		m.stopChampSelect()
		if !known {
			m.log.Debug().Str("phase", raw).Msg("unrecognized phase")
		}
	}

	if m.onPhase != nil {
		m.onPhase(raw)
	}
	m.notify.Emit(shell.EventClientState, raw)
}

// handleChampSelectEvent forwards finalization snapshots to the dodge
// scheduler. A payload that does not parse means champ select ended
// abnormally: any armed state is cleared without recording a dodge.
func (m *Machine) handleChampSelectEvent(ev lcu.Event) {
	var snap SessionSnapshot
	if ev.Kind == "Delete" || json.Unmarshal(ev.Data, &snap) != nil || snap.GameID == 0 {
		m.log.Debug().Str("kind", ev.Kind).Msg("champ select session ended")
		m.dodge.Reset()
		return
	}

	if snap.Timer.Phase == "FINALIZATION" {
		m.dodge.OnFinalization(
			dodge.MatchID(snap.GameID),
			time.Duration(snap.Timer.AdjustedTimeLeftMs)*time.Millisecond,
			m.remoting,
		)
	}
}

// Close cancels any in-flight champ-select polling. Called when the stream
// ends so background work does not outlive the connection.
func (m *Machine) Close() {
	m.stopChampSelect()
}

// acceptReadyCheck waits out the configured delay, minus the second the
// accept request itself tends to need, then accepts. Best-effort.
func (m *Machine) acceptReadyCheck(ctx context.Context, delayMs uint32) {
	delay := time.Duration(delayMs) * time.Millisecond
	if delay > time.Second {
		delay -= time.Second
	} else {
		delay = 0
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if _, err := m.remoting.Post(ctx, readyCheckAcceptPath, nil); err != nil {
		m.log.Warn().Err(err).Msg("failed to accept ready check")
		return
	}
	m.log.Info().Msg("ready check accepted")
}

func (m *Machine) startChampSelect(ctx context.Context) {
	m.mu.Lock()
	if m.csCancel != nil {
		m.csCancel()
	}
	csCtx, cancel := context.WithCancel(ctx)
	m.csCancel = cancel
	m.mu.Unlock()

	go m.runChampSelect(csCtx)
}

func (m *Machine) stopChampSelect() {
	m.mu.Lock()
	if m.csCancel != nil {
		m.csCancel()
		m.csCancel = nil
	}
	m.mu.Unlock()
}

// runChampSelect polls the lobby roster until all five players are visible or
// the phase moves on. The roster is emitted on first sight and whenever it
// grows; the multisearch page opens at most once per champ select, and only
// with the full lobby.
func (m *Machine) runChampSelect(ctx context.Context) {
	cfg := m.cfg.Get()
	lastSeen := -1

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		roster, err := lobby.Participants(ctx, m.app)
		if err != nil {
			m.log.Debug().Err(err).Msg("failed to fetch champ select roster")
		} else if len(roster) != lastSeen {
			lastSeen = len(roster)
			m.notify.Emit(shell.EventChampSelectStart, roster)

			if len(roster) >= 5 {
				if cfg.AutoOpen {
					if err := lobby.OpenMultisearch(ctx, m.app, cfg.MultiProvider, roster); err != nil {
						m.log.Warn().Err(err).Msg("failed to open multisearch page")
					}
				}
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DecodePhase unwraps a gameflow phase payload, which is a bare JSON string.
// Older builds pushed it unquoted; fall back to trimming.
func DecodePhase(data json.RawMessage) string {
	var phase string
	if err := json.Unmarshal(data, &phase); err == nil {
		return phase
	}
	return strings.Trim(strings.TrimSpace(string(data)), `"`)
}
