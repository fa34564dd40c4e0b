// Package dodge schedules the last-second champ-select quit. One match can be
// armed at a time; a deadline timer fires the quit call shortly before the
// finalization countdown ends. Every transition is keyed by match id so stale
// timers can never act on a newer match, and a dodged match is never re-armed.
package dodge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/web96lol/reveal/internal/shell"
)

// QuitPath is the remoting call that cancels the current champ-select session.
const QuitPath = `/lol-login/v1/session/invoke?destination=lcdsServiceProxy&method=call&args=["","teambuilder-draft","quitV2",""]`

// fireMargin is how long before the client's own deadline the quit call is
// sent. The client enforces the countdown server-side; landing slightly early
// keeps the request inside the window.
const fireMargin = 100 * time.Millisecond

// MatchID identifies one match instance from champ select through end of game.
type MatchID uint64

// Poster issues the cancel-match request when the timer fires.
type Poster interface {
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Recorder persists fired dodges. Best-effort; failures stay internal.
type Recorder interface {
	RecordDodge(matchID uint64)
}

// Scheduler is the per-process dodge state machine. All four operations
// serialize on one mutex; at most one deadline timer is live at any instant.
type Scheduler struct {
	mu         sync.Mutex
	lastDodged *MatchID
	armed      *MatchID
	timer      *time.Timer

	margin   time.Duration
	notify   shell.Notifier
	recorder Recorder
	log      zerolog.Logger
}

// NewScheduler builds an empty scheduler. recorder may be nil.
func NewScheduler(notify shell.Notifier, recorder Recorder, log zerolog.Logger) *Scheduler {
	if notify == nil {
		notify = shell.Discard
	}
	return &Scheduler{
		margin:   fireMargin,
		notify:   notify,
		recorder: recorder,
		log:      log.With().Str("component", "dodge").Logger(),
	}
}

// Arm authorizes a dodge for the given match. Re-arming the same match and
// arming an already-dodged match are no-ops. Arming a different match cancels
// any timer belonging to the previous one.
func (s *Scheduler) Arm(m MatchID) {
	s.mu.Lock()
	if (s.lastDodged != nil && *s.lastDodged == m) || (s.armed != nil && *s.armed == m) {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	id := m
	s.armed = &id
	s.mu.Unlock()

	s.log.Info().Uint64("matchId", uint64(m)).Msg("dodge armed")
	s.notify.Emit(shell.EventDodgeState, true)
}

// Disarm cancels any armed dodge and pending timer.
func (s *Scheduler) Disarm() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.armed = nil
	s.mu.Unlock()

	s.log.Info().Msg("dodge disarmed")
	s.notify.Emit(shell.EventDodgeState, false)
}

// Reset clears armed state without recording a dodge. Used when champ select
// ends abnormally (unparseable session payload), so a stale arm never leaks
// into the next match.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.armed = nil
	s.mu.Unlock()

	s.log.Debug().Msg("dodge state reset")
	s.notify.Emit(shell.EventDodgeState, false)
}

// Armed reports the currently armed match, if any.
func (s *Scheduler) Armed() (MatchID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed == nil {
		return 0, false
	}
	return *s.armed, true
}

// OnFinalization handles one finalization-phase snapshot. The snapshot is
// re-pushed as the countdown ticks, so a pending timer is replaced rather
// than duplicated; the deadline always tracks the latest countdown.
func (s *Scheduler) OnFinalization(m MatchID, timeLeft time.Duration, poster Poster) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastDodged != nil && *s.lastDodged == m {
		return
	}
	if s.armed == nil || *s.armed != m {
		return
	}

	s.stopTimerLocked()

	delay := timeLeft - s.margin
	if delay < 0 {
		delay = 0
	}

	s.log.Info().Uint64("matchId", uint64(m)).Dur("delay", delay).Msg("dodge timer scheduled")
	s.timer = time.AfterFunc(delay, func() {
		s.fire(m, poster)
	})
}

// fire commits the dodge. Gating conditions are re-checked under the lock so
// a Disarm, Reset, or Arm for a different match that won the race wins; the
// state transition commits before the network call is issued, and the call
// outcome never rolls it back.
func (s *Scheduler) fire(m MatchID, poster Poster) {
	s.mu.Lock()
	if s.armed == nil || *s.armed != m || (s.lastDodged != nil && *s.lastDodged == m) {
		s.mu.Unlock()
		return
	}
	id := m
	s.lastDodged = &id
	s.armed = nil
	s.timer = nil
	s.mu.Unlock()

	s.log.Info().Uint64("matchId", uint64(m)).Msg("dodge timer fired, calling quit endpoint")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := poster.Post(ctx, QuitPath, nil); err != nil {
		s.log.Error().Err(err).Uint64("matchId", uint64(m)).Msg("failed to quit champ select")
	}

	if s.recorder != nil {
		s.recorder.RecordDodge(uint64(m))
	}
	s.notify.Emit(shell.EventDodgeState, false)
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
