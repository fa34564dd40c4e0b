// Package supervisor owns the reconnect loop against the local client: detect
// the process, establish request handles and the event stream, drain events
// through the gameflow machine, and loop back when the client goes away.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/web96lol/reveal/internal/dodge"
	"github.com/web96lol/reveal/internal/gameflow"
	"github.com/web96lol/reveal/internal/lcu"
	"github.com/web96lol/reveal/internal/report"
	"github.com/web96lol/reveal/internal/shell"
)

const (
	pollInterval  = 2 * time.Second
	streamRetries = 5
	streamBackoff = 3 * time.Second
)

// ErrStreamUnavailable means the event stream could not be established within
// the retry budget. The supervisor cannot automate anything without it; the
// caller decides whether that ends the process.
var ErrStreamUnavailable = errors.New("event stream unavailable")

// eventStream abstracts lcu.EventStream for tests.
type eventStream interface {
	Subscribe(topic string) error
	Events() <-chan lcu.Event
	Close() error
}

// Deps wires a Supervisor to its collaborators.
type Deps struct {
	State    *State
	Config   gameflow.ConfigSource
	Dodge    *dodge.Scheduler
	Reporter *report.Deduper
	Notify   shell.Notifier
	Log      zerolog.Logger
}

// Supervisor runs the connection lifecycle for the whole process.
type Supervisor struct {
	state    *State
	cfg      gameflow.ConfigSource
	dodge    *dodge.Scheduler
	reporter *report.Deduper
	notify   shell.Notifier
	log      zerolog.Logger

	// Seams for tests; default to the real client and production timings.
	locate  func() (*lcu.Credentials, error)
	dial    func(*lcu.Credentials) (eventStream, error)
	ping    func(context.Context, *lcu.Client) error
	poll    time.Duration
	retries int
	backoff time.Duration
}

// New builds a supervisor over the real client surface.
func New(deps Deps) *Supervisor {
	notify := deps.Notify
	if notify == nil {
		notify = shell.Discard
	}
	return &Supervisor{
		state:    deps.State,
		cfg:      deps.Config,
		dodge:    deps.Dodge,
		reporter: deps.Reporter,
		notify:   notify,
		log:      deps.Log.With().Str("component", "supervisor").Logger(),
		locate:   lcu.Locate,
		dial: func(creds *lcu.Credentials) (eventStream, error) {
			return lcu.DialStream(creds)
		},
		ping: func(ctx context.Context, c *lcu.Client) error {
			return c.Ping(ctx)
		},
		poll:    pollInterval,
		retries: streamRetries,
		backoff: streamBackoff,
	}
}

// Run drives the reconnect loop until ctx is cancelled. The only error it
// returns is ErrStreamUnavailable (wrapped); stream termination and client
// disappearance are expected and handled by looping back to detection.
func (s *Supervisor) Run(ctx context.Context) error {
	// Start as if connected so the very first absence is announced.
	announced := true

	for ctx.Err() == nil {
		creds, err := s.locate()
		if err == nil {
			app := lcu.NewClient(creds, false)
			remoting := lcu.NewClient(creds, true)
			if pingErr := s.ping(ctx, remoting); pingErr != nil {
				err = pingErr
			} else {
				s.state.setConnected(creds)
				announced = true
				s.notify.Emit(shell.EventLCUState, true)
				s.log.Info().Str("port", creds.Port).Msg("client connected")

				if err := s.runConnection(ctx, creds, app, remoting); err != nil {
					return err
				}
				continue
			}
		}

		if announced {
			s.log.Info().Msg("waiting for client to open")
			s.state.setDisconnected()
			s.notify.Emit(shell.EventLCUState, false)
			announced = false
		}
		sleepCtx(ctx, s.poll)
	}

	return nil
}

// runConnection serves one live connection: stream setup, initial phase
// fetch, then the sequential event drain. Returns nil when the stream ends
// (reconnect) and an error only for the fatal no-stream condition.
func (s *Supervisor) runConnection(ctx context.Context, creds *lcu.Credentials, app, remoting *lcu.Client) error {
	stream, err := s.connectStream(ctx, creds)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer stream.Close()

	for _, topic := range []string{gameflow.TopicGameflowPhase, gameflow.TopicChampSelect} {
		if err := stream.Subscribe(topic); err != nil {
			s.log.Warn().Err(err).Str("topic", topic).Msg("subscribe failed, reconnecting")
			return nil
		}
	}
	s.log.Info().Msg("connected to client event stream")

	machine := gameflow.NewMachine(gameflow.Deps{
		App:      app,
		Remoting: remoting,
		Config:   s.cfg,
		Dodge:    s.dodge,
		Reporter: s.reporter,
		Notify:   s.notify,
		Log:      s.log,
		OnPhase:  s.state.SetLastPhase,
	})
	defer machine.Close()

	// The stream only pushes changes; fetch the phase we joined in.
	if raw, err := remoting.Get(ctx, gameflow.GameflowPhasePath); err != nil {
		s.log.Warn().Err(err).Msg("failed to fetch initial phase")
	} else {
		machine.HandlePhase(ctx, gameflow.DecodePhase(raw))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-stream.Events():
			if !ok {
				s.log.Info().Msg("event stream closed, reconnecting")
				return nil
			}
			machine.HandleEvent(ctx, ev)
		}
	}
}

// connectStream attempts the event socket within a bounded retry budget and
// reports a typed failure when exhausted rather than deciding fatality here.
func (s *Supervisor) connectStream(ctx context.Context, creds *lcu.Credentials) (eventStream, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		stream, err := s.dial(creds)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("event stream connect failed")

		if attempt < s.retries && !sleepCtx(ctx, s.backoff) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrStreamUnavailable, lastErr)
}

// sleepCtx waits for d or until ctx is done; reports whether it slept fully.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
