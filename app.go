package main

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/web96lol/reveal/internal/config"
	"github.com/web96lol/reveal/internal/dodge"
	"github.com/web96lol/reveal/internal/history"
	"github.com/web96lol/reveal/internal/logging"
	"github.com/web96lol/reveal/internal/report"
	"github.com/web96lol/reveal/internal/supervisor"
)

// App is the shell-facing application object. Its exported methods are bound
// as frontend commands; it also implements shell.Notifier by forwarding core
// notifications onto the runtime event bus.
type App struct {
	ctx context.Context
	log zerolog.Logger

	cfg      *config.Store
	state    *supervisor.State
	dodge    *dodge.Scheduler
	reporter *report.Deduper
	history  *history.Store

	cancelRun context.CancelFunc
}

// NewApp creates the application struct. Wiring happens in startup, once the
// runtime context for event emission exists.
func NewApp() *App {
	return &App{}
}

// Emit implements shell.Notifier.
func (a *App) Emit(event string, payload any) {
	runtime.EventsEmit(a.ctx, event, payload)
}

// startup wires the core and launches the connection supervisor.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log = logging.New()

	cfgPath, err := config.DefaultPath()
	if err != nil {
		a.log.Fatal().Err(err).Msg("cannot resolve config location")
	}
	a.cfg, err = config.Load(cfgPath, a)
	if err != nil {
		a.log.Fatal().Err(err).Str("path", cfgPath).Msg("cannot load config")
	}

	var dodgeRecorder dodge.Recorder
	var reportRecorder report.Recorder
	hist, err := history.Open(filepath.Join(filepath.Dir(cfgPath), "history.db"), a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("history store unavailable, continuing without it")
	} else {
		a.history = hist
		dodgeRecorder = hist
		reportRecorder = hist
	}

	a.state = supervisor.NewState()
	a.dodge = dodge.NewScheduler(a, dodgeRecorder, a.log)
	a.reporter = report.NewDeduper(a, reportRecorder, a.log)

	sup := supervisor.New(supervisor.Deps{
		State:    a.state,
		Config:   a.cfg,
		Dodge:    a.dodge,
		Reporter: a.reporter,
		Notify:   a,
		Log:      a.log,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancelRun = cancel
	go func() {
		if err := sup.Run(runCtx); err != nil {
			// Without the event stream there is nothing left to automate.
			a.log.Fatal().Err(err).Msg("client event stream unavailable")
		}
	}()
}

// shutdown stops background work when the window closes for good.
func (a *App) shutdown(ctx context.Context) {
	if a.cancelRun != nil {
		a.cancelRun()
	}
	if a.history != nil {
		a.history.Close()
	}
}
