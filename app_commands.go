package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/web96lol/reveal/internal/config"
	"github.com/web96lol/reveal/internal/dodge"
	"github.com/web96lol/reveal/internal/gameflow"
	"github.com/web96lol/reveal/internal/history"
	"github.com/web96lol/reveal/internal/lcu"
	"github.com/web96lol/reveal/internal/lobby"
	"github.com/web96lol/reveal/internal/shell"
	"github.com/web96lol/reveal/internal/supervisor"
)

var errNotConnected = errors.New("client not connected")

const commandTimeout = 10 * time.Second

// AppReady is called by the frontend once it has mounted. It replays the
// current connection state and phase so a late-loading window catches up, and
// hands back the active config.
func (a *App) AppReady() config.Config {
	snap := a.state.Snapshot()
	a.Emit(shell.EventLCUState, snap.Connected)
	if snap.LastPhase != "" {
		a.Emit(shell.EventClientState, snap.LastPhase)
	}
	return a.cfg.Get()
}

// GetConnectionState returns the current connection snapshot.
func (a *App) GetConnectionState() supervisor.Snapshot {
	return a.state.Snapshot()
}

// GetClientInfo returns the credentials of the live connection.
func (a *App) GetClientInfo() (*lcu.Credentials, error) {
	creds, ok := a.state.Credentials()
	if !ok {
		return nil, errNotConnected
	}
	return creds, nil
}

// GetConfig returns the current settings.
func (a *App) GetConfig() config.Config {
	return a.cfg.Get()
}

// SetConfig persists new settings and broadcasts them.
func (a *App) SetConfig(cfg config.Config) error {
	return a.cfg.Update(cfg)
}

// OpenMultisearch opens the stats page for the current champ-select lobby.
func (a *App) OpenMultisearch() error {
	creds, ok := a.state.Credentials()
	if !ok {
		return errNotConnected
	}
	client := lcu.NewClient(creds, false)

	ctx, cancel := context.WithTimeout(a.ctx, commandTimeout)
	defer cancel()

	roster, err := lobby.Participants(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to fetch lobby: %w", err)
	}
	if len(roster) == 0 {
		return errors.New("no players visible in champ select")
	}
	return lobby.OpenMultisearch(ctx, client, a.cfg.Get().MultiProvider, roster)
}

// Dodge quits the current champ select immediately.
func (a *App) Dodge() error {
	creds, ok := a.state.Credentials()
	if !ok {
		return errNotConnected
	}
	remoting := lcu.NewClient(creds, true)

	ctx, cancel := context.WithTimeout(a.ctx, commandTimeout)
	defer cancel()

	a.log.Info().Msg("manual dodge requested")
	if _, err := remoting.Post(ctx, dodge.QuitPath, nil); err != nil {
		return fmt.Errorf("failed to quit champ select: %w", err)
	}
	return nil
}

// ToggleDodge arms the last-second dodge for the current match, or disarms it
// when already armed. Returns the resulting armed state.
func (a *App) ToggleDodge() (bool, error) {
	if _, armed := a.dodge.Armed(); armed {
		a.dodge.Disarm()
		return false, nil
	}

	creds, ok := a.state.Credentials()
	if !ok {
		return false, errNotConnected
	}
	remoting := lcu.NewClient(creds, true)

	ctx, cancel := context.WithTimeout(a.ctx, commandTimeout)
	defer cancel()

	raw, err := remoting.Get(ctx, gameflow.ChampSelectSessionPath)
	if err != nil {
		return false, fmt.Errorf("failed to fetch champ select session: %w", err)
	}
	var snap gameflow.SessionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.GameID == 0 {
		return false, errors.New("not in champ select")
	}

	a.dodge.Arm(dodge.MatchID(snap.GameID))
	return true, nil
}

// RecentHistory returns the latest automation log entries.
func (a *App) RecentHistory(limit int) ([]history.Entry, error) {
	if a.history == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return a.history.Recent(limit)
}
