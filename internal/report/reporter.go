// Package report submits post-game reports for every non-friend player in the
// lobby, at most once per match for the lifetime of the process.
package report

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/web96lol/reveal/internal/shell"
)

const (
	eogStatsPath = "/lol-end-of-game/v1/eog-stats-block"
	friendsPath  = "/lol-chat/v1/friends"
	reportPath   = "/lol-player-report-sender/v1/end-of-game-reports"
)

// The category list is opaque to this tool; the client accepts it as-is.
var reportCategories = []string{
	"NEGATIVE_ATTITUDE",
	"VERBAL_ABUSE",
	"LEAVING_AFK",
	"ASSISTING_ENEMY_TEAM",
	"HATE_SPEECH",
	"THIRD_PARTY_TOOLS",
	"INAPPROPRIATE_NAME",
}

// Client is the request surface the deduper needs from the session client.
type Client interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Recorder persists submitted reports. Best-effort; failures stay internal.
type Recorder interface {
	RecordReport(matchID, summonerID uint64)
}

// Deduper fans out report submissions once per match. End-of-game events can
// legitimately recur for the same match; the second occurrence is suppressed,
// never retried.
type Deduper struct {
	mu           sync.Mutex
	lastReported *uint64

	notify   shell.Notifier
	recorder Recorder
	log      zerolog.Logger
}

// NewDeduper builds an empty deduper. recorder may be nil.
func NewDeduper(notify shell.Notifier, recorder Recorder, log zerolog.Logger) *Deduper {
	if notify == nil {
		notify = shell.Discard
	}
	return &Deduper{
		notify:   notify,
		recorder: recorder,
		log:      log.With().Str("component", "report").Logger(),
	}
}

// Handle runs the end-of-game report flow: fetch the summary, dedup by match
// id, and submit one report per non-friend player. Each submission is
// independent; one failure never blocks the others.
func (d *Deduper) Handle(ctx context.Context, app, remoting Client) {
	raw, err := remoting.Get(ctx, eogStatsPath)
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to fetch end-of-game summary")
		return
	}

	var summary any
	if err := json.Unmarshal(raw, &summary); err != nil {
		d.log.Warn().Err(err).Msg("unparseable end-of-game summary")
		return
	}

	gameID, ok := ExtractGameID(summary)
	if !ok {
		d.log.Warn().Msg("no game id in end-of-game summary")
		return
	}

	if !d.claim(gameID) {
		d.log.Debug().Uint64("gameId", gameID).Msg("match already reported")
		return
	}

	friends := d.fetchFriendIDs(ctx, app)

	localID, ok := localSummonerID(summary)
	if !ok {
		d.log.Warn().Uint64("gameId", gameID).Msg("no local player in end-of-game summary")
		return
	}

	submitted, failed := 0, 0
	for _, player := range rosterPlayers(summary) {
		id, ok := asUint64(field(player, "summonerId"))
		if !ok {
			continue
		}
		if id == localID || friends[id] {
			continue
		}
		puuid, ok := field(player, "puuid").(string)
		if !ok || puuid == "" {
			continue
		}

		payload := map[string]any{
			"gameId":             gameID,
			"categories":         reportCategories,
			"offenderSummonerId": id,
			"offenderPuuid":      puuid,
		}
		if _, err := remoting.Post(ctx, reportPath, payload); err != nil {
			failed++
			d.log.Warn().Err(err).Uint64("summonerId", id).Msg("report submission failed")
			continue
		}
		submitted++

		d.notify.Emit(shell.EventEndOfGameStarted, map[string]any{
			"summonerId": id,
			"puuid":      puuid,
			"gameId":     gameID,
		})
		if d.recorder != nil {
			d.recorder.RecordReport(gameID, id)
		}
	}

	d.log.Info().
		Uint64("gameId", gameID).
		Int("submitted", submitted).
		Int("failed", failed).
		Msg("end-of-game reports done")
}

// claim marks the match as handled. Returns false when it already was.
func (d *Deduper) claim(gameID uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastReported != nil && *d.lastReported == gameID {
		return false
	}
	id := gameID
	d.lastReported = &id
	return true
}

// fetchFriendIDs fails open: a friend-list error means an empty set, so the
// worst case is extra reports rather than an aborted handler.
func (d *Deduper) fetchFriendIDs(ctx context.Context, app Client) map[uint64]bool {
	ids := make(map[uint64]bool)

	raw, err := app.Get(ctx, friendsPath)
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to fetch friends list, reporting everyone")
		return ids
	}

	var friends []map[string]any
	if err := json.Unmarshal(raw, &friends); err != nil {
		d.log.Warn().Err(err).Msg("unparseable friends list, reporting everyone")
		return ids
	}

	for _, f := range friends {
		if id, ok := asUint64(f["summonerId"]); ok {
			ids[id] = true
		}
	}
	return ids
}

// ExtractGameID pulls a match id out of an end-of-game summary. The summary's
// shape has varied across client versions, so known locations are tried in
// order before falling back to a depth-first search of the whole payload.
func ExtractGameID(v any) (uint64, bool) {
	if id, ok := asUint64(field(v, "gameId")); ok {
		return id, true
	}

	for _, path := range [][]string{
		{"gameResult", "gameId"},
		{"gameSummary", "gameId"},
		{"teams", "0", "gameId"},
		{"localPlayer", "gameId"},
	} {
		if id, ok := asUint64(lookup(v, path)); ok {
			return id, true
		}
	}

	return searchGameID(v)
}

func searchGameID(v any) (uint64, bool) {
	switch val := v.(type) {
	case map[string]any:
		if id, ok := asUint64(val["gameId"]); ok {
			return id, true
		}
		for _, child := range val {
			if id, ok := searchGameID(child); ok {
				return id, true
			}
		}
	case []any:
		for _, child := range val {
			if id, ok := searchGameID(child); ok {
				return id, true
			}
		}
	}
	return 0, false
}

func localSummonerID(summary any) (uint64, bool) {
	return asUint64(lookup(summary, []string{"localPlayer", "summonerId"}))
}

// rosterPlayers flattens teams[].players[] regardless of team grouping.
func rosterPlayers(summary any) []any {
	teams, ok := field(summary, "teams").([]any)
	if !ok {
		return nil
	}
	var players []any
	for _, team := range teams {
		if ps, ok := field(team, "players").([]any); ok {
			players = append(players, ps...)
		}
	}
	return players
}

func field(v any, key string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func lookup(v any, path []string) any {
	for _, key := range path {
		switch node := v.(type) {
		case map[string]any:
			v = node[key]
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			v = node[idx]
		default:
			return nil
		}
	}
	return v
}

// asUint64 accepts JSON numbers and numeric strings; older client builds
// serialized the id both ways.
func asUint64(v any) (uint64, bool) {
	switch val := v.(type) {
	case float64:
		if val < 0 || val != float64(uint64(val)) {
			return 0, false
		}
		return uint64(val), true
	case string:
		id, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	case json.Number:
		id, err := strconv.ParseUint(val.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
