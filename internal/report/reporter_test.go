package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type postCall struct {
	path string
	body any
}

type fakeClient struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	posts     []postCall
}

func (f *fakeClient) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	body, ok := f.responses[path]
	if !ok {
		return nil, fmt.Errorf("GET %s: unexpected status 404", path)
	}
	return json.RawMessage(body), nil
}

func (f *fakeClient) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postCall{path: path, body: body})
	return json.RawMessage(`{}`), nil
}

func (f *fakeClient) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) Emit(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

const eogSummary = `{
	"gameId": 555,
	"localPlayer": {"summonerId": 1, "puuid": "p-1"},
	"teams": [
		{"players": [
			{"summonerId": 1, "puuid": "p-1"},
			{"summonerId": 2, "puuid": "p-2"},
			{"summonerId": 3, "puuid": "p-3"}
		]},
		{"players": [
			{"summonerId": 4, "puuid": "p-4"},
			{"summonerId": 5, "puuid": "p-5"}
		]}
	]
}`

func newFixture() (*Deduper, *fakeClient, *fakeClient, *recordingNotifier) {
	notify := &recordingNotifier{}
	d := NewDeduper(notify, nil, zerolog.Nop())
	app := &fakeClient{responses: map[string]string{
		friendsPath: `[{"summonerId": 2}]`,
	}}
	remoting := &fakeClient{responses: map[string]string{
		eogStatsPath: eogSummary,
	}}
	return d, app, remoting, notify
}

func TestExtractGameID(t *testing.T) {
	cases := []struct {
		name string
		json string
		want uint64
		ok   bool
	}{
		{"top level number", `{"gameId": 42}`, 42, true},
		{"top level string", `{"gameId": "42"}`, 42, true},
		{"under gameResult", `{"gameResult": {"gameId": 7}}`, 7, true},
		{"under gameSummary", `{"gameSummary": {"gameId": 8}}`, 8, true},
		{"under first team", `{"teams": [{"gameId": 9}]}`, 9, true},
		{"under local player", `{"localPlayer": {"gameId": 10}}`, 10, true},
		{"deeply nested", `{"a": {"b": [{"c": {"gameId": 11}}]}}`, 11, true},
		{"absent", `{"foo": "bar"}`, 0, false},
		{"non numeric string", `{"gameId": "abc"}`, 0, false},
		{"null payload", `null`, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v any
			if err := json.Unmarshal([]byte(tc.json), &v); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			got, ok := ExtractGameID(v)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("got (%d, %v), want (%d, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestHandleReportsEveryoneExceptSelfAndFriends(t *testing.T) {
	d, app, remoting, notify := newFixture()

	d.Handle(context.Background(), app, remoting)

	// Local player 1 and friend 2 are excluded; 3, 4, 5 get reported.
	wantTargets := map[uint64]bool{3: true, 4: true, 5: true}
	if got := remoting.postCount(); got != len(wantTargets) {
		t.Fatalf("expected %d reports, got %d", len(wantTargets), got)
	}
	for _, call := range remoting.posts {
		if call.path != reportPath {
			t.Fatalf("unexpected post path %s", call.path)
		}
		payload := call.body.(map[string]any)
		id := payload["offenderSummonerId"].(uint64)
		if !wantTargets[id] {
			t.Fatalf("unexpected or duplicate target %d", id)
		}
		delete(wantTargets, id)
		if payload["gameId"].(uint64) != 555 {
			t.Fatalf("wrong game id in payload: %v", payload["gameId"])
		}
		cats := payload["categories"].([]string)
		if len(cats) != 7 {
			t.Fatalf("expected 7 categories, got %d", len(cats))
		}
	}

	if len(notify.events) != 3 {
		t.Fatalf("expected 3 shell notifications, got %d", len(notify.events))
	}
}

func TestHandleIsIdempotentPerMatch(t *testing.T) {
	d, app, remoting, _ := newFixture()

	d.Handle(context.Background(), app, remoting)
	first := remoting.postCount()
	d.Handle(context.Background(), app, remoting)

	if got := remoting.postCount(); got != first {
		t.Fatalf("second handle submitted %d extra reports", got-first)
	}
}

func TestHandleFriendLookupFailsOpen(t *testing.T) {
	d, app, remoting, _ := newFixture()
	app.errs = map[string]error{friendsPath: errors.New("boom")}

	d.Handle(context.Background(), app, remoting)

	// Only the local player is excluded now.
	if got := remoting.postCount(); got != 4 {
		t.Fatalf("expected 4 reports with empty friend set, got %d", got)
	}
}

func TestHandleAbortsWithoutGameID(t *testing.T) {
	d, app, remoting, _ := newFixture()
	remoting.responses[eogStatsPath] = `{"something": "else"}`

	d.Handle(context.Background(), app, remoting)
	if remoting.postCount() != 0 {
		t.Fatal("no reports expected without a game id")
	}

	// Nothing was marked reported, so a later well-formed summary goes out.
	remoting.responses[eogStatsPath] = eogSummary
	d.Handle(context.Background(), app, remoting)
	if remoting.postCount() != 3 {
		t.Fatalf("expected reports after recovery, got %d", remoting.postCount())
	}
}

func TestHandleAbortsWithoutLocalPlayer(t *testing.T) {
	d, app, remoting, _ := newFixture()
	remoting.responses[eogStatsPath] = `{"gameId": 777, "teams": [{"players": [{"summonerId": 2, "puuid": "p-2"}]}]}`

	d.Handle(context.Background(), app, remoting)
	if remoting.postCount() != 0 {
		t.Fatal("no reports expected without a local player")
	}
}

func TestHandleSkipsPlayersWithoutPUUID(t *testing.T) {
	d, app, remoting, _ := newFixture()
	remoting.responses[eogStatsPath] = `{
		"gameId": 888,
		"localPlayer": {"summonerId": 1, "puuid": "p-1"},
		"teams": [{"players": [
			{"summonerId": 1, "puuid": "p-1"},
			{"summonerId": 6},
			{"summonerId": 7, "puuid": "p-7"}
		]}]
	}`

	d.Handle(context.Background(), app, remoting)
	if got := remoting.postCount(); got != 1 {
		t.Fatalf("expected 1 report, got %d", got)
	}
}
