package lobby

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

type fakeClient struct {
	responses map[string]string
}

func (f *fakeClient) Get(ctx context.Context, path string) (json.RawMessage, error) {
	body, ok := f.responses[path]
	if !ok {
		return nil, fmt.Errorf("GET %s: unexpected status 404", path)
	}
	return json.RawMessage(body), nil
}

func TestParticipantsFiltersChampSelectRoom(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		participantsPath: `{"participants": [
			{"cid": "a@champ-select.pvp.net", "gameName": "Alice", "gameTag": "NA1", "puuid": "p-1"},
			{"cid": "b@sec.pvp.net", "gameName": "Eve", "gameTag": "NA1", "puuid": "p-9"},
			{"cid": "c@champ-select.pvp.net", "gameName": "Bob", "gameTag": "EUW", "puuid": "p-2"},
			{"cid": "d@champ-select.pvp.net", "gameName": "", "puuid": "p-3"}
		]}`,
	}}

	roster, err := Participants(context.Background(), client)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}

	if len(roster) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(roster))
	}
	if roster[0].RiotID() != "Alice#NA1" || roster[1].RiotID() != "Bob#EUW" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestRegionMapsSingapore(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		regionPath: `{"locale": "en_SG", "webRegion": "SG2"}`,
	}}

	region, err := Region(context.Background(), client)
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	if region != "SG" {
		t.Fatalf("expected SG, got %q", region)
	}
}

func TestRegionPassthrough(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		regionPath: `{"webRegion": "euw"}`,
	}}

	region, err := Region(context.Background(), client)
	if err != nil {
		t.Fatal(err)
	}
	if region != "euw" {
		t.Fatalf("expected euw, got %q", region)
	}
}

func TestMultisearchURL(t *testing.T) {
	roster := []Participant{
		{Name: "Alice", Tag: "NA1"},
		{Name: "Bob", Tag: "NA1"},
	}

	cases := []struct {
		provider string
		want     string
	}{
		{"opgg", "https://www.op.gg/multisearch/na?summoners=Alice%23NA1%2CBob%23NA1"},
		{"ugg", "https://u.gg/multisearch?summoners=Alice%23NA1%2CBob%23NA1&region=na1"},
		{"poro", "https://porofessor.gg/pregame/na/Alice%23NA1,Bob%23NA1"},
		{"unknown", "https://www.op.gg/multisearch/na?summoners=Alice%23NA1%2CBob%23NA1"},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			if got := MultisearchURL(tc.provider, "NA", roster); got != tc.want {
				t.Fatalf("got  %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestRiotIDWithoutTag(t *testing.T) {
	p := Participant{Name: "Legacy"}
	if p.RiotID() != "Legacy" {
		t.Fatalf("got %q", p.RiotID())
	}
}
