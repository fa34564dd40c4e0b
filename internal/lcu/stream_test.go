package lcu

import (
	"encoding/json"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Event
		ok   bool
	}{
		{
			name: "gameflow event",
			raw:  `[8, "OnJsonApiEvent_lol-gameflow_v1_gameflow-phase", {"eventType": "Update", "uri": "/lol-gameflow/v1/gameflow-phase", "data": "ChampSelect"}]`,
			want: Event{
				Topic: "OnJsonApiEvent_lol-gameflow_v1_gameflow-phase",
				Kind:  "Update",
				URI:   "/lol-gameflow/v1/gameflow-phase",
				Data:  json.RawMessage(`"ChampSelect"`),
			},
			ok: true,
		},
		{
			name: "champ select delete",
			raw:  `[8, "OnJsonApiEvent_lol-champ-select_v1_session", {"eventType": "Delete", "uri": "/lol-champ-select/v1/session", "data": null}]`,
			want: Event{
				Topic: "OnJsonApiEvent_lol-champ-select_v1_session",
				Kind:  "Delete",
				URI:   "/lol-champ-select/v1/session",
				Data:  json.RawMessage(`null`),
			},
			ok: true,
		},
		{name: "subscription ack", raw: `[5, "topic"]`, ok: false},
		{name: "empty keepalive", raw: ``, ok: false},
		{name: "not an array", raw: `{"hello": "world"}`, ok: false},
		{name: "wrong frame type", raw: `[6, "topic", {}]`, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := decodeFrame([]byte(tc.raw))
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if got.Topic != tc.want.Topic || got.Kind != tc.want.Kind || got.URI != tc.want.URI {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if string(got.Data) != string(tc.want.Data) {
				t.Fatalf("data = %s, want %s", got.Data, tc.want.Data)
			}
		})
	}
}
