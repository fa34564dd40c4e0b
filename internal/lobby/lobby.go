// Package lobby resolves the champ-select roster and builds the external
// multisearch page for it.
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/browser"
)

const (
	participantsPath = "/chat/v5/participants"
	regionPath       = "/riotclient/region-locale"
)

// Client is the request surface this package needs.
type Client interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
}

// Participant is one player visible in the champ-select chat room.
type Participant struct {
	Name  string `json:"gameName"`
	Tag   string `json:"gameTag"`
	PUUID string `json:"puuid"`
}

// RiotID renders the participant as name#tag.
func (p Participant) RiotID() string {
	if p.Tag == "" {
		return p.Name
	}
	return p.Name + "#" + p.Tag
}

// Participants returns the current champ-select roster. The chat participants
// endpoint lists every open conversation; only members of the champ-select
// room count.
func Participants(ctx context.Context, client Client) ([]Participant, error) {
	raw, err := client.Get(ctx, participantsPath)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Participants []struct {
			Participant
			CID string `json:"cid"`
		} `json:"participants"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unparseable participants payload: %w", err)
	}

	var roster []Participant
	for _, p := range payload.Participants {
		if !strings.Contains(p.CID, "champ-select") {
			continue
		}
		if p.Name == "" {
			continue
		}
		roster = append(roster, p.Participant)
	}
	return roster, nil
}

// Region returns the web region of the running client. SG2 is what the client
// reports for Singapore but the stats sites route it as SG.
func Region(ctx context.Context, client Client) (string, error) {
	raw, err := client.Get(ctx, regionPath)
	if err != nil {
		return "", err
	}

	var info struct {
		WebRegion string `json:"webRegion"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return "", fmt.Errorf("unparseable region payload: %w", err)
	}

	if info.WebRegion == "SG2" {
		return "SG", nil
	}
	return info.WebRegion, nil
}

// MultisearchURL builds the stats-site link for a roster. Unknown providers
// fall back to op.gg.
func MultisearchURL(provider, region string, roster []Participant) string {
	ids := make([]string, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.RiotID())
	}
	names := strings.Join(ids, ",")
	region = strings.ToLower(region)

	switch provider {
	case "ugg":
		return fmt.Sprintf("https://u.gg/multisearch?summoners=%s&region=%s1",
			url.QueryEscape(names), region)
	case "poro":
		return fmt.Sprintf("https://porofessor.gg/pregame/%s/%s",
			region, url.PathEscape(names))
	default:
		return fmt.Sprintf("https://www.op.gg/multisearch/%s?summoners=%s",
			region, url.QueryEscape(names))
	}
}

// Open launches the URL in the default browser.
func Open(u string) error {
	return browser.OpenURL(u)
}

// OpenMultisearch resolves the client region and opens the stats page for the
// given roster.
func OpenMultisearch(ctx context.Context, client Client, provider string, roster []Participant) error {
	if len(roster) == 0 {
		return errors.New("empty roster")
	}
	region, err := Region(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to resolve region: %w", err)
	}
	return Open(MultisearchURL(provider, region, roster))
}
