// Package lcu talks to the local League client API: credential discovery via
// the lockfile, a JSON request client, and the websocket event stream.
package lcu

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrLockfileNotFound = errors.New("lockfile not found")
	ErrNotRunning       = errors.New("league client is not running")
)

// Credentials holds the connection details parsed from the lockfile.
type Credentials struct {
	ProcessName string
	PID         string
	Port        string
	Password    string
	Protocol    string
}

// Locate finds and parses the client lockfile. Returns ErrLockfileNotFound
// when the client is not running (or installed somewhere unexpected).
func Locate() (*Credentials, error) {
	path, err := FindLockfile()
	if err != nil {
		return nil, err
	}
	return ParseLockfile(path)
}

// FindLockfile searches the usual install locations for the lockfile.
func FindLockfile() (string, error) {
	possiblePaths := []string{
		"C:/Riot Games/League of Legends/lockfile",
		"D:/Riot Games/League of Legends/lockfile",
		"C:/Program Files/Riot Games/League of Legends/lockfile",
		"C:/Program Files (x86)/Riot Games/League of Legends/lockfile",
	}

	for _, drive := range []string{"E:", "F:", "G:"} {
		possiblePaths = append(possiblePaths, filepath.Join(drive, "Riot Games/League of Legends/lockfile"))
	}

	if custom := os.Getenv("REVEAL_LOCKFILE"); custom != "" {
		possiblePaths = append([]string{custom}, possiblePaths...)
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrLockfileNotFound
}

// ParseLockfile reads and parses the lockfile content.
// Format: LeagueClient:pid:port:password:protocol
func ParseLockfile(path string) (*Credentials, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid lockfile format: expected 5 parts, got %d", len(parts))
	}

	return &Credentials{
		ProcessName: parts[0],
		PID:         parts[1],
		Port:        parts[2],
		Password:    parts[3],
		Protocol:    parts[4],
	}, nil
}

// Client is a JSON request handle against the client API. Two handles exist
// per connection: a plain one and a remoting one. Both point at the same
// surface; the remoting handle is the one allowed to hit matchmaking and
// champ-select mutating endpoints.
type Client struct {
	creds      *Credentials
	httpClient *http.Client
	baseURL    string
	authHeader string
	remoting   bool
}

// NewClient builds a request handle from lockfile credentials.
func NewClient(creds *Credentials, remoting bool) *Client {
	return &Client{
		creds: creds,
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, // LCU uses a self-signed cert
				},
			},
			Timeout: 10 * time.Second,
		},
		baseURL:    fmt.Sprintf("https://127.0.0.1:%s", creds.Port),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+creds.Password)),
		remoting:   remoting,
	}
}

// Remoting reports whether this is the privileged handle.
func (c *Client) Remoting() bool { return c.remoting }

// Credentials returns the credentials the client was built from.
func (c *Client) Credentials() *Credentials { return c.creds }

// Ping verifies the API is reachable with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, "/lol-summoner/v1/current-summoner")
	return err
}

// Get performs a GET request and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body and returns the raw JSON
// response. A nil body posts an empty JSON object, which is what most action
// endpoints expect.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	if body == nil {
		body = struct{}{}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, encoded)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, truncate(data, 200))
	}

	return json.RawMessage(data), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
