package lcu

import (
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Wire-level message type tags used by the client event socket.
const (
	frameSubscribe   = 5
	frameUnsubscribe = 6
	frameEvent       = 8
)

// Event is one push event from the client, already unwrapped from its frame.
type Event struct {
	Topic string
	// Kind is the event type reported by the client: Create, Update, Delete.
	Kind string
	// URI is the API path the event refers to.
	URI string
	// Data is the event payload, left raw for the dispatcher to interpret.
	Data json.RawMessage
}

// EventStream is a live subscription channel to the client event socket.
// Events arrive on Events() in wire order; the channel closes when the socket
// dies (client closed or crashed), which the caller treats as a reconnect
// signal, not an error.
type EventStream struct {
	conn   *websocket.Conn
	events chan Event
}

// DialStream opens the event socket. The caller subscribes to topics before
// events start flowing.
func DialStream(creds *Credentials) (*EventStream, error) {
	dialer := websocket.Dialer{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	url := fmt.Sprintf("wss://127.0.0.1:%s", creds.Port)
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("riot:"+creds.Password)))

	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to client websocket: %w", err)
	}

	s := &EventStream{
		conn:   conn,
		events: make(chan Event, 16),
	}
	go s.readLoop()

	return s, nil
}

// Subscribe registers interest in one event topic.
func (s *EventStream) Subscribe(topic string) error {
	return s.conn.WriteJSON([]any{frameSubscribe, topic})
}

// Events returns the inbound event channel. Closed on socket termination.
func (s *EventStream) Events() <-chan Event {
	return s.events
}

// Close tears down the socket. The read loop then closes the event channel.
func (s *EventStream) Close() error {
	return s.conn.Close()
}

func (s *EventStream) readLoop() {
	defer close(s.events)
	defer s.conn.Close()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		ev, ok := decodeFrame(message)
		if !ok {
			continue
		}
		s.events <- ev
	}
}

// decodeFrame unwraps a [8, "topic", {eventType, uri, data}] event frame.
// Anything else (acks, keepalives, empty frames) is skipped.
func decodeFrame(data []byte) (Event, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) < 3 {
		return Event{}, false
	}

	var frameType int
	if err := json.Unmarshal(raw[0], &frameType); err != nil || frameType != frameEvent {
		return Event{}, false
	}

	var topic string
	if err := json.Unmarshal(raw[1], &topic); err != nil {
		return Event{}, false
	}

	var body struct {
		EventType string          `json:"eventType"`
		URI       string          `json:"uri"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw[2], &body); err != nil {
		return Event{}, false
	}

	return Event{
		Topic: topic,
		Kind:  body.EventType,
		URI:   body.URI,
		Data:  body.Data,
	}, true
}
