// Package events defines the WebSocket event contracts DataBoard pushes to
// connected dashboards. Dashboards do not receive data over the socket; they
// receive invalidations and re-request their boards over HTTP.
package events

import "time"

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeConnect is sent to a client right after registration.
	MessageTypeConnect MessageType = "connect"

	// MessageTypeDataUpdate tells dashboards a source dataset changed and
	// any board derived from it should be re-requested.
	MessageTypeDataUpdate MessageType = "data:update"

	// MessageTypeError carries a non-fatal server-side error to clients.
	MessageTypeError MessageType = "error"
)

// Message is the envelope for every event pushed over the socket.
type Message struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// DataUpdate is the payload of MessageTypeDataUpdate.
type DataUpdate struct {
	Dataset string `json:"dataset"`
	Path    string `json:"path"`
}

// Connected is the payload of MessageTypeConnect.
type Connected struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}
