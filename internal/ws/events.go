package ws

import (
	"encoding/json"
	"time"
)

// Event types pushed to clients.
const (
	EventNotificationCreated = "notification.created"
	EventContentVersioned    = "content.versioned"
)

// Client message types.
const (
	msgSubscribe = "subscribe"
	msgWatch     = "watch"
	msgReset     = "reset"
	msgShutdown  = "shutdown"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type      string          `json:"type"`
	ID        uint64          `json:"id"`
	Scope     string          `json:"-"`
	ContentID string          `json:"-"`
	Data      json.RawMessage `json:"data"`
	Time      time.Time       `json:"time"`
}

// ClientMsg is a message from the client.
//
// "subscribe" replays events after LastEventID and sets the watch list.
// "watch" only replaces the watch list. An empty ContentIDs watches every
// content item of the department; the user's own notifications are always
// delivered.
type ClientMsg struct {
	Type        string   `json:"type"`
	LastEventID uint64   `json:"last_event_id,omitempty"`
	ContentIDs  []string `json:"content_ids,omitempty"`
}

// ControlMsg is a server message that is not an Event.
type ControlMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// UserScope returns the buffer scope for events addressed to one user.
func UserScope(userID string) string { return "user:" + userID }

// DepartmentScope returns the buffer scope for events addressed to a department.
func DepartmentScope(departmentID string) string { return "dept:" + departmentID }

// contentIDOf pulls content_id out of an event payload.
func contentIDOf(data json.RawMessage) string {
	var v struct {
		ContentID string `json:"content_id"`
	}
	_ = json.Unmarshal(data, &v)

	return v.ContentID
}

func controlMessage(msgType, message string) []byte {
	b, _ := json.Marshal(ControlMsg{Type: msgType, Message: message})

	return b
}
