package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

type recordedBroadcast struct {
	eventType string
	key       string
	toUser    bool
}

type fakeBroadcaster struct {
	calls []recordedBroadcast
}

func (f *fakeBroadcaster) BroadcastToUser(eventType, userID string, _ json.RawMessage) {
	f.calls = append(f.calls, recordedBroadcast{eventType: eventType, key: userID, toUser: true})
}

func (f *fakeBroadcaster) BroadcastToDepartment(eventType, departmentID string, _ json.RawMessage) {
	f.calls = append(f.calls, recordedBroadcast{eventType: eventType, key: departmentID})
}

func newTestBridge() (*NotifyBridge, *fakeBroadcaster) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	hub := &fakeBroadcaster{}

	return NewNotifyBridge(log, nil, hub), hub
}

func TestHandleNotification_Routing(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []recordedBroadcast
	}{
		{
			name:    "user addressed",
			payload: `{"type":"notification.created","user_id":"u1","id":"n1"}`,
			want:    []recordedBroadcast{{eventType: "notification.created", key: "u1", toUser: true}},
		},
		{
			name:    "department addressed",
			payload: `{"type":"content.versioned","department_id":"ops","content_id":"c1"}`,
			want:    []recordedBroadcast{{eventType: "content.versioned", key: "ops"}},
		},
		{name: "no recipient", payload: `{"type":"content.versioned"}`},
		{name: "no type", payload: `{"user_id":"u1"}`},
		{name: "not json", payload: `nope`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bridge, hub := newTestBridge()

			bridge.handleNotification(&pgconn.Notification{Channel: EventsChannel, Payload: tc.payload})

			if len(hub.calls) != len(tc.want) {
				t.Fatalf("expected %d broadcasts, got %d", len(tc.want), len(hub.calls))
			}

			for i := range tc.want {
				if hub.calls[i] != tc.want[i] {
					t.Errorf("broadcast %d = %+v, want %+v", i, hub.calls[i], tc.want[i])
				}
			}
		})
	}
}

func TestNextBackoff_Bounds(t *testing.T) {
	for range 100 {
		got := nextBackoff(initialBackoff)
		if got < 1500*time.Millisecond || got > 2500*time.Millisecond {
			t.Fatalf("backoff %v outside jitter window", got)
		}
	}

	for range 100 {
		got := nextBackoff(maxBackoff)
		if got > maxBackoff+maxBackoff/4 {
			t.Fatalf("backoff %v exceeds cap", got)
		}
	}
}
