package api_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/deptdocs/revisor/internal/api"
	"github.com/deptdocs/revisor/internal/models"
)

func newNotificationRouter(svc *mockNotifications) *gin.Engine {
	h := api.NewNotificationHandler(svc, testLogger())

	r := newTestRouter()
	r.GET("/notifications", h.List)
	r.POST("/notifications/read-all", h.MarkAllRead)
	r.POST("/notifications/:id/read", h.MarkRead)

	return r
}

func TestNotificationHandler_ListUnread(t *testing.T) {
	t.Parallel()

	var got models.NotificationQueryOpts

	svc := &mockNotifications{
		listFn: func(actor models.Actor, opts models.NotificationQueryOpts) ([]models.Notification, bool, error) {
			if actor.ID != testUserID {
				t.Errorf("expected actor %q, got %q", testUserID, actor.ID)
			}
			got = opts

			return []models.Notification{{ID: "n1", UserID: actor.ID}}, false, nil
		},
	}
	r := newNotificationRouter(svc)

	w := doRequest(r, http.MethodGet, "/notifications?unread=true&limit=5", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if !got.UnreadOnly || got.Limit != 5 {
		t.Errorf("unexpected opts: %+v", got)
	}
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	t.Parallel()

	svc := &mockNotifications{
		markFn: func(_ models.Actor, id string) error {
			if id == "missing" {
				return models.ErrNotificationNotFound
			}

			return nil
		},
	}
	r := newNotificationRouter(svc)

	w := doRequest(r, http.MethodPost, "/notifications/n1/read", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/notifications/missing/read", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	if msg := decodeBody(t, w.Body.Bytes())["message"]; msg != "notification not found" {
		t.Errorf("expected 'notification not found', got %v", msg)
	}
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	t.Parallel()

	svc := &mockNotifications{
		markAllFn: func(models.Actor) (int, error) { return 4, nil },
	}
	r := newNotificationRouter(svc)

	w := doRequest(r, http.MethodPost, "/notifications/read-all", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if decodeBody(t, w.Body.Bytes())["updated"] != float64(4) {
		t.Error("expected updated 4")
	}
}
