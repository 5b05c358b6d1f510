package api_test

import (
	"net/http"
	"testing"

	"github.com/deptdocs/revisor/internal/api"
	"github.com/deptdocs/revisor/internal/models"
)

func TestAuditHandler_QueryFilters(t *testing.T) {
	t.Parallel()

	var got models.AuditQueryOpts

	svc := &mockAudit{
		queryFn: func(_ models.Actor, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
			got = opts

			return []models.AuditEntry{{ID: 1, Action: models.AuditActionUpdate}}, false, nil
		},
	}
	h := api.NewAuditHandler(svc, testLogger())

	r := newTestRouterAs(models.RoleAdmin)
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet,
		"/audit?resource_type=content&resource_id=c1&action=update&user_id=u1&since=2026-01-02T03:04:05Z", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if got.ResourceType != "content" || got.ResourceID != "c1" || got.Action != "update" || got.UserID != "u1" {
		t.Errorf("unexpected filters: %+v", got)
	}

	if got.Since == nil || got.Since.Year() != 2026 {
		t.Errorf("expected since to be parsed, got %v", got.Since)
	}
}

func TestAuditHandler_InvalidSince(t *testing.T) {
	t.Parallel()

	h := api.NewAuditHandler(&mockAudit{}, testLogger())

	r := newTestRouterAs(models.RoleAdmin)
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit?since=yesterday", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAuditHandler_PurgeDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	var gotDays int

	svc := &mockAudit{
		purgeFn: func(_ models.Actor, days int) (int, error) {
			gotDays = days

			return 7, nil
		},
	}
	h := api.NewAuditHandler(svc, testLogger())

	r := newTestRouterAs(models.RoleAdmin)
	r.DELETE("/audit", h.Purge)

	w := doRequest(r, http.MethodDelete, "/audit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if gotDays != 90 {
		t.Errorf("expected default 90 days, got %d", gotDays)
	}

	if decodeBody(t, w.Body.Bytes())["deleted"] != float64(7) {
		t.Error("expected deleted 7")
	}

	w = doRequest(r, http.MethodDelete, "/audit?retention_days=0", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAuditHandler_NonAdminForbidden(t *testing.T) {
	t.Parallel()

	svc := &mockAudit{
		queryFn: func(actor models.Actor, _ models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
			if actor.Role != models.RoleAdmin {
				return nil, false, models.ErrForbidden
			}

			return nil, false, nil
		},
	}
	h := api.NewAuditHandler(svc, testLogger())

	r := newTestRouter()
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit", "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
