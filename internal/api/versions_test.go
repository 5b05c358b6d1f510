package api_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/deptdocs/revisor/internal/api"
	"github.com/deptdocs/revisor/internal/models"
)

func newVersionRouter(cmp *mockComparison, lifecycle *mockLifecycle) *gin.Engine {
	h := api.NewVersionHandler(cmp, lifecycle, testLogger())

	r := newTestRouter()
	r.GET("/content/:id/versions", h.List)
	r.GET("/content/:id/versions/:number", h.Get)
	r.POST("/content/:id/versions/:number/restore", h.Restore)
	r.GET("/content/:id/stats", h.Stats)
	r.GET("/content/:id/compare", h.Compare)

	return r
}

func TestVersionHandler_Compare(t *testing.T) {
	t.Parallel()

	var gotFrom, gotTo int

	cmp := &mockComparison{
		compareFn: func(id string, from, to int) (*models.VersionComparison, error) {
			gotFrom, gotTo = from, to

			return &models.VersionComparison{
				ContentID:    id,
				FromVersion:  from,
				ToVersion:    to,
				Diffs:        []models.VersionDiff{{Field: "title", OldValue: "Initial", NewValue: "Updated", ChangeType: models.ChangeModified}},
				TotalChanges: 1,
			}, nil
		},
	}
	r := newVersionRouter(cmp, &mockLifecycle{})

	w := doRequest(r, http.MethodGet, "/content/c1/compare?from=1&to=2", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if gotFrom != 1 || gotTo != 2 {
		t.Errorf("expected 1..2, got %d..%d", gotFrom, gotTo)
	}

	if decodeBody(t, w.Body.Bytes())["total_changes"] != float64(1) {
		t.Error("expected total_changes 1")
	}
}

func TestVersionHandler_InvalidVersionNumbers(t *testing.T) {
	t.Parallel()

	r := newVersionRouter(&mockComparison{}, &mockLifecycle{})

	for _, path := range []string{
		"/content/c1/compare?from=0&to=2",
		"/content/c1/compare?from=1",
		"/content/c1/compare?from=abc&to=2",
		"/content/c1/versions/0",
		"/content/c1/versions/-1",
	} {
		w := doRequest(r, http.MethodGet, path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}

	w := doRequest(r, http.MethodPost, "/content/c1/versions/zero/restore", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("restore: expected 400, got %d", w.Code)
	}
}

func TestVersionHandler_GetVersionNotFound(t *testing.T) {
	t.Parallel()

	cmp := &mockComparison{
		getFn: func(string, int) (*models.EnrichedVersion, error) {
			return nil, models.NewDependencyError("version store", models.ErrVersionNotFound)
		},
	}
	r := newVersionRouter(cmp, &mockLifecycle{})

	w := doRequest(r, http.MethodGet, "/content/c1/versions/9", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	if msg := decodeBody(t, w.Body.Bytes())["message"]; msg != "version not found" {
		t.Errorf("expected 'version not found', got %v", msg)
	}
}

func TestVersionHandler_Restore(t *testing.T) {
	t.Parallel()

	var gotTarget int

	lifecycle := &mockLifecycle{
		restoreFn: func(_ models.Actor, id string, target int) (*models.ContentItem, error) {
			gotTarget = target

			return &models.ContentItem{ID: id, Version: 3}, nil
		},
	}
	r := newVersionRouter(&mockComparison{}, lifecycle)

	w := doRequest(r, http.MethodPost, "/content/c1/versions/1/restore", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if gotTarget != 1 {
		t.Errorf("expected target 1, got %d", gotTarget)
	}
}

func TestVersionHandler_ListPagination(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int

	cmp := &mockComparison{
		listFn: func(_ string, limit, offset int) ([]models.EnrichedVersion, bool, error) {
			gotLimit, gotOffset = limit, offset

			return []models.EnrichedVersion{{VersionRecord: models.VersionRecord{VersionNumber: 3}}}, true, nil
		},
	}
	r := newVersionRouter(cmp, &mockLifecycle{})

	w := doRequest(r, http.MethodGet, "/content/c1/versions?limit=10&offset=20", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if gotLimit != 10 || gotOffset != 20 {
		t.Errorf("expected 10/20, got %d/%d", gotLimit, gotOffset)
	}
}

func TestVersionHandler_StatsForbidden(t *testing.T) {
	t.Parallel()

	cmp := &mockComparison{
		statsFn: func(string) (*models.VersionStats, error) { return nil, models.ErrForbidden },
	}
	r := newVersionRouter(cmp, &mockLifecycle{})

	w := doRequest(r, http.MethodGet, "/content/c1/stats", "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
