package store_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/db"
	"github.com/deptdocs/revisor/internal/db/migrations"
	"github.com/deptdocs/revisor/internal/dbpool"
	"github.com/deptdocs/revisor/internal/models"
	"github.com/deptdocs/revisor/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var (
	sharedEnv  *testEnv
	sharedOnce sync.Once
	sharedErr  error
)

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	sharedOnce.Do(func() {
		ctx := context.Background()

		log := logrus.New()
		log.SetLevel(logrus.ErrorLevel)

		pool, err := dbpool.NewPool(ctx, dbURL, 5)
		if err != nil {
			sharedErr = err
			return
		}

		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			sharedErr = err
			return
		}

		sharedEnv = &testEnv{pool: pool, log: log}
	})

	if sharedErr != nil {
		t.Fatalf("setting up test DB: %v", sharedErr)
	}

	return sharedEnv
}

// setupTestBase creates a Base and a fresh department with one user. Rows
// created under the department are removed after the test.
func setupTestBase(t *testing.T) (store.Base, *models.User) {
	t.Helper()

	env := getTestEnv(t)
	base := store.Base{Pool: env.pool, Log: env.log}

	dept := "dept-" + uuid.NewString()[:8]
	user := createTestUser(t, base, dept, models.RoleEditor)

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// content_versions rows go with their content via ON DELETE CASCADE.
		env.pool.Exec(cleanCtx, "DELETE FROM content_items WHERE department_id = $1", dept)                                           //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM audit_log WHERE user_id IN (SELECT id::text FROM users WHERE department_id = $1)", dept) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM users WHERE department_id = $1", dept)                                                   //nolint:errcheck // best-effort cleanup
	})

	return base, user
}

func createTestUser(t *testing.T, base store.Base, dept string, role models.Role) *models.User {
	t.Helper()

	name := "user-" + uuid.NewString()[:8]
	hash := sha256.Sum256([]byte("key-" + name))

	u, err := store.NewUserStore(base).CreateUser(context.Background(), models.CreateUserRequest{
		Username:     name,
		DisplayName:  name,
		DepartmentID: dept,
		Role:         role,
	}, hex.EncodeToString(hash[:]))
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	return u
}

// newContent builds a content item and its first version for the user.
func newContent(user *models.User, slugSuffix string) (*models.ContentItem, *models.VersionRecord) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	fields := models.VersionFields{
		Title:  "Initial",
		Slug:   "c-" + slugSuffix,
		Body:   "<p>hello</p>",
		Type:   models.ContentTypeSOP,
		Status: models.StatusDraft,
		Tags:   []string{"safety"},
	}

	item := &models.ContentItem{
		ID:            uuid.NewString(),
		VersionFields: fields,
		Version:       1,
		DepartmentID:  user.DepartmentID,
		AuthorID:      user.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	v1 := &models.VersionRecord{
		ContentID:        item.ID,
		VersionNumber:    1,
		VersionFields:    fields.Clone(),
		AuthorID:         user.ID,
		ChangesSummary:   "Initial version",
		IsCurrentVersion: true,
		CreatedAt:        now,
	}

	return item, v1
}
