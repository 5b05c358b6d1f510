package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptdocs/revisor/internal/memstore"
	"github.com/deptdocs/revisor/internal/models"
)

// seedHistory creates content by alice and n-1 further versions alternating
// between bob and an author missing from the directory.
func seedHistory(t *testing.T, n int) (*memstore.ContentStore, string) {
	t.Helper()

	store := memstore.NewContentStore(nil)
	mgr := NewLifecycleManager(store, store, nil, DepartmentPolicy{}, testLogger())
	ctx := context.Background()

	item, err := mgr.CreateContent(ctx, alice.Actor(), models.CreateContentRequest{Title: "v1", Slug: "history", Type: models.ContentTypeGuide})
	require.NoError(t, err)

	ghost := models.Actor{ID: "ghost", DepartmentID: "ops", Role: models.RoleEditor}

	for v := 2; v <= n; v++ {
		actor := bob.Actor()
		if v%2 == 1 {
			actor = ghost
		}

		title := "v" + strconv.Itoa(v)
		_, err := mgr.UpdateContentAndSnapshot(ctx, actor, item.ID, v-1, models.ContentPatch{Title: &title}, "")
		require.NoError(t, err)
	}

	return store, item.ID
}

func TestComparison_ListVersionsEnrichesByIndex(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 5)
	dir := newMockDirectory(alice, bob)
	svc := NewComparisonService(store, store, dir, DepartmentPolicy{}, testLogger())

	page, more, err := svc.ListVersions(context.Background(), vera.Actor(), id, 10, 0)
	require.NoError(t, err)
	assert.False(t, more)
	require.Len(t, page, 5)

	for i, v := range page {
		assert.Equal(t, 5-i, v.VersionNumber)

		switch v.AuthorID {
		case "alice", "bob":
			require.NotNil(t, v.Author, "version %d", v.VersionNumber)
			assert.Equal(t, v.AuthorID, v.Author.ID)
		default:
			assert.Nil(t, v.Author, "unknown authors resolve to null")
		}
	}
}

func TestComparison_DirectoryErrorsYieldNullAuthors(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 3)
	dir := newMockDirectory(alice, bob)
	dir.getErr = errors.New("directory down")
	log, hook := logtest.NewNullLogger()
	svc := NewComparisonService(store, store, dir, DepartmentPolicy{}, log)

	page, _, err := svc.ListVersions(context.Background(), alice.Actor(), id, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)

	for _, v := range page {
		assert.Nil(t, v.Author)
	}

	entries := hook.AllEntries()
	require.Len(t, entries, 3, "each failed lookup is logged")
	for _, e := range entries {
		assert.Equal(t, logrus.WarnLevel, e.Level)
		assert.NotEmpty(t, e.Data["user_id"])
		assert.ErrorIs(t, e.Data[logrus.ErrorKey].(error), models.ErrDependency)
	}
}

func TestComparison_UnknownAuthorIsNotLogged(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 3)
	log, hook := logtest.NewNullLogger()
	svc := NewComparisonService(store, store, newMockDirectory(), DepartmentPolicy{}, log)

	_, _, err := svc.ListVersions(context.Background(), alice.Actor(), id, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())
}

func TestComparison_VersionsSequence(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 7)
	svc := NewComparisonService(store, store, newMockDirectory(alice, bob), DepartmentPolicy{}, testLogger())
	seq := svc.Versions(context.Background(), alice.Actor(), id, 3)

	collect := func() []int {
		var got []int
		for v, err := range seq {
			require.NoError(t, err)
			got = append(got, v.VersionNumber)
		}

		return got
	}

	assert.Equal(t, []int{7, 6, 5, 4, 3, 2, 1}, collect())
	assert.Equal(t, []int{7, 6, 5, 4, 3, 2, 1}, collect(), "ranging again restarts from the newest version")

	var first []int
	for v := range seq {
		first = append(first, v.VersionNumber)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []int{7, 6}, first)
}

func TestComparison_VersionsSequenceErrors(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 2)
	versions := &failingVersionStore{VersionStore: store, listErr: errors.New("timeout")}
	svc := NewComparisonService(store, versions, newMockDirectory(), DepartmentPolicy{}, testLogger())

	calls := 0
	for _, err := range svc.Versions(context.Background(), alice.Actor(), id, 10) {
		calls++
		assert.ErrorIs(t, err, models.ErrDependency)
	}
	assert.Equal(t, 1, calls)

	for _, err := range svc.Versions(context.Background(), hank.Actor(), id, 10) {
		assert.ErrorIs(t, err, models.ErrForbidden)
	}
}

func TestComparison_CompareIsSymmetric(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 3)
	svc := NewComparisonService(store, store, newMockDirectory(alice, bob), DepartmentPolicy{}, testLogger())
	ctx := context.Background()

	forward, err := svc.CompareVersions(ctx, alice.Actor(), id, 1, 3)
	require.NoError(t, err)
	backward, err := svc.CompareVersions(ctx, alice.Actor(), id, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, forward.TotalChanges, backward.TotalChanges)
	require.Len(t, forward.Diffs, len(backward.Diffs))

	for i := range forward.Diffs {
		assert.Equal(t, forward.Diffs[i].OldValue, backward.Diffs[i].NewValue)
		assert.Equal(t, forward.Diffs[i].NewValue, backward.Diffs[i].OldValue)
	}

	self, err := svc.CompareVersions(ctx, alice.Actor(), id, 2, 2)
	require.NoError(t, err)
	assert.Zero(t, self.TotalChanges)
	assert.Empty(t, self.Diffs)

	_, err = svc.CompareVersions(ctx, alice.Actor(), id, 1, 99)
	assert.ErrorIs(t, err, models.ErrVersionNotFound)

	_, err = svc.CompareVersions(ctx, alice.Actor(), id, 0, 1)
	assert.ErrorIs(t, err, models.ErrInvalidVersionNumber)
}

func TestComparison_ReadPermission(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 2)
	svc := NewComparisonService(store, store, newMockDirectory(alice, bob), DepartmentPolicy{}, testLogger())
	ctx := context.Background()

	_, _, err := svc.ListVersions(ctx, hank.Actor(), id, 10, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.GetVersionStats(ctx, hank.Actor(), id)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.GetVersion(ctx, root.Actor(), id, 2)
	assert.NoError(t, err, "admins read every department")

	v, err := svc.GetVersion(ctx, vera.Actor(), id, 1)
	require.NoError(t, err)
	require.NotNil(t, v.Author)
	assert.Equal(t, "Alice", v.Author.DisplayName)

	_, err = svc.GetVersion(ctx, vera.Actor(), "missing", 1)
	assert.ErrorIs(t, err, models.ErrContentNotFound)
}

func TestComparison_StatsAuthors(t *testing.T) {
	t.Parallel()

	store, id := seedHistory(t, 4)
	svc := NewComparisonService(store, store, newMockDirectory(alice, bob), DepartmentPolicy{}, testLogger())

	stats, err := svc.GetVersionStats(context.Background(), alice.Actor(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Count)
	require.NotNil(t, stats.FirstAuthor)
	assert.Equal(t, "alice", stats.FirstAuthor.Username)
	require.NotNil(t, stats.LastAuthor)
	assert.Equal(t, "bob", stats.LastAuthor.Username)
	require.NotNil(t, stats.FirstAt)
	require.NotNil(t, stats.LastAt)
	assert.False(t, stats.LastAt.Before(*stats.FirstAt))
}
