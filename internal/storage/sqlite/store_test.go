package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupscan/internal/storage"
	"dupscan/internal/storage/sqlite"
	"dupscan/internal/testsupport"
)

func sampleDetail(id string, started time.Time) storage.RunDetail {
	return storage.RunDetail{
		Run: storage.Run{
			ID:               id,
			Root:             "/data",
			StartedAt:        started,
			FinishedAt:       started.Add(2 * time.Second),
			DuplicateSets:    2,
			RedundantCopies:  3,
			ReclaimableBytes: 2053,
			FilesScanned:     9,
			FilesHashed:      5,
			BytesHashed:      3082,
			Warnings:         1,
		},
		Groups: []storage.Group{
			{Digest: "0123456789abcdef0123456789abcdef", Size: 1024, Paths: []string{"/data/x", "/data/y", "/data/z"}},
			{Digest: "5d41402abc4b2a76b9719d911017c592", Size: 5, Paths: []string{"/data/b.txt", "/data/a.txt"}},
		},
		Warnings: []storage.Warning{{Path: "/data/locked", Op: "readdir", Error: "permission denied"}},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := sampleDetail("3f2a9c1e-0000-4000-8000-000000000001", started)

	require.NoError(t, store.SaveRun(ctx, want))

	got, err := store.LoadRun(ctx, want.Run.ID)
	require.NoError(t, err)
	assert.True(t, got.Run.StartedAt.Equal(want.Run.StartedAt))
	assert.True(t, got.Run.FinishedAt.Equal(want.Run.FinishedAt))

	got.Run.StartedAt, got.Run.FinishedAt = want.Run.StartedAt, want.Run.FinishedAt
	assert.Equal(t, want, got)
}

func TestSaveRunRequiresID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	err := store.SaveRun(context.Background(), storage.RunDetail{})
	require.Error(t, err)
}

func TestSaveRunRejectsDuplicateID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	detail := sampleDetail("dup-id", time.Now())

	require.NoError(t, store.SaveRun(ctx, detail))
	require.Error(t, store.SaveRun(ctx, detail))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"aaa", "bbb", "ccc"} {
		require.NoError(t, store.SaveRun(ctx, sampleDetail(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"ccc", "bbb", "aaa"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestResolveRunID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, sampleDetail("abc123", time.Now())))
	require.NoError(t, store.SaveRun(ctx, sampleDetail("abd456", time.Now())))

	id, err := store.ResolveRunID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = store.ResolveRunID(ctx, "ab")
	assert.ErrorIs(t, err, storage.ErrAmbiguousRunID)

	_, err = store.ResolveRunID(ctx, "zzz")
	assert.ErrorIs(t, err, storage.ErrRunNotFound)

	_, err = store.ResolveRunID(ctx, "  ")
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestDeleteRunCascades(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, sampleDetail("gone", time.Now())))

	require.NoError(t, store.DeleteRun(ctx, "gone"))

	_, err := store.LoadRun(ctx, "gone")
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
	assert.ErrorIs(t, store.DeleteRun(ctx, "gone"), storage.ErrRunNotFound)

	// A new run may reuse group positions of the deleted one.
	require.NoError(t, store.SaveRun(ctx, sampleDetail("gone", time.Now())))
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(context.Background(), sampleDetail("kept", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	detail, err := reopened.LoadRun(context.Background(), "kept")
	require.NoError(t, err)
	assert.Len(t, detail.Groups, 2)
}
