package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(migrations.FS))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRecord(created time.Time) *models.GraphRecord {
	data, _ := json.Marshal(map[string]any{"nodes": []any{}, "edges": []any{}})
	return &models.GraphRecord{
		Cluster:   "test-cluster",
		Namespace: "prod",
		Kind:      models.WorkloadDeployment,
		Name:      "web",
		NodeCount: 3,
		EdgeCount: 2,
		Data:      data,
		CreatedAt: created,
	}
}

func TestSQLiteSaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := testRecord(time.Now().UTC())
	require.NoError(t, repo.SaveGraph(ctx, rec))
	assert.NotEmpty(t, rec.ID, "save fills in a missing id")

	got, err := repo.GetGraph(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "prod", got.Namespace)
	assert.Equal(t, models.WorkloadDeployment, got.Kind)
	assert.Equal(t, 3, got.NodeCount)
	assert.JSONEq(t, string(rec.Data), string(got.Data))
}

func TestSQLiteGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetGraph(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.SaveGraph(ctx, testRecord(base.Add(time.Duration(i)*time.Hour))))
	}
	// a record for another workload stays out of the listing
	other := testRecord(base)
	other.Name = "api"
	require.NoError(t, repo.SaveGraph(ctx, other))

	recs, err := repo.ListGraphs(ctx, "test-cluster", "prod", models.WorkloadDeployment, "web", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].CreatedAt.After(recs[1].CreatedAt))
	assert.True(t, recs[1].CreatedAt.After(recs[2].CreatedAt))

	limited, err := repo.ListGraphs(ctx, "test-cluster", "prod", models.WorkloadDeployment, "web", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLitePruneKeepsNewest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var newest string
	for i := 0; i < 5; i++ {
		rec := testRecord(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, repo.SaveGraph(ctx, rec))
		newest = rec.ID
	}

	require.NoError(t, repo.Prune(ctx, "test-cluster", "prod", models.WorkloadDeployment, "web", 2))

	recs, err := repo.ListGraphs(ctx, "test-cluster", "prod", models.WorkloadDeployment, "web", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, newest, recs[0].ID)

	// keep <= 0 is a no-op
	require.NoError(t, repo.Prune(ctx, "test-cluster", "prod", models.WorkloadDeployment, "web", 0))
	recs, err = repo.ListGraphs(ctx, "test-cluster", "prod", models.WorkloadDeployment, "web", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.RunMigrations(migrations.FS))
	assert.NoError(t, repo.Ping(context.Background()))
}
