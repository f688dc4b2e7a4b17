package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"quadview/internal/viewer"
)

func newTestRepo(t *testing.T) (*AnnotationRepository, *sql.DB) {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "annotations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAnnotationRepository(db), db
}

func roiItem(label string, slice int) viewer.ToolItem {
	item := viewer.NewToolItem(viewer.ToolROI, viewer.SliceKey{
		Study:  "study-1",
		Series: "series-a",
		Slice:  slice,
	}, label)
	item.Points = []viewer.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}
	item.Samples = []float64{100, 200, 300}
	return item
}

func TestAnnotationRepository_SaveAndLoad(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	item := roiItem("lesion", 4)
	require.NoError(t, repo.SaveItem(ctx, item))

	items, err := repo.ItemsForSeries(ctx, "study-1", "series-a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, item.ID, items[0].ID)
	require.Equal(t, viewer.ToolROI, items[0].Kind)
	require.Equal(t, item.Key, items[0].Key)
	require.Equal(t, "lesion", items[0].Label)
	require.Equal(t, item.Points, items[0].Points)
	require.Equal(t, item.Samples, items[0].Samples)
}

func TestAnnotationRepository_SaveIsUpsert(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	item := roiItem("before", 4)
	require.NoError(t, repo.SaveItem(ctx, item))

	item.Label = "after"
	item.Points = append(item.Points, viewer.Point{X: 5, Y: 6})
	require.NoError(t, repo.SaveItem(ctx, item))

	items, err := repo.ItemsForSeries(ctx, "study-1", "series-a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "after", items[0].Label)
	require.Len(t, items[0].Points, 3)
}

func TestAnnotationRepository_ScopedToSeries(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveItem(ctx, roiItem("a", 1)))

	other := viewer.NewToolItem(viewer.ToolMeasure, viewer.SliceKey{
		Study: "study-1", Series: "series-b", Slice: 0,
	}, "ruler")
	require.NoError(t, repo.SaveItem(ctx, other))

	items, err := repo.ItemsForSeries(ctx, "study-1", "series-a")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = repo.ItemsForSeries(ctx, "study-1", "series-b")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, viewer.ToolMeasure, items[0].Kind)

	items, err = repo.ItemsForSeries(ctx, "study-2", "series-a")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAnnotationRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	item := roiItem("x", 0)
	require.NoError(t, repo.SaveItem(ctx, item))
	require.NoError(t, repo.DeleteItem(ctx, item.ID))
	require.NoError(t, repo.DeleteItem(ctx, item.ID), "deleting twice is not an error")

	items, err := repo.ItemsForSeries(ctx, "study-1", "series-a")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAnnotationRepository_CountForStudy(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveItem(ctx, roiItem("a", 1)))
	require.NoError(t, repo.SaveItem(ctx, roiItem("b", 2)))

	n, err := repo.CountForStudy(ctx, "study-1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = repo.CountForStudy(ctx, "study-9")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestAnnotationRepository_RejectsUnknownKind(t *testing.T) {
	repo, _ := newTestRepo(t)
	item := viewer.NewToolItem(viewer.ToolKind(99), viewer.SliceKey{}, "")
	require.Error(t, repo.SaveItem(context.Background(), item))
}
