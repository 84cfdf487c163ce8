package service

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Simerblur/online-data-mining/internal/identity"
	"github.com/Simerblur/online-data-mining/internal/model"
	"github.com/Simerblur/online-data-mining/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCSVExport(t *testing.T) {
	dir := t.TempDir()
	db, err := repository.InitDB(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	store := repository.NewEntityStore(db)

	year := 1995
	_, err = store.UpsertMovie(&model.Movie{Slug: "heat", Title: "Heat", Year: &year})
	require.NoError(t, err)

	exportDir := filepath.Join(dir, "out")
	exporter := NewCSVExporter(db, exportDir)
	require.NoError(t, exporter.Export())

	f, err := os.Open(filepath.Join(exportDir, "movies.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "slug", rows[0][1])
	require.Equal(t, "heat", rows[1][1])
	require.Equal(t, "1995", rows[1][3])
	// 缺失字段导出为空串
	require.Equal(t, "", rows[1][7])

	// 再次导出走追加，表头不重复
	require.NoError(t, exporter.Export())
	f2, err := os.Open(filepath.Join(exportDir, "movies.csv"))
	require.NoError(t, err)
	defer f2.Close()
	rows, err = csv.NewReader(f2).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "heat", rows[2][1])
}

func TestCSVExportUserReviewsCarryReviewer(t *testing.T) {
	dir := t.TempDir()
	db, err := repository.InitDB(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	store := repository.NewEntityStore(db)

	movieID, err := store.UpsertMovie(&model.Movie{Slug: "heat", Title: "Heat"})
	require.NoError(t, err)
	reviewerID, err := store.UpsertReviewer("moviefan42", "", time.Now())
	require.NoError(t, err)

	score := 9
	require.NoError(t, store.UpsertUserReview(&model.UserReview{
		ID:         identity.StableIDParts(identity.KindUserReview, "heat", "moviefan42", "0"),
		MovieID:    movieID,
		ReviewerID: &reviewerID,
		Score:      &score,
		ReviewDate: "Mar 3, 2024",
		Text:       "Stunning visuals.",
	}))

	exportDir := filepath.Join(dir, "out")
	require.NoError(t, NewCSVExporter(db, exportDir).Export())

	f, err := os.Open(filepath.Join(exportDir, "user_reviews.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "reviewer_id", rows[0][2])
	require.Equal(t, strconv.FormatUint(reviewerID, 10), rows[1][2])
	require.Equal(t, "9", rows[1][3])
}
