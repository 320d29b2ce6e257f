package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrivis/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndListSeries(t *testing.T) {
	db := newTestDB(t)

	s := models.SeriesInfo{
		Path:              "/data/study/SER00002",
		Description:       "T1 AXIAL",
		Modality:          "MR",
		SeriesInstanceUID: "1.2.840.1",
		FileCount:         24,
	}
	require.NoError(t, db.UpsertSeries(s))

	series, err := db.ListSeries()
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, s, series[0])
}

func TestUpsertSeriesReplacesExisting(t *testing.T) {
	db := newTestDB(t)

	s := models.SeriesInfo{Path: "/data/SER00001", Description: "T1", FileCount: 10}
	require.NoError(t, db.UpsertSeries(s))

	s.Description = "T1 SAGITTAL"
	s.FileCount = 12
	require.NoError(t, db.UpsertSeries(s))

	series, err := db.ListSeries()
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "T1 SAGITTAL", series[0].Description)
	assert.Equal(t, 12, series[0].FileCount)
}

func TestListSeriesOrderedByPath(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertSeries(models.SeriesInfo{Path: "/data/b"}))
	require.NoError(t, db.UpsertSeries(models.SeriesInfo{Path: "/data/a"}))

	series, err := db.ListSeries()
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "/data/a", series[0].Path)
	assert.Equal(t, "/data/b", series[1].Path)
}

func TestReplaceAll(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertSeries(models.SeriesInfo{Path: "/old/series"}))

	replacement := []models.SeriesInfo{
		{Path: "/new/SER00001", Description: "LOCALIZER", Modality: "MR", FileCount: 3},
		{Path: "/new/SER00002", Description: "T1 AXIAL", Modality: "MR", FileCount: 24},
	}
	require.NoError(t, db.ReplaceAll(replacement))

	series, err := db.ListSeries()
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "/new/SER00001", series[0].Path)
	assert.Equal(t, "/new/SER00002", series[1].Path)
}

func TestReplaceAllEmpty(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertSeries(models.SeriesInfo{Path: "/old/series"}))
	require.NoError(t, db.ReplaceAll(nil))

	series, err := db.ListSeries()
	require.NoError(t, err)
	assert.Empty(t, series)
}
