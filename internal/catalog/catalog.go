// Package catalog persists discovered DICOM series in a sqlite database so
// the web UI can list them without rescanning the filesystem.
package catalog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"mrivis/internal/models"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS series (
			path                TEXT PRIMARY KEY,
			description         TEXT,
			modality            TEXT,
			series_instance_uid TEXT,
			file_count          BIGINT,
			scanned_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// UpsertSeries records a series, replacing any previous entry for the same path
func (db *DB) UpsertSeries(s models.SeriesInfo) error {
	_, err := db.Exec(`
		INSERT INTO series (path, description, modality, series_instance_uid, file_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			description = excluded.description,
			modality = excluded.modality,
			series_instance_uid = excluded.series_instance_uid,
			file_count = excluded.file_count,
			scanned_at = CURRENT_TIMESTAMP`,
		s.Path, s.Description, s.Modality, s.SeriesInstanceUID, s.FileCount)
	if err != nil {
		return fmt.Errorf("upserting series %s: %w", s.Path, err)
	}
	return nil
}

// ListSeries returns all cataloged series ordered by path
func (db *DB) ListSeries() ([]models.SeriesInfo, error) {
	rows, err := db.Query(`
		SELECT path, description, modality, series_instance_uid, file_count
		FROM series ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	var series []models.SeriesInfo
	for rows.Next() {
		var s models.SeriesInfo
		if err := rows.Scan(&s.Path, &s.Description, &s.Modality, &s.SeriesInstanceUID, &s.FileCount); err != nil {
			return nil, fmt.Errorf("scanning series row: %w", err)
		}
		series = append(series, s)
	}
	return series, rows.Err()
}

// ReplaceAll atomically replaces the catalog contents with the given series,
// used after a full rescan
func (db *DB) ReplaceAll(series []models.SeriesInfo) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM series`); err != nil {
		return fmt.Errorf("clearing series: %w", err)
	}

	for _, s := range series {
		_, err := tx.Exec(`
			INSERT INTO series (path, description, modality, series_instance_uid, file_count)
			VALUES (?, ?, ?, ?, ?)`,
			s.Path, s.Description, s.Modality, s.SeriesInstanceUID, s.FileCount)
		if err != nil {
			return fmt.Errorf("inserting series %s: %w", s.Path, err)
		}
	}

	return tx.Commit()
}
