package database

import (
	"database/sql"
	"fmt"
)

var _ RawRepository = (*rawRepository)(nil)

type rawRepository struct {
	db *DB
}

func NewRawRepository(db *DB) RawRepository {
	return &rawRepository{db: db}
}

func (r *rawRepository) Exists(contentHash, district string) (bool, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT id FROM funeral_raw WHERE content_hash = ? AND district = ? LIMIT 1`,
		contentHash, district,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check raw record: %w", err)
	}
	return true, nil
}

func (r *rawRepository) Insert(record RawRecord) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO funeral_raw (district, url, content, content_hash, update_count)
		VALUES (?, ?, ?, ?, ?)
	`, record.District, record.URL, record.Content, record.ContentHash, record.UpdateCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert raw record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get raw record id: %w", err)
	}
	return id, nil
}

func (r *rawRepository) MaxUpdateCount(district, url string) (int, bool, error) {
	var count sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(update_count) FROM funeral_raw WHERE district = ? AND url = ?`,
		district, url,
	).Scan(&count)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get max update count: %w", err)
	}
	if !count.Valid {
		return 0, false, nil
	}
	return int(count.Int64), true, nil
}

func (r *rawRepository) IDByHash(contentHash string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT id FROM funeral_raw WHERE content_hash = ? LIMIT 1`,
		contentHash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve raw record by hash: %w", err)
	}
	return id, true, nil
}

func (r *rawRepository) ListUnanalyzed() ([]RawRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, district, url, content, content_hash, update_count, created_at
		FROM funeral_raw
		WHERE content_hash NOT IN (SELECT content_hash FROM funeral_analyzed)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed records: %w", err)
	}
	defer rows.Close()

	var records []RawRecord
	for rows.Next() {
		var record RawRecord
		err := rows.Scan(
			&record.ID, &record.District, &record.URL, &record.Content,
			&record.ContentHash, &record.UpdateCount, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw records: %w", err)
	}

	return records, nil
}
