package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

var _ AnalyzedRepository = (*analyzedRepository)(nil)

type analyzedRepository struct {
	db *DB
}

func NewAnalyzedRepository(db *DB) AnalyzedRepository {
	return &analyzedRepository{db: db}
}

func (r *analyzedRepository) Exists(contentHash string) (bool, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT id FROM funeral_analyzed WHERE content_hash = ? LIMIT 1`,
		contentHash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check analyzed record: %w", err)
	}
	return true, nil
}

func (r *analyzedRepository) Insert(record AnalyzedRecord) error {
	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	// Imported legacy records may have no raw counterpart.
	rawID := sql.NullInt64{Int64: record.RawID, Valid: record.RawID != 0}

	_, err = r.db.Exec(`
		INSERT INTO funeral_analyzed (raw_id, district, url, content_hash, update_count, fields)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rawID, record.District, record.URL, record.ContentHash, record.UpdateCount, string(fields))
	if err != nil {
		return fmt.Errorf("failed to insert analyzed record: %w", err)
	}

	return nil
}

func (r *analyzedRepository) ListUnsent() ([]AnalyzedRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, raw_id, district, url, content_hash, update_count, fields, created_at
		FROM funeral_analyzed
		WHERE content_hash NOT IN (SELECT content_hash FROM funeral_sent)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsent records: %w", err)
	}
	defer rows.Close()

	var records []AnalyzedRecord
	for rows.Next() {
		var record AnalyzedRecord
		var rawID sql.NullInt64
		var fields string
		err := rows.Scan(
			&record.ID, &rawID, &record.District, &record.URL,
			&record.ContentHash, &record.UpdateCount, &fields, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analyzed record: %w", err)
		}
		record.RawID = rawID.Int64

		if err := json.Unmarshal([]byte(fields), &record.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields for %s: %w", record.ContentHash, err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyzed records: %w", err)
	}

	return records, nil
}
