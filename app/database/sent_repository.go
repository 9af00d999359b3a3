package database

import (
	"database/sql"
	"fmt"
)

var _ SentRepository = (*sentRepository)(nil)

type sentRepository struct {
	db *DB
}

func NewSentRepository(db *DB) SentRepository {
	return &sentRepository{db: db}
}

func (r *sentRepository) Exists(contentHash string) (bool, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT id FROM funeral_sent WHERE content_hash = ? LIMIT 1`,
		contentHash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check sent marker: %w", err)
	}
	return true, nil
}

func (r *sentRepository) Insert(contentHash string) error {
	_, err := r.db.Exec(`INSERT INTO funeral_sent (content_hash) VALUES (?)`, contentHash)
	if err != nil {
		return fmt.Errorf("failed to insert sent marker: %w", err)
	}
	return nil
}

func (r *sentRepository) ListHashes() ([]string, error) {
	rows, err := r.db.Query(`SELECT content_hash FROM funeral_sent`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan sent hash: %w", err)
		}
		hashes = append(hashes, hash)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent hashes: %w", err)
	}

	return hashes, nil
}

func (r *sentRepository) CleanupDuplicates() (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM funeral_sent
		WHERE id NOT IN (
			SELECT MIN(id) FROM funeral_sent GROUP BY content_hash
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup duplicate sent markers: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return int(deleted), nil
}

func (r *sentRepository) CleanupOrphans() (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM funeral_sent
		WHERE content_hash NOT IN (SELECT content_hash FROM funeral_analyzed)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup orphan sent markers: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return int(deleted), nil
}
