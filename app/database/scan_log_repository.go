package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ ScanLogRepository = (*ScanLogRepo)(nil)

// ScanLogRepo handles the append-only scan run log
type ScanLogRepo struct {
	db *DB
}

func NewScanLogRepository(db *DB) *ScanLogRepo {
	return &ScanLogRepo{db: db}
}

func (r *ScanLogRepo) Insert(log *ScanLog) (*ScanLog, error) {
	subreddits, err := marshalStrings(log.SubredditsScanned)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scanned subreddits: %w", err)
	}

	scannedAt := log.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now().UTC()
	}

	var errors sql.NullString
	if log.Errors != "" {
		errors = sql.NullString{String: log.Errors, Valid: true}
	}

	result, err := r.db.Exec(`
		INSERT INTO scan_log (scanned_at, subreddits_scanned, posts_checked, matches_found, errors)
		VALUES (?, ?, ?, ?, ?)
	`, scannedAt.UTC(), subreddits, log.PostsChecked, log.MatchesFound, errors)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scan log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted scan log id: %w", err)
	}

	inserted := *log
	inserted.ID = id
	inserted.ScannedAt = scannedAt

	return &inserted, nil
}

func (r *ScanLogRepo) List(limit int) ([]ScanLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, scanned_at, subreddits_scanned, posts_checked, matches_found, errors
		FROM scan_log
		ORDER BY scanned_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan logs: %w", err)
	}
	defer rows.Close()

	var logs []ScanLog
	for rows.Next() {
		log, err := scanScanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan log row: %w", err)
		}
		logs = append(logs, *log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan log rows: %w", err)
	}

	return logs, nil
}

func (r *ScanLogRepo) GetLast() (*ScanLog, error) {
	row := r.db.QueryRow(`
		SELECT id, scanned_at, subreddits_scanned, posts_checked, matches_found, errors
		FROM scan_log
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`)

	log, err := scanScanLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last scan log: %w", err)
	}

	return log, nil
}

func scanScanLog(row rowScanner) (*ScanLog, error) {
	var log ScanLog
	var subreddits string
	var errors sql.NullString

	err := row.Scan(&log.ID, &log.ScannedAt, &subreddits, &log.PostsChecked,
		&log.MatchesFound, &errors)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(subreddits), &log.SubredditsScanned); err != nil {
		return nil, fmt.Errorf("failed to decode scanned subreddits: %w", err)
	}
	log.Errors = errors.String

	return &log, nil
}
