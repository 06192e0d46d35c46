package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var _ MatchRepository = (*MatchRepo)(nil)

// MatchRepo handles database operations for matches
type MatchRepo struct {
	db *DB
}

func NewMatchRepository(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

const matchColumns = `id, reddit_post_id, subreddit, title, selftext_snippet, url, permalink,
	       author, score, num_comments, matched_keywords, keyword_categories,
	       relevance_score, status, draft_response, reddit_created_at, created_at,
	       responded_at, notified_at`

// Insert persists a new match and returns it with generated fields populated.
// A duplicate reddit_post_id violates the unique index and surfaces as an
// error, which is the storage-layer backstop against overlapping scans.
func (r *MatchRepo) Insert(match *Match) (*Match, error) {
	matchedKeywords, err := marshalStrings(match.MatchedKeywords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode matched keywords: %w", err)
	}
	keywordCategories, err := marshalStrings(match.KeywordCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keyword categories: %w", err)
	}

	status := match.Status
	if status == "" {
		status = StatusNew
	}

	result, err := r.db.Exec(`
		INSERT INTO matches (reddit_post_id, subreddit, title, selftext_snippet, url, permalink,
		                     author, score, num_comments, matched_keywords, keyword_categories,
		                     relevance_score, status, draft_response, reddit_created_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, match.RedditPostID, match.Subreddit, match.Title, match.SelftextSnippet, match.URL,
		match.Permalink, match.Author, match.Score, match.NumComments, matchedKeywords,
		keywordCategories, match.RelevanceScore, status, match.DraftResponse,
		match.RedditCreatedAt.UTC(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted match id: %w", err)
	}

	return r.GetByID(id)
}

func (r *MatchRepo) GetByPostID(redditPostID string) (*Match, error) {
	row := r.db.QueryRow(`
		SELECT `+matchColumns+`
		FROM matches
		WHERE reddit_post_id = ?
	`, redditPostID)

	match, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by post id: %w", err)
	}

	return match, nil
}

func (r *MatchRepo) GetByID(id int64) (*Match, error) {
	row := r.db.QueryRow(`
		SELECT `+matchColumns+`
		FROM matches
		WHERE id = ?
	`, id)

	match, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	return match, nil
}

func (r *MatchRepo) List(filter MatchFilter) ([]Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches`

	var conditions []string
	var args []interface{}

	switch filter.Status {
	case "", "all":
		// Default view hides soft-deleted matches
		conditions = append(conditions, "status != ?")
		args = append(args, StatusDeleted)
	case "active":
		conditions = append(conditions, "status IN (?, ?)")
		args = append(args, StatusNew, StatusDrafted)
	default:
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	if filter.Subreddit != "" && filter.Subreddit != "all" {
		conditions = append(conditions, "subreddit = ?")
		args = append(args, filter.Subreddit)
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, *match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}

	return matches, nil
}

func (r *MatchRepo) Update(id int64, update MatchUpdate) (*Match, error) {
	var sets []string
	var args []interface{}

	if update.Status != "" {
		sets = append(sets, "status = ?")
		args = append(args, update.Status)
	}
	if update.DraftResponse != nil {
		sets = append(sets, "draft_response = ?")
		args = append(args, *update.DraftResponse)
	}
	if update.RespondedAt != nil {
		sets = append(sets, "responded_at = ?")
		args = append(args, update.RespondedAt.UTC())
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, id)
	result, err := r.db.Exec(`UPDATE matches SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(id)
}

// MarkNotified stamps notified_at on all matches included in a delivered
// alert. Called only after the transport accepted the message.
func (r *MatchRepo) MarkNotified(ids []int64, notifiedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, notifiedAt.UTC())
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	_, err := r.db.Exec(`
		UPDATE matches
		SET notified_at = ?
		WHERE id IN (`+strings.Join(placeholders, ", ")+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark matches notified: %w", err)
	}

	return nil
}

func (r *MatchRepo) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM matches GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*Match, error) {
	var match Match
	var matchedKeywords, keywordCategories string

	err := row.Scan(
		&match.ID, &match.RedditPostID, &match.Subreddit, &match.Title,
		&match.SelftextSnippet, &match.URL, &match.Permalink, &match.Author,
		&match.Score, &match.NumComments, &matchedKeywords, &keywordCategories,
		&match.RelevanceScore, &match.Status, &match.DraftResponse,
		&match.RedditCreatedAt, &match.CreatedAt, &match.RespondedAt, &match.NotifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(matchedKeywords), &match.MatchedKeywords); err != nil {
		return nil, fmt.Errorf("failed to decode matched keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordCategories), &match.KeywordCategories); err != nil {
		return nil, fmt.Errorf("failed to decode keyword categories: %w", err)
	}

	return &match, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
