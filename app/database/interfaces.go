package database

import (
	"time"
)

// MatchFilter narrows a match listing. Empty fields are ignored. Status
// supports the pseudo-value "active" (new + drafted) and "all".
type MatchFilter struct {
	Status    string
	Subreddit string
	Limit     int
}

// MatchUpdate describes a dashboard triage mutation. Zero-value fields are
// left unchanged; a nil DraftResponse keeps the current draft.
type MatchUpdate struct {
	Status        string
	DraftResponse *string
	RespondedAt   *time.Time
}

type MatchRepository interface {
	Insert(match *Match) (*Match, error)
	GetByPostID(redditPostID string) (*Match, error)
	GetByID(id int64) (*Match, error)
	List(filter MatchFilter) ([]Match, error)
	Update(id int64, update MatchUpdate) (*Match, error)
	MarkNotified(ids []int64, notifiedAt time.Time) error
	CountByStatus() (map[string]int, error)
}

type ScanLogRepository interface {
	Insert(log *ScanLog) (*ScanLog, error)
	List(limit int) ([]ScanLog, error)
	GetLast() (*ScanLog, error)
}
