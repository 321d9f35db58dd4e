package store

import (
	"time"
)

// Fetch sources.
const (
	SourceDashboard = "dashboard"
	SourceCRM       = "crm"
)

// Fetch outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// FetchEntry is one settled fetch cycle: a dashboard refresh or a backend
// pull from the CRM.
type FetchEntry struct {
	ID         int64         `json:"id"`
	Source     string        `json:"source"`
	ViewerID   string        `json:"viewer_id,omitempty"`
	Outcome    string        `json:"outcome"`
	OrderCount int           `json:"order_count"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}

func (db *DB) AppendFetch(e *FetchEntry) error {
	var started any = e.StartedAt.UTC()
	if db.driver == "sqlite" {
		started = e.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := db.Exec(db.Q(`INSERT INTO fetch_log (source, viewer_id, outcome, order_count, error, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.Source, e.ViewerID, e.Outcome, e.OrderCount, e.Error, started, e.Duration.Milliseconds())
	return err
}

// ListFetches returns the most recent entries first.
func (db *DB) ListFetches(limit int) ([]*FetchEntry, error) {
	rows, err := db.Query(db.Q(`SELECT id, source, viewer_id, outcome, order_count, error, started_at, duration_ms FROM fetch_log ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []*FetchEntry{}
	for rows.Next() {
		var e FetchEntry
		var startedAt any
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Source, &e.ViewerID, &e.Outcome, &e.OrderCount, &e.Error, &startedAt, &durationMS); err != nil {
			return nil, err
		}
		e.StartedAt = parseTime(startedAt)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountFetches returns how many entries match source and outcome; empty
// strings match everything.
func (db *DB) CountFetches(source, outcome string) (int, error) {
	var count int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM fetch_log WHERE (? = '' OR source = ?) AND (? = '' OR outcome = ?)`),
		source, source, outcome, outcome).Scan(&count)
	return count, err
}

// parseTime converts a scanned timestamp value to time.Time.
// Handles both SQLite (returns string) and Postgres (returns time.Time).
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	}
	return time.Time{}
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
