package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"crmdash/config"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(&config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestFetchLog(t *testing.T) {
	db := testDB(t)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*FetchEntry{
		{Source: SourceDashboard, ViewerID: "v-1", Outcome: OutcomeOK, OrderCount: 12, StartedAt: started, Duration: 250 * time.Millisecond},
		{Source: SourceCRM, Outcome: OutcomeFailed, Error: "crm HTTP 403", StartedAt: started.Add(time.Second)},
		{Source: SourceDashboard, ViewerID: "v-2", Outcome: OutcomeFailed, Error: "fetch orders: refused", StartedAt: started.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := db.AppendFetch(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := db.ListFetches(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ViewerID != "v-2" {
		t.Errorf("newest first: got[0].ViewerID = %q, want v-2", got[0].ViewerID)
	}
	oldest := got[2]
	if oldest.OrderCount != 12 || oldest.Outcome != OutcomeOK {
		t.Errorf("oldest = %+v", oldest)
	}
	if !oldest.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", oldest.StartedAt, started)
	}
	if oldest.Duration != 250*time.Millisecond {
		t.Errorf("Duration = %v, want 250ms", oldest.Duration)
	}

	limited, _ := db.ListFetches(1)
	if len(limited) != 1 {
		t.Errorf("limit 1 len = %d", len(limited))
	}

	counts := []struct {
		source, outcome string
		want            int
	}{
		{"", "", 3},
		{SourceDashboard, "", 2},
		{"", OutcomeFailed, 2},
		{SourceCRM, OutcomeOK, 0},
	}
	for _, c := range counts {
		n, err := db.CountFetches(c.source, c.outcome)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != c.want {
			t.Errorf("CountFetches(%q, %q) = %d, want %d", c.source, c.outcome, n, c.want)
		}
	}
}

func TestListFetchesEmpty(t *testing.T) {
	db := testDB(t)
	got, err := db.ListFetches(5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestRebind(t *testing.T) {
	got := Rebind(`SELECT * FROM fetch_log WHERE source = ? AND outcome = ?`)
	want := `SELECT * FROM fetch_log WHERE source = $1 AND outcome = $2`
	if got != want {
		t.Errorf("Rebind = %q, want %q", got, want)
	}
}
