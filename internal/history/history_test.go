package history

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "history.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	openTestStore(t)
}

func TestRecentReturnsBothKinds(t *testing.T) {
	s := openTestStore(t)

	s.RecordDodge(100)
	s.RecordReport(200, 7)
	s.RecordReport(200, 8)

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	kinds := map[string]int{}
	for _, e := range entries {
		kinds[e.Kind]++
		if e.At.IsZero() {
			t.Fatalf("entry missing timestamp: %+v", e)
		}
	}
	if kinds["dodge"] != 1 || kinds["report"] != 2 {
		t.Fatalf("unexpected kind counts: %v", kinds)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	s := openTestStore(t)

	for i := uint64(1); i <= 5; i++ {
		s.RecordDodge(i)
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Same-second inserts fall back to game id ordering, newest first.
	if entries[0].GameID != 5 || entries[1].GameID != 4 {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestReportEntryCarriesSummoner(t *testing.T) {
	s := openTestStore(t)

	s.RecordReport(42, 1337)

	entries, err := s.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != "report" || e.GameID != 42 || e.SummonerID != 1337 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}
