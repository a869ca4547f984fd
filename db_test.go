package main

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "mediawatch-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitDBAddsCompanyColumn(t *testing.T) {
	db := newTestDB(t)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('mentions') WHERE name = 'company'`).Scan(&count); err != nil {
		t.Fatalf("query pragma_table_info failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected company column to exist, count=%d", count)
	}
}

func TestMentionArchiveAndStats(t *testing.T) {
	db := newTestDB(t)

	mentions := []Mention{
		{
			Date:      "2024-03-05",
			Headline:  "Great launch",
			Tone:      TonePositive,
			ToneRaw:   "Positif",
			Topic:     "Produk",
			MediaType: "Kompas",
			Company:   "Acme",
			Link:      "https://example.com/a",
		},
		{
			Date:      "2024-03-06",
			Headline:  "Factory problems",
			Tone:      ToneNegative,
			ToneRaw:   "Negatif",
			Topic:     "Operasional",
			MediaType: "Detik",
			Company:   "Acme",
		},
		{
			Date:     "2024-03-06",
			Headline: "Steady quarter",
			Tone:     ToneNeutral,
			ToneRaw:  "biasa saja",
			Topic:    "Keuangan",
		},
	}
	inserted, err := InsertMentions(db, mentions)
	if err != nil {
		t.Fatalf("InsertMentions failed: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected inserted=3, got %d", inserted)
	}

	exists, err := MentionKeyExists(db, "https://example.com/a")
	if err != nil {
		t.Fatalf("MentionKeyExists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected link dedupe key to exist")
	}

	// Link-less mentions dedupe by date+headline.
	exists, err = MentionKeyExists(db, mentions[1].DedupeKey())
	if err != nil {
		t.Fatalf("MentionKeyExists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected date+headline dedupe key to exist")
	}

	count, err := CountMentions(db)
	if err != nil {
		t.Fatalf("CountMentions failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 mentions, got %d", count)
	}

	since := time.Now().UTC().Add(-1 * time.Hour)
	recent, err := GetMentionsSince(db, since)
	if err != nil {
		t.Fatalf("GetMentionsSince failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent mentions, got %d", len(recent))
	}
	if recent[0].Date != "2024-03-06" {
		t.Fatalf("expected newest date first, got %q", recent[0].Date)
	}

	stats, err := GetToneArchiveStats(db, since)
	if err != nil {
		t.Fatalf("GetToneArchiveStats failed: %v", err)
	}
	if stats.Total != 3 || stats.Positive != 1 || stats.Neutral != 1 || stats.Negative != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestToneAuditStorage(t *testing.T) {
	db := newTestDB(t)

	mentions := []Mention{
		{Date: "2024-03-05", Headline: "Unclear mention", Tone: ToneNeutral, ToneRaw: "agak aneh"},
		{Date: "2024-03-05", Headline: "Clear mention", Tone: TonePositive, ToneRaw: "Positif"},
		{Date: "2024-03-05", Headline: "No tone text", Tone: ToneNeutral, ToneRaw: ""},
	}
	if _, err := InsertMentions(db, mentions); err != nil {
		t.Fatalf("InsertMentions failed: %v", err)
	}

	candidates, err := GetToneAuditCandidates(db, 10)
	if err != nil {
		t.Fatalf("GetToneAuditCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate (neutral with tone text, unaudited), got %d", len(candidates))
	}
	if candidates[0].Headline != "Unclear mention" {
		t.Fatalf("unexpected candidate: %q", candidates[0].Headline)
	}

	audit := ToneAudit{
		MentionID:  candidates[0].ID,
		Label:      ToneNegative,
		Confidence: 0.84,
		Model:      "test-model",
	}
	if err := InsertToneAudit(db, audit); err != nil {
		t.Fatalf("InsertToneAudit failed: %v", err)
	}

	latest, err := GetLatestToneAudit(db, candidates[0].ID)
	if err != nil {
		t.Fatalf("GetLatestToneAudit failed: %v", err)
	}
	if latest.Label != ToneNegative || latest.Confidence != 0.84 {
		t.Fatalf("unexpected audit: %#v", latest)
	}

	// Audited mentions leave the candidate pool.
	candidates, err = GetToneAuditCandidates(db, 10)
	if err != nil {
		t.Fatalf("GetToneAuditCandidates after audit failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates after audit, got %d", len(candidates))
	}

	recent, err := GetRecentToneAudits(db, time.Now().UTC().Add(-1*time.Hour), 10)
	if err != nil {
		t.Fatalf("GetRecentToneAudits failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent audit, got %d", len(recent))
	}
}

func TestDigestLog(t *testing.T) {
	db := newTestDB(t)

	if err := InsertDigestLog(db, "C123", 42, "digest body"); err != nil {
		t.Fatalf("InsertDigestLog failed: %v", err)
	}

	var channel, body string
	var count int
	err := db.QueryRow(`SELECT channel, mention_count, body FROM digest_log ORDER BY id DESC LIMIT 1`).
		Scan(&channel, &count, &body)
	if err != nil {
		t.Fatalf("reading digest_log failed: %v", err)
	}
	if channel != "C123" || count != 42 || body != "digest body" {
		t.Fatalf("unexpected digest log row: %q %d %q", channel, count, body)
	}
}
