package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS mentions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		date          TEXT NOT NULL,
		headline      TEXT NOT NULL,
		tone          TEXT NOT NULL,
		tone_raw      TEXT DEFAULT '',
		topic         TEXT DEFAULT '',
		spokesperson  TEXT DEFAULT '',
		media_type    TEXT DEFAULT '',
		link          TEXT DEFAULT '',
		dedupe_key    TEXT NOT NULL UNIQUE,
		first_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_mentions_date ON mentions(date);
	CREATE INDEX IF NOT EXISTS idx_mentions_tone ON mentions(tone);

	CREATE TABLE IF NOT EXISTS tone_audits (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		mention_id INTEGER NOT NULL,
		label      TEXT NOT NULL,
		confidence REAL NOT NULL,
		model      TEXT DEFAULT '',
		audited_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tone_audits_mention ON tone_audits(mention_id);

	CREATE TABLE IF NOT EXISTS digest_log (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		channel       TEXT NOT NULL,
		mention_count INTEGER NOT NULL,
		body          TEXT NOT NULL,
		posted_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	// Migration: add company column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('mentions') WHERE name = 'company'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE mentions ADD COLUMN company TEXT DEFAULT ''`)
	}

	return db, nil
}

func InsertMentions(db *sql.DB, mentions []Mention) (int, error) {
	if len(mentions) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO mentions (date, headline, tone, tone_raw, topic, spokesperson, media_type, company, link, dedupe_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range mentions {
		_, err := stmt.Exec(
			m.Date, m.Headline, m.Tone, m.ToneRaw, m.Topic,
			m.Spokesperson, m.MediaType, m.Company, m.Link, m.DedupeKey(),
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}

	return inserted, tx.Commit()
}

func MentionKeyExists(db *sql.DB, dedupeKey string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM mentions WHERE dedupe_key = ?", dedupeKey).Scan(&count)
	return count > 0, err
}

func CountMentions(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM mentions").Scan(&count)
	return count, err
}

func GetMentionsSince(db *sql.DB, since time.Time) ([]Mention, error) {
	rows, err := db.Query(
		`SELECT id, date, headline, tone, tone_raw, topic, spokesperson, media_type, company, link, first_seen_at
		 FROM mentions WHERE first_seen_at >= ? ORDER BY date DESC, id DESC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mention
	for rows.Next() {
		var m Mention
		err := rows.Scan(
			&m.ID, &m.Date, &m.Headline, &m.Tone, &m.ToneRaw, &m.Topic,
			&m.Spokesperson, &m.MediaType, &m.Company, &m.Link, &m.FirstSeenAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Tone audits ---

func InsertToneAudit(db *sql.DB, a ToneAudit) error {
	_, err := db.Exec(
		`INSERT INTO tone_audits (mention_id, label, confidence, model)
		 VALUES (?, ?, ?, ?)`,
		a.MentionID, a.Label, a.Confidence, a.Model,
	)
	return err
}

func GetLatestToneAudit(db *sql.DB, mentionID int64) (ToneAudit, error) {
	var a ToneAudit
	err := db.QueryRow(
		`SELECT id, mention_id, label, confidence, model, audited_at
		 FROM tone_audits WHERE mention_id = ?
		 ORDER BY audited_at DESC, id DESC LIMIT 1`,
		mentionID,
	).Scan(&a.ID, &a.MentionID, &a.Label, &a.Confidence, &a.Model, &a.AuditedAt)
	return a, err
}

func GetRecentToneAudits(db *sql.DB, since time.Time, limit int) ([]ToneAudit, error) {
	rows, err := db.Query(
		`SELECT id, mention_id, label, confidence, model, audited_at
		 FROM tone_audits WHERE audited_at >= ?
		 ORDER BY audited_at DESC, id DESC LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ToneAudit
	for rows.Next() {
		var a ToneAudit
		if err := rows.Scan(&a.ID, &a.MentionID, &a.Label, &a.Confidence, &a.Model, &a.AuditedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetToneAuditCandidates returns archived mentions whose tone text exists but
// matched no vocabulary word (so they defaulted to neutral) and which have no
// audit yet.
func GetToneAuditCandidates(db *sql.DB, limit int) ([]Mention, error) {
	rows, err := db.Query(
		`SELECT id, date, headline, tone, tone_raw, topic, spokesperson, media_type, company, link, first_seen_at
		 FROM mentions m
		 WHERE m.tone = ? AND TRIM(m.tone_raw) <> ''
		   AND NOT EXISTS (SELECT 1 FROM tone_audits a WHERE a.mention_id = m.id)
		 ORDER BY m.id ASC LIMIT ?`,
		ToneNeutral, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mention
	for rows.Next() {
		var m Mention
		err := rows.Scan(
			&m.ID, &m.Date, &m.Headline, &m.Tone, &m.ToneRaw, &m.Topic,
			&m.Spokesperson, &m.MediaType, &m.Company, &m.Link, &m.FirstSeenAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Digest log ---

func InsertDigestLog(db *sql.DB, channel string, mentionCount int, body string) error {
	_, err := db.Exec(
		`INSERT INTO digest_log (channel, mention_count, body) VALUES (?, ?, ?)`,
		channel, mentionCount, body,
	)
	return err
}

// --- Archive stats ---

type ToneArchiveStats struct {
	Total    int
	Positive int
	Neutral  int
	Negative int
}

func GetToneArchiveStats(db *sql.DB, since time.Time) (ToneArchiveStats, error) {
	var s ToneArchiveStats
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN tone = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN tone = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN tone = ? THEN 1 ELSE 0 END), 0)
		 FROM mentions WHERE first_seen_at >= ?`,
		TonePositive, ToneNeutral, ToneNegative, since,
	).Scan(&s.Total, &s.Positive, &s.Neutral, &s.Negative)
	return s, err
}
