package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NewRouter builds the read-only JSON API the dashboard pages consume. Every
// handler derives its answer from the poller's current snapshot, so filters
// are always applied to the full normalized set.
func NewRouter(cfg Config, poller *Poller, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", handleHealth(poller, db))
	r.Get("/api/overview", handleOverview(cfg, poller))
	r.Get("/api/tone-trend", handleToneTrend(poller))
	r.Get("/api/topics", handleBuckets(poller, func(m Mention) string { return m.Topic }, cfg.FallbackLabel))
	r.Get("/api/media", handleBuckets(poller, func(m Mention) string { return m.MediaType }, cfg.FallbackLabel))
	r.Get("/api/spokespersons", handleBuckets(poller, func(m Mention) string { return m.Spokesperson }, ""))
	r.Get("/api/articles", handleArticles(poller))
	r.Get("/api/tone-audits", handleToneAudits(db))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func handleHealth(poller *Poller, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := poller.Snapshot()
		resp := map[string]any{
			"mentions":    len(snap.Mentions),
			"fetched_at":  snap.FetchedAt,
			"age_seconds": 0,
			"last_error":  "",
		}
		if !snap.FetchedAt.IsZero() {
			resp["age_seconds"] = int(time.Since(snap.FetchedAt).Seconds())
		}
		if snap.Err != nil {
			resp["last_error"] = snap.Err.Error()
		}
		if db != nil {
			if archived, err := CountMentions(db); err == nil {
				resp["archived"] = archived
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleOverview(cfg Config, poller *Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := poller.Snapshot()
		topics := CountBy(snap.Mentions, func(m Mention) string { return m.Topic }, cfg.FallbackLabel)
		media := CountBy(snap.Mentions, func(m Mention) string { return m.MediaType }, cfg.FallbackLabel)

		resp := map[string]any{
			"company":    cfg.CompanyName,
			"total":      len(snap.Mentions),
			"tones":      ToneCounts(snap.Mentions),
			"top_topics": topN(topics, 5),
			"top_media":  topN(media, 5),
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleToneTrend(poller *Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, DailyToneSeries(poller.Snapshot().Mentions))
	}
}

func handleBuckets(poller *Poller, key func(Mention) string, emptyAs string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CountBy(poller.Snapshot().Mentions, key, emptyAs))
	}
}

type articleView struct {
	Date         string `json:"date"`
	Headline     string `json:"headline"`
	Tone         string `json:"tone"`
	ToneRaw      string `json:"tone_raw,omitempty"`
	Topic        string `json:"topic"`
	Spokesperson string `json:"spokesperson,omitempty"`
	MediaType    string `json:"media_type"`
	Company      string `json:"company"`
	Link         string `json:"link,omitempty"`
}

// handleArticles serves a filtered, newest-first page of the snapshot.
// Query params: page (1-based), size, tone, topic, from, to (inclusive ISO
// date bounds compared against the normalized date string).
func handleArticles(poller *Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := parsePositiveInt(q.Get("page"), 1)
		size := parsePositiveInt(q.Get("size"), defaultPageSize)
		if size > maxPageSize {
			size = maxPageSize
		}
		tone := q.Get("tone")
		topic := q.Get("topic")
		from := q.Get("from")
		to := q.Get("to")

		snap := poller.Snapshot()
		var filtered []Mention
		for _, m := range snap.Mentions {
			if tone != "" && m.Tone != tone {
				continue
			}
			if topic != "" && m.Topic != topic {
				continue
			}
			if from != "" && m.Date < from {
				continue
			}
			if to != "" && m.Date > to {
				continue
			}
			filtered = append(filtered, m)
		}
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Date > filtered[j].Date
		})

		total := len(filtered)
		start := (page - 1) * size
		if start > total {
			start = total
		}
		end := start + size
		if end > total {
			end = total
		}

		items := make([]articleView, 0, end-start)
		for _, m := range filtered[start:end] {
			items = append(items, articleView{
				Date:         m.Date,
				Headline:     m.Headline,
				Tone:         m.Tone,
				ToneRaw:      m.ToneRaw,
				Topic:        m.Topic,
				Spokesperson: m.Spokesperson,
				MediaType:    m.MediaType,
				Company:      m.Company,
				Link:         m.Link,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"total": total,
			"page":  page,
			"size":  size,
			"items": items,
		})
	}
}

func handleToneAudits(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, []ToneAudit{})
			return
		}
		since := time.Now().AddDate(0, 0, -30)
		audits, err := GetRecentToneAudits(db, since, 200)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load tone audits"})
			return
		}
		if audits == nil {
			audits = []ToneAudit{}
		}
		writeJSON(w, http.StatusOK, audits)
	}
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
