package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// BuildDigest renders the current snapshot as a Slack-ready text summary.
func BuildDigest(snap Snapshot, cfg Config) string {
	name := cfg.CompanyName
	if name == "" {
		name = "Media"
	}

	total := len(snap.Mentions)
	if total == 0 {
		msg := fmt.Sprintf("*%s mention digest*\nNo mentions in the current snapshot.", name)
		if snap.Err != nil {
			msg += fmt.Sprintf("\nLast refresh failed: %v", snap.Err)
		}
		return msg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s mention digest* (%d mentions as of %s)\n",
		name, total, snap.FetchedAt.Format("Jan 2 15:04"))

	var toneParts []string
	for _, tc := range ToneCounts(snap.Mentions) {
		toneParts = append(toneParts, fmt.Sprintf("%s %d (%d%%)", tc.Tone, tc.Count, tc.Share))
	}
	fmt.Fprintf(&b, "Tone: %s\n", strings.Join(toneParts, ", "))

	topics := topN(CountBy(snap.Mentions, func(m Mention) string { return m.Topic }, cfg.FallbackLabel), 3)
	if len(topics) > 0 {
		fmt.Fprintf(&b, "Top topics: %s\n", formatBuckets(topics))
	}

	media := topN(CountBy(snap.Mentions, func(m Mention) string { return m.MediaType }, cfg.FallbackLabel), 3)
	if len(media) > 0 {
		fmt.Fprintf(&b, "Top media: %s\n", formatBuckets(media))
	}

	if busiest := busiestDay(snap.Mentions); busiest.Count > 0 {
		fmt.Fprintf(&b, "Busiest day: %s (%d mentions, avg score %.2f)",
			busiest.Date, busiest.Count, busiest.AvgScore)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBuckets(buckets []Bucket) string {
	parts := make([]string, 0, len(buckets))
	for _, bk := range buckets {
		parts = append(parts, fmt.Sprintf("%s (%d)", bk.Name, bk.Value))
	}
	return strings.Join(parts, ", ")
}

func busiestDay(mentions []Mention) DayPoint {
	var best DayPoint
	for _, day := range DailyToneSeries(mentions) {
		if day.Count > best.Count {
			best = day
		}
	}
	return best
}

// StartDigestScheduler posts the digest to the configured channel on a
// standard 5-field cron schedule (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
func StartDigestScheduler(cfg Config, db *sql.DB, poller *Poller, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.DigestSchedule)
	if schedule == "" {
		log.Println("Digest disabled (digest_schedule not set)")
		return
	}
	if !cfg.SlackConfigured() {
		log.Println("Digest disabled: slack_bot_token or digest_channel_id not configured")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid digest_schedule '%s': %v (digest disabled)", schedule, err)
		return
	}

	log.Printf("Digest scheduled (cron: %s) to channel %s", schedule, cfg.DigestChannelID)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			snap := poller.Snapshot()
			body := BuildDigest(snap, cfg)
			_, _, postErr := api.PostMessage(cfg.DigestChannelID, slack.MsgOptionText(body, false))
			if postErr != nil {
				log.Printf("Digest post error: %v", postErr)
				continue
			}
			log.Printf("Digest posted mentions=%d channel=%s", len(snap.Mentions), cfg.DigestChannelID)
			if db != nil {
				if logErr := InsertDigestLog(db, cfg.DigestChannelID, len(snap.Mentions), body); logErr != nil {
					log.Printf("Digest log error: %v", logErr)
				}
			}
		}
	}()
}
