package main

import (
	"strings"
	"time"
)

// Tone labels. Every mention resolves to exactly one of these three,
// regardless of what the source sheet says in its tone column.
const (
	TonePositive = "Positive"
	ToneNeutral  = "Neutral"
	ToneNegative = "Negative"
)

// Mention is one normalized press mention from the monitoring sheet.
type Mention struct {
	ID           int64
	Date         string // YYYY-MM-DD when parseable, original text otherwise
	Headline     string
	Tone         string // TonePositive, ToneNeutral, or ToneNegative
	ToneRaw      string // original tone column text, kept for display
	Topic        string
	Spokesperson string // empty when the sheet has none
	MediaType    string
	Company      string
	Link         string
	FirstSeenAt  time.Time
}

// ToneScore maps a tone label onto the -1..1 scale used for daily averages.
func ToneScore(tone string) int {
	switch tone {
	case TonePositive:
		return 1
	case ToneNegative:
		return -1
	}
	return 0
}

// DedupeKey identifies a mention across polls: the article link when the
// sheet has one, otherwise date plus headline.
func (m Mention) DedupeKey() string {
	if link := strings.TrimSpace(m.Link); link != "" {
		return link
	}
	return strings.TrimSpace(m.Date) + "|" + strings.ToLower(strings.TrimSpace(m.Headline))
}

type ToneAudit struct {
	ID         int64     `json:"id"`
	MentionID  int64     `json:"mention_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Model      string    `json:"model"`
	AuditedAt  time.Time `json:"audited_at"`
}
