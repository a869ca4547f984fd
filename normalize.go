package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFallbackLabel buckets mentions whose topic/media/company column is
// missing or empty. Matches the label the monitoring sheets use.
const DefaultFallbackLabel = "Lainnya"

// fieldAliases maps each semantic field to the normalized header names it may
// appear under, in priority order. The sheets are maintained by hand and have
// drifted between Indonesian and English headers over time, so every consumer
// goes through this one table.
var fieldAliases = map[string][]string{
	"date":         {"tanggal", "date", "tanggalterbit", "publishdate"},
	"headline":     {"headline", "judul", "judulberita", "title"},
	"tone":         {"tone", "sentimen", "sentiment"},
	"topic":        {"topik", "topic", "isu", "kategori", "category"},
	"spokesperson": {"narasumber", "spokesperson", "jurubicara", "speaker"},
	"mediatype":    {"media", "mediatype", "jenismedia", "namamedia", "outlet"},
	"company":      {"perusahaan", "company", "klien", "client"},
	"link":         {"link", "url", "linkberita"},
}

// fieldValue returns the first non-empty value among a field's header
// aliases, trimmed. Empty string when no alias matches.
func fieldValue(raw RawRow, field string) string {
	for _, alias := range fieldAliases[field] {
		if v := strings.TrimSpace(raw[alias]); v != "" {
			return v
		}
	}
	return ""
}

var toneVocabulary = struct {
	positive []string
	negative []string
}{
	positive: []string{"positif", "positive"},
	negative: []string{"negatif", "negative"},
}

// ClassifyTone maps free tone text onto one of the three labels by
// case-insensitive substring match. Anything unrecognized, including empty
// text, is neutral. Lossy on purpose; the raw text stays on the record.
func ClassifyTone(text string) string {
	t := strings.ToLower(text)
	for _, w := range toneVocabulary.positive {
		if strings.Contains(t, w) {
			return TonePositive
		}
	}
	for _, w := range toneVocabulary.negative {
		if strings.Contains(t, w) {
			return ToneNegative
		}
	}
	return ToneNeutral
}

var generalDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
	time.RFC3339,
}

// NormalizeDate converts the sheet's day-first date variants ("5/3/24",
// "05-03-2024", "5.3.2024") to YYYY-MM-DD. Already-ISO input passes through,
// other recognizable layouts are re-formatted, and anything unparseable is
// returned trimmed but otherwise unchanged. Never fails.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if len(s) == 10 && s[4] == '-' && s[7] == '-' && allDigits(s[:4]) && allDigits(s[5:7]) && allDigits(s[8:]) {
		return s
	}

	if iso, ok := dayFirstToISO(s); ok {
		return iso
	}
	for _, layout := range generalDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// dayFirstToISO handles D/M/Y with /, - or . separators. Two-digit years are
// expanded by prefixing "20"; the sheets only go back to 2015.
func dayFirstToISO(s string) (string, bool) {
	var sep string
	for _, cand := range []string{"/", "-", "."} {
		if strings.Count(s, cand) == 2 {
			sep = cand
			break
		}
	}
	if sep == "" {
		return "", false
	}
	parts := strings.Split(s, sep)
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year := strings.TrimSpace(parts[2])
	if err1 != nil || err2 != nil || !allDigits(year) {
		return "", false
	}
	if len(year) == 2 {
		year = "20" + year
	}
	if len(year) != 4 || day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, day), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeRow turns a raw sheet row into a Mention. Total function: missing
// or malformed fields degrade to defaults, never to an error or a dropped
// row.
func NormalizeRow(raw RawRow, fallback string) Mention {
	if fallback == "" {
		fallback = DefaultFallbackLabel
	}
	toneRaw := fieldValue(raw, "tone")

	orFallback := func(v string) string {
		if v == "" {
			return fallback
		}
		return v
	}

	return Mention{
		Date:         NormalizeDate(fieldValue(raw, "date")),
		Headline:     fieldValue(raw, "headline"),
		Tone:         ClassifyTone(toneRaw),
		ToneRaw:      toneRaw,
		Topic:        orFallback(fieldValue(raw, "topic")),
		Spokesperson: fieldValue(raw, "spokesperson"),
		MediaType:    orFallback(fieldValue(raw, "mediatype")),
		Company:      orFallback(fieldValue(raw, "company")),
		Link:         fieldValue(raw, "link"),
	}
}

// MentionsFromCSV runs the full parse+normalize pipeline over a sheet export.
func MentionsFromCSV(text, fallback string) []Mention {
	_, rawRows := HeaderRows(ParseCSV(text))
	mentions := make([]Mention, 0, len(rawRows))
	for _, raw := range rawRows {
		mentions = append(mentions, NormalizeRow(raw, fallback))
	}
	return mentions
}
