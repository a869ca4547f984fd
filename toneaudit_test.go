package main

import (
	"testing"
	"time"
)

func TestParseToneAuditResponse(t *testing.T) {
	reply := "Sure, here are my classifications:\n" +
		`[{"id": 1, "label": "Negative", "confidence": 0.91},` +
		` {"id": 2, "label": "Positive", "confidence": 0.66}]` +
		"\nLet me know if you need anything else."

	decisions, err := parseToneAuditResponse(reply)
	if err != nil {
		t.Fatalf("parseToneAuditResponse failed: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].ID != 1 || decisions[0].Label != ToneNegative || decisions[0].Confidence != 0.91 {
		t.Fatalf("unexpected first decision: %#v", decisions[0])
	}
}

func TestParseToneAuditResponseDropsInvalidDecisions(t *testing.T) {
	reply := `[
		{"id": 1, "label": "Negative", "confidence": 0.8},
		{"id": 2, "label": "Mixed", "confidence": 0.9},
		{"id": 3, "label": "Positive", "confidence": 1.3},
		{"id": 4, "label": "Neutral", "confidence": -0.1}
	]`

	decisions, err := parseToneAuditResponse(reply)
	if err != nil {
		t.Fatalf("parseToneAuditResponse failed: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected only the valid decision to survive, got %#v", decisions)
	}
	if decisions[0].ID != 1 {
		t.Fatalf("unexpected surviving decision: %#v", decisions[0])
	}
}

func TestParseToneAuditResponseNoArray(t *testing.T) {
	if _, err := parseToneAuditResponse("I could not classify these items."); err == nil {
		t.Fatal("expected error for reply without a JSON array")
	}
	if _, err := parseToneAuditResponse(""); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestStoreToneAuditsConfidenceThreshold(t *testing.T) {
	db := newTestDB(t)
	if _, err := InsertMentions(db, []Mention{
		{Date: "2024-03-05", Headline: "Unclear one", Tone: ToneNeutral, ToneRaw: "agak aneh"},
		{Date: "2024-03-05", Headline: "Unclear two", Tone: ToneNeutral, ToneRaw: "campur"},
	}); err != nil {
		t.Fatalf("InsertMentions failed: %v", err)
	}

	decisions := []toneAuditDecision{
		{ID: 1, Label: ToneNegative, Confidence: 0.92},
		{ID: 2, Label: TonePositive, Confidence: 0.55},
	}
	stored := storeToneAudits(db, decisions, 0.70, "test-model")
	if stored != 1 {
		t.Fatalf("expected 1 decision above threshold to be stored, got %d", stored)
	}

	audit, err := GetLatestToneAudit(db, 1)
	if err != nil {
		t.Fatalf("GetLatestToneAudit failed: %v", err)
	}
	if audit.Label != ToneNegative || audit.Confidence != 0.92 || audit.Model != "test-model" {
		t.Fatalf("unexpected stored audit: %#v", audit)
	}

	// The below-threshold mention stays unaudited and in the candidate pool.
	if _, err := GetLatestToneAudit(db, 2); err == nil {
		t.Fatal("expected no audit for the below-threshold decision")
	}
	candidates, err := GetToneAuditCandidates(db, 10)
	if err != nil {
		t.Fatalf("GetToneAuditCandidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != 2 {
		t.Fatalf("expected mention 2 to remain a candidate, got %#v", candidates)
	}

	recent, err := GetRecentToneAudits(db, time.Now().UTC().Add(-1*time.Hour), 10)
	if err != nil {
		t.Fatalf("GetRecentToneAudits failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected exactly 1 recent audit, got %d", len(recent))
	}
}
