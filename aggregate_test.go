package main

import (
	"reflect"
	"testing"
)

func mentionWithTopic(topic string) Mention {
	return Mention{Topic: topic, Tone: ToneNeutral}
}

func TestCountByStableDescendingOrder(t *testing.T) {
	// A:2, B:5, C:5 with B seen before C; ties must keep first-seen order.
	var mentions []Mention
	for _, topic := range []string{"A", "B", "C"} {
		mentions = append(mentions, mentionWithTopic(topic))
	}
	for i := 0; i < 4; i++ {
		mentions = append(mentions, mentionWithTopic("B"), mentionWithTopic("C"))
	}
	mentions = append(mentions, mentionWithTopic("A"))

	got := CountBy(mentions, func(m Mention) string { return m.Topic }, "")
	want := []Bucket{{"B", 5}, {"C", 5}, {"A", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %#v, want %#v", got, want)
	}
}

func TestCountByEmptyKeyPolicies(t *testing.T) {
	mentions := []Mention{
		{Spokesperson: "Budi"},
		{Spokesperson: ""},
		{Spokesperson: "Budi"},
	}

	excluded := CountBy(mentions, func(m Mention) string { return m.Spokesperson }, "")
	if len(excluded) != 1 || excluded[0].Name != "Budi" || excluded[0].Value != 2 {
		t.Fatalf("expected empty spokesperson excluded, got %#v", excluded)
	}

	bucketed := CountBy(mentions, func(m Mention) string { return m.Spokesperson }, DefaultFallbackLabel)
	if len(bucketed) != 2 {
		t.Fatalf("expected sentinel bucket, got %#v", bucketed)
	}
	if bucketed[1].Name != DefaultFallbackLabel || bucketed[1].Value != 1 {
		t.Fatalf("unexpected sentinel bucket: %#v", bucketed)
	}
}

func TestShareZeroTotal(t *testing.T) {
	if got := Share(0, 0); got != 0 {
		t.Fatalf("Share(0,0) = %d, want 0", got)
	}
	if got := Share(1, 3); got != 33 {
		t.Fatalf("Share(1,3) = %d, want 33", got)
	}
	if got := Share(2, 3); got != 67 {
		t.Fatalf("Share(2,3) = %d, want 67", got)
	}
}

func TestToneCountsFixedOrderAndShares(t *testing.T) {
	mentions := []Mention{
		{Tone: ToneNegative},
		{Tone: TonePositive},
		{Tone: TonePositive},
		{Tone: ToneNeutral},
	}
	got := ToneCounts(mentions)
	if len(got) != 3 {
		t.Fatalf("expected 3 tone buckets, got %d", len(got))
	}
	if got[0].Tone != TonePositive || got[0].Count != 2 || got[0].Share != 50 {
		t.Fatalf("unexpected positive bucket: %#v", got[0])
	}
	if got[1].Tone != ToneNeutral || got[1].Count != 1 {
		t.Fatalf("unexpected neutral bucket: %#v", got[1])
	}
	if got[2].Tone != ToneNegative || got[2].Count != 1 {
		t.Fatalf("unexpected negative bucket: %#v", got[2])
	}

	empty := ToneCounts(nil)
	for _, tc := range empty {
		if tc.Share != 0 || tc.Count != 0 {
			t.Fatalf("empty snapshot must yield zero counts and shares: %#v", tc)
		}
	}
}

func TestDailyToneSeries(t *testing.T) {
	mentions := []Mention{
		{Date: "2024-03-06", Tone: ToneNegative},
		{Date: "2024-03-05", Tone: TonePositive},
		{Date: "2024-03-05", Tone: ToneNeutral},
		{Date: "2024-03-05", Tone: TonePositive},
	}
	got := DailyToneSeries(mentions)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}
	if got[0].Date != "2024-03-05" || got[0].Count != 3 {
		t.Fatalf("unexpected first day: %#v", got[0])
	}
	if got[0].AvgScore != 0.67 {
		t.Fatalf("expected avg rounded to 0.67, got %v", got[0].AvgScore)
	}
	if got[1].Date != "2024-03-06" || got[1].AvgScore != -1 {
		t.Fatalf("unexpected second day: %#v", got[1])
	}
}

func TestTopN(t *testing.T) {
	buckets := []Bucket{{"a", 3}, {"b", 2}, {"c", 1}}
	if got := topN(buckets, 2); len(got) != 2 || got[1].Name != "b" {
		t.Fatalf("unexpected topN result: %#v", got)
	}
	if got := topN(buckets, 5); len(got) != 3 {
		t.Fatalf("topN must not pad: %#v", got)
	}
}
