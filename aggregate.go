package main

import (
	"math"
	"sort"
)

// Bucket is one aggregation result: a dimension value and its count.
type Bucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CountBy groups mentions by key and returns buckets ordered by descending
// count. Ties keep first-seen input order (sort.SliceStable; comparator
// sorts are not stable by default and the dashboard relies on this).
//
// emptyAs controls records whose key is empty: bucketed under emptyAs when
// non-empty, excluded entirely when emptyAs is "" (the spokesperson rule).
func CountBy(mentions []Mention, key func(Mention) string, emptyAs string) []Bucket {
	counts := make(map[string]int, len(mentions))
	var order []string
	for _, m := range mentions {
		k := key(m)
		if k == "" {
			if emptyAs == "" {
				continue
			}
			k = emptyAs
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	buckets := make([]Bucket, 0, len(order))
	for _, k := range order {
		buckets = append(buckets, Bucket{Name: k, Value: counts[k]})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value > buckets[j].Value
	})
	return buckets
}

// Share is the integer percentage part/total. Zero when total is zero so an
// empty snapshot renders as 0% everywhere instead of dividing by zero.
func Share(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// ToneCount is the per-label slice of the snapshot, with its share of the
// total.
type ToneCount struct {
	Tone  string `json:"tone"`
	Count int    `json:"count"`
	Share int    `json:"share"`
}

// ToneCounts returns counts and shares in fixed positive/neutral/negative
// order.
func ToneCounts(mentions []Mention) []ToneCount {
	byTone := map[string]int{}
	for _, m := range mentions {
		byTone[m.Tone]++
	}
	total := len(mentions)
	out := make([]ToneCount, 0, 3)
	for _, tone := range []string{TonePositive, ToneNeutral, ToneNegative} {
		out = append(out, ToneCount{Tone: tone, Count: byTone[tone], Share: Share(byTone[tone], total)})
	}
	return out
}

// DayPoint is one day of the tone time series.
type DayPoint struct {
	Date     string  `json:"date"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// DailyToneSeries groups mentions by normalized date and computes the mean
// tone score per day (positive=1, neutral=0, negative=-1), rounded to two
// decimals at read time. Days with an unparseable date group under the
// original text. Output ascends by date string, which is chronological for
// ISO dates.
func DailyToneSeries(mentions []Mention) []DayPoint {
	type acc struct {
		count int
		sum   int
	}
	byDay := make(map[string]*acc)
	var order []string
	for _, m := range mentions {
		a, ok := byDay[m.Date]
		if !ok {
			a = &acc{}
			byDay[m.Date] = a
			order = append(order, m.Date)
		}
		a.count++
		a.sum += ToneScore(m.Tone)
	}
	sort.Strings(order)

	out := make([]DayPoint, 0, len(order))
	for _, day := range order {
		a := byDay[day]
		avg := math.Round(float64(a.sum)/float64(a.count)*100) / 100
		out = append(out, DayPoint{Date: day, Count: a.count, AvgScore: avg})
	}
	return out
}

// topN trims a bucket list for digest display.
func topN(buckets []Bucket, n int) []Bucket {
	if len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}
