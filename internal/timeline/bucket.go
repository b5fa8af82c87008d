// internal/timeline/bucket.go
package timeline

import (
	"math/rand"
	"sort"
	"time"

	"github.com/user/moodline/internal/types"
)

// Strategy selects how oversized buckets are reduced to the sample cap.
type Strategy string

const (
	// StrategyStride picks records at even offsets through the bucket,
	// favoring temporal spread over recency. Deterministic.
	StrategyStride Strategy = "stride"
	// StrategyRandom draws a uniform sample without replacement,
	// seeded independently per bucket.
	StrategyRandom Strategy = "random"
)

// Bucket is one fixed-width time window's worth of records. Key is the
// window's floor instant. Records are sampled down to the cap during
// partitioning and read-only afterwards.
type Bucket struct {
	Key     time.Time
	Records []types.EmotionRecord
}

// FloorKey floors ts to a multiple of window from the start of its calendar
// day. Anchoring at the day start keeps keys stable for window widths that
// do not divide evenly into an hour.
func FloorKey(ts time.Time, window time.Duration) time.Time {
	y, m, d := ts.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
	offset := ts.Sub(dayStart)
	return dayStart.Add(offset - offset%window)
}

// Partition groups records into buckets keyed by floored timestamp, then
// reduces any bucket over maxSample to exactly maxSample records using the
// given strategy. Sampling happens exactly once per bucket regardless of how
// the buckets are consumed downstream. Returns buckets sorted by key.
func Partition(records []types.EmotionRecord, window time.Duration, maxSample int, strategy Strategy) []Bucket {
	groups := make(map[time.Time][]types.EmotionRecord)
	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			continue
		}
		key := FloorKey(rec.Timestamp, window)
		groups[key] = append(groups[key], rec)
	}

	buckets := make([]Bucket, 0, len(groups))
	for key, recs := range groups {
		buckets = append(buckets, Bucket{Key: key, Records: sample(recs, maxSample, strategy)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Key.Before(buckets[j].Key)
	})
	return buckets
}

// sample reduces recs to at most max records. Buckets at or below the cap
// keep all their records. The result is always in ascending time order.
func sample(recs []types.EmotionRecord, max int, strategy Strategy) []types.EmotionRecord {
	sorted := make([]types.EmotionRecord, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if max <= 0 || len(sorted) <= max {
		return sorted
	}

	if strategy == StrategyRandom {
		return sampleRandom(sorted, max)
	}
	return sampleStride(sorted, max)
}

// sampleStride takes the record at each stride offset 0, stride, 2*stride...
// until max records are collected. stride = count/max, so the last index is
// (max-1)*stride < count.
func sampleStride(sorted []types.EmotionRecord, max int) []types.EmotionRecord {
	stride := len(sorted) / max
	out := make([]types.EmotionRecord, 0, max)
	for i := 0; len(out) < max; i += stride {
		out = append(out, sorted[i])
	}
	return out
}

// sampleRandom draws max records without replacement. The generator is
// seeded per bucket from the first record's timestamp and the wall clock so
// selection is not correlated across buckets.
func sampleRandom(sorted []types.EmotionRecord, max int) []types.EmotionRecord {
	seed := sorted[0].Timestamp.UnixNano() ^ time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))

	idx := rng.Perm(len(sorted))[:max]
	sort.Ints(idx)

	out := make([]types.EmotionRecord, 0, max)
	for _, i := range idx {
		out = append(out, sorted[i])
	}
	return out
}
