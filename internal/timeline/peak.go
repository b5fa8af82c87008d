// internal/timeline/peak.go
package timeline

import (
	"sort"

	"github.com/user/moodline/internal/types"
)

// Peak returns the record in the subset whose maximum single emotion score
// is the subset-wide maximum. Equal peak scores break to the earliest
// timestamp. The second return is false when the subset is empty or no
// record carries usable emotion data; callers skip the bucket in that case.
func Peak(records []types.EmotionRecord) (*types.EmotionRecord, bool) {
	var winner *types.EmotionRecord
	var winnerScore float64

	for i := range records {
		score, ok := records[i].MaxScore()
		if !ok {
			continue
		}
		switch {
		case winner == nil:
			winner, winnerScore = &records[i], score
		case score > winnerScore:
			winner, winnerScore = &records[i], score
		case score == winnerScore && records[i].Timestamp.Before(winner.Timestamp):
			winner = &records[i]
		}
	}

	if winner == nil {
		return nil, false
	}
	return winner, true
}

// TopEmotions returns the record's top k emotions by score descending.
// Equal scores keep the record's original emotion order.
func TopEmotions(rec *types.EmotionRecord, k int) []types.EmotionScore {
	out := make([]types.EmotionScore, len(rec.Emotions))
	copy(out, rec.Emotions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Average computes each emotion's mean score across the subset and returns
// the top k by average descending, names breaking ties for determinism.
// The second return is false when no record carries usable emotion data.
func Average(records []types.EmotionRecord, k int) ([]types.EmotionScore, bool) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range records {
		for _, e := range records[i].Emotions {
			sums[e.Name] += e.Score
			counts[e.Name]++
		}
	}
	if len(sums) == 0 {
		return nil, false
	}

	out := make([]types.EmotionScore, 0, len(sums))
	for name, sum := range sums {
		out = append(out, types.EmotionScore{Name: name, Score: sum / float64(counts[name])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, true
}
