// internal/types/models.go
package types

import "time"

// EmotionScore is a single named emotion and its confidence in [0,1].
type EmotionScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// EmotionRecord is one analyzed utterance: the capture instant plus the
// emotion scores the prosody service reported for it. Records are immutable
// once parsed; Source is the result filename the record came from.
type EmotionRecord struct {
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Emotions  []EmotionScore `json:"emotions"`
}

// MaxScore returns the record's highest single emotion score.
// The second return is false when the record carries no emotion data.
func (r *EmotionRecord) MaxScore() (float64, bool) {
	if len(r.Emotions) == 0 {
		return 0, false
	}
	maxScore := r.Emotions[0].Score
	for _, e := range r.Emotions[1:] {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	return maxScore, true
}

// TimelineEntry is one displayed point on the daily timeline. DisplayTime
// deliberately carries no date component (e.g. "9:00 AM").
type TimelineEntry struct {
	DisplayTime   string         `json:"display_time"`
	TopEmotions   []EmotionScore `json:"top_emotions"`
	PeakIntensity *float64       `json:"peak_intensity,omitempty"`
}

// InsightResult is the outcome of one insight generation. Exactly one
// variant is populated: either the summary/insight/prompt triple or Error.
type InsightResult struct {
	ID        InsightID `json:"id"`
	Summary   string    `json:"summary,omitempty"`
	Insight   string    `json:"insight,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	Error     string    `json:"error,omitempty"`
	Model     string    `json:"model,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// Failed reports whether the result is the failure variant.
func (r *InsightResult) Failed() bool {
	return r.Error != ""
}
