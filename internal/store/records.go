// internal/store/records.go
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/user/moodline/internal/types"
)

// resultSuffix is appended by the analysis service to the audio file stem.
const resultSuffix = "_emotions.json"

// RecordStore reads per-utterance emotion result files written by the
// prosody analysis service. The store only reads; the service owns the
// files. Records are re-read fresh on every call, never cached.
type RecordStore struct {
	dir string
}

// NewRecordStore creates a RecordStore over the given results directory.
func NewRecordStore(dir string) *RecordStore {
	return &RecordStore{dir: dir}
}

// resultFile mirrors the analysis service's output: either a prosody
// payload or an error marker for a failed analysis.
type resultFile struct {
	Error   json.RawMessage `json:"error"`
	Prosody *struct {
		Predictions []struct {
			Emotions []struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
			} `json:"emotions"`
		} `json:"predictions"`
	} `json:"prosody"`
}

// ForDay returns the well-typed records for the given calendar day, sorted
// ascending by timestamp. Files with malformed names, failed analyses, or
// unusable payloads are skipped; a bad file never aborts the batch.
func (s *RecordStore) ForDay(day time.Time) ([]types.EmotionRecord, error) {
	pattern := filepath.Join(s.dir, "*"+resultSuffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob results: %w", err)
	}

	y, m, d := day.Date()
	var records []types.EmotionRecord
	for _, path := range matches {
		name := filepath.Base(path)

		ts, err := ParseTimestamp(name)
		if err != nil {
			slog.Warn("skipping result with malformed name", "file", name, "error", err)
			continue
		}
		ry, rm, rd := ts.Date()
		if ry != y || rm != m || rd != d {
			continue
		}

		rec, err := s.readRecord(path, ts)
		if err != nil {
			slog.Warn("skipping unusable result", "file", name, "error", err)
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

// readRecord parses one result file into a well-typed EmotionRecord.
// Downstream code never probes for field presence; everything is validated here.
func (s *RecordStore) readRecord(path string, ts time.Time) (*types.EmotionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}

	var rf resultFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if len(rf.Error) > 0 && string(rf.Error) != "null" {
		return nil, fmt.Errorf("analysis failed: %s", rf.Error)
	}
	if rf.Prosody == nil || len(rf.Prosody.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions in result")
	}

	// The display path uses the first prediction per utterance.
	pred := rf.Prosody.Predictions[0]
	if len(pred.Emotions) == 0 {
		return nil, fmt.Errorf("no emotions in prediction")
	}

	emotions := make([]types.EmotionScore, len(pred.Emotions))
	for i, e := range pred.Emotions {
		if e.Name == "" {
			return nil, fmt.Errorf("emotion %d has no name", i)
		}
		emotions[i] = types.EmotionScore{Name: e.Name, Score: e.Score}
	}

	return &types.EmotionRecord{
		Source:    filepath.Base(path),
		Timestamp: ts,
		Emotions:  emotions,
	}, nil
}

// ParseTimestamp extracts the capture instant encoded in a result filename.
// The stem format is audio_YYYYMMDD_HHMMSS, second precision, local time.
func ParseTimestamp(filename string) (time.Time, error) {
	stem := strings.TrimSuffix(filename, resultSuffix)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("unexpected filename format: %s", filename)
	}
	datePart := parts[len(parts)-2]
	timePart := parts[len(parts)-1]

	ts, err := time.ParseInLocation("20060102_150405", datePart+"_"+timePart, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", datePart+"_"+timePart, err)
	}
	return ts, nil
}
