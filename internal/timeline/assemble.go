// internal/timeline/assemble.go
package timeline

import (
	"sort"
	"time"

	"github.com/user/moodline/internal/types"
)

// displayFormat is the date-less clock format entries are labeled with.
const displayFormat = "3:04 PM"

// Mode selects how a sampled bucket is condensed into one timeline entry.
type Mode string

const (
	// ModeIntensity finds the single peak record and reports its top
	// emotions plus the peak score.
	ModeIntensity Mode = "intensity"
	// ModeAverage reports the bucket's mean emotion scores.
	ModeAverage Mode = "average"
)

// LabelPolicy selects which instant labels a bucket's timeline entry.
type LabelPolicy string

const (
	// LabelFloor labels the entry with the bucket's window floor.
	LabelFloor LabelPolicy = "floor"
	// LabelPeak labels the entry with the winning record's own timestamp.
	// Only meaningful in intensity mode; average mode falls back to floor.
	LabelPeak LabelPolicy = "peak"
)

// Options is the explicit policy configuration for building a timeline.
// Zero values fall back to the reference policy.
type Options struct {
	Window         time.Duration
	MaxSample      int
	SampleStrategy Strategy
	Mode           Mode
	PeakTopK       int
	AverageTopK    int
	Label          LabelPolicy
}

// withDefaults fills unset fields with the reference policy: 20-minute
// windows, 5-record stride samples, intensity mode with top 3, floor labels.
func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = 20 * time.Minute
	}
	if o.MaxSample <= 0 {
		o.MaxSample = 5
	}
	if o.SampleStrategy == "" {
		o.SampleStrategy = StrategyStride
	}
	if o.Mode == "" {
		o.Mode = ModeIntensity
	}
	if o.PeakTopK <= 0 {
		o.PeakTopK = 3
	}
	if o.AverageTopK <= 0 {
		o.AverageTopK = 5
	}
	if o.Label == "" {
		o.Label = LabelFloor
	}
	return o
}

// Assembler turns a day's records into an ordered timeline. Stateless:
// every call re-derives the full result and never mutates its input.
type Assembler struct {
	opts Options
}

// New creates an Assembler with the given options.
func New(opts Options) *Assembler {
	return &Assembler{opts: opts.withDefaults()}
}

// Assemble builds the timeline for one calendar day. Records from other
// days are dropped (a day boundary, not a rolling window). Entries are
// sorted ascending by time of day, reconstructed from the display label
// against the queried day's date.
func (a *Assembler) Assemble(records []types.EmotionRecord, day time.Time) []types.TimelineEntry {
	buckets := Partition(records, a.opts.Window, a.opts.MaxSample, a.opts.SampleStrategy)

	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	entries := make([]types.TimelineEntry, 0, len(buckets))
	for _, b := range buckets {
		if b.Key.Before(dayStart) || !b.Key.Before(dayEnd) {
			continue
		}
		entry, ok := a.condense(b)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return parseDisplayTime(entries[i].DisplayTime, dayStart).
			Before(parseDisplayTime(entries[j].DisplayTime, dayStart))
	})
	return entries
}

// condense turns one sampled bucket into a timeline entry. Returns false
// when the bucket has no usable emotion data; the bucket is then skipped
// rather than emitting a degenerate entry.
func (a *Assembler) condense(b Bucket) (types.TimelineEntry, bool) {
	if a.opts.Mode == ModeAverage {
		top, ok := Average(b.Records, a.opts.AverageTopK)
		if !ok {
			return types.TimelineEntry{}, false
		}
		return types.TimelineEntry{
			DisplayTime: b.Key.Format(displayFormat),
			TopEmotions: top,
		}, true
	}

	peak, ok := Peak(b.Records)
	if !ok {
		return types.TimelineEntry{}, false
	}
	intensity, _ := peak.MaxScore()

	label := b.Key
	if a.opts.Label == LabelPeak {
		label = peak.Timestamp
	}
	return types.TimelineEntry{
		DisplayTime:   label.Format(displayFormat),
		TopEmotions:   TopEmotions(peak, a.opts.PeakTopK),
		PeakIntensity: &intensity,
	}, true
}

// parseDisplayTime reconstructs a wall-clock instant from a date-less
// display label and the queried day.
func parseDisplayTime(display string, dayStart time.Time) time.Time {
	t, err := time.Parse(displayFormat, display)
	if err != nil {
		return dayStart
	}
	return time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(),
		t.Hour(), t.Minute(), 0, 0, dayStart.Location())
}
