// internal/insight/extract.go
package insight

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Extraction modes selecting which payload decoder is used.
const (
	ModeJSON     = "json"
	ModeSections = "sections"
)

// Payload is the structured insight recovered from a model's free-form
// response text.
type Payload struct {
	Summary string `json:"summary"`
	Insight string `json:"insight"`
	Prompt  string `json:"prompt"`
}

// Decoder turns candidate text into a validated Payload or reports why it
// could not.
type Decoder interface {
	Decode(text string) (*Payload, error)
}

// DecoderFor returns the decoder for the configured extraction mode.
func DecoderFor(mode string) Decoder {
	if mode == ModeSections {
		return &SectionsDecoder{}
	}
	return &JSONDecoder{}
}

// strategy is one total, side-effect-free attempt to pull candidate text
// out of a free-form response. The second return is false when the strategy
// does not apply to the text.
type strategy func(text string) (string, bool)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*\n?(.*?)```")
	fencedAnyRe  = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n?(.*?)```")
)

// strategies is the extraction cascade, in priority order: tagged fence,
// any fence, whole text, brace span, first line, last line. The first
// candidate that decodes wins. The whole-text candidate is what carries a
// fully compliant response, such as a bare marker-section reply, through to
// the decoder in one piece.
var strategies = []strategy{
	func(text string) (string, bool) {
		m := fencedJSONRe.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(text string) (string, bool) {
		m := fencedAnyRe.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(text string) (string, bool) {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return "", false
		}
		return trimmed, true
	},
	func(text string) (string, bool) {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return "", false
		}
		return text[start : end+1], true
	},
	func(text string) (string, bool) {
		lines := nonEmptyLines(text)
		if len(lines) == 0 {
			return "", false
		}
		return lines[0], true
	},
	func(text string) (string, bool) {
		lines := nonEmptyLines(text)
		if len(lines) == 0 {
			return "", false
		}
		return lines[len(lines)-1], true
	},
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Extract runs the cascade over the response text with the given decoder.
// Returns the first validated payload, or an error when every strategy's
// candidate fails to decode.
func Extract(text string, dec Decoder) (*Payload, error) {
	var lastErr error
	for _, strat := range strategies {
		candidate, ok := strat(text)
		if !ok {
			continue
		}
		payload, err := dec.Decode(candidate)
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("response text is empty")
	}
	return nil, fmt.Errorf("no extraction strategy yielded a valid payload: %w", lastErr)
}

// JSONDecoder decodes the flat three-key object schema.
type JSONDecoder struct{}

// Decode parses text as a JSON object containing exactly the summary,
// insight and prompt fields, each a non-empty string.
func (d *JSONDecoder) Decode(text string) (*Payload, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	p := &Payload{}
	fields := map[string]*string{
		"summary": &p.Summary,
		"insight": &p.Insight,
		"prompt":  &p.Prompt,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("missing field %q", key)
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("field %q is not a non-empty string", key)
		}
		*dst = s
	}
	for key := range raw {
		if _, known := fields[key]; !known {
			return nil, fmt.Errorf("unexpected field %q", key)
		}
	}
	return p, nil
}

// SectionsDecoder decodes the marker-section schema: three text sections
// introduced by SUMMARY:, INSIGHT: and PROMPT: headings.
type SectionsDecoder struct{}

var sectionRe = regexp.MustCompile(`(?im)^\s*(SUMMARY|INSIGHT|PROMPT)\s*:\s*`)

// Decode parses marker-delimited sections; each section runs until the next
// marker or the end of the text, and all three must be non-empty.
func (d *SectionsDecoder) Decode(text string) (*Payload, error) {
	locs := sectionRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("no section markers found")
	}

	sections := make(map[string]string)
	for i, loc := range locs {
		name := strings.ToLower(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections[name] = strings.TrimSpace(text[loc[1]:end])
	}

	p := &Payload{
		Summary: sections["summary"],
		Insight: sections["insight"],
		Prompt:  sections["prompt"],
	}
	if p.Summary == "" || p.Insight == "" || p.Prompt == "" {
		return nil, fmt.Errorf("incomplete sections: need SUMMARY, INSIGHT and PROMPT")
	}
	return p, nil
}
