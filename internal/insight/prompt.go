// internal/insight/prompt.go
package insight

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/moodline/internal/types"
)

// systemPrompt frames every insight request.
const systemPrompt = "You are an expert in emotional intelligence and personal growth. " +
	"Provide specific, actionable insights based on emotional patterns."

// jsonInstructions is the request template for the flat three-key schema.
const jsonInstructions = `Based on the following emotional data, provide a brief analysis focusing on the most specific and actionable insights. Keep insights to 1-2 sentences and avoid generic advice. Focus on patterns that are unique to this emotional journey.

Emotional Data:
%s

Please provide:
1. A 1-2 sentence summary of the most significant emotional patterns
2. A single, highly specific actionable insight (not generic advice)
3. A thought-provoking journaling prompt that relates to the specific emotions observed

Format the response as JSON with keys: summary, insight, and prompt.`

// sectionInstructions is the request template for the marker-section schema.
const sectionInstructions = `Based on the following emotional data, provide a brief analysis focusing on the most specific and actionable insights. Keep insights to 1-2 sentences and avoid generic advice. Focus on patterns that are unique to this emotional journey.

Emotional Data:
%s

Please provide:
1. A 1-2 sentence summary of the most significant emotional patterns
2. A single, highly specific actionable insight (not generic advice)
3. A thought-provoking journaling prompt that relates to the specific emotions observed

Format the response as plain text with three sections labeled SUMMARY:, INSIGHT: and PROMPT:.`

// RenderEntries renders a timeline into the natural-language block embedded
// in the request: for each entry one line with its display time, then one
// line per top emotion as "name: score%". Pure, no I/O; an empty timeline
// renders an empty block.
func RenderEntries(entries []types.TimelineEntry) string {
	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(entry.DisplayTime)
		sb.WriteString("\n")
		for _, e := range entry.TopEmotions {
			fmt.Fprintf(&sb, "%s: %.1f%%\n", e.Name, e.Score*100)
		}
	}
	return sb.String()
}

// Builder renders timeline entries into prompt text under a token budget.
type Builder struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// NewBuilder creates a prompt builder with the given token budget. The
// provider does not publish its tokenizer, so cl100k_base serves as a
// conservative estimate for budgeting.
func NewBuilder(maxTokens int) (*Builder, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}
	return &Builder{tokenizer: enc, maxTokens: maxTokens}, nil
}

// countTokens returns the token count for a string.
func (b *Builder) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Render produces the emotional-data block, dropping the oldest entries
// until the block fits the budget. Recent context is worth more to the
// insight than morning data.
func (b *Builder) Render(entries []types.TimelineEntry) string {
	text := RenderEntries(entries)
	if b.maxTokens <= 0 {
		return text
	}
	for len(entries) > 1 && b.countTokens(text) > b.maxTokens {
		entries = entries[1:]
		text = RenderEntries(entries)
	}
	return text
}

// instructionsFor returns the full request text for the given extraction
// mode, with the rendered data block embedded.
func instructionsFor(mode string, data string) string {
	if mode == ModeSections {
		return fmt.Sprintf(sectionInstructions, data)
	}
	return fmt.Sprintf(jsonInstructions, data)
}
