package insight

import (
	"strings"
	"testing"
)

const validJSON = `{"summary": "Calm morning.", "insight": "Joy spiked after lunch.", "prompt": "What changed at noon?"}`

func TestExtract_TaggedFence(t *testing.T) {
	text := "Here is your analysis:\n```json\n" + validJSON + "\n```\nHope that helps."
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "Calm morning." {
		t.Errorf("Summary = %q", p.Summary)
	}
}

func TestExtract_AnyFence(t *testing.T) {
	text := "```\n" + validJSON + "\n```"
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Prompt != "What changed at noon?" {
		t.Errorf("Prompt = %q", p.Prompt)
	}
}

func TestExtract_BraceSpan(t *testing.T) {
	text := "Sure! " + validJSON + " Let me know if you need more."
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Insight != "Joy spiked after lunch." {
		t.Errorf("Insight = %q", p.Insight)
	}
}

func TestExtract_FirstLine(t *testing.T) {
	text := validJSON + "\nThis second line is commentary without braces"
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "Calm morning." {
		t.Errorf("Summary = %q", p.Summary)
	}
}

func TestExtract_LastLine(t *testing.T) {
	// A stray opening brace early in the text makes the brace span invalid
	// JSON, and the first line is prose, so only the last line decodes.
	text := "prose with a stray { brace\nmore prose\n" + validJSON
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "Calm morning." {
		t.Errorf("Summary = %q", p.Summary)
	}
}

func TestExtract_BareSections(t *testing.T) {
	// A compliant sections reply has no fences and no braces; the whole
	// response must reach the decoder intact.
	text := "SUMMARY: Mostly calm with an afternoon dip.\nINSIGHT: The dip follows back-to-back meetings.\nPROMPT: What would a real break look like?"
	p, err := Extract(text, &SectionsDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "Mostly calm with an afternoon dip." {
		t.Errorf("Summary = %q", p.Summary)
	}
	if p.Insight != "The dip follows back-to-back meetings." {
		t.Errorf("Insight = %q", p.Insight)
	}
	if p.Prompt != "What would a real break look like?" {
		t.Errorf("Prompt = %q", p.Prompt)
	}
}

func TestExtract_FencedSections(t *testing.T) {
	text := "Here you go:\n```\nSUMMARY: calm\nINSIGHT: steady\nPROMPT: why?\n```"
	p, err := Extract(text, &SectionsDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "calm" {
		t.Errorf("Summary = %q", p.Summary)
	}
}

func TestExtract_SectionsWithPreamble(t *testing.T) {
	// Leading prose does not stop the markers from being found; the section
	// content itself must still come through unclipped.
	text := "Sure, here is the analysis.\n\nSUMMARY: calm\nINSIGHT: steady\nPROMPT: why?"
	p, err := Extract(text, &SectionsDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Prompt != "why?" {
		t.Errorf("Prompt = %q", p.Prompt)
	}
}

func TestExtract_FencePreferredOverBraces(t *testing.T) {
	// Both a fence and a brace span exist; the fence content must win.
	fenced := `{"summary": "from fence", "insight": "i", "prompt": "p"}`
	text := "intro {\"summary\": \"stray\"} text\n```json\n" + fenced + "\n```"
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "from fence" {
		t.Errorf("Summary = %q, want fence content preferred", p.Summary)
	}
}

func TestExtract_CascadeSkipsInvalidCandidates(t *testing.T) {
	// The fence holds garbage; the brace span outside it holds the payload.
	text := "```json\nnot json at all\n```\nfallback " + validJSON
	p, err := Extract(text, &JSONDecoder{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if p.Summary != "Calm morning." {
		t.Errorf("Summary = %q", p.Summary)
	}
}

func TestExtract_NothingValid(t *testing.T) {
	_, err := Extract("no structure here at all", &JSONDecoder{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestExtract_EmptyText(t *testing.T) {
	_, err := Extract("", &JSONDecoder{})
	if err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestJSONDecoder(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"valid", validJSON, false},
		{"missing prompt", `{"summary": "s", "insight": "i"}`, true},
		{"empty field", `{"summary": "", "insight": "i", "prompt": "p"}`, true},
		{"whitespace field", `{"summary": "  ", "insight": "i", "prompt": "p"}`, true},
		{"non-string field", `{"summary": 5, "insight": "i", "prompt": "p"}`, true},
		{"extra field", `{"summary": "s", "insight": "i", "prompt": "p", "mood": "x"}`, true},
		{"array", `["summary", "insight", "prompt"]`, true},
		{"not json", "hello", true},
	}
	d := &JSONDecoder{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestSectionsDecoder(t *testing.T) {
	d := &SectionsDecoder{}

	text := "SUMMARY: Mostly calm with an afternoon dip.\nINSIGHT: The dip follows back-to-back meetings.\nPROMPT: What would a real break look like?"
	p, err := d.Decode(text)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if p.Summary != "Mostly calm with an afternoon dip." {
		t.Errorf("Summary = %q", p.Summary)
	}
	if p.Insight != "The dip follows back-to-back meetings." {
		t.Errorf("Insight = %q", p.Insight)
	}
	if p.Prompt != "What would a real break look like?" {
		t.Errorf("Prompt = %q", p.Prompt)
	}
}

func TestSectionsDecoder_MultilineSections(t *testing.T) {
	d := &SectionsDecoder{}

	text := "summary: line one\nline two\ninsight: single\nprompt: ask yourself"
	p, err := d.Decode(text)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !strings.Contains(p.Summary, "line two") {
		t.Errorf("Summary = %q, want continuation line included", p.Summary)
	}
}

func TestSectionsDecoder_Incomplete(t *testing.T) {
	d := &SectionsDecoder{}

	if _, err := d.Decode("SUMMARY: only a summary"); err == nil {
		t.Error("expected error for missing sections")
	}
	if _, err := d.Decode("free text with no markers"); err == nil {
		t.Error("expected error for no markers")
	}
}

func TestDecoderFor(t *testing.T) {
	if _, ok := DecoderFor(ModeJSON).(*JSONDecoder); !ok {
		t.Error("ModeJSON should select JSONDecoder")
	}
	if _, ok := DecoderFor(ModeSections).(*SectionsDecoder); !ok {
		t.Error("ModeSections should select SectionsDecoder")
	}
	if _, ok := DecoderFor("").(*JSONDecoder); !ok {
		t.Error("unknown mode should default to JSONDecoder")
	}
}
