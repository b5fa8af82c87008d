package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/moodline/pkg/llm"
)

// fakeProvider scripts one response per call, keyed by call order.
type fakeProvider struct {
	responses []fakeResponse
	requests  []llm.Request
}

type fakeResponse struct {
	content string
	err     error
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{Content: r.content}, nil
}

func fastRetry() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Millisecond}
}

func newTestGenerator(t *testing.T, provider llm.Provider, models ...string) *Generator {
	t.Helper()
	g, err := NewGenerator(provider, GeneratorOptions{
		Models: models,
		APIKey: "test-key",
		Retry:  fastRetry(),
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestGenerate_EmptyTimeline(t *testing.T) {
	fake := &fakeProvider{}
	g := newTestGenerator(t, fake, "model-a")

	res := g.Generate(context.Background(), nil)
	if !res.Failed() {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(res.Error, "No emotion data available yet") {
		t.Errorf("Error = %q", res.Error)
	}
	if len(fake.requests) != 0 {
		t.Errorf("provider called %d times for empty timeline", len(fake.requests))
	}
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	fake := &fakeProvider{}
	g, err := NewGenerator(fake, GeneratorOptions{Models: []string{"model-a"}, Retry: fastRetry()})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if !res.Failed() {
		t.Fatal("expected failure result")
	}
	if res.Error != "LLM API key not configured." {
		t.Errorf("Error = %q", res.Error)
	}
	if len(fake.requests) != 0 {
		t.Errorf("provider called %d times without an API key", len(fake.requests))
	}
}

func TestGenerate_Success(t *testing.T) {
	fake := &fakeProvider{responses: []fakeResponse{
		{content: "```json\n" + validJSON + "\n```"},
	}}
	g := newTestGenerator(t, fake, "model-a", "model-b")

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if res.Failed() {
		t.Fatalf("Generate failed: %s", res.Error)
	}
	if res.Summary != "Calm morning." {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.Model != "model-a" {
		t.Errorf("Model = %q, want model-a", res.Model)
	}
	if res.ID == "" {
		t.Error("result missing ID")
	}
	if res.Timestamp == "" {
		t.Error("result missing timestamp")
	}

	req := fake.requests[0]
	if req.Model != "model-a" {
		t.Errorf("request model = %q", req.Model)
	}
	if !strings.Contains(req.Prompt, "9:00 AM") {
		t.Error("prompt missing rendered timeline")
	}
	if req.System == "" {
		t.Error("request missing system prompt")
	}
}

func TestGenerate_SectionsMode(t *testing.T) {
	// An unfenced marker-section reply, exactly what the sections
	// instructions ask the model for.
	fake := &fakeProvider{responses: []fakeResponse{
		{content: "SUMMARY: A steady morning.\nINSIGHT: Calm rises after the first break.\nPROMPT: What made the break restful?"},
	}}
	g, err := NewGenerator(fake, GeneratorOptions{
		Models:      []string{"model-a"},
		ExtractMode: ModeSections,
		APIKey:      "test-key",
		Retry:       fastRetry(),
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if res.Failed() {
		t.Fatalf("Generate failed: %s", res.Error)
	}
	if res.Summary != "A steady morning." {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.Insight != "Calm rises after the first break." {
		t.Errorf("Insight = %q", res.Insight)
	}
	if res.Prompt != "What made the break restful?" {
		t.Errorf("Prompt = %q", res.Prompt)
	}

	// The request must carry the sections template, not the JSON one.
	req := fake.requests[0]
	if !strings.Contains(req.Prompt, "SUMMARY:") {
		t.Error("prompt missing section markers")
	}
	if strings.Contains(req.Prompt, "as JSON") {
		t.Error("prompt carries JSON instructions in sections mode")
	}
}

func TestGenerate_FallbackToNextModel(t *testing.T) {
	// model-a returns garbage that no strategy decodes; model-b succeeds.
	fake := &fakeProvider{responses: []fakeResponse{
		{content: "sorry, I cannot help with that"},
		{content: validJSON},
	}}
	g := newTestGenerator(t, fake, "model-a", "model-b")

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if res.Failed() {
		t.Fatalf("Generate failed: %s", res.Error)
	}
	if res.Model != "model-b" {
		t.Errorf("Model = %q, want model-b", res.Model)
	}
	if len(fake.requests) != 2 {
		t.Errorf("provider called %d times, want 2", len(fake.requests))
	}
}

func TestGenerate_RetryableErrorRetriedBeforeFallback(t *testing.T) {
	fake := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("API error (status 429, rate_limit_error): slow down")},
		{content: validJSON},
	}}
	g := newTestGenerator(t, fake, "model-a")

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if res.Failed() {
		t.Fatalf("Generate failed: %s", res.Error)
	}
	if res.Model != "model-a" {
		t.Errorf("Model = %q, want model-a after retry", res.Model)
	}
	if len(fake.requests) != 2 {
		t.Errorf("provider called %d times, want 2", len(fake.requests))
	}
}

func TestGenerate_NonRetryableSkipsStraightToFallback(t *testing.T) {
	fake := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("API error (status 404, not_found_error): unknown model")},
		{content: validJSON},
	}}
	g := newTestGenerator(t, fake, "model-a", "model-b")

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if res.Failed() {
		t.Fatalf("Generate failed: %s", res.Error)
	}
	if res.Model != "model-b" {
		t.Errorf("Model = %q, want model-b", res.Model)
	}
	if len(fake.requests) != 2 {
		t.Errorf("provider called %d times, want 2 (no retry on model-a)", len(fake.requests))
	}
}

func TestGenerate_AllModelsFail(t *testing.T) {
	fake := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("API error (status 401, authentication_error): bad key")},
		{err: errors.New("API error (status 401, authentication_error): bad key")},
	}}
	g := newTestGenerator(t, fake, "model-a", "model-b")

	res := g.Generate(context.Background(), entries("9:00 AM"))
	if !res.Failed() {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(res.Error, "All models failed") {
		t.Errorf("Error = %q", res.Error)
	}
	if !strings.Contains(res.Error, "authentication_error") {
		t.Errorf("Error = %q, want last provider error included", res.Error)
	}
}

func TestNewGenerator_RequiresModels(t *testing.T) {
	if _, err := NewGenerator(&fakeProvider{}, GeneratorOptions{}); err == nil {
		t.Error("expected error for empty model list")
	}
}
