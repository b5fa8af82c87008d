//go:build integration

package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/moodline/internal/insight"
	"github.com/user/moodline/internal/server"
	"github.com/user/moodline/internal/store"
	"github.com/user/moodline/internal/timeline"
	"github.com/user/moodline/pkg/llm"
	"github.com/user/moodline/pkg/llm/anthropic"
)

// apiStub mimics the messages endpoint, echoing back a canned payload.
func apiStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": `{"summary": "A steady day.", "insight": "Energy peaked mid-morning.", "prompt": "What fueled the 9 AM spike?"}`},
			},
			"usage": map[string]int{"input_tokens": 100, "output_tokens": 50},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func writeResult(t *testing.T, dir, stamp string, score float64) {
	t.Helper()
	content := fmt.Sprintf(`{"prosody":{"predictions":[{"emotions":[{"name":"Joy","score":%f},{"name":"Calmness","score":%f}]}]}}`, score, score/2)
	path := filepath.Join(dir, "audio_"+stamp+"_emotions.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd(t *testing.T) {
	api := apiStub(t)
	defer api.Close()

	dir := t.TempDir()
	writeResult(t, dir, "20250318_090100", 0.62)
	writeResult(t, dir, "20250318_090500", 0.81)
	writeResult(t, dir, "20250318_094200", 0.40)

	records := store.NewRecordStore(dir)
	assembler := timeline.New(timeline.Options{})

	provider := anthropic.New(&llm.Config{
		BaseURL: api.URL,
		APIKey:  "test-key",
	})
	gen, err := insight.NewGenerator(provider, insight.GeneratorOptions{
		Models: []string{"model-a"},
		APIKey: "test-key",
		Retry:  &insight.RetryPolicy{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: time.Millisecond},
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := server.NewServer(store.NewAudioStore(dir), records, assembler, gen)

	// Timeline endpoint condenses the three records into two windows.
	req := httptest.NewRequest(http.MethodGet, "/emotions?date=2025-03-18", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("emotions status %d: %s", w.Code, w.Body.String())
	}
	var tl struct {
		Emotions []struct {
			DisplayTime string `json:"display_time"`
		} `json:"emotions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&tl); err != nil {
		t.Fatal(err)
	}
	if len(tl.Emotions) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(tl.Emotions))
	}
	if tl.Emotions[0].DisplayTime != "9:00 AM" || tl.Emotions[1].DisplayTime != "9:40 AM" {
		t.Errorf("unexpected entries: %+v", tl.Emotions)
	}

	// Insight endpoint runs the full pipeline through the stubbed API.
	req = httptest.NewRequest(http.MethodPost, "/insights?date=2025-03-18", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("insights status %d: %s", w.Code, w.Body.String())
	}
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result["summary"] != "A steady day." {
		t.Errorf("summary = %v", result["summary"])
	}
	if result["error"] != nil {
		t.Errorf("unexpected error: %v", result["error"])
	}
	if result["model"] != "model-a" {
		t.Errorf("model = %v", result["model"])
	}
}
