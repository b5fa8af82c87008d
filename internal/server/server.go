// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/moodline/internal/insight"
	"github.com/user/moodline/internal/store"
	"github.com/user/moodline/internal/timeline"
	"github.com/user/moodline/internal/types"
)

// maxAudioBytes caps the accepted upload body. 16kHz mono 16-bit is
// 32 KB/s, so this allows a little over half an hour of audio.
const maxAudioBytes = 64 << 20

// Server exposes the HTTP API: audio ingestion, the day's emotion
// timeline, and on-demand insight generation.
type Server struct {
	audio     *store.AudioStore
	records   *store.RecordStore
	assembler *timeline.Assembler
	generator *insight.Generator
	insights  *semaphore.Weighted
	mux       *http.ServeMux
}

// NewServer creates a Server over the given stores. Insight generation is
// serialized: a request that arrives while one is in flight is rejected
// rather than queued, since both would see the same data.
func NewServer(audio *store.AudioStore, records *store.RecordStore, assembler *timeline.Assembler, generator *insight.Generator) *Server {
	s := &Server{
		audio:     audio,
		records:   records,
		assembler: assembler,
		generator: generator,
		insights:  semaphore.NewWeighted(1),
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /audio", s.handleAudio)
	s.mux.HandleFunc("GET /emotions", s.handleEmotions)
	s.mux.HandleFunc("POST /insights", s.handleInsights)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	reqID := types.NewRequestID()
	pcm, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		slog.Warn("audio upload read failed", "request_id", reqID, "error", err)
		http.Error(w, `{"error":"could not read request body"}`, http.StatusBadRequest)
		return
	}
	if len(pcm) == 0 {
		http.Error(w, `{"error":"empty audio body"}`, http.StatusBadRequest)
		return
	}

	now := time.Now()
	filename, err := s.audio.Save(pcm, now)
	if err != nil {
		slog.Error("audio save failed", "request_id", reqID, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	slog.Info("audio saved", "request_id", reqID, "file", filename, "bytes", len(pcm))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "saved",
		"filename":  filename,
		"timestamp": now.Format("2006-01-02 15:04:05"),
		"size_kb":   float64(len(pcm)) / 1024,
	})
}

// dayParam parses the optional ?date=YYYY-MM-DD query, defaulting to today.
func dayParam(r *http.Request) (time.Time, error) {
	q := r.URL.Query().Get("date")
	if q == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation("2006-01-02", q, time.Local)
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	entries, err := s.timelineFor(day)
	if err != nil {
		slog.Error("timeline assembly failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"emotions": entries})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		http.Error(w, `{"error":"insight generation not configured"}`, http.StatusServiceUnavailable)
		return
	}
	if !s.insights.TryAcquire(1) {
		http.Error(w, `{"error":"an insight is already being generated"}`, http.StatusConflict)
		return
	}
	defer s.insights.Release(1)

	day, err := dayParam(r)
	if err != nil {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	entries, err := s.timelineFor(day)
	if err != nil {
		slog.Error("timeline assembly failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	result := s.generator.Generate(r.Context(), entries)
	if result.Failed() {
		slog.Warn("insight generation degraded", "id", result.ID, "error", result.Error)
	} else {
		slog.Info("insight generated", "id", result.ID, "model", result.Model)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// timelineFor loads the day's records and condenses them into entries.
func (s *Server) timelineFor(day time.Time) ([]types.TimelineEntry, error) {
	records, err := s.records.ForDay(day)
	if err != nil {
		return nil, err
	}
	entries := s.assembler.Assemble(records, day)
	if entries == nil {
		entries = []types.TimelineEntry{}
	}
	return entries, nil
}

// ListenAndServe runs the HTTP server until the context is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
