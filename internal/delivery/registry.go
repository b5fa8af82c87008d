// internal/delivery/registry.go
package delivery

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/moodline/internal/types"
)

// Handler pushes one insight result to the channel named by target.
type Handler func(target string, result *types.InsightResult) error

// Registry routes insight results to the appropriate delivery handler based
// on target prefix (e.g. "telegram:", "stdout:"). Targets name where an
// insight lands: "telegram:123456" is a chat, "stdout:" is the terminal.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for targets starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver finds the handler matching the target prefix and hands it the
// result. Degraded results never reach a channel; callers log those instead.
func (r *Registry) Deliver(target string, result *types.InsightResult) error {
	if result == nil {
		return fmt.Errorf("nothing to deliver")
	}
	if result.Failed() {
		return fmt.Errorf("refusing to deliver degraded insight: %s", result.Error)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, handler := range r.handlers {
		if strings.HasPrefix(target, prefix) {
			return handler(target, result)
		}
	}
	return fmt.Errorf("no delivery handler for target: %s", target)
}

// Format renders a result as the human-facing message pushed to delivery
// channels.
func Format(r *types.InsightResult) string {
	return fmt.Sprintf("Daily insight (%s)\n\nSummary: %s\n\nInsight: %s\n\nJournaling prompt: %s",
		r.Timestamp, r.Summary, r.Insight, r.Prompt)
}
