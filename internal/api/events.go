package api

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// handleEvents is the long-lived SSE endpoint dashboards subscribe to. Every
// reloaded seed file is pushed as a signal patch {"seeded": SeedEvent} so
// panels on that table can re-run their queries.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the stream opens so no event is missed.
	events := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(events)

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := sse.MarshalAndPatchSignals(map[string]any{"seeded": ev}); err != nil {
				s.logger.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}
