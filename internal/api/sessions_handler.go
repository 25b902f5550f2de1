// File path: internal/api/sessions_handler.go
package api

import (
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/harborcover/commsight/internal/common"
)

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	sessionID := strings.TrimSpace(chi.URLParam(r, "id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("session id required"))
		return
	}
	if !s.orchestrator.SessionExists(sessionID) {
		writeError(w, http.StatusNotFound, fmt.Errorf("session not found: %s", sessionID))
		return
	}
	s.orchestrator.ClearSession(sessionID)
	logger.Info("api: session cleared", "session_id", sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true, "session_id": sessionID})
}

func (s *Server) handleSessionsClear(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	count := s.orchestrator.SessionCount()
	s.orchestrator.ClearAllSessions()
	logger.Info("api: all sessions cleared", "sessions", count)
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true, "sessions": count})
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_sessions": s.orchestrator.SessionCount(),
		"window_size":     s.orchestrator.MemoryWindow(),
	})
}
