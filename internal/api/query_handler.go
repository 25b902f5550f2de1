// File path: internal/api/query_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/orchestrator"
)

// handleQuery answers one natural-language question. A blank session_id mints
// a fresh UUID so follow-up questions can reuse the same conversation window;
// the minted id is echoed back in the response.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: query decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.Warn("api: query question missing")
		writeError(w, http.StatusBadRequest, fmt.Errorf("question required"))
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
		logger.Debug("api: minted session", "session_id", sessionID)
	}
	logger.Info("api: query received", "question_length", len(question), "company_id", req.CompanyID, "session_id", sessionID)
	result := s.orchestrator.Process(ctx, orchestrator.Request{
		Question:  question,
		CompanyID: req.CompanyID,
		SessionID: sessionID,
	})
	logger.Info("api: query answered", "session_id", sessionID, "route", string(result.Route), "success", result.Success)
	writeJSON(w, http.StatusOK, queryResponse{Result: result, SessionID: sessionID})
}
