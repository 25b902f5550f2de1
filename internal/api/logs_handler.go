// File path: internal/api/logs_handler.go
package api

import (
	"net/http"

	"github.com/harborcover/commsight/internal/common"
)

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	if entries == nil {
		entries = []common.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
