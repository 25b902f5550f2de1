// File path: internal/api/types.go
package api

import (
	"github.com/harborcover/commsight/internal/orchestrator"
)

type queryRequest struct {
	Question  string `json:"question"`
	CompanyID int64  `json:"company_id"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	orchestrator.Result
	SessionID string `json:"session_id"`
}
