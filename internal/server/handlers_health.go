package server

import (
	"net/http"

	"energy-dashboard/internal/monitor"
)

type healthResponse struct {
	Status   string              `json:"status"`
	Upstream monitor.CheckStatus `json:"upstream"`
}

// handleHealth reports this server's own liveness. The upstream database
// state is informational and never turns the response unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "pass",
		Upstream: s.monitor.GetStatus(),
	})
}
