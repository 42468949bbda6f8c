package httpapi

import "net/http"

// versionResponse is the /version and /api/version reply.
type versionResponse struct {
	Version string `json:"version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, versionResponse{Version: s.version})
}
