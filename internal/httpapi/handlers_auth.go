package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fluentia-app/fluentia/internal/auth"
)

// loginRequest is the POST /api/login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userView is the public account shape returned by login and /api/me.
type userView struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Role     auth.Role `json:"role"`
}

func viewOf(sess *auth.Session) userView {
	return userView{ID: sess.UserID, Username: sess.Username, Role: sess.Role}
}

// loginResponse returns the session token together with the public user view
// the client renders.
type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequestf("invalid JSON body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, r, badRequestf("username and password are required"))
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("login", "username", sess.Username, "role", sess.Role)
	s.writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, User: viewOf(sess)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}

	// The lesson turn state is keyed by token; drop it with the session.
	s.turns.Clear(token)
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]userView{"user": viewOf(sessionFrom(r.Context()))})
}
