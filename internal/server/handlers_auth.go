package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"energy-dashboard/internal/auth"
)

// Error bodies returned by POST /api/auth
const (
	msgMissingCredentials = "Missing username or password"
	msgInvalidCredentials = "Invalid username or password"
	msgServerError        = "Server error"
)

// maxAuthBody caps how much of the request body is read
const maxAuthBody = 1 << 20

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// credentialAttempt is the decoded login body. Fields that were present but
// not strings are flagged so they can never match a credential.
type credentialAttempt struct {
	Username      string
	Password      string
	usernameTyped bool
	passwordTyped bool
}

func (a credentialAttempt) missing() bool {
	return (a.Username == "" && a.usernameTyped) || (a.Password == "" && a.passwordTyped)
}

func (a credentialAttempt) wellTyped() bool {
	return a.usernameTyped && a.passwordTyped
}

// decodeAttempt never fails: an unreadable or non-object body is an empty attempt
func decodeAttempt(r io.Reader) credentialAttempt {
	empty := credentialAttempt{usernameTyped: true, passwordTyped: true}
	if r == nil {
		return empty
	}

	data, err := io.ReadAll(io.LimitReader(r, maxAuthBody))
	if err != nil {
		return empty
	}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return empty
	}

	var a credentialAttempt
	a.Username, a.usernameTyped = credentialField(body["username"])
	a.Password, a.passwordTyped = credentialField(body["password"])
	return a
}

// credentialField returns the string value and whether v was a string or a
// falsy JSON value (null, false, 0).
func credentialField(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case bool:
		if !x {
			return "", true
		}
	case float64:
		if x == 0 {
			return "", true
		}
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	attempt := decodeAttempt(r.Body)

	var err error
	switch {
	case attempt.missing():
		err = auth.ErrMissingCredentials
	case !attempt.wellTyped():
		err = auth.ErrInvalidCredentials
	default:
		err = s.verifier.Verify(r.Context(), attempt.Username, attempt.Password)
	}

	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		s.logger.Printf("[Auth] rejected login from %s: missing credentials", r.RemoteAddr)
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.logger.Printf("[Auth] rejected login for %q from %s: invalid credentials", attempt.Username, r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	case err != nil:
		s.logger.Printf("[Auth] verifier error: %v", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	// Advisory only: the probe runs detached and never affects this response.
	s.monitor.ProbeAsync()

	token, err := s.signer.Sign(r.Context(), attempt.Username)
	if err != nil {
		s.logger.Printf("[Auth] token signing failed for %q: %v", attempt.Username, err)
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.logger.Printf("[Auth] login accepted for %q from %s", attempt.Username, r.RemoteAddr)
	writeJSON(w, http.StatusOK, authResponse{Token: token, Username: attempt.Username})
}

func (s *Server) pageData() map[string]interface{} {
	return map[string]interface{}{
		"Brand":         s.config.BrandName,
		"Year":          time.Now().Year(),
		"AuthEndpoint":  authEndpoint,
		"PostLoginPath": s.config.PostLoginPath,
		"LoginPath":     loginPath,
		"TokenKey":      tokenStorageKey,
		"UserKey":       usernameStorageKey,
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates["login"].Execute(w, s.pageData()); err != nil {
		s.logger.Printf("[HTTP] rendering login page: %v", err)
	}
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates["sites"].Execute(w, s.pageData()); err != nil {
		s.logger.Printf("[HTTP] rendering sites page: %v", err)
	}
}
