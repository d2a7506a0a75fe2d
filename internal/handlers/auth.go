package handlers

import (
	"errors"
	"net/http"

	"portfolio/internal/auth"
	"portfolio/internal/metrics"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, errors.New("email and password are required"))
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, errors.New("invalid email address"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	user, err := s.auth.Authenticate(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		respondError(w, http.StatusUnauthorized, err)
		return
	case err != nil:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, auth.ErrAuthUnavailable)
		return
	}

	token, expires, err := s.auth.IssueSession(ctx, user)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, auth.ErrAuthUnavailable)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	auth.SetCookie(w, token, expires, s.cookies)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// handleLogout is idempotent: with or without an active session it clears
// the cookie and reports success.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := s.auth.Logout(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("logout cleanup failed")
	}

	auth.ClearCookie(w, s.cookies)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errNotAuthenticated)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}
