package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/aTrapDeer/portfolio-backend/internal/auth"
	"github.com/aTrapDeer/portfolio-backend/internal/metrics"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	token, expires, err := s.gate.Login(r.Context(), s.clientKey(r), req.Password)
	var limited *auth.RateLimitedError
	switch {
	case errors.As(err, &limited):
		metrics.RateLimited.WithLabelValues("login").Inc()
		setRetryAfter(w, limited.RetryAfter)
		minutes := int(math.Ceil(limited.RetryAfter.Minutes()))
		return &Error{
			Status:  http.StatusTooManyRequests,
			Message: fmt.Sprintf("Too many login attempts, please try again in %d minutes", max(minutes, 1)),
		}
	case errors.Is(err, auth.ErrPasswordRequired):
		return badRequest("Password is required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized("Invalid credentials")
	case err != nil:
		return internal("Login failed", err)
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires.UTC()})
	return nil
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sessionFrom(r.Context())
	if err := s.gate.Logout(r.Context(), sess.token); err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			return unauthorized("Invalid or expired token")
		}
		return internal("Logout failed", err)
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
	return nil
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"role":  sess.claims.Role,
	})
	return nil
}
