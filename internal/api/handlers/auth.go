package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/localevents/internal/audit"
	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
	"github.com/Togather-Foundation/localevents/internal/metrics"
)

type AuthHandler struct {
	Users  *users.Service
	Tokens *auth.JWTManager
	Audit  *audit.Logger
	Env    string
}

func NewAuthHandler(service *users.Service, tokens *auth.JWTManager, auditLogger *audit.Logger, env string) *AuthHandler {
	return &AuthHandler{Users: service, Tokens: tokens, Audit: auditLogger, Env: env}
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input users.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	user, err := h.Users.Register(r.Context(), input)
	metrics.AuthAttempts.WithLabelValues("register", outcome(err)).Inc()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogSuccess("auth.register", user.ID, "user", user.ID, audit.ClientIP(r), map[string]string{"role": user.Role})
	h.respond(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input users.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), input)
	metrics.AuthAttempts.WithLabelValues("login", outcome(err)).Inc()
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.Audit.LogFailure("auth.login", "", audit.ClientIP(r), nil)
		}
		writeError(w, r, err, h.Env)
		return
	}

	h.respond(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respond(w http.ResponseWriter, r *http.Request, status int, user *users.User) {
	token, err := h.Tokens.Generate(user.ID, user.Role)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, status, authResponse{
		Token: token,
		User: userResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}
