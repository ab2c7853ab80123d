package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/session"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
)

type Handler struct {
	Sessions *session.Provider
	Secret   string
	TTL      time.Duration
}

func NewHandler(sessions *session.Provider, secret string, ttl time.Duration) *Handler {
	return &Handler{Sessions: sessions, Secret: secret, TTL: ttl}
}

type loginRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// HandleLogin signs in by employee code alone; any password is accepted.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, err := h.Sessions.SignIn(r.Context(), payload.Code)
	if err != nil {
		if errors.Is(err, session.ErrUnknownCode) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid employee code", middleware.GetRequestID(r.Context()))
			return
		}
		zap.L().Error("sign in failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: user.ID, Code: user.Code, Name: user.Name, Role: user.Role}, h.TTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token":       token,
		"user":        user,
		"permissions": auth.RolePermissions[user.Role],
	}, middleware.GetRequestID(r.Context()))
}

// HandleLogout ends the caller's session. Tokens stay valid until expiry but
// /auth/me reports the session as ended.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Sessions.SignOut(r.Context(), actor.Code); err != nil {
		zap.L().Warn("sign out failed", zap.String("code", actor.Code), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to end session", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	user, ok, err := h.Sessions.CurrentUser(r.Context(), actor.Code)
	if err != nil {
		zap.L().Error("session lookup failed", zap.String("code", actor.Code), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to load session", middleware.GetRequestID(r.Context()))
		return
	}
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "session_ended", "no active session", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"user":        user,
		"permissions": auth.RolePermissions[user.Role],
	}, middleware.GetRequestID(r.Context()))
}
