package authhandler

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Handler struct {
	Store  *auth.Store
	Audit  *audit.Service
	Secret string
}

func NewHandler(store *auth.Store, auditSvc *audit.Service, secret string) *Handler {
	return &Handler{Store: store, Audit: auditSvc, Secret: secret}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/refresh", h.handleRefresh)
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/change-password", h.handleChangePassword)
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	Role         string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "missing_credentials", "email and password are required", middleware.GetRequestID(r.Context()))
		return
	}

	user, err := h.Store.FindActiveUserByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(user.Password, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}

	response, err := h.issueTokens(r, user.ID, user.UnitID, user.Role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue tokens", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("last login update failed", "err", err)
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.ID, "auth.login", "user", user.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit auth.login failed", "err", err)
	}
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "refreshToken is required", middleware.GetRequestID(r.Context()))
		return
	}

	oldHash := hashToken(payload.RefreshToken)
	valid, err := h.Store.SessionValid(r.Context(), user.UserID, oldHash)
	if err != nil || !valid {
		api.Fail(w, http.StatusUnauthorized, "invalid_session", "session expired or revoked", middleware.GetRequestID(r.Context()))
		return
	}

	newRefresh, err := randomToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue tokens", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.RotateSession(r.Context(), user.UserID, oldHash, hashToken(newRefresh), time.Now().Add(refreshTokenTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to rotate session", middleware.GetRequestID(r.Context()))
		return
	}

	access, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: user.UserID, UnitID: user.UnitID, Role: user.Role}, accessTokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue tokens", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tokenResponse{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
		Role:         user.Role,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.RefreshToken != "" {
		if err := h.Store.RevokeSession(r.Context(), user.UserID, hashToken(payload.RefreshToken)); err != nil {
			slog.Warn("session revoke failed", "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.NewPassword) < 10 {
		api.Fail(w, http.StatusUnprocessableEntity, "weak_password", "password must be at least 10 characters", middleware.GetRequestID(r.Context()))
		return
	}

	// Re-verify the current password even though the caller holds a token.
	currentHash, err := h.Store.PasswordHashByID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "password_change_failed", "failed to change password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(currentHash, payload.CurrentPassword); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "password_change_failed", "failed to change password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateUserPassword(r.Context(), user.UserID, hash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "password_change_failed", "failed to change password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "auth.password.change", "user", user.UserID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit auth.password.change failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) issueTokens(r *http.Request, userID, unitID, role string) (tokenResponse, error) {
	access, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: userID, UnitID: unitID, Role: role}, accessTokenTTL)
	if err != nil {
		return tokenResponse{}, err
	}
	refresh, err := randomToken()
	if err != nil {
		return tokenResponse{}, err
	}
	if err := h.Store.CreateSession(r.Context(), userID, hashToken(refresh), time.Now().Add(refreshTokenTTL)); err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
		Role:         role,
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Refresh tokens are stored hashed so a database leak cannot replay them.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
