package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/photoshare/photoshare/internal/github"
	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/service"
)

// AuthHandler handles sign-in and account provisioning requests.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// userResponse is the public projection of a stored user. The access token
// is only ever returned as the top-level credential of an auth payload.
type userResponse struct {
	GithubLogin string `json:"githubLogin"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
}

// authResponse is the result of a successful sign-in.
type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		GithubLogin: user.GithubLogin,
		Name:        user.Name,
		Avatar:      user.Avatar,
	}
}

// githubAuthRequest is the body of POST /api/auth/github.
type githubAuthRequest struct {
	Code string `json:"code"`
}

// GithubAuth handles POST /api/auth/github.
func (h *AuthHandler) GithubAuth(w http.ResponseWriter, r *http.Request) {
	var req githubAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", "Authorization code is required")
		return
	}

	payload, err := h.svc.GithubAuth(r.Context(), req.Code)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_signed_in", "github_login", payload.User.GithubLogin)

	writeJSON(w, http.StatusOK, authResponse{User: toUserResponse(payload.User), Token: payload.Token})
}

// addSyntheticUsersRequest is the body of POST /api/users/synthetic.
type addSyntheticUsersRequest struct {
	Count int `json:"count"`
}

// addSyntheticUsersResponse lists the provisioned accounts.
type addSyntheticUsersResponse struct {
	Users []userResponse `json:"users"`
}

// AddSyntheticUsers handles POST /api/users/synthetic.
func (h *AuthHandler) AddSyntheticUsers(w http.ResponseWriter, r *http.Request) {
	var req addSyntheticUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Count <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", "Count must be positive")
		return
	}

	users, err := h.svc.AddSyntheticUsers(r.Context(), req.Count)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("synthetic_users_added", "count", len(users))

	resp := addSyntheticUsersResponse{Users: make([]userResponse, len(users))}
	for i, user := range users {
		resp.Users[i] = toUserResponse(user)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// existingUserAuthRequest is the body of POST /api/auth/user.
type existingUserAuthRequest struct {
	GithubLogin string `json:"github_login"`
}

// ExistingUserAuth handles POST /api/auth/user.
func (h *AuthHandler) ExistingUserAuth(w http.ResponseWriter, r *http.Request) {
	var req existingUserAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.GithubLogin == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_REJECTED", "github_login is required")
		return
	}

	payload, err := h.svc.AuthenticateAsExistingUser(r.Context(), req.GithubLogin)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserResponse(payload.User), Token: payload.Token})
}

func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error) {
	var exchangeErr *github.ExchangeError
	switch {
	case errors.As(err, &exchangeErr):
		writeError(w, http.StatusBadGateway, "AUTH_EXCHANGE_FAILED", exchangeErr.Message)
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "Downstream operation timed out")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
