package server

import (
	"net/http"

	"musiclib/core/auth"
	"musiclib/logger"
)

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.auth.Login(r.Context(), req)
	if err != nil {
		logger.Warn("[Login] 登录失败", logger.String("email", req.Email))
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ProfileHandler returns the signed-in user.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler changes name and avatar.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LogoutHandler revokes the presented token.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), claims); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
