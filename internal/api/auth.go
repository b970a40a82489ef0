package api

import (
	"net/http"
	"time"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	token, expires, err := h.Tokens.Issue(user)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
	})
}
