package handler

import (
	"net/http"
	"time"

	"github.com/noteghar/noteghar/internal/ctxkeys"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Institution string `json:"institution"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password, req.Institution)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusOK, user)
}

// startSession issues a JWT both as a cookie and in the body so browser
// and bearer clients can use the same endpoints.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	Render(w, status, sessionResponse{User: user, Token: token, ExpiresAt: expiry})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	Render(w, http.StatusOK, ctxkeys.User(r.Context()))
}
